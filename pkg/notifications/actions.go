package notifications

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	sageerrors "github.com/Ramsey-B/sage/pkg/errors"
	"github.com/Ramsey-B/sage/pkg/models"
)

// actionFunc runs inside the action's unit of work and returns the profiles
// it rewrote.
type actionFunc func(ctx context.Context, c *Center, n models.Notification, payload *models.NotificationRecord) ([]models.Profile, error)

type actionSet struct {
	ok, delete, edit actionFunc
}

func (s actionSet) pick(a Action) actionFunc {
	switch a {
	case ActionOk:
		return s.ok
	case ActionDelete:
		return s.delete
	case ActionEdit:
		return s.edit
	}
	return nil
}

// actions is the per-variant dispatch table. A nil entry means the variant
// does not support the action.
var actions = map[models.NotificationKind]actionSet{
	models.KindProfileEntry: {
		ok:     acknowledge,
		delete: deleteReferenceValue,
		edit:   editReferenceValue,
	},
	models.KindSkill: {
		ok:     acknowledge,
		delete: deleteSkill,
		edit:   renameSkill,
	},
	models.KindProfileUpdated: {
		ok: acknowledge,
	},
	models.KindProject: {
		ok:     acknowledge,
		delete: inert,
		edit:   inert,
	},
}

func acknowledge(ctx context.Context, c *Center, n models.Notification, _ *models.NotificationRecord) ([]models.Profile, error) {
	return nil, c.store.Notifications().Delete(ctx, n.Header().ID)
}

// inert accepts the action and changes nothing.
func inert(context.Context, *Center, models.Notification, *models.NotificationRecord) ([]models.Profile, error) {
	return nil, nil
}

// deleteReferenceValue removes the flagged reference value from every profile
// that uses it, then deletes the notification and the value itself.
func deleteReferenceValue(ctx context.Context, c *Center, n models.Notification, _ *models.NotificationRecord) ([]models.Profile, error) {
	pn := n.(*models.ProfileEntryNotification)
	target := pn.NameEntity.ID

	referencing, err := c.store.Profiles().FindReferencing(ctx, target)
	if err != nil {
		return nil, err
	}

	saved := make([]models.Profile, 0, len(referencing))
	for _, p := range referencing {
		for _, cat := range models.EntryCategories {
			kept := make([]models.ProfileEntry, 0, len(p.Entries(cat)))
			for _, e := range p.Entries(cat) {
				if e.NameEntity == nil || e.NameEntity.ID != target {
					kept = append(kept, e)
				}
			}
			p.SetEntries(cat, kept)
		}
		out, err := c.store.Profiles().Save(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("failed to save profile %d: %w", p.ID, err)
		}
		saved = append(saved, out)
	}

	if err := c.store.Notifications().Delete(ctx, pn.ID); err != nil {
		return nil, err
	}
	if err := c.store.NameEntities().Delete(ctx, target); err != nil {
		return nil, err
	}
	return saved, nil
}

// editReferenceValue applies a corrected name. When a value with that name
// already exists in the category, entries move to it and the original is
// discarded. Otherwise the original is renamed in place.
func editReferenceValue(ctx context.Context, c *Center, n models.Notification, payload *models.NotificationRecord) ([]models.Profile, error) {
	pn := n.(*models.ProfileEntryNotification)
	if payload == nil || payload.NameEntity == nil || strings.TrimSpace(payload.NameEntity.Name) == "" {
		return nil, sageerrors.BadRequest("nameEntity with a name is required")
	}
	newName := strings.TrimSpace(payload.NameEntity.Name)

	original, err := c.store.NameEntities().FindByID(ctx, pn.NameEntity.ID)
	if err != nil {
		return nil, err
	}
	if original == nil {
		return nil, sageerrors.NotFound("NameEntity with id: %d was not found!", pn.NameEntity.ID)
	}

	target, err := c.store.NameEntities().FindByNameAndCategory(ctx, newName, original.Category)
	if err != nil {
		return nil, err
	}

	if err := c.store.Notifications().Delete(ctx, pn.ID); err != nil {
		return nil, err
	}

	resultID := original.ID
	switch {
	case target != nil && target.ID == original.ID:
		// Same value: nothing to correct.
	case target != nil:
		if err := c.mergeReferenceValue(ctx, *original, *target); err != nil {
			return nil, err
		}
		resultID = target.ID
	default:
		corrected := *original
		corrected.Name = newName
		if err := c.store.NameEntities().Update(ctx, corrected); err != nil {
			return nil, err
		}
	}

	return c.store.Profiles().FindReferencing(ctx, resultID)
}

// mergeReferenceValue moves every entry from original onto target. A profile
// that already holds target keeps its first entry for it and drops the rest.
func (c *Center) mergeReferenceValue(ctx context.Context, original, target models.NameEntity) error {
	referencing, err := c.store.Profiles().FindReferencing(ctx, original.ID)
	if err != nil {
		return err
	}

	for _, p := range referencing {
		for _, cat := range models.EntryCategories {
			seen := map[string]bool{}
			kept := make([]models.ProfileEntry, 0, len(p.Entries(cat)))
			for _, e := range p.Entries(cat) {
				if e.NameEntity != nil && e.NameEntity.ID == original.ID {
					moved := target
					e.NameEntity = &moved
				}
				key := entryKey(cat, e)
				if seen[key] {
					continue
				}
				seen[key] = true
				kept = append(kept, e)
			}
			p.SetEntries(cat, kept)
		}
		if _, err := c.store.Profiles().Save(ctx, p); err != nil {
			return fmt.Errorf("failed to save profile %d: %w", p.ID, err)
		}
	}

	return c.store.NameEntities().Delete(ctx, original.ID)
}

// entryKey identifies an entry within one category: its reference value, and
// for education also the degree.
func entryKey(cat models.Category, e models.ProfileEntry) string {
	id := int64(0)
	if e.NameEntity != nil {
		id = e.NameEntity.ID
	}
	if cat == models.CategoryEducation {
		return fmt.Sprintf("%d\x00%s", id, e.Degree)
	}
	return strconv.FormatInt(id, 10)
}

// deleteSkill removes every skill with the flagged name from every profile
// and project, then drops all notifications about that name.
func deleteSkill(ctx context.Context, c *Center, n models.Notification, _ *models.NotificationRecord) ([]models.Profile, error) {
	sn := n.(*models.SkillNotification)
	name := sn.Skill.Name

	all, err := c.store.Profiles().FindAll(ctx)
	if err != nil {
		return nil, err
	}

	saved := []models.Profile{}
	for _, p := range all {
		changed := false
		p.Skills, changed = withoutSkill(p.Skills, name, changed)
		for i := range p.Projects {
			p.Projects[i].Skills, changed = withoutSkill(p.Projects[i].Skills, name, changed)
		}
		if !changed {
			continue
		}
		out, err := c.store.Profiles().Save(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("failed to save profile %d: %w", p.ID, err)
		}
		saved = append(saved, out)
	}

	if _, err := c.store.Notifications().DeleteBySkillName(ctx, name); err != nil {
		return nil, err
	}
	return saved, nil
}

func withoutSkill(skills []models.Skill, name string, changed bool) ([]models.Skill, bool) {
	out := make([]models.Skill, 0, len(skills))
	for _, s := range skills {
		if s.Name == name {
			changed = true
			continue
		}
		out = append(out, s)
	}
	return out, changed
}

// renameSkill renames the flagged skill everywhere to the proposed name.
func renameSkill(ctx context.Context, c *Center, n models.Notification, payload *models.NotificationRecord) ([]models.Profile, error) {
	sn := n.(*models.SkillNotification)

	newName := sn.NewName
	if payload != nil && strings.TrimSpace(payload.NewName) != "" {
		newName = payload.NewName
	}
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, sageerrors.BadRequest("newName is required")
	}
	if c.renamer == nil {
		return nil, &sageerrors.UnsupportedActionError{Kind: string(sn.Kind()), Action: string(ActionEdit)}
	}

	profiles, err := c.renamer.Apply(ctx, sn.Skill.Name, newName)
	if err != nil {
		return nil, err
	}
	if err := c.store.Notifications().Delete(ctx, sn.ID); err != nil {
		return nil, err
	}
	return profiles, nil
}
