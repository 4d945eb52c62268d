// Package entries implements fine-grained edits of a single profile: its base
// fields, one entry, one skill or one project at a time.
package entries

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	sagecontext "github.com/Ramsey-B/sage/pkg/context"
	sageerrors "github.com/Ramsey-B/sage/pkg/errors"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/reconcile"
	"github.com/Ramsey-B/sage/pkg/store"
	"github.com/Ramsey-B/sage/pkg/tracing"
)

type Service struct {
	store     store.Store
	refs      *reconcile.ReferenceResolver
	skills    *reconcile.SkillResolver
	validator *reconcile.EntryValidator
	sink      reconcile.NotificationSink
	settings  reconcile.Settings
	hooks     []reconcile.Hook
	logger    ectologger.Logger
}

func NewService(st store.Store, c reconcile.Classifier, sink reconcile.NotificationSink, settings reconcile.Settings, logger ectologger.Logger, hooks ...reconcile.Hook) *Service {
	return &Service{
		store:     st,
		refs:      reconcile.NewReferenceResolver(st.NameEntities(), logger),
		skills:    reconcile.NewSkillResolver(st.Skills(), c, logger),
		validator: reconcile.NewEntryValidator(settings),
		sink:      sink,
		settings:  settings,
		hooks:     hooks,
		logger:    logger,
	}
}

// edit runs fn as one unit of work on an existing profile, stamps the
// profile's last-edited time, raises whatever fn queued and notifies hooks
// after commit.
func (s *Service) edit(ctx context.Context, profileID int64, op string, fn func(ctx context.Context) ([]models.Notification, error)) error {
	ctx = sagecontext.SetProfileID(ctx, profileID)

	var raised []models.Notification
	var reloaded *models.Profile
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.store.Profiles().FindByID(ctx, profileID)
		if err != nil {
			return err
		}
		if existing == nil {
			return sageerrors.NotFound("Profile with id: %d was not found!", profileID)
		}

		queued, err := fn(ctx)
		if err != nil {
			return err
		}
		if err := s.store.Profiles().Touch(ctx, profileID, time.Now()); err != nil {
			return err
		}
		if raised, err = s.sink.RaiseAll(ctx, queued); err != nil {
			return err
		}
		reloaded, err = s.store.Profiles().FindByID(ctx, profileID)
		return err
	})
	if err != nil {
		if sageerrors.StatusCode(err) >= 500 {
			s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"profile_id": profileID,
				"operation":  op,
			}).Error("profile edit failed, rolled back")
		}
		return err
	}

	if reloaded != nil {
		for _, h := range s.hooks {
			if err := h.AfterImport(ctx, reconcile.Result{Profile: *reloaded, Notifications: raised}); err != nil {
				s.logger.WithContext(ctx).WithError(err).Warnf("profile edit hook %T failed", h)
			}
		}
	}
	return nil
}

// UpdateBaseProfile replaces the profile description.
func (s *Service) UpdateBaseProfile(ctx context.Context, profileID int64, base models.BaseProfile) (models.Profile, error) {
	ctx, span := tracing.StartSpan(ctx, "EntryService.UpdateBaseProfile")
	defer span.End()

	if msgs := s.validator.Validate(models.Profile{Description: base.Description}); len(msgs) > 0 {
		return models.Profile{}, sageerrors.NewValidationError(msgs)
	}

	var out models.Profile
	err := s.edit(ctx, profileID, "update_base", func(ctx context.Context) ([]models.Notification, error) {
		p, err := s.store.Profiles().FindByID(ctx, profileID)
		if err != nil {
			return nil, err
		}
		p.Description = base.Description
		now := time.Now().UTC()
		p.LastEdited = &now
		out, err = s.store.Profiles().Save(ctx, *p)
		return nil, err
	})
	return out, err
}

// UpdateEntry creates or updates one entry in the category's collection.
func (s *Service) UpdateEntry(ctx context.Context, profileID int64, category models.Category, entry models.ProfileEntry) (models.ProfileEntry, error) {
	ctx, span := tracing.StartSpan(ctx, "EntryService.UpdateEntry")
	defer span.End()

	if !category.IsEntryCategory() {
		return models.ProfileEntry{}, sageerrors.BadRequest(fmt.Sprintf("%s is not a profile entry category", category))
	}
	if entry.NameEntity == nil || strings.TrimSpace(entry.NameEntity.Name) == "" {
		return models.ProfileEntry{}, sageerrors.BadRequest("nameEntity with a name is required")
	}
	probe := models.Profile{}
	probe.SetEntries(category, []models.ProfileEntry{entry})
	if msgs := s.validator.Validate(probe); len(msgs) > 0 {
		return models.ProfileEntry{}, sageerrors.NewValidationError(msgs)
	}

	var out models.ProfileEntry
	err := s.edit(ctx, profileID, "update_entry", func(ctx context.Context) ([]models.Notification, error) {
		if entry.ID != 0 {
			ref, err := s.store.Entries().FindByID(ctx, entry.ID)
			if err != nil {
				return nil, err
			}
			if ref == nil || ref.ProfileID != profileID || ref.Category != category {
				return nil, sageerrors.NotFound("Entry with id: %d was not found!", entry.ID)
			}
		}

		ne, created, err := s.refs.Resolve(ctx, entry.NameEntity, category)
		if err != nil {
			return nil, err
		}
		entry.NameEntity = ne

		p, err := s.store.Profiles().FindByID(ctx, profileID)
		if err != nil {
			return nil, err
		}
		for _, e := range p.Entries(category) {
			if e.ID != entry.ID && e.NameEntity != nil && e.NameEntity.ID == ne.ID &&
				(category != models.CategoryEducation || e.Degree == entry.Degree) {
				return nil, sageerrors.BadRequest(fmt.Sprintf("%s '%s' is already part of the profile!", category.EntryKind(), ne.Name))
			}
		}

		out, err = s.store.Entries().Save(ctx, profileID, category, entry)
		if err != nil {
			return nil, err
		}
		if created {
			return []models.Notification{models.NewProfileEntryNotification(profileID, out.ID, *ne)}, nil
		}
		return nil, nil
	})
	return out, err
}

func (s *Service) DeleteEntry(ctx context.Context, profileID int64, category models.Category, entryID int64) error {
	ctx, span := tracing.StartSpan(ctx, "EntryService.DeleteEntry")
	defer span.End()

	return s.edit(ctx, profileID, "delete_entry", func(ctx context.Context) ([]models.Notification, error) {
		ref, err := s.store.Entries().FindByID(ctx, entryID)
		if err != nil {
			return nil, err
		}
		if ref == nil || ref.ProfileID != profileID || ref.Category != category {
			return nil, sageerrors.NotFound("Entry with id: %d was not found!", entryID)
		}
		return nil, s.store.Entries().Delete(ctx, entryID)
	})
}

// UpdateSkill sets the rating of the profile skill with the same name, or
// classifies and adds the skill when the profile does not have it.
func (s *Service) UpdateSkill(ctx context.Context, profileID int64, skill models.Skill) (models.Skill, error) {
	ctx, span := tracing.StartSpan(ctx, "EntryService.UpdateSkill")
	defer span.End()

	skill.Name = strings.TrimSpace(skill.Name)
	if skill.Name == "" {
		return models.Skill{}, sageerrors.BadRequest("skill name is required")
	}

	var out models.Skill
	err := s.edit(ctx, profileID, "update_skill", func(ctx context.Context) ([]models.Notification, error) {
		p, err := s.store.Profiles().FindByID(ctx, profileID)
		if err != nil {
			return nil, err
		}
		if existing, ok := p.SkillByKey(skill.Key()); ok {
			existing.Rating = skill.Rating
			if skill.Versions != nil {
				existing.Versions = skill.Versions
			}
			out, err = s.store.Skills().Save(ctx, profileID, existing)
			return nil, err
		}

		skill.ID = 0
		res, _, err := s.skills.ResolveProfileSkill(ctx, profileID, skill, reconcile.NewSkillIndex(nil))
		if err != nil {
			return nil, err
		}
		out = res.Skill
		if res.Notification != nil {
			return []models.Notification{res.Notification}, nil
		}
		return nil, nil
	})
	return out, err
}

func (s *Service) DeleteSkill(ctx context.Context, profileID, skillID int64) error {
	ctx, span := tracing.StartSpan(ctx, "EntryService.DeleteSkill")
	defer span.End()

	return s.edit(ctx, profileID, "delete_skill", func(ctx context.Context) ([]models.Notification, error) {
		existing, err := s.store.Skills().FindByID(ctx, profileID, skillID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, sageerrors.NotFound("Skill with id: %d was not found!", skillID)
		}
		return nil, s.store.Skills().Delete(ctx, profileID, skillID)
	})
}

// UpdateProject creates or updates one project. Its references are resolved
// and any skill the profile lacks is added to the profile.
func (s *Service) UpdateProject(ctx context.Context, profileID int64, project models.Project) (models.Project, error) {
	ctx, span := tracing.StartSpan(ctx, "EntryService.UpdateProject")
	defer span.End()

	if msgs := s.validator.Validate(models.Profile{Projects: []models.Project{project}}); len(msgs) > 0 {
		return models.Project{}, sageerrors.NewValidationError(msgs)
	}

	var out models.Project
	err := s.edit(ctx, profileID, "update_project", func(ctx context.Context) ([]models.Notification, error) {
		if project.ID != 0 {
			existing, err := s.store.Projects().FindByID(ctx, profileID, project.ID)
			if err != nil {
				return nil, err
			}
			if existing == nil {
				return nil, sageerrors.NotFound("Project with id: %d was not found!", project.ID)
			}
		}

		p, err := s.store.Profiles().FindByID(ctx, profileID)
		if err != nil {
			return nil, err
		}

		if project.Client, _, err = s.refs.Resolve(ctx, project.Client, models.CategoryCompany); err != nil {
			return nil, err
		}
		if project.Broker, _, err = s.refs.Resolve(ctx, project.Broker, models.CategoryCompany); err != nil {
			return nil, err
		}
		roles := make([]models.NameEntity, 0, len(project.Roles))
		seen := map[int64]bool{}
		for i := range project.Roles {
			if strings.TrimSpace(project.Roles[i].Name) == "" {
				continue
			}
			role, _, err := s.refs.Resolve(ctx, &project.Roles[i], models.CategoryProjectRole)
			if err != nil {
				return nil, err
			}
			if !seen[role.ID] {
				seen[role.ID] = true
				roles = append(roles, *role)
			}
		}
		project.Roles = roles

		ix := reconcile.NewSkillIndex(p.Skills)
		for _, sk := range p.Skills {
			ix = ix.With(sk)
		}
		var queued []models.Notification
		linked := make([]models.Skill, 0, len(project.Skills))
		for _, sk := range project.Skills {
			if strings.TrimSpace(sk.Name) == "" {
				continue
			}
			res, next, err := s.skills.ResolveProjectSkill(ctx, profileID, sk, ix)
			if err != nil {
				return nil, err
			}
			ix = next
			linked = append(linked, res.Skill)
			if res.Notification != nil {
				queued = append(queued, res.Notification)
			}
		}
		// Persist ratings raised by the max-wins merge.
		for _, sk := range ix.Skills() {
			if stored, ok := p.SkillByKey(sk.Key()); ok && stored.Rating != sk.Rating {
				if _, err := s.store.Skills().Save(ctx, profileID, sk); err != nil {
					return nil, err
				}
			}
		}
		project.Skills = linked

		out, err = s.store.Projects().Save(ctx, profileID, project)
		return queued, err
	})
	return out, err
}

func (s *Service) DeleteProject(ctx context.Context, profileID, projectID int64) error {
	ctx, span := tracing.StartSpan(ctx, "EntryService.DeleteProject")
	defer span.End()

	return s.edit(ctx, profileID, "delete_project", func(ctx context.Context) ([]models.Notification, error) {
		existing, err := s.store.Projects().FindByID(ctx, profileID, projectID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, sageerrors.NotFound("Project with id: %d was not found!", projectID)
		}
		return nil, s.store.Projects().Delete(ctx, profileID, projectID)
	})
}
