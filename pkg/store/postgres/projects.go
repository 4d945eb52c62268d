package postgres

import (
	"context"
	"slices"

	"github.com/Ramsey-B/sage/pkg/models"
)

// projectLinker saves projects after pointing each project skill at the
// profile skill with the same id, or else the same name. Skills the profile
// lacks are added to it.
type projectLinker struct {
	s *Store
}

func (l projectLinker) Save(ctx context.Context, profileID int64, p models.Project) (models.Project, error) {
	var out models.Project
	err := l.s.WithinTx(ctx, func(ctx context.Context) error {
		owned, err := l.s.skills.ListByProfile(ctx, profileID)
		if err != nil {
			return err
		}

		linked := make([]models.Skill, 0, len(p.Skills))
		seen := []int64{}
		for _, sk := range p.Skills {
			target, ok := findSkill(owned, sk)
			if !ok {
				sk.ID = 0
				if target, err = l.s.skills.Save(ctx, profileID, sk); err != nil {
					return err
				}
				owned = append(owned, target)
			}
			if !slices.Contains(seen, target.ID) {
				seen = append(seen, target.ID)
				linked = append(linked, target)
			}
		}

		roles := make([]models.NameEntity, 0, len(p.Roles))
		for _, r := range p.Roles {
			if !slices.ContainsFunc(roles, func(x models.NameEntity) bool { return x.ID == r.ID }) {
				roles = append(roles, r)
			}
		}

		p.Skills = linked
		p.Roles = roles
		out, err = l.s.projects.Save(ctx, profileID, p)
		return err
	})
	return out, err
}

func findSkill(owned []models.Skill, sk models.Skill) (models.Skill, bool) {
	if sk.ID != 0 {
		if i := slices.IndexFunc(owned, func(o models.Skill) bool { return o.ID == sk.ID }); i >= 0 {
			return owned[i], true
		}
	}
	if i := slices.IndexFunc(owned, func(o models.Skill) bool { return o.Key() == sk.Key() }); i >= 0 {
		return owned[i], true
	}
	return models.Skill{}, false
}

func (l projectLinker) FindByID(ctx context.Context, profileID, projectID int64) (*models.Project, error) {
	return l.s.projects.FindByID(ctx, profileID, projectID)
}

func (l projectLinker) Delete(ctx context.Context, profileID, projectID int64) error {
	return l.s.projects.Delete(ctx, profileID, projectID)
}
