package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Ramsey-B/sage/internal/repositories/profile"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/tracing"
)

// profiles assembles the profile graph from the per-table repositories.
type profiles struct {
	s *Store
}

func (p *profiles) Create(ctx context.Context) (models.Profile, error) {
	row, err := p.s.profileRows.Create(ctx)
	if err != nil {
		return models.Profile{}, err
	}
	out, err := p.FindByID(ctx, row.ID)
	if err != nil {
		return models.Profile{}, err
	}
	return *out, nil
}

func (p *profiles) FindByID(ctx context.Context, id int64) (*models.Profile, error) {
	ctx, span := tracing.StartSpan(ctx, "ProfileStore.FindByID")
	defer span.End()

	row, err := p.s.profileRows.FindByID(ctx, id)
	if err != nil || row == nil {
		return nil, err
	}

	out := models.Profile{ID: row.ID, Description: row.Description}
	if row.LastEdited.Valid {
		t := row.LastEdited.Time.UTC()
		out.LastEdited = &t
	}

	entries, err := p.s.entries.ListByProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, c := range models.EntryCategories {
		list := entries[c]
		if list == nil {
			list = []models.ProfileEntry{}
		}
		out.SetEntries(c, list)
	}

	if out.Skills, err = p.s.skills.ListByProfile(ctx, id); err != nil {
		return nil, err
	}
	if out.Projects, err = p.s.projects.ListByProfile(ctx, id); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *profiles) FindAll(ctx context.Context) ([]models.Profile, error) {
	ids, err := p.s.profileRows.ListIDs(ctx)
	if err != nil {
		return nil, err
	}
	return p.load(ctx, ids)
}

func (p *profiles) FindReferencing(ctx context.Context, nameEntityID int64) ([]models.Profile, error) {
	ids, err := p.s.entries.ProfilesReferencing(ctx, nameEntityID)
	if err != nil {
		return nil, err
	}
	return p.load(ctx, ids)
}

func (p *profiles) load(ctx context.Context, ids []int64) ([]models.Profile, error) {
	out := make([]models.Profile, 0, len(ids))
	for _, id := range ids {
		prof, err := p.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if prof != nil {
			out = append(out, *prof)
		}
	}
	return out, nil
}

// Save writes the whole graph in one unit of work and prunes the children
// the submitted profile no longer holds.
func (p *profiles) Save(ctx context.Context, in models.Profile) (models.Profile, error) {
	ctx, span := tracing.StartSpan(ctx, "ProfileStore.Save")
	defer span.End()

	var out models.Profile
	err := p.s.WithinTx(ctx, func(ctx context.Context) error {
		row := profile.ProfileRow{ID: in.ID, Description: in.Description}
		if in.LastEdited != nil {
			row.LastEdited = sql.NullTime{Time: in.LastEdited.UTC(), Valid: true}
		}
		found, err := p.s.profileRows.Update(ctx, row)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("profile %d does not exist", in.ID)
		}

		keepEntries := []int64{}
		for _, c := range models.EntryCategories {
			for _, e := range in.Entries(c) {
				if e.NameEntity == nil {
					continue
				}
				saved, err := p.s.entries.Save(ctx, in.ID, c, e)
				if err != nil {
					return err
				}
				keepEntries = append(keepEntries, saved.ID)
			}
		}
		if err := p.s.entries.DeleteExcept(ctx, in.ID, keepEntries); err != nil {
			return err
		}

		keepSkills := []int64{}
		for _, sk := range in.Skills {
			saved, err := p.s.skills.Save(ctx, in.ID, sk)
			if err != nil {
				return err
			}
			keepSkills = append(keepSkills, saved.ID)
		}
		if err := p.s.skills.DeleteExcept(ctx, in.ID, keepSkills); err != nil {
			return err
		}

		keepProjects := []int64{}
		linker := projectLinker{s: p.s}
		for _, pr := range in.Projects {
			saved, err := linker.Save(ctx, in.ID, pr)
			if err != nil {
				return err
			}
			keepProjects = append(keepProjects, saved.ID)
		}
		if err := p.s.projects.DeleteExcept(ctx, in.ID, keepProjects); err != nil {
			return err
		}

		saved, err := p.FindByID(ctx, in.ID)
		if err != nil {
			return err
		}
		out = *saved
		return nil
	})
	return out, err
}

func (p *profiles) Touch(ctx context.Context, id int64, at time.Time) error {
	found, err := p.s.profileRows.Touch(ctx, id, at)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("profile %d does not exist", id)
	}
	return nil
}

func (p *profiles) Delete(ctx context.Context, id int64) error {
	_, err := p.s.profileRows.Delete(ctx, id)
	return err
}
