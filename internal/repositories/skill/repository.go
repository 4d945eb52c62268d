package skill

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/sage/pkg/database"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/tracing"
	"github.com/lib/pq"
)

type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Save updates the profile's skill with s.ID, or inserts a new row when the
// profile has no such skill.
func (r *Repository) Save(ctx context.Context, profileID int64, s models.Skill) (models.Skill, error) {
	ctx, span := tracing.StartSpan(ctx, "SkillRepository.Save")
	defer span.End()

	row := FromSkill(profileID, s)

	if s.ID != 0 {
		ub := database.NewUpdateBuilder()
		ub.Update(tableName)
		ub.Set(
			ub.Assign("name", row.Name),
			ub.Assign("rating", row.Rating),
			ub.Assign("versions", row.Versions),
		)
		ub.Where(
			ub.Equal("id", s.ID),
			ub.Equal("profile_id", profileID),
		)

		query, args := ub.Build()

		res, err := r.db.Conn(ctx).ExecContext(ctx, query, args...)
		if err != nil {
			r.logger.WithContext(ctx).WithError(err).WithField("skill_id", s.ID).Error("failed to update skill")
			return models.Skill{}, fmt.Errorf("failed to update skill: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			return ToSkill(row), nil
		}
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(tableName)
	ib.Cols("profile_id", "name", "rating", "versions")
	ib.Values(profileID, row.Name, row.Rating, row.Versions)
	ib.SQL("RETURNING id")

	query, args := ib.Build()

	if err := r.db.Conn(ctx).GetContext(ctx, &row.ID, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"profile_id": profileID,
			"name":       s.Name,
		}).Error("failed to create skill")
		return models.Skill{}, fmt.Errorf("failed to create skill: %w", err)
	}
	return ToSkill(row), nil
}

func (r *Repository) FindByID(ctx context.Context, profileID, skillID int64) (*models.Skill, error) {
	ctx, span := tracing.StartSpan(ctx, "SkillRepository.FindByID")
	defer span.End()

	sb := skillStruct.SelectFrom(tableName)
	sb.Where(
		sb.Equal("id", skillID),
		sb.Equal("profile_id", profileID),
	)

	query, args := sb.Build()

	var row SkillRow
	if err := r.db.Conn(ctx).GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithField("skill_id", skillID).Error("failed to get skill")
		return nil, fmt.Errorf("failed to get skill: %w", err)
	}
	s := ToSkill(row)
	return &s, nil
}

func (r *Repository) ListByProfile(ctx context.Context, profileID int64) ([]models.Skill, error) {
	ctx, span := tracing.StartSpan(ctx, "SkillRepository.ListByProfile")
	defer span.End()

	sb := skillStruct.SelectFrom(tableName)
	sb.Where(sb.Equal("profile_id", profileID))
	sb.OrderBy("id ASC")

	return r.list(ctx, sb.Build)
}

// FindAllByName returns every skill, across profiles, with exactly this name.
func (r *Repository) FindAllByName(ctx context.Context, name string) ([]models.Skill, error) {
	ctx, span := tracing.StartSpan(ctx, "SkillRepository.FindAllByName")
	defer span.End()

	sb := skillStruct.SelectFrom(tableName)
	sb.Where(sb.Equal("name", name))
	sb.OrderBy("id ASC")

	return r.list(ctx, sb.Build)
}

func (r *Repository) list(ctx context.Context, build func() (string, []any)) ([]models.Skill, error) {
	query, args := build()

	var rows []SkillRow
	if err := r.db.Conn(ctx).SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list skills")
		return nil, fmt.Errorf("failed to list skills: %w", err)
	}
	return ToSkills(rows), nil
}

// ListNames returns the distinct skill names in use, sorted.
func (r *Repository) ListNames(ctx context.Context) ([]string, error) {
	ctx, span := tracing.StartSpan(ctx, "SkillRepository.ListNames")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("DISTINCT name")
	sb.From(tableName)
	sb.OrderBy("name ASC")

	query, args := sb.Build()

	names := []string{}
	if err := r.db.Conn(ctx).SelectContext(ctx, &names, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list skill names")
		return nil, fmt.Errorf("failed to list skill names: %w", err)
	}
	return names, nil
}

// Delete removes the skill and unlinks it from the profile's projects.
func (r *Repository) Delete(ctx context.Context, profileID, skillID int64) error {
	ctx, span := tracing.StartSpan(ctx, "SkillRepository.Delete")
	defer span.End()

	db := database.NewDeleteBuilder()
	db.DeleteFrom(tableName)
	db.Where(
		db.Equal("id", skillID),
		db.Equal("profile_id", profileID),
	)

	query, args := db.Build()

	if _, err := r.db.Conn(ctx).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("skill_id", skillID).Error("failed to delete skill")
		return fmt.Errorf("failed to delete skill: %w", err)
	}
	return nil
}

// DeleteExcept removes the profile's skills whose ids are not in keep.
func (r *Repository) DeleteExcept(ctx context.Context, profileID int64, keep []int64) error {
	ctx, span := tracing.StartSpan(ctx, "SkillRepository.DeleteExcept")
	defer span.End()

	db := database.NewDeleteBuilder()
	db.DeleteFrom(tableName)
	db.Where(db.Equal("profile_id", profileID))
	db.Where(fmt.Sprintf("NOT (id = ANY(%s))", db.Var(pq.Array(keep))))

	query, args := db.Build()

	if _, err := r.db.Conn(ctx).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("profile_id", profileID).Error("failed to prune skills")
		return fmt.Errorf("failed to prune skills: %w", err)
	}
	return nil
}
