package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/sage/pkg/database"
	"github.com/Ramsey-B/sage/pkg/tracing"
)

const tableName = "profiles"

// ProfileRow holds the base fields of a profile. Its collections live in
// their own tables.
type ProfileRow struct {
	ID          int64        `db:"id"`
	Description string       `db:"description"`
	LastEdited  sql.NullTime `db:"last_edited"`
}

var profileStruct = database.NewStruct(new(ProfileRow))

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

func (r *Repository) Create(ctx context.Context) (ProfileRow, error) {
	ctx, span := tracing.StartSpan(ctx, "ProfileRepository.Create")
	defer span.End()

	ib := database.NewInsertBuilder()
	ib.InsertInto(tableName)
	ib.Cols("description", "last_edited")
	ib.Values("", time.Now().UTC())
	ib.SQL("RETURNING id")

	query, args := ib.Build()

	var row ProfileRow
	if err := r.db.Conn(ctx).GetContext(ctx, &row.ID, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to create profile")
		return ProfileRow{}, fmt.Errorf("failed to create profile: %w", err)
	}

	r.logger.WithContext(ctx).WithField("profile_id", row.ID).Info("created profile")
	return row, nil
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*ProfileRow, error) {
	ctx, span := tracing.StartSpan(ctx, "ProfileRepository.FindByID")
	defer span.End()

	sb := profileStruct.SelectFrom(tableName)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	var row ProfileRow
	if err := r.db.Conn(ctx).GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithField("profile_id", id).Error("failed to get profile")
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &row, nil
}

func (r *Repository) ListIDs(ctx context.Context) ([]int64, error) {
	ctx, span := tracing.StartSpan(ctx, "ProfileRepository.ListIDs")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("id")
	sb.From(tableName)
	sb.OrderBy("id ASC")

	query, args := sb.Build()

	ids := []int64{}
	if err := r.db.Conn(ctx).SelectContext(ctx, &ids, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list profiles")
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return ids, nil
}

// Update writes the base fields and reports whether the profile exists.
func (r *Repository) Update(ctx context.Context, row ProfileRow) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "ProfileRepository.Update")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update(tableName)
	ub.Set(ub.Assign("description", row.Description))
	if row.LastEdited.Valid {
		ub.SetMore(ub.Assign("last_edited", row.LastEdited.Time))
	}
	ub.Where(ub.Equal("id", row.ID))

	return r.exec(ctx, ub.Build, "failed to update profile")
}

func (r *Repository) Touch(ctx context.Context, id int64, at time.Time) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "ProfileRepository.Touch")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update(tableName)
	ub.Set(ub.Assign("last_edited", at.UTC()))
	ub.Where(ub.Equal("id", id))

	return r.exec(ctx, ub.Build, "failed to touch profile")
}

func (r *Repository) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "ProfileRepository.Delete")
	defer span.End()

	db := database.NewDeleteBuilder()
	db.DeleteFrom(tableName)
	db.Where(db.Equal("id", id))

	return r.exec(ctx, db.Build, "failed to delete profile")
}

func (r *Repository) exec(ctx context.Context, build func() (string, []any), msg string) (bool, error) {
	query, args := build()

	res, err := r.db.Conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error(msg)
		return false, fmt.Errorf("%s: %w", msg, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
