package profileentry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/sage/pkg/database"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/store"
	"github.com/Ramsey-B/sage/pkg/tracing"
	"github.com/huandu/go-sqlbuilder"
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

func selectEntries() *sqlbuilder.SelectBuilder {
	sb := database.NewSelectBuilder()
	sb.Select(selectColumns...)
	sb.From(sb.As(tableName, "e"))
	sb.Join(sb.As(nameEntityTable, "n"), "n.id = e.name_entity_id")
	return sb
}

// Save updates the entry when the profile owns e.ID and inserts it otherwise.
// The entry's reference value must already be resolved.
func (r *Repository) Save(ctx context.Context, profileID int64, category models.Category, e models.ProfileEntry) (models.ProfileEntry, error) {
	ctx, span := tracing.StartSpan(ctx, "ProfileEntryRepository.Save")
	defer span.End()

	if e.NameEntity == nil || e.NameEntity.ID == 0 {
		return models.ProfileEntry{}, fmt.Errorf("entry references an unresolved name entity")
	}

	if e.ID != 0 {
		ub := database.NewUpdateBuilder()
		ub.Update(tableName)
		ub.Set(
			ub.Assign("category", category),
			ub.Assign("name_entity_id", e.NameEntity.ID),
			ub.Assign("degree", e.Degree),
			ub.Assign("level", string(e.Level)),
			ub.Assign("entry_date", e.Date),
			ub.Assign("start_date", e.StartDate),
			ub.Assign("end_date", e.EndDate),
		)
		ub.Where(
			ub.Equal("id", e.ID),
			ub.Equal("profile_id", profileID),
		)

		query, args := ub.Build()

		res, err := r.db.Conn(ctx).ExecContext(ctx, query, args...)
		if err != nil {
			r.logger.WithContext(ctx).WithError(err).WithField("entry_id", e.ID).Error("failed to update profile entry")
			return models.ProfileEntry{}, fmt.Errorf("failed to update profile entry: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			return e.Clone(), nil
		}
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(tableName)
	ib.Cols("profile_id", "category", "name_entity_id", "degree", "level", "entry_date", "start_date", "end_date")
	ib.Values(profileID, category, e.NameEntity.ID, e.Degree, string(e.Level), e.Date, e.StartDate, e.EndDate)
	ib.SQL("RETURNING id")

	query, args := ib.Build()

	out := e.Clone()
	if err := r.db.Conn(ctx).GetContext(ctx, &out.ID, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"profile_id": profileID,
			"category":   category,
		}).Error("failed to create profile entry")
		return models.ProfileEntry{}, fmt.Errorf("failed to create profile entry: %w", err)
	}
	return out, nil
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*store.EntryRef, error) {
	ctx, span := tracing.StartSpan(ctx, "ProfileEntryRepository.FindByID")
	defer span.End()

	sb := selectEntries()
	sb.Where(sb.Equal("e.id", id))

	query, args := sb.Build()

	var row EntryRow
	if err := r.db.Conn(ctx).GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithField("entry_id", id).Error("failed to get profile entry")
		return nil, fmt.Errorf("failed to get profile entry: %w", err)
	}
	return &store.EntryRef{ProfileID: row.ProfileID, Category: row.Category, Entry: ToEntry(row)}, nil
}

// ListByProfile returns the profile's entries grouped by category, each group
// in id order.
func (r *Repository) ListByProfile(ctx context.Context, profileID int64) (map[models.Category][]models.ProfileEntry, error) {
	ctx, span := tracing.StartSpan(ctx, "ProfileEntryRepository.ListByProfile")
	defer span.End()

	sb := selectEntries()
	sb.Where(sb.Equal("e.profile_id", profileID))
	sb.OrderBy("e.id ASC")

	query, args := sb.Build()

	var rows []EntryRow
	if err := r.db.Conn(ctx).SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("profile_id", profileID).Error("failed to list profile entries")
		return nil, fmt.Errorf("failed to list profile entries: %w", err)
	}

	out := map[models.Category][]models.ProfileEntry{}
	for _, row := range rows {
		out[row.Category] = append(out[row.Category], ToEntry(row))
	}
	return out, nil
}

// ProfilesReferencing returns the ids of profiles with an entry pointing at
// the reference value.
func (r *Repository) ProfilesReferencing(ctx context.Context, nameEntityID int64) ([]int64, error) {
	ctx, span := tracing.StartSpan(ctx, "ProfileEntryRepository.ProfilesReferencing")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("DISTINCT profile_id")
	sb.From(tableName)
	sb.Where(sb.Equal("name_entity_id", nameEntityID))
	sb.OrderBy("profile_id ASC")

	query, args := sb.Build()

	ids := []int64{}
	if err := r.db.Conn(ctx).SelectContext(ctx, &ids, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("name_entity_id", nameEntityID).Error("failed to find referencing profiles")
		return nil, fmt.Errorf("failed to find referencing profiles: %w", err)
	}
	return ids, nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	ctx, span := tracing.StartSpan(ctx, "ProfileEntryRepository.Delete")
	defer span.End()

	db := database.NewDeleteBuilder()
	db.DeleteFrom(tableName)
	db.Where(db.Equal("id", id))

	query, args := db.Build()

	if _, err := r.db.Conn(ctx).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("entry_id", id).Error("failed to delete profile entry")
		return fmt.Errorf("failed to delete profile entry: %w", err)
	}
	return nil
}

// DeleteExcept removes the profile's entries whose ids are not in keep.
func (r *Repository) DeleteExcept(ctx context.Context, profileID int64, keep []int64) error {
	ctx, span := tracing.StartSpan(ctx, "ProfileEntryRepository.DeleteExcept")
	defer span.End()

	db := database.NewDeleteBuilder()
	db.DeleteFrom(tableName)
	db.Where(db.Equal("profile_id", profileID))
	db.Where(fmt.Sprintf("NOT (id = ANY(%s))", db.Var(pq.Array(keep))))

	query, args := db.Build()

	if _, err := r.db.Conn(ctx).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("profile_id", profileID).Error("failed to prune profile entries")
		return fmt.Errorf("failed to prune profile entries: %w", err)
	}
	return nil
}
