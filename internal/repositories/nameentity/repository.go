package nameentity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/sage/pkg/database"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/tracing"
)

const tableName = "name_entities"

var columns = []string{"id", "name", "category"}

// Repository stores the shared reference values.
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

func (r *Repository) FindByID(ctx context.Context, id int64) (*models.NameEntity, error) {
	ctx, span := tracing.StartSpan(ctx, "NameEntityRepository.FindByID")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(sb.Equal("id", id))

	return r.get(ctx, sb)
}

func (r *Repository) FindByNameAndCategory(ctx context.Context, name string, category models.Category) (*models.NameEntity, error) {
	ctx, span := tracing.StartSpan(ctx, "NameEntityRepository.FindByNameAndCategory")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(
		sb.Equal("name", name),
		sb.Equal("category", category),
	)

	return r.get(ctx, sb)
}

func (r *Repository) get(ctx context.Context, sb interface{ Build() (string, []any) }) (*models.NameEntity, error) {
	query, args := sb.Build()

	var ne models.NameEntity
	err := r.db.Conn(ctx).GetContext(ctx, &ne, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get name entity")
		return nil, fmt.Errorf("failed to get name entity: %w", err)
	}
	return &ne, nil
}

func (r *Repository) ListByCategory(ctx context.Context, category models.Category) ([]models.NameEntity, error) {
	ctx, span := tracing.StartSpan(ctx, "NameEntityRepository.ListByCategory")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(sb.Equal("category", category))
	sb.OrderBy("name ASC")

	query, args := sb.Build()

	items := []models.NameEntity{}
	if err := r.db.Conn(ctx).SelectContext(ctx, &items, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("category", category).Error("failed to list name entities")
		return nil, fmt.Errorf("failed to list name entities: %w", err)
	}
	return items, nil
}

// Create inserts the value, or returns the row that already holds its
// (name, category). xmax is zero only for a freshly inserted tuple.
func (r *Repository) Create(ctx context.Context, ne models.NameEntity) (models.NameEntity, bool, error) {
	ctx, span := tracing.StartSpan(ctx, "NameEntityRepository.Create")
	defer span.End()

	ib := database.NewInsertBuilder()
	ib.InsertInto(tableName)
	ib.Cols("name", "category")
	ib.Values(ne.Name, ne.Category)
	ub := ib.OnConflict("name", "category")
	ub.Set(ub.Assign("name", database.Excluded("name")))
	ib.SQL("RETURNING id, (xmax = 0) AS inserted")

	query, args := ib.Build()

	var row struct {
		ID       int64 `db:"id"`
		Inserted bool  `db:"inserted"`
	}
	if err := r.db.Conn(ctx).GetContext(ctx, &row, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"name":     ne.Name,
			"category": ne.Category,
		}).Error("failed to create name entity")
		return models.NameEntity{}, false, fmt.Errorf("failed to create name entity: %w", err)
	}

	ne.ID = row.ID
	return ne, row.Inserted, nil
}

func (r *Repository) Update(ctx context.Context, ne models.NameEntity) error {
	ctx, span := tracing.StartSpan(ctx, "NameEntityRepository.Update")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update(tableName)
	ub.Set(ub.Assign("name", ne.Name))
	ub.Where(ub.Equal("id", ne.ID))

	query, args := ub.Build()

	if _, err := r.db.Conn(ctx).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("id", ne.ID).Error("failed to update name entity")
		return fmt.Errorf("failed to update name entity: %w", err)
	}
	return nil
}

// Delete removes the value. Entries, roles and notifications referencing it
// go with it; project client and broker links are cleared.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	ctx, span := tracing.StartSpan(ctx, "NameEntityRepository.Delete")
	defer span.End()

	db := database.NewDeleteBuilder()
	db.DeleteFrom(tableName)
	db.Where(db.Equal("id", id))

	query, args := db.Build()

	if _, err := r.db.Conn(ctx).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("id", id).Error("failed to delete name entity")
		return fmt.Errorf("failed to delete name entity: %w", err)
	}

	r.logger.WithContext(ctx).WithField("id", id).Info("deleted name entity")
	return nil
}

// FindByIDs loads several values at once, keyed by id.
func (r *Repository) FindByIDs(ctx context.Context, ids []int64) (map[int64]models.NameEntity, error) {
	ctx, span := tracing.StartSpan(ctx, "NameEntityRepository.FindByIDs")
	defer span.End()

	out := map[int64]models.NameEntity{}
	if len(ids) == 0 {
		return out, nil
	}

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(sb.In("id", database.Int64s(ids)...))

	query, args := sb.Build()

	var items []models.NameEntity
	if err := r.db.Conn(ctx).SelectContext(ctx, &items, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to load name entities")
		return nil, fmt.Errorf("failed to load name entities: %w", err)
	}
	for _, ne := range items {
		out[ne.ID] = ne
	}
	return out, nil
}
