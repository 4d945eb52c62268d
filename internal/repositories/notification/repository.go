package notification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/sage/pkg/database"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/tracing"
	"github.com/huandu/go-sqlbuilder"
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

func selectNotifications() *sqlbuilder.SelectBuilder {
	sb := database.NewSelectBuilder()
	sb.Select(selectColumns...)
	sb.From(sb.As(tableName, "a"))
	sb.JoinWithOption(sqlbuilder.LeftJoin, sb.As(nameEntityTable, "n"), "n.id = a.name_entity_id")
	return sb
}

func (r *Repository) Create(ctx context.Context, n models.Notification) (models.Notification, error) {
	ctx, span := tracing.StartSpan(ctx, "NotificationRepository.Create")
	defer span.End()

	row := FromNotification(n)

	ib := database.NewInsertBuilder()
	ib.InsertInto(tableName)
	ib.Cols("type", "profile_id", "reason", "status", "occurred_at", "profile_entry_id", "name_entity_id", "skill", "new_name", "project_id")
	ib.Values(row.Type, row.ProfileID, row.Reason, row.Status, row.OccurredAt, row.ProfileEntryID, row.NameEntityID, row.Skill, row.NewName, row.ProjectID)
	ib.SQL("RETURNING id")

	query, args := ib.Build()

	var id int64
	if err := r.db.Conn(ctx).GetContext(ctx, &id, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"profile_id": row.ProfileID,
			"type":       row.Type,
		}).Error("failed to create notification")
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	created, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, fmt.Errorf("notification %d vanished after insert", id)
	}
	return created, nil
}

func (r *Repository) FindByID(ctx context.Context, id int64) (models.Notification, error) {
	ctx, span := tracing.StartSpan(ctx, "NotificationRepository.FindByID")
	defer span.End()

	sb := selectNotifications()
	sb.Where(sb.Equal("a.id", id))

	query, args := sb.Build()

	var row NotificationRow
	if err := r.db.Conn(ctx).GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithField("notification_id", id).Error("failed to get notification")
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}

	n, ok := ToNotification(row)
	if !ok {
		return nil, fmt.Errorf("notification %d has unknown type %q", id, row.Type)
	}
	return n, nil
}

// ListByStatus returns the notifications in a status, oldest first. Rows of
// an unknown type are skipped.
func (r *Repository) ListByStatus(ctx context.Context, status models.NotificationStatus) ([]models.Notification, error) {
	ctx, span := tracing.StartSpan(ctx, "NotificationRepository.ListByStatus")
	defer span.End()

	sb := selectNotifications()
	sb.Where(sb.Equal("a.status", string(status)))
	sb.OrderBy("a.occurred_at ASC", "a.id ASC")

	query, args := sb.Build()

	var rows []NotificationRow
	if err := r.db.Conn(ctx).SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("status", status).Error("failed to list notifications")
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	out := make([]models.Notification, 0, len(rows))
	for _, row := range rows {
		n, ok := ToNotification(row)
		if !ok {
			r.logger.WithContext(ctx).WithFields(map[string]any{
				"notification_id": row.ID,
				"type":            row.Type,
			}).Warn("skipping notification with unknown type")
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id int64, status models.NotificationStatus) error {
	ctx, span := tracing.StartSpan(ctx, "NotificationRepository.UpdateStatus")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update(tableName)
	ub.Set(ub.Assign("status", string(status)))
	ub.Where(ub.Equal("id", id))

	_, err := r.exec(ctx, ub.Build, "failed to update notification status")
	return err
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	ctx, span := tracing.StartSpan(ctx, "NotificationRepository.Delete")
	defer span.End()

	db := database.NewDeleteBuilder()
	db.DeleteFrom(tableName)
	db.Where(db.Equal("id", id))

	_, err := r.exec(ctx, db.Build, "failed to delete notification")
	return err
}

func (r *Repository) DeleteByStatus(ctx context.Context, status models.NotificationStatus) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "NotificationRepository.DeleteByStatus")
	defer span.End()

	db := database.NewDeleteBuilder()
	db.DeleteFrom(tableName)
	db.Where(db.Equal("status", string(status)))

	return r.exec(ctx, db.Build, "failed to delete notifications by status")
}

// DeleteBySkillName removes every skill notification about exactly this name.
func (r *Repository) DeleteBySkillName(ctx context.Context, name string) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "NotificationRepository.DeleteBySkillName")
	defer span.End()

	db := database.NewDeleteBuilder()
	db.DeleteFrom(tableName)
	db.Where(
		db.Equal("type", string(models.KindSkill)),
		db.Equal("skill ->> 'name'", name),
	)

	return r.exec(ctx, db.Build, "failed to delete skill notifications")
}

func (r *Repository) DeleteByProfileID(ctx context.Context, profileID int64) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "NotificationRepository.DeleteByProfileID")
	defer span.End()

	db := database.NewDeleteBuilder()
	db.DeleteFrom(tableName)
	db.Where(db.Equal("profile_id", profileID))

	return r.exec(ctx, db.Build, "failed to delete profile notifications")
}

func (r *Repository) exec(ctx context.Context, build func() (string, []any), msg string) (int64, error) {
	query, args := build()

	res, err := r.db.Conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error(msg)
		return 0, fmt.Errorf("%s: %w", msg, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
