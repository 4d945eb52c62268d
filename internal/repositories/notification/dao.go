package notification

import (
	"database/sql"
	"time"

	"github.com/Ramsey-B/sage/pkg/database"
	"github.com/Ramsey-B/sage/pkg/models"
)

const (
	tableName       = "admin_notifications"
	nameEntityTable = "name_entities"
)

// NotificationRow flattens every notification variant into one row.
type NotificationRow struct {
	ID             int64                         `db:"id"`
	Type           string                        `db:"type"`
	ProfileID      int64                         `db:"profile_id"`
	Reason         string                        `db:"reason"`
	Status         string                        `db:"status"`
	OccurredAt     time.Time                     `db:"occurred_at"`
	ProfileEntryID sql.NullInt64                 `db:"profile_entry_id"`
	NameEntityID   sql.NullInt64                 `db:"name_entity_id"`
	NameEntityName sql.NullString                `db:"ne_name"`
	Category       sql.NullString                `db:"ne_category"`
	Skill          database.JSONB[*models.Skill] `db:"skill"`
	NewName        string                        `db:"new_name"`
	ProjectID      sql.NullInt64                 `db:"project_id"`
}

var selectColumns = []string{
	"a.id", "a.type", "a.profile_id", "a.reason", "a.status", "a.occurred_at",
	"a.profile_entry_id", "a.name_entity_id", "n.name AS ne_name", "n.category AS ne_category",
	"a.skill", "a.new_name", "a.project_id",
}

func nullInt(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}

func FromNotification(n models.Notification) NotificationRow {
	rec := models.ToRecord(n)
	row := NotificationRow{
		ID:             rec.ID,
		Type:           string(rec.Type),
		ProfileID:      rec.ProfileID,
		Reason:         string(rec.Reason),
		Status:         string(rec.Status),
		OccurredAt:     rec.OccurredAt,
		ProfileEntryID: nullInt(rec.ProfileEntryID),
		Skill:          database.JSONB[*models.Skill]{Data: rec.Skill},
		NewName:        rec.NewName,
		ProjectID:      nullInt(rec.ProjectID),
	}
	if rec.NameEntity != nil {
		row.NameEntityID = nullInt(rec.NameEntity.ID)
	}
	if row.Status == "" {
		row.Status = string(models.StatusAlive)
	}
	if row.OccurredAt.IsZero() {
		row.OccurredAt = time.Now().UTC()
	}
	return row
}

func ToNotification(row NotificationRow) (models.Notification, bool) {
	rec := models.NotificationRecord{
		ID:             row.ID,
		Type:           models.NotificationKind(row.Type),
		ProfileID:      row.ProfileID,
		Reason:         models.Reason(row.Reason),
		Status:         models.NotificationStatus(row.Status),
		OccurredAt:     row.OccurredAt.UTC(),
		ProfileEntryID: row.ProfileEntryID.Int64,
		Skill:          row.Skill.Data,
		NewName:        row.NewName,
		ProjectID:      row.ProjectID.Int64,
	}
	if row.NameEntityID.Valid {
		rec.NameEntity = &models.NameEntity{
			ID:       row.NameEntityID.Int64,
			Name:     row.NameEntityName.String,
			Category: models.Category(row.Category.String),
		}
	}
	return rec.ToNotification()
}
