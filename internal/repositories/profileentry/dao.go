package profileentry

import (
	"github.com/Ramsey-B/sage/pkg/models"
)

const (
	tableName       = "profile_entries"
	nameEntityTable = "name_entities"
)

// EntryRow is an entry joined with the reference value it points at.
type EntryRow struct {
	ID           int64           `db:"id"`
	ProfileID    int64           `db:"profile_id"`
	Category     models.Category `db:"category"`
	NameEntityID int64           `db:"name_entity_id"`
	Degree       string          `db:"degree"`
	Level        string          `db:"level"`
	Date         *models.Date    `db:"entry_date"`
	StartDate    *models.Date    `db:"start_date"`
	EndDate      *models.Date    `db:"end_date"`
	Name         string          `db:"ne_name"`
}

var selectColumns = []string{
	"e.id", "e.profile_id", "e.category", "e.name_entity_id", "e.degree", "e.level",
	"e.entry_date", "e.start_date", "e.end_date", "n.name AS ne_name",
}

func ToEntry(row EntryRow) models.ProfileEntry {
	return models.ProfileEntry{
		ID: row.ID,
		NameEntity: &models.NameEntity{
			ID:       row.NameEntityID,
			Name:     row.Name,
			Category: row.Category,
		},
		Degree:    row.Degree,
		Level:     models.LanguageLevel(row.Level),
		Date:      row.Date,
		StartDate: row.StartDate,
		EndDate:   row.EndDate,
	}
}
