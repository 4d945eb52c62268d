package project

import (
	"database/sql"

	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/lib/pq"
)

const (
	tableName       = "projects"
	rolesTable      = "project_roles"
	skillsTable     = "project_skills"
	nameEntityTable = "name_entities"
	skillTable      = "skills"
)

// ProjectRow is a project joined with its client and broker names.
type ProjectRow struct {
	ID          int64          `db:"id"`
	ProfileID   int64          `db:"profile_id"`
	Name        string         `db:"name"`
	Description string         `db:"description"`
	ClientID    sql.NullInt64  `db:"client_id"`
	ClientName  sql.NullString `db:"client_name"`
	BrokerID    sql.NullInt64  `db:"broker_id"`
	BrokerName  sql.NullString `db:"broker_name"`
	StartDate   *models.Date   `db:"start_date"`
	EndDate     *models.Date   `db:"end_date"`
}

var selectColumns = []string{
	"p.id", "p.profile_id", "p.name", "p.description",
	"p.client_id", "c.name AS client_name",
	"p.broker_id", "b.name AS broker_name",
	"p.start_date", "p.end_date",
}

type roleRow struct {
	ProjectID int64  `db:"project_id"`
	ID        int64  `db:"id"`
	Name      string `db:"name"`
}

type skillRow struct {
	ProjectID int64          `db:"project_id"`
	ID        int64          `db:"id"`
	Name      string         `db:"name"`
	Rating    int            `db:"rating"`
	Versions  pq.StringArray `db:"versions"`
}

func nullID(ne *models.NameEntity) sql.NullInt64 {
	if ne == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: ne.ID, Valid: ne.ID != 0}
}

func company(id sql.NullInt64, name sql.NullString) *models.NameEntity {
	if !id.Valid {
		return nil
	}
	return &models.NameEntity{ID: id.Int64, Name: name.String, Category: models.CategoryCompany}
}

func ToProject(row ProjectRow) models.Project {
	return models.Project{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		Client:      company(row.ClientID, row.ClientName),
		Broker:      company(row.BrokerID, row.BrokerName),
		Roles:       []models.NameEntity{},
		Skills:      []models.Skill{},
		StartDate:   row.StartDate,
		EndDate:     row.EndDate,
	}
}
