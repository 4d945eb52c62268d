package skill

import (
	"github.com/Ramsey-B/sage/pkg/database"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/lib/pq"
)

const tableName = "skills"

type SkillRow struct {
	ID        int64          `db:"id"`
	ProfileID int64          `db:"profile_id"`
	Name      string         `db:"name"`
	Rating    int            `db:"rating"`
	Versions  pq.StringArray `db:"versions"`
}

var skillStruct = database.NewStruct(new(SkillRow))

func FromSkill(profileID int64, s models.Skill) SkillRow {
	versions := s.Versions
	if versions == nil {
		versions = []string{}
	}
	return SkillRow{
		ID:        s.ID,
		ProfileID: profileID,
		Name:      s.Name,
		Rating:    s.Rating,
		Versions:  pq.StringArray(versions),
	}
}

func ToSkill(row SkillRow) models.Skill {
	s := models.Skill{ID: row.ID, Name: row.Name, Rating: row.Rating}
	if len(row.Versions) > 0 {
		s.Versions = []string(row.Versions)
	}
	return s
}

func ToSkills(rows []SkillRow) []models.Skill {
	out := make([]models.Skill, len(rows))
	for i, row := range rows {
		out[i] = ToSkill(row)
	}
	return out
}
