package memory

import (
	"slices"
	"time"

	"github.com/Ramsey-B/sage/pkg/models"
)

type profileRow struct {
	ID          int64
	Description string
	LastEdited  *time.Time
}

type entryRow struct {
	ID           int64
	ProfileID    int64
	Category     models.Category
	NameEntityID int64
	Degree       string
	Level        models.LanguageLevel
	Date         *models.Date
	StartDate    *models.Date
	EndDate      *models.Date
}

type skillRow struct {
	ID        int64
	ProfileID int64
	Name      string
	Rating    int
	Versions  []string
}

type projectRow struct {
	ID          int64
	ProfileID   int64
	Name        string
	Description string
	ClientID    int64
	BrokerID    int64
	RoleIDs     []int64
	SkillIDs    []int64
	StartDate   *models.Date
	EndDate     *models.Date
}

// state is the normalized content of the store. Rows reference each other by
// id the way the relational schema does.
type state struct {
	nextID        int64
	nameEntities  map[int64]models.NameEntity
	profiles      map[int64]profileRow
	entries       map[int64]entryRow
	skills        map[int64]skillRow
	projects      map[int64]projectRow
	notifications map[int64]models.NotificationRecord
}

func newState() *state {
	return &state{
		nameEntities:  map[int64]models.NameEntity{},
		profiles:      map[int64]profileRow{},
		entries:       map[int64]entryRow{},
		skills:        map[int64]skillRow{},
		projects:      map[int64]projectRow{},
		notifications: map[int64]models.NotificationRecord{},
	}
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *state) clone() *state {
	c := newState()
	c.nextID = s.nextID
	for k, v := range s.nameEntities {
		c.nameEntities[k] = v
	}
	for k, v := range s.profiles {
		if v.LastEdited != nil {
			t := *v.LastEdited
			v.LastEdited = &t
		}
		c.profiles[k] = v
	}
	for k, v := range s.entries {
		c.entries[k] = v
	}
	for k, v := range s.skills {
		v.Versions = slices.Clone(v.Versions)
		c.skills[k] = v
	}
	for k, v := range s.projects {
		v.RoleIDs = slices.Clone(v.RoleIDs)
		v.SkillIDs = slices.Clone(v.SkillIDs)
		c.projects[k] = v
	}
	for k, v := range s.notifications {
		if v.Skill != nil {
			sk := v.Skill.Clone()
			v.Skill = &sk
		}
		if v.NameEntity != nil {
			ne := *v.NameEntity
			v.NameEntity = &ne
		}
		c.notifications[k] = v
	}
	return c
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (s *state) nameEntityPtr(id int64) *models.NameEntity {
	if id == 0 {
		return nil
	}
	ne, ok := s.nameEntities[id]
	if !ok {
		return nil
	}
	return &ne
}

func (s *state) entryModel(row entryRow) models.ProfileEntry {
	return models.ProfileEntry{
		ID:         row.ID,
		NameEntity: s.nameEntityPtr(row.NameEntityID),
		Degree:     row.Degree,
		Level:      row.Level,
		Date:       row.Date,
		StartDate:  row.StartDate,
		EndDate:    row.EndDate,
	}.Clone()
}

func skillModel(row skillRow) models.Skill {
	return models.Skill{ID: row.ID, Name: row.Name, Rating: row.Rating, Versions: slices.Clone(row.Versions)}
}

func (s *state) projectModel(row projectRow) models.Project {
	p := models.Project{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		Client:      s.nameEntityPtr(row.ClientID),
		Broker:      s.nameEntityPtr(row.BrokerID),
		Roles:       []models.NameEntity{},
		Skills:      []models.Skill{},
	}
	for _, id := range row.RoleIDs {
		if ne, ok := s.nameEntities[id]; ok {
			p.Roles = append(p.Roles, ne)
		}
	}
	for _, id := range row.SkillIDs {
		if sk, ok := s.skills[id]; ok {
			p.Skills = append(p.Skills, skillModel(sk))
		}
	}
	if row.StartDate != nil {
		d := *row.StartDate
		p.StartDate = &d
	}
	if row.EndDate != nil {
		d := *row.EndDate
		p.EndDate = &d
	}
	return p
}

// assemble builds the profile graph for id from the normalized rows.
func (s *state) assemble(id int64) *models.Profile {
	row, ok := s.profiles[id]
	if !ok {
		return nil
	}
	p := models.Profile{ID: row.ID, Description: row.Description, Skills: []models.Skill{}, Projects: []models.Project{}}
	if row.LastEdited != nil {
		t := *row.LastEdited
		p.LastEdited = &t
	}
	for _, c := range models.EntryCategories {
		p.SetEntries(c, []models.ProfileEntry{})
	}
	for _, eid := range sortedKeys(s.entries) {
		e := s.entries[eid]
		if e.ProfileID != id {
			continue
		}
		p.SetEntries(e.Category, append(p.Entries(e.Category), s.entryModel(e)))
	}
	for _, sid := range sortedKeys(s.skills) {
		sk := s.skills[sid]
		if sk.ProfileID == id {
			p.Skills = append(p.Skills, skillModel(sk))
		}
	}
	for _, pid := range sortedKeys(s.projects) {
		pr := s.projects[pid]
		if pr.ProfileID == id {
			p.Projects = append(p.Projects, s.projectModel(pr))
		}
	}
	return &p
}

func (s *state) deleteSkill(id int64) {
	delete(s.skills, id)
	for pid, pr := range s.projects {
		if slices.Contains(pr.SkillIDs, id) {
			pr.SkillIDs = slices.DeleteFunc(pr.SkillIDs, func(v int64) bool { return v == id })
			s.projects[pid] = pr
		}
	}
}

func (s *state) deleteNameEntity(id int64) {
	delete(s.nameEntities, id)
	for eid, e := range s.entries {
		if e.NameEntityID == id {
			delete(s.entries, eid)
		}
	}
	for pid, pr := range s.projects {
		if pr.ClientID == id {
			pr.ClientID = 0
		}
		if pr.BrokerID == id {
			pr.BrokerID = 0
		}
		pr.RoleIDs = slices.DeleteFunc(pr.RoleIDs, func(v int64) bool { return v == id })
		s.projects[pid] = pr
	}
	for nid, n := range s.notifications {
		if n.Type == models.KindProfileEntry && n.NameEntity != nil && n.NameEntity.ID == id {
			delete(s.notifications, nid)
		}
	}
}

func (s *state) deleteProfile(id int64) {
	delete(s.profiles, id)
	for eid, e := range s.entries {
		if e.ProfileID == id {
			delete(s.entries, eid)
		}
	}
	for sid, sk := range s.skills {
		if sk.ProfileID == id {
			delete(s.skills, sid)
		}
	}
	for pid, pr := range s.projects {
		if pr.ProfileID == id {
			delete(s.projects, pid)
		}
	}
	for nid, n := range s.notifications {
		if n.ProfileID == id {
			delete(s.notifications, nid)
		}
	}
}
