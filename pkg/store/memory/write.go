package memory

import (
	"fmt"
	"slices"

	"github.com/Ramsey-B/sage/pkg/models"
)

func (s *state) requireProfile(id int64) error {
	if _, ok := s.profiles[id]; !ok {
		return fmt.Errorf("profile %d does not exist", id)
	}
	return nil
}

// resolvedID returns the id of a reference value that must already exist.
func (s *state) resolvedID(ne *models.NameEntity) (int64, error) {
	if ne == nil {
		return 0, nil
	}
	if _, ok := s.nameEntities[ne.ID]; !ok || ne.ID == 0 {
		return 0, fmt.Errorf("unresolved name entity %q", ne.Name)
	}
	return ne.ID, nil
}

func (s *state) upsertEntry(profileID int64, category models.Category, e models.ProfileEntry) (entryRow, error) {
	if err := s.requireProfile(profileID); err != nil {
		return entryRow{}, err
	}
	if !category.IsEntryCategory() {
		return entryRow{}, fmt.Errorf("%s has no entry collection", category)
	}
	neID, err := s.resolvedID(e.NameEntity)
	if err != nil {
		return entryRow{}, err
	}

	id := e.ID
	if existing, ok := s.entries[id]; !ok || existing.ProfileID != profileID {
		id = s.id()
	}
	row := entryRow{
		ID:           id,
		ProfileID:    profileID,
		Category:     category,
		NameEntityID: neID,
		Degree:       e.Degree,
		Level:        e.Level,
	}
	c := e.Clone()
	row.Date, row.StartDate, row.EndDate = c.Date, c.StartDate, c.EndDate
	s.entries[id] = row
	return row, nil
}

func (s *state) upsertSkill(profileID int64, sk models.Skill) (skillRow, error) {
	if err := s.requireProfile(profileID); err != nil {
		return skillRow{}, err
	}
	id := sk.ID
	if existing, ok := s.skills[id]; !ok || existing.ProfileID != profileID {
		id = s.id()
	}
	row := skillRow{ID: id, ProfileID: profileID, Name: sk.Name, Rating: sk.Rating, Versions: slices.Clone(sk.Versions)}
	s.skills[id] = row
	return row, nil
}

// linkSkill finds the profile skill a project skill refers to: same id first,
// then same merge key. Unknown skills are added to the profile.
func (s *state) linkSkill(profileID int64, sk models.Skill) (int64, error) {
	if row, ok := s.skills[sk.ID]; ok && sk.ID != 0 && row.ProfileID == profileID {
		return sk.ID, nil
	}
	for _, id := range sortedKeys(s.skills) {
		row := s.skills[id]
		if row.ProfileID == profileID && models.SkillKey(row.Name) == sk.Key() {
			return id, nil
		}
	}
	sk.ID = 0
	row, err := s.upsertSkill(profileID, sk)
	return row.ID, err
}

func (s *state) upsertProject(profileID int64, p models.Project) (projectRow, error) {
	if err := s.requireProfile(profileID); err != nil {
		return projectRow{}, err
	}
	clientID, err := s.resolvedID(p.Client)
	if err != nil {
		return projectRow{}, err
	}
	brokerID, err := s.resolvedID(p.Broker)
	if err != nil {
		return projectRow{}, err
	}

	id := p.ID
	if existing, ok := s.projects[id]; !ok || existing.ProfileID != profileID {
		id = s.id()
	}
	row := projectRow{
		ID:          id,
		ProfileID:   profileID,
		Name:        p.Name,
		Description: p.Description,
		ClientID:    clientID,
		BrokerID:    brokerID,
	}
	for i := range p.Roles {
		roleID, err := s.resolvedID(&p.Roles[i])
		if err != nil {
			return projectRow{}, err
		}
		if !slices.Contains(row.RoleIDs, roleID) {
			row.RoleIDs = append(row.RoleIDs, roleID)
		}
	}
	for _, sk := range p.Skills {
		skillID, err := s.linkSkill(profileID, sk)
		if err != nil {
			return projectRow{}, err
		}
		if !slices.Contains(row.SkillIDs, skillID) {
			row.SkillIDs = append(row.SkillIDs, skillID)
		}
	}
	c := p.Clone()
	row.StartDate, row.EndDate = c.StartDate, c.EndDate
	s.projects[id] = row
	return row, nil
}

func (s *state) saveProfile(p models.Profile) (models.Profile, error) {
	row, ok := s.profiles[p.ID]
	if !ok {
		return models.Profile{}, fmt.Errorf("profile %d does not exist", p.ID)
	}
	row.Description = p.Description
	if p.LastEdited != nil {
		t := *p.LastEdited
		row.LastEdited = &t
	}
	s.profiles[p.ID] = row

	keptEntries := map[int64]bool{}
	for _, c := range models.EntryCategories {
		for _, e := range p.Entries(c) {
			if e.NameEntity == nil {
				continue
			}
			saved, err := s.upsertEntry(p.ID, c, e)
			if err != nil {
				return models.Profile{}, err
			}
			keptEntries[saved.ID] = true
		}
	}
	for id, e := range s.entries {
		if e.ProfileID == p.ID && !keptEntries[id] {
			delete(s.entries, id)
		}
	}

	keptSkills := map[int64]bool{}
	for _, sk := range p.Skills {
		saved, err := s.upsertSkill(p.ID, sk)
		if err != nil {
			return models.Profile{}, err
		}
		keptSkills[saved.ID] = true
	}
	for id, sk := range s.skills {
		if sk.ProfileID == p.ID && !keptSkills[id] {
			s.deleteSkill(id)
		}
	}

	keptProjects := map[int64]bool{}
	for _, pr := range p.Projects {
		saved, err := s.upsertProject(p.ID, pr)
		if err != nil {
			return models.Profile{}, err
		}
		keptProjects[saved.ID] = true
	}
	for id, pr := range s.projects {
		if pr.ProfileID == p.ID && !keptProjects[id] {
			delete(s.projects, id)
		}
	}

	return *s.assemble(p.ID), nil
}
