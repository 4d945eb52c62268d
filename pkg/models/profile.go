package models

import (
	"strings"
	"time"
)

// NameEntity is a canonical reference value shared across profiles. It is
// unique per (name, category).
type NameEntity struct {
	ID       int64    `json:"id,omitempty" db:"id"`
	Name     string   `json:"name" db:"name" validate:"required"`
	Category Category `json:"type,omitempty" db:"category"`
}

type LanguageLevel string

const (
	LanguageLevelBasic       LanguageLevel = "BASIC"
	LanguageLevelAdvanced    LanguageLevel = "ADVANCED"
	LanguageLevelBusiness    LanguageLevel = "BUSINESS_FLUENT"
	LanguageLevelNative      LanguageLevel = "NATIVE"
	LanguageLevelUnspecified LanguageLevel = ""
)

// ProfileEntry is one typed fact in a profile. Which optional fields are
// meaningful depends on the collection the entry sits in: Degree for
// education, Level for languages, Date for qualifications and StartDate/EndDate
// for career, training and education.
type ProfileEntry struct {
	ID         int64         `json:"id,omitempty"`
	NameEntity *NameEntity   `json:"nameEntity"`
	Degree     string        `json:"degree,omitempty"`
	Level      LanguageLevel `json:"level,omitempty"`
	Date       *Date         `json:"date,omitempty"`
	StartDate  *Date         `json:"startDate,omitempty"`
	EndDate    *Date         `json:"endDate,omitempty"`
}

// ReferenceName returns the name of the referenced value or "" when unset.
func (e ProfileEntry) ReferenceName() string {
	if e.NameEntity == nil {
		return ""
	}
	return e.NameEntity.Name
}

func (e ProfileEntry) Clone() ProfileEntry {
	c := e
	c.NameEntity = cloneNameEntity(e.NameEntity)
	c.Date = cloneDate(e.Date)
	c.StartDate = cloneDate(e.StartDate)
	c.EndDate = cloneDate(e.EndDate)
	return c
}

type Skill struct {
	ID       int64    `json:"id,omitempty"`
	Name     string   `json:"name"`
	Rating   int      `json:"rating"`
	Versions []string `json:"versions,omitempty"`
}

// Key is the merge identity of a skill: its trimmed, lower-cased name.
func (s Skill) Key() string {
	return SkillKey(s.Name)
}

func SkillKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (s Skill) Clone() Skill {
	c := s
	if s.Versions != nil {
		c.Versions = append([]string(nil), s.Versions...)
	}
	return c
}

type Project struct {
	ID          int64        `json:"id,omitempty"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Client      *NameEntity  `json:"client,omitempty"`
	Broker      *NameEntity  `json:"broker,omitempty"`
	Roles       []NameEntity `json:"projectRoles"`
	Skills      []Skill      `json:"skills"`
	StartDate   *Date        `json:"startDate,omitempty"`
	EndDate     *Date        `json:"endDate,omitempty"`
}

func (p Project) Clone() Project {
	c := p
	c.Client = cloneNameEntity(p.Client)
	c.Broker = cloneNameEntity(p.Broker)
	c.Roles = append([]NameEntity(nil), p.Roles...)
	c.Skills = cloneSkills(p.Skills)
	c.StartDate = cloneDate(p.StartDate)
	c.EndDate = cloneDate(p.EndDate)
	return c
}

// Profile is one consultant's full professional record.
type Profile struct {
	ID                  int64          `json:"id"`
	Description         string         `json:"description"`
	LastEdited          *time.Time     `json:"lastEdited,omitempty"`
	Languages           []ProfileEntry `json:"languages"`
	Qualifications      []ProfileEntry `json:"qualification"`
	TrainingEntries     []ProfileEntry `json:"trainingEntries"`
	Education           []ProfileEntry `json:"education"`
	Sectors             []ProfileEntry `json:"sectors"`
	CareerEntries       []ProfileEntry `json:"careerEntries"`
	KeySkillEntries     []ProfileEntry `json:"keySkillEntries"`
	SpecialFieldEntries []ProfileEntry `json:"specialFieldEntries"`
	Projects            []Project      `json:"projects"`
	Skills              []Skill        `json:"skills"`
}

var entryAccessors = map[Category]func(*Profile) *[]ProfileEntry{
	CategoryEducation:     func(p *Profile) *[]ProfileEntry { return &p.Education },
	CategoryLanguage:      func(p *Profile) *[]ProfileEntry { return &p.Languages },
	CategoryQualification: func(p *Profile) *[]ProfileEntry { return &p.Qualifications },
	CategorySector:        func(p *Profile) *[]ProfileEntry { return &p.Sectors },
	CategoryTraining:      func(p *Profile) *[]ProfileEntry { return &p.TrainingEntries },
	CategoryCareer:        func(p *Profile) *[]ProfileEntry { return &p.CareerEntries },
	CategoryKeySkill:      func(p *Profile) *[]ProfileEntry { return &p.KeySkillEntries },
	CategorySpecialField:  func(p *Profile) *[]ProfileEntry { return &p.SpecialFieldEntries },
}

// Entries returns the entry collection for c. Non-entry categories have none.
func (p *Profile) Entries(c Category) []ProfileEntry {
	acc, ok := entryAccessors[c]
	if !ok {
		return nil
	}
	return *acc(p)
}

// SetEntries replaces the entry collection for c. It is a no-op for
// categories that do not own a collection.
func (p *Profile) SetEntries(c Category, entries []ProfileEntry) {
	if acc, ok := entryAccessors[c]; ok {
		*acc(p) = entries
	}
}

// SkillByKey finds a profile skill by merge identity.
func (p *Profile) SkillByKey(key string) (Skill, bool) {
	for _, s := range p.Skills {
		if s.Key() == key {
			return s, true
		}
	}
	return Skill{}, false
}

// Clone returns a deep copy so pipeline stages never alias each other's
// collections.
func (p Profile) Clone() Profile {
	c := p
	if p.LastEdited != nil {
		t := *p.LastEdited
		c.LastEdited = &t
	}
	for cat := range entryAccessors {
		src := p.Entries(cat)
		if src == nil {
			continue
		}
		dst := make([]ProfileEntry, len(src))
		for i, e := range src {
			dst[i] = e.Clone()
		}
		c.SetEntries(cat, dst)
	}
	if p.Projects != nil {
		c.Projects = make([]Project, len(p.Projects))
		for i, pr := range p.Projects {
			c.Projects[i] = pr.Clone()
		}
	}
	c.Skills = cloneSkills(p.Skills)
	return c
}

// BaseProfile is the scalar part of a profile.
type BaseProfile struct {
	Description string `json:"description"`
}

func cloneNameEntity(n *NameEntity) *NameEntity {
	if n == nil {
		return nil
	}
	c := *n
	return &c
}

func cloneSkills(skills []Skill) []Skill {
	if skills == nil {
		return nil
	}
	out := make([]Skill, len(skills))
	for i, s := range skills {
		out[i] = s.Clone()
	}
	return out
}
