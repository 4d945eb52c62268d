package models

import "strings"

// Category classifies a reference value. Entry categories also name the profile
// collection an entry lives in.
type Category string

const (
	CategoryEducation     Category = "EDUCATION"
	CategoryLanguage      Category = "LANGUAGE"
	CategoryQualification Category = "QUALIFICATION"
	CategorySector        Category = "SECTOR"
	CategoryTraining      Category = "TRAINING"
	CategoryCareer        Category = "CAREER"
	CategoryKeySkill      Category = "KEY_SKILL"
	CategorySpecialField  Category = "SPECIAL_FIELD"
	CategoryCompany       Category = "COMPANY"
	CategoryProjectRole   Category = "PROJECT_ROLE"
)

// EntryCategories lists every category that owns a profile entry collection,
// in the order the import resolves them.
var EntryCategories = []Category{
	CategoryEducation,
	CategoryQualification,
	CategoryLanguage,
	CategorySector,
	CategoryTraining,
	CategoryCareer,
	CategoryKeySkill,
	CategorySpecialField,
}

var entryKinds = map[Category]string{
	CategoryEducation:     "EducationEntry",
	CategoryLanguage:      "LanguageSkill",
	CategoryQualification: "QualificationEntry",
	CategorySector:        "SectorEntry",
	CategoryTraining:      "TrainingEntry",
	CategoryCareer:        "CareerEntry",
	CategoryKeySkill:      "KeySkillEntry",
	CategorySpecialField:  "SpecialFieldEntry",
}

// ParseCategory accepts the canonical form as well as lower-case and
// kebab-case spellings used in URLs ("key-skill", "project-role").
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")))
	return c, c.Valid()
}

func (c Category) Valid() bool {
	if _, ok := entryKinds[c]; ok {
		return true
	}
	return c == CategoryCompany || c == CategoryProjectRole
}

// IsEntryCategory reports whether profiles hold an entry collection for c.
func (c Category) IsEntryCategory() bool {
	_, ok := entryKinds[c]
	return ok
}

// EntryKind is the human readable entry type used in validation messages.
func (c Category) EntryKind() string {
	if kind, ok := entryKinds[c]; ok {
		return kind
	}
	return string(c)
}

// HasDateRange reports whether entries of this category carry a start/end pair.
func (c Category) HasDateRange() bool {
	return c == CategoryCareer || c == CategoryTraining || c == CategoryEducation
}
