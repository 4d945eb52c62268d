package reconcile

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Gobusters/ectolinq"
	"github.com/Ramsey-B/sage/pkg/models"
)

// dateRangeCategories are checked in this order so messages come out stable.
var dateRangeCategories = []models.Category{
	models.CategoryCareer,
	models.CategoryTraining,
	models.CategoryEducation,
}

// EntryValidator checks submitted profiles before anything is written.
type EntryValidator struct {
	settings Settings
}

func NewEntryValidator(settings Settings) *EntryValidator {
	return &EntryValidator{settings: settings}
}

// Validate returns every problem found in p. It has no side effects.
func (v *EntryValidator) Validate(p models.Profile) []string {
	messages := []string{}

	for _, c := range dateRangeCategories {
		for _, e := range p.Entries(c) {
			if invalidRange(e.StartDate, e.EndDate) {
				messages = append(messages, fmt.Sprintf("%s '%s' has it's start date after the end date!", c.EntryKind(), e.ReferenceName()))
			}
		}
	}

	if limit := v.settings.ProfileDescriptionLength; limit > 0 && utf8.RuneCountInString(p.Description) > limit {
		messages = append(messages, fmt.Sprintf("Profile description exceeds %d characters!", limit))
	}

	if limit := v.settings.MaxRolesPerProject; limit > 0 {
		for _, pr := range p.Projects {
			if len(pr.Roles) > limit {
				messages = append(messages, fmt.Sprintf("Project '%s' has more than %d roles!", pr.Name, limit))
			}
		}
	}

	return messages
}

// invalidRange: a missing start with a set end, or a start strictly after the
// end. An open end is always fine.
func invalidRange(start, end *models.Date) bool {
	if end == nil {
		return false
	}
	if start == nil {
		return true
	}
	return start.After(end)
}

// RemoveInvalid drops entries without a reference value and entries that
// repeat an earlier entry's reference value in the same collection. Education
// entries only collide when the degree matches too. Project roles are
// deduplicated the same way.
func (v *EntryValidator) RemoveInvalid(p models.Profile) models.Profile {
	out := p.Clone()

	for _, c := range models.EntryCategories {
		seen := map[string]bool{}
		kept := ectolinq.Filter(out.Entries(c), func(e models.ProfileEntry) bool {
			if e.NameEntity == nil || strings.TrimSpace(e.NameEntity.Name) == "" {
				return false
			}
			key := entryKey(c, e)
			if seen[key] {
				return false
			}
			seen[key] = true
			return true
		})
		out.SetEntries(c, kept)
	}

	for i, pr := range out.Projects {
		seen := map[string]bool{}
		out.Projects[i].Roles = ectolinq.Filter(pr.Roles, func(r models.NameEntity) bool {
			if strings.TrimSpace(r.Name) == "" || seen[r.Name] {
				return false
			}
			seen[r.Name] = true
			return true
		})
	}

	return out
}

func entryKey(c models.Category, e models.ProfileEntry) string {
	if c == models.CategoryEducation {
		return e.NameEntity.Name + "\x00" + e.Degree
	}
	return e.NameEntity.Name
}
