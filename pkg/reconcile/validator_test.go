package reconcile

import (
	"strings"
	"testing"
	"time"

	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/stretchr/testify/assert"
)

func named(name string) *models.NameEntity {
	return &models.NameEntity{Name: name}
}

func TestEntryValidator_Validate(t *testing.T) {
	v := NewEntryValidator(Settings{MaxRolesPerProject: 2, ProfileDescriptionLength: 10})
	jan2009 := models.NewDate(2009, time.January, 1)
	jan2010 := models.NewDate(2010, time.January, 1)

	tests := []struct {
		name    string
		profile models.Profile
		want    []string
	}{
		{
			name:    "empty profile",
			profile: models.Profile{},
			want:    []string{},
		},
		{
			name: "open end is fine",
			profile: models.Profile{CareerEntries: []models.ProfileEntry{
				{NameEntity: named("Dev"), StartDate: jan2010},
			}},
			want: []string{},
		},
		{
			name: "equal dates are fine",
			profile: models.Profile{TrainingEntries: []models.ProfileEntry{
				{NameEntity: named("Scrum"), StartDate: jan2010, EndDate: jan2010},
			}},
			want: []string{},
		},
		{
			name: "start after end in every dated collection",
			profile: models.Profile{
				Education:       []models.ProfileEntry{{NameEntity: named("MSc"), StartDate: jan2010, EndDate: jan2009}},
				CareerEntries:   []models.ProfileEntry{{NameEntity: named("Dev"), StartDate: jan2010, EndDate: jan2009}},
				TrainingEntries: []models.ProfileEntry{{NameEntity: named("Scrum"), EndDate: jan2009}},
			},
			want: []string{
				"CareerEntry 'Dev' has it's start date after the end date!",
				"TrainingEntry 'Scrum' has it's start date after the end date!",
				"EducationEntry 'MSc' has it's start date after the end date!",
			},
		},
		{
			name: "description and roles",
			profile: models.Profile{
				Description: strings.Repeat("ä", 11),
				Projects: []models.Project{
					{Name: "Ok", Roles: []models.NameEntity{{Name: "A"}, {Name: "B"}}},
					{Name: "Crowded", Roles: []models.NameEntity{{Name: "A"}, {Name: "B"}, {Name: "C"}}},
				},
			},
			want: []string{
				"Profile description exceeds 10 characters!",
				"Project 'Crowded' has more than 2 roles!",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.Validate(tt.profile))
		})
	}
}

func TestEntryValidator_DescriptionCountsCharacters(t *testing.T) {
	v := NewEntryValidator(Settings{ProfileDescriptionLength: 4})
	assert.Empty(t, v.Validate(models.Profile{Description: "ßßßß"}))
}

func TestEntryValidator_RemoveInvalid(t *testing.T) {
	v := NewEntryValidator(DefaultSettings())
	in := models.Profile{
		Sectors: []models.ProfileEntry{
			{NameEntity: named("Banking")},
			{NameEntity: nil},
			{NameEntity: named("   ")},
			{NameEntity: named("Banking")},
			{NameEntity: named("Retail")},
		},
		Education: []models.ProfileEntry{
			{NameEntity: named("TU Munich"), Degree: "BSc"},
			{NameEntity: named("TU Munich"), Degree: "MSc"},
			{NameEntity: named("TU Munich"), Degree: "MSc"},
		},
		Projects: []models.Project{{
			Name:  "Billing",
			Roles: []models.NameEntity{{Name: "Dev"}, {Name: ""}, {Name: "Dev"}, {Name: "Lead"}},
		}},
	}

	out := v.RemoveInvalid(in)

	assert.Equal(t, []string{"Banking", "Retail"}, refNames(out.Sectors))
	assert.Len(t, out.Education, 2)
	assert.Equal(t, []models.NameEntity{{Name: "Dev"}, {Name: "Lead"}}, out.Projects[0].Roles)
	assert.Len(t, in.Sectors, 5, "input is left untouched")
}

func refNames(entries []models.ProfileEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ReferenceName())
	}
	return out
}
