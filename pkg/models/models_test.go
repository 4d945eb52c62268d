package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in    string
		want  Category
		valid bool
		entry bool
	}{
		{in: "EDUCATION", want: CategoryEducation, valid: true, entry: true},
		{in: "key-skill", want: CategoryKeySkill, valid: true, entry: true},
		{in: " special_field ", want: CategorySpecialField, valid: true, entry: true},
		{in: "project-role", want: CategoryProjectRole, valid: true},
		{in: "company", want: CategoryCompany, valid: true},
		{in: "hobby", want: Category("HOBBY")},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseCategory(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.valid, ok)
			assert.Equal(t, tt.entry, got.IsEntryCategory())
		})
	}
}

func TestCategory_EntryKindAndDateRange(t *testing.T) {
	assert.Equal(t, "CareerEntry", CategoryCareer.EntryKind())
	assert.Equal(t, "LanguageSkill", CategoryLanguage.EntryKind())
	assert.Equal(t, "COMPANY", CategoryCompany.EntryKind())

	assert.True(t, CategoryCareer.HasDateRange())
	assert.True(t, CategoryEducation.HasDateRange())
	assert.False(t, CategoryQualification.HasDateRange())
}

func TestDate_JSON(t *testing.T) {
	var e ProfileEntry
	require.NoError(t, json.Unmarshal([]byte(`{"nameEntity":{"name":"Go"},"startDate":"2019-03-01","endDate":"2020-01-02T10:00:00Z"}`), &e))

	require.NotNil(t, e.StartDate)
	require.NotNil(t, e.EndDate)
	assert.Equal(t, "2019-03-01", e.StartDate.String())
	assert.Equal(t, "2020-01-02", e.EndDate.String())
	assert.Nil(t, e.Date)

	out, err := json.Marshal(e)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"startDate":"2019-03-01"`)

	var bad Date
	assert.Error(t, bad.UnmarshalJSON([]byte(`"yesterday"`)))
}

func TestDate_After(t *testing.T) {
	early := NewDate(2009, time.January, 1)
	late := NewDate(2010, time.January, 1)

	assert.True(t, late.After(early))
	assert.False(t, early.After(late))
	assert.False(t, early.After(NewDate(2009, time.January, 1)))
	assert.False(t, late.After(nil))
}

func TestSkillKey(t *testing.T) {
	assert.Equal(t, "java ee", SkillKey("  Java EE "))
	assert.Equal(t, Skill{Name: "GO"}.Key(), Skill{Name: "go"}.Key())
}

func TestProfile_EntriesBySelector(t *testing.T) {
	p := Profile{}
	p.SetEntries(CategorySector, []ProfileEntry{{NameEntity: &NameEntity{Name: "Banking"}}})
	p.SetEntries(CategoryCompany, []ProfileEntry{{NameEntity: &NameEntity{Name: "ignored"}}})

	require.Len(t, p.Sectors, 1)
	assert.Equal(t, "Banking", p.Entries(CategorySector)[0].ReferenceName())
	assert.Nil(t, p.Entries(CategoryCompany))
}

func TestProfile_CloneIsDeep(t *testing.T) {
	now := time.Now()
	p := Profile{
		ID:         1,
		LastEdited: &now,
		Languages:  []ProfileEntry{{NameEntity: &NameEntity{ID: 2, Name: "German"}, StartDate: NewDate(2000, 1, 1)}},
		Skills:     []Skill{{Name: "Go", Rating: 3, Versions: []string{"1.22"}}},
		Projects: []Project{{
			Name:   "Billing",
			Client: &NameEntity{Name: "ACME"},
			Roles:  []NameEntity{{Name: "Architect"}},
			Skills: []Skill{{Name: "Go"}},
		}},
	}

	c := p.Clone()
	c.Languages[0].NameEntity.Name = "French"
	c.Languages[0].StartDate.Time = time.Time{}
	c.Skills[0].Versions[0] = "1.0"
	c.Projects[0].Client.Name = "Other"
	c.Projects[0].Roles[0].Name = "Dev"
	*c.LastEdited = now.Add(time.Hour)

	assert.Equal(t, "German", p.Languages[0].NameEntity.Name)
	assert.Equal(t, 2000, p.Languages[0].StartDate.Year())
	assert.Equal(t, "1.22", p.Skills[0].Versions[0])
	assert.Equal(t, "ACME", p.Projects[0].Client.Name)
	assert.Equal(t, "Architect", p.Projects[0].Roles[0].Name)
	assert.Equal(t, now, *p.LastEdited)
}

func TestProfile_SkillByKey(t *testing.T) {
	p := Profile{Skills: []Skill{{ID: 4, Name: "Kotlin"}}}

	s, ok := p.SkillByKey("kotlin")
	require.True(t, ok)
	assert.Equal(t, int64(4), s.ID)

	_, ok = p.SkillByKey("scala")
	assert.False(t, ok)
}

func TestNotificationRecord_Variants(t *testing.T) {
	ne := NameEntity{ID: 9, Name: "Cobol", Category: CategoryKeySkill}
	tests := []struct {
		name  string
		n     Notification
		check func(t *testing.T, rec NotificationRecord, back Notification)
	}{
		{
			name: "profile entry",
			n:    NewProfileEntryNotification(1, 7, ne),
			check: func(t *testing.T, rec NotificationRecord, back Notification) {
				assert.Equal(t, int64(7), rec.ProfileEntryID)
				assert.Equal(t, ReasonNameEntityAdded, rec.Reason)
				assert.Equal(t, ne, back.(*ProfileEntryNotification).NameEntity)
			},
		},
		{
			name: "skill",
			n:    NewSkillNotification(1, Skill{Name: "Flash", Rating: 2}, ReasonSkillBlacklisted),
			check: func(t *testing.T, rec NotificationRecord, back Notification) {
				assert.Equal(t, "Flash", rec.NewName)
				assert.Equal(t, "Flash", back.(*SkillNotification).Skill.Name)
			},
		},
		{
			name: "profile updated",
			n:    NewProfileUpdatedNotification(1),
			check: func(t *testing.T, rec NotificationRecord, back Notification) {
				assert.Equal(t, ReasonProfileUpdated, rec.Reason)
				assert.Equal(t, KindProfileUpdated, back.Kind())
			},
		},
		{
			name: "project",
			n:    NewProjectNotification(1, 3, &ne),
			check: func(t *testing.T, rec NotificationRecord, back Notification) {
				assert.Equal(t, int64(3), rec.ProjectID)
				assert.Equal(t, int64(3), back.(*ProjectNotification).ProjectID)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ToRecord(tt.n)
			assert.Equal(t, tt.n.Kind(), rec.Type)
			assert.Equal(t, StatusAlive, rec.Status)

			back, ok := rec.ToNotification()
			require.True(t, ok)
			assert.Equal(t, int64(1), back.Header().ProfileID)
			tt.check(t, rec, back)
		})
	}
}

func TestNotificationRecord_WireForm(t *testing.T) {
	rec := ToRecord(NewSkillNotification(5, Skill{Name: "Java"}, ReasonSkillUnknown))
	raw, err := json.Marshal(rec)
	require.NoError(t, err)

	for _, field := range []string{`"type":"SkillNotification"`, `"profileId":5`, `"reason":"DANGEROUS_SKILL_ADDED_UNKNOWN"`, `"status":"ALIVE"`, `"occurrence"`, `"newName":"Java"`} {
		assert.Contains(t, string(raw), field)
	}
}

func TestNotificationRecord_SkillNewNameDefaults(t *testing.T) {
	n, ok := NotificationRecord{Type: KindSkill, Skill: &Skill{Name: "Perl"}}.ToNotification()
	require.True(t, ok)
	assert.Equal(t, "Perl", n.(*SkillNotification).NewName)

	_, ok = NotificationRecord{Type: "Bogus"}.ToNotification()
	assert.False(t, ok)
}
