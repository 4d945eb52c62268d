package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/notifications"
	"github.com/Ramsey-B/sage/pkg/reconcile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExecutor struct {
	writes [][]Statement
	reads  []Statement
	rows   []map[string]any
	err    error
}

func (f *fakeExecutor) ExecuteWrite(_ context.Context, stmts []Statement) error {
	f.writes = append(f.writes, stmts)
	return f.err
}

func (f *fakeExecutor) ExecuteRead(_ context.Context, st Statement) ([]map[string]any, error) {
	f.reads = append(f.reads, st)
	return f.rows, f.err
}

func newTestProjector() (*Projector, *fakeExecutor) {
	exec := &fakeExecutor{}
	return NewProjector(exec, ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})), exec
}

func TestProfileStatements(t *testing.T) {
	prof := models.Profile{
		ID:      4,
		Skills:  []models.Skill{{Name: "Go", Rating: 5}},
		Sectors: []models.ProfileEntry{{NameEntity: &models.NameEntity{ID: 9, Name: "Banking"}}, {}},
		Projects: []models.Project{
			{ID: 2, Name: "Billing", Client: &models.NameEntity{ID: 3, Name: "ACME"}, Skills: []models.Skill{{Name: "Go"}}},
			{ID: 5, Name: "Internal"},
		},
	}

	stmts := ProfileStatements(prof)
	require.Len(t, stmts, 7)
	for _, st := range stmts {
		assert.NotEmpty(t, st.Cypher)
	}

	skills := stmts[3].Params["skills"].([]any)
	require.Len(t, skills, 1)
	assert.Equal(t, map[string]any{"key": "go", "name": "Go", "rating": int64(5)}, skills[0])

	entries := stmts[4].Params["entries"].([]any)
	require.Len(t, entries, 1)
	assert.Equal(t, "SECTOR", entries[0].(map[string]any)["category"])

	projects := stmts[5].Params["projects"].([]any)
	require.Len(t, projects, 2)
	billing := projects[0].(map[string]any)
	assert.Equal(t, []any{"go"}, billing["skills"])
	assert.Equal(t, int64(3), billing["client_id"])
	assert.NotContains(t, projects[1].(map[string]any), "client_id")
}

func TestProjector_AfterImport(t *testing.T) {
	p, exec := newTestProjector()
	require.NoError(t, p.AfterImport(context.Background(), reconcile.Result{Profile: models.Profile{ID: 1}}))
	require.Len(t, exec.writes, 1)

	exec.err = errors.New("neo4j down")
	assert.Error(t, p.AfterImport(context.Background(), reconcile.Result{Profile: models.Profile{ID: 1}}))
}

func TestProjector_NotificationResolved(t *testing.T) {
	p, exec := newTestProjector()
	n := models.NewProfileEntryNotification(1, 2, models.NameEntity{ID: 7, Name: "Tobacco"})

	err := p.NotificationResolved(context.Background(), notifications.Outcome{
		Notification: n,
		Action:       notifications.ActionDelete,
		Profiles:     []models.Profile{{ID: 1}, {ID: 2}},
	})
	require.NoError(t, err)
	require.Len(t, exec.writes, 3)
	assert.Equal(t, int64(7), exec.writes[2][0].Params["id"])

	exec.writes = nil
	require.NoError(t, p.NotificationResolved(context.Background(), notifications.Outcome{Notification: n, Action: notifications.ActionOk}))
	assert.Empty(t, exec.writes)
}

func TestProjector_RemoveProfile(t *testing.T) {
	p, exec := newTestProjector()
	require.NoError(t, p.RemoveProfile(context.Background(), 12))
	assert.Equal(t, int64(12), exec.writes[0][0].Params["id"])
}

func TestProjector_RelatedSkills(t *testing.T) {
	p, exec := newTestProjector()
	exec.rows = []map[string]any{
		{"name": "Kubernetes", "profiles": int64(4)},
		{"name": "Docker", "profiles": int64(2)},
	}

	out, err := p.RelatedSkills(context.Background(), " Go ", 0)
	require.NoError(t, err)
	assert.Equal(t, []RelatedSkill{{Name: "Kubernetes", Profiles: 4}, {Name: "Docker", Profiles: 2}}, out)
	assert.Equal(t, "go", exec.reads[0].Params["key"])
	assert.Equal(t, int64(10), exec.reads[0].Params["limit"])

	exec.err = errors.New("neo4j down")
	_, err = p.RelatedSkills(context.Background(), "Go", 5)
	assert.Error(t, err)
}
