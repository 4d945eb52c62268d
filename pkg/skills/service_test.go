package skills

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	sageerrors "github.com/Ramsey-B/sage/pkg/errors"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type renameCall struct {
	oldName, newName string
	profiles         int
}

type recordingHook struct {
	calls []renameCall
}

func (h *recordingHook) AfterRename(_ context.Context, oldName, newName string, profiles []models.Profile) error {
	h.calls = append(h.calls, renameCall{oldName, newName, len(profiles)})
	return errors.New("ignored")
}

type busyLocker struct{}

func (busyLocker) WithLock(context.Context, string, time.Duration, func() error) error {
	return sageerrors.Conflict("rename in progress")
}

func seedProfile(t *testing.T, st *memory.Store, skills ...models.Skill) models.Profile {
	t.Helper()
	ctx := context.Background()
	p, err := st.Profiles().Create(ctx)
	require.NoError(t, err)
	p.Skills = skills
	p, err = st.Profiles().Save(ctx, p)
	require.NoError(t, err)
	return p
}

func TestService_Rename(t *testing.T) {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	st := memory.New(logger)
	hook := &recordingHook{}
	svc := NewService(st, logger, hook)
	ctx := context.Background()

	merged := seedProfile(t, st, models.Skill{Name: "Football", Rating: 2}, models.Skill{Name: "Soccer", Rating: 5})
	renamed := seedProfile(t, st, models.Skill{Name: "Football", Rating: 1})
	untouched := seedProfile(t, st, models.Skill{Name: "Chess", Rating: 4})

	n, err := svc.Rename(ctx, " Football ", "Soccer")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := st.Profiles().FindByID(ctx, merged.ID)
	require.NoError(t, err)
	require.Len(t, got.Skills, 1)
	assert.Equal(t, "Soccer", got.Skills[0].Name)
	assert.Equal(t, 5, got.Skills[0].Rating)

	got, err = st.Profiles().FindByID(ctx, renamed.ID)
	require.NoError(t, err)
	assert.Equal(t, "Soccer", got.Skills[0].Name)
	assert.Equal(t, 1, got.Skills[0].Rating)

	got, err = st.Profiles().FindByID(ctx, untouched.ID)
	require.NoError(t, err)
	assert.Equal(t, untouched.Skills, got.Skills)

	assert.Equal(t, []renameCall{{"Football", "Soccer", 2}}, hook.calls)
}

func TestService_RenameRejectsBlankNames(t *testing.T) {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	svc := NewService(memory.New(logger), logger)

	_, err := svc.Rename(context.Background(), "Go", "  ")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, sageerrors.StatusCode(err))
}

func TestService_RenameHonoursLock(t *testing.T) {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	st := memory.New(logger)
	svc := NewService(st, logger)
	svc.UseLocker(busyLocker{}, 0)
	p := seedProfile(t, st, models.Skill{Name: "Football"})

	_, err := svc.Rename(context.Background(), "Football", "Soccer")
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, sageerrors.StatusCode(err))

	got, err := st.Profiles().FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Football", got.Skills[0].Name)
}

func TestService_RenameAndMergeDoesNotPersist(t *testing.T) {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	st := memory.New(logger)
	svc := NewService(st, logger)
	p := seedProfile(t, st, models.Skill{Name: "Football"})

	touched, err := svc.RenameAndMerge(context.Background(), "Football", "Soccer")
	require.NoError(t, err)
	require.Len(t, touched, 1)
	assert.Equal(t, "Soccer", touched[0].Skills[0].Name)

	got, err := st.Profiles().FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Football", got.Skills[0].Name)
}
