// Package memory is an in-process implementation of the store interfaces.
// It backs tests and the STORE_DRIVER=memory mode.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/store"
	"github.com/Ramsey-B/sage/pkg/tracing"
)

type txMarker struct{}

// Store keeps normalized rows in maps. WithinTx serializes units of work and
// restores a snapshot when the callback fails.
type Store struct {
	mu     sync.Mutex
	txMu   sync.Mutex
	st     *state
	logger ectologger.Logger
}

var _ store.Store = (*Store)(nil)

func New(logger ectologger.Logger) *Store {
	return &Store{st: newState(), logger: logger}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txMarker{}) != nil {
		return fn(ctx)
	}

	ctx, span := tracing.StartSpan(ctx, "MemoryStore.WithinTx")
	defer span.End()

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.st.clone()
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, txMarker{}, true)); err != nil {
		s.mu.Lock()
		s.st = snapshot
		s.mu.Unlock()
		s.logger.WithContext(ctx).WithError(err).Debug("rolled back memory transaction")
		return err
	}
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) NameEntities() store.NameEntities   { return nameEntities{s} }
func (s *Store) Skills() store.Skills               { return skills{s} }
func (s *Store) Entries() store.Entries             { return entries{s} }
func (s *Store) Projects() store.Projects           { return projects{s} }
func (s *Store) Profiles() store.Profiles           { return profiles{s} }
func (s *Store) Notifications() store.Notifications { return notifications{s} }

// read and write run fn under the data lock.
func (s *Store) read(fn func(st *state)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.st)
}

func (s *Store) write(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

type nameEntities struct{ s *Store }

func (r nameEntities) FindByID(_ context.Context, id int64) (out *models.NameEntity, err error) {
	r.s.read(func(st *state) { out = st.nameEntityPtr(id) })
	return out, nil
}

func (r nameEntities) FindByNameAndCategory(_ context.Context, name string, category models.Category) (out *models.NameEntity, err error) {
	r.s.read(func(st *state) {
		for _, id := range sortedKeys(st.nameEntities) {
			ne := st.nameEntities[id]
			if ne.Name == name && ne.Category == category {
				out = &ne
				return
			}
		}
	})
	return out, nil
}

func (r nameEntities) ListByCategory(_ context.Context, category models.Category) (out []models.NameEntity, err error) {
	out = []models.NameEntity{}
	r.s.read(func(st *state) {
		for _, id := range sortedKeys(st.nameEntities) {
			if ne := st.nameEntities[id]; ne.Category == category {
				out = append(out, ne)
			}
		}
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r nameEntities) Create(_ context.Context, ne models.NameEntity) (out models.NameEntity, inserted bool, err error) {
	err = r.s.write(func(st *state) error {
		for _, existing := range st.nameEntities {
			if existing.Name == ne.Name && existing.Category == ne.Category {
				out = existing
				return nil
			}
		}
		ne.ID = st.id()
		st.nameEntities[ne.ID] = ne
		out, inserted = ne, true
		return nil
	})
	return out, inserted, err
}

func (r nameEntities) Update(_ context.Context, ne models.NameEntity) error {
	return r.s.write(func(st *state) error {
		if _, ok := st.nameEntities[ne.ID]; !ok {
			return fmt.Errorf("name entity %d does not exist", ne.ID)
		}
		for _, existing := range st.nameEntities {
			if existing.ID != ne.ID && existing.Name == ne.Name && existing.Category == ne.Category {
				return fmt.Errorf("name entity %q already exists in %s", ne.Name, ne.Category)
			}
		}
		st.nameEntities[ne.ID] = ne
		return nil
	})
}

func (r nameEntities) Delete(_ context.Context, id int64) error {
	return r.s.write(func(st *state) error {
		st.deleteNameEntity(id)
		return nil
	})
}

type skills struct{ s *Store }

func (r skills) Save(_ context.Context, profileID int64, skill models.Skill) (out models.Skill, err error) {
	err = r.s.write(func(st *state) error {
		row, err := st.upsertSkill(profileID, skill)
		out = skillModel(row)
		return err
	})
	return out, err
}

func (r skills) FindByID(_ context.Context, profileID, skillID int64) (out *models.Skill, err error) {
	r.s.read(func(st *state) {
		if row, ok := st.skills[skillID]; ok && row.ProfileID == profileID {
			sk := skillModel(row)
			out = &sk
		}
	})
	return out, nil
}

func (r skills) Delete(_ context.Context, profileID, skillID int64) error {
	return r.s.write(func(st *state) error {
		if row, ok := st.skills[skillID]; ok && row.ProfileID == profileID {
			st.deleteSkill(skillID)
		}
		return nil
	})
}

func (r skills) FindAllByName(_ context.Context, name string) (out []models.Skill, err error) {
	out = []models.Skill{}
	r.s.read(func(st *state) {
		for _, id := range sortedKeys(st.skills) {
			if row := st.skills[id]; row.Name == name {
				out = append(out, skillModel(row))
			}
		}
	})
	return out, nil
}

func (r skills) ListNames(context.Context) (out []string, err error) {
	r.s.read(func(st *state) {
		seen := map[string]bool{}
		for _, row := range st.skills {
			if !seen[row.Name] {
				seen[row.Name] = true
				out = append(out, row.Name)
			}
		}
	})
	slices.Sort(out)
	if out == nil {
		out = []string{}
	}
	return out, nil
}

type entries struct{ s *Store }

func (r entries) Save(_ context.Context, profileID int64, category models.Category, entry models.ProfileEntry) (out models.ProfileEntry, err error) {
	err = r.s.write(func(st *state) error {
		row, err := st.upsertEntry(profileID, category, entry)
		if err != nil {
			return err
		}
		out = st.entryModel(row)
		return nil
	})
	return out, err
}

func (r entries) FindByID(_ context.Context, id int64) (out *store.EntryRef, err error) {
	r.s.read(func(st *state) {
		if row, ok := st.entries[id]; ok {
			out = &store.EntryRef{ProfileID: row.ProfileID, Category: row.Category, Entry: st.entryModel(row)}
		}
	})
	return out, nil
}

func (r entries) Delete(_ context.Context, id int64) error {
	return r.s.write(func(st *state) error {
		delete(st.entries, id)
		return nil
	})
}

type projects struct{ s *Store }

func (r projects) Save(_ context.Context, profileID int64, project models.Project) (out models.Project, err error) {
	err = r.s.write(func(st *state) error {
		row, err := st.upsertProject(profileID, project)
		if err != nil {
			return err
		}
		out = st.projectModel(row)
		return nil
	})
	return out, err
}

func (r projects) FindByID(_ context.Context, profileID, projectID int64) (out *models.Project, err error) {
	r.s.read(func(st *state) {
		if row, ok := st.projects[projectID]; ok && row.ProfileID == profileID {
			p := st.projectModel(row)
			out = &p
		}
	})
	return out, nil
}

func (r projects) Delete(_ context.Context, profileID, projectID int64) error {
	return r.s.write(func(st *state) error {
		if row, ok := st.projects[projectID]; ok && row.ProfileID == profileID {
			delete(st.projects, projectID)
		}
		return nil
	})
}

type profiles struct{ s *Store }

func (r profiles) Create(context.Context) (out models.Profile, err error) {
	err = r.s.write(func(st *state) error {
		now := time.Now().UTC()
		id := st.id()
		st.profiles[id] = profileRow{ID: id, LastEdited: &now}
		out = *st.assemble(id)
		return nil
	})
	return out, err
}

func (r profiles) FindByID(_ context.Context, id int64) (out *models.Profile, err error) {
	r.s.read(func(st *state) { out = st.assemble(id) })
	return out, nil
}

func (r profiles) FindAll(context.Context) (out []models.Profile, err error) {
	out = []models.Profile{}
	r.s.read(func(st *state) {
		for _, id := range sortedKeys(st.profiles) {
			out = append(out, *st.assemble(id))
		}
	})
	return out, nil
}

func (r profiles) FindReferencing(_ context.Context, nameEntityID int64) (out []models.Profile, err error) {
	out = []models.Profile{}
	r.s.read(func(st *state) {
		ids := map[int64]bool{}
		for _, e := range st.entries {
			if e.NameEntityID == nameEntityID {
				ids[e.ProfileID] = true
			}
		}
		for _, id := range sortedKeys(ids) {
			out = append(out, *st.assemble(id))
		}
	})
	return out, nil
}

func (r profiles) Save(_ context.Context, p models.Profile) (out models.Profile, err error) {
	err = r.s.write(func(st *state) error {
		saved, err := st.saveProfile(p)
		out = saved
		return err
	})
	return out, err
}

func (r profiles) Touch(_ context.Context, id int64, at time.Time) error {
	return r.s.write(func(st *state) error {
		row, ok := st.profiles[id]
		if !ok {
			return fmt.Errorf("profile %d does not exist", id)
		}
		at = at.UTC()
		row.LastEdited = &at
		st.profiles[id] = row
		return nil
	})
}

func (r profiles) Delete(_ context.Context, id int64) error {
	return r.s.write(func(st *state) error {
		st.deleteProfile(id)
		return nil
	})
}

type notifications struct{ s *Store }

func (r notifications) Create(_ context.Context, n models.Notification) (out models.Notification, err error) {
	err = r.s.write(func(st *state) error {
		if _, ok := st.profiles[n.Header().ProfileID]; !ok {
			return fmt.Errorf("profile %d does not exist", n.Header().ProfileID)
		}
		rec := models.ToRecord(n)
		rec.ID = st.id()
		st.notifications[rec.ID] = rec
		out, _ = rec.ToNotification()
		return nil
	})
	return out, err
}

func (r notifications) FindByID(_ context.Context, id int64) (out models.Notification, err error) {
	r.s.read(func(st *state) {
		if rec, ok := st.notifications[id]; ok {
			out, _ = rec.ToNotification()
		}
	})
	return out, nil
}

func (r notifications) ListByStatus(_ context.Context, status models.NotificationStatus) (out []models.Notification, err error) {
	out = []models.Notification{}
	r.s.read(func(st *state) {
		for _, id := range sortedKeys(st.notifications) {
			rec := st.notifications[id]
			if rec.Status != status {
				continue
			}
			if n, ok := rec.ToNotification(); ok {
				out = append(out, n)
			}
		}
	})
	return out, nil
}

func (r notifications) UpdateStatus(_ context.Context, id int64, status models.NotificationStatus) error {
	return r.s.write(func(st *state) error {
		if rec, ok := st.notifications[id]; ok {
			rec.Status = status
			st.notifications[id] = rec
		}
		return nil
	})
}

func (r notifications) Delete(_ context.Context, id int64) error {
	return r.s.write(func(st *state) error {
		delete(st.notifications, id)
		return nil
	})
}

func (r notifications) deleteWhere(match func(models.NotificationRecord) bool) (n int64, err error) {
	err = r.s.write(func(st *state) error {
		for id, rec := range st.notifications {
			if match(rec) {
				delete(st.notifications, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r notifications) DeleteByStatus(_ context.Context, status models.NotificationStatus) (int64, error) {
	return r.deleteWhere(func(rec models.NotificationRecord) bool { return rec.Status == status })
}

func (r notifications) DeleteBySkillName(_ context.Context, name string) (int64, error) {
	return r.deleteWhere(func(rec models.NotificationRecord) bool {
		return rec.Type == models.KindSkill && rec.Skill != nil && rec.Skill.Name == name
	})
}

func (r notifications) DeleteByProfileID(_ context.Context, profileID int64) (int64, error) {
	return r.deleteWhere(func(rec models.NotificationRecord) bool { return rec.ProfileID == profileID })
}
