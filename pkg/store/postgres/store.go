// Package postgres backs the store interfaces with PostgreSQL through the
// table repositories.
package postgres

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/sage/internal/repositories/nameentity"
	"github.com/Ramsey-B/sage/internal/repositories/notification"
	"github.com/Ramsey-B/sage/internal/repositories/profile"
	"github.com/Ramsey-B/sage/internal/repositories/profileentry"
	"github.com/Ramsey-B/sage/internal/repositories/project"
	"github.com/Ramsey-B/sage/internal/repositories/skill"
	"github.com/Ramsey-B/sage/pkg/database"
	"github.com/Ramsey-B/sage/pkg/store"
)

type Store struct {
	db            database.DB
	nameEntities  *nameentity.Repository
	skills        *skill.Repository
	entries       *profileentry.Repository
	projects      *project.Repository
	profileRows   *profile.Repository
	notifications *notification.Repository
	profiles      *profiles
	logger        ectologger.Logger
}

var _ store.Store = (*Store)(nil)

func New(db database.DB, logger ectologger.Logger) *Store {
	s := &Store{
		db:            db,
		nameEntities:  nameentity.NewRepository(db, logger),
		skills:        skill.NewRepository(db, logger),
		entries:       profileentry.NewRepository(db, logger),
		projects:      project.NewRepository(db, logger),
		profileRows:   profile.NewRepository(db, logger),
		notifications: notification.NewRepository(db, logger),
		logger:        logger,
	}
	s.profiles = &profiles{s: s}
	return s
}

// WithinTx runs fn in the transaction carried by ctx, opening one if needed.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return database.WithinTx(ctx, s.db, fn)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) NameEntities() store.NameEntities   { return s.nameEntities }
func (s *Store) Skills() store.Skills               { return s.skills }
func (s *Store) Entries() store.Entries             { return s.entries }
func (s *Store) Projects() store.Projects           { return projectLinker{s: s} }
func (s *Store) Profiles() store.Profiles           { return s.profiles }
func (s *Store) Notifications() store.Notifications { return s.notifications }
