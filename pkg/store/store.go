// Package store declares the persistence boundary the reconciliation engine
// consumes. Lookups return (nil, nil) when a row does not exist.
package store

import (
	"context"
	"time"

	"github.com/Ramsey-B/sage/pkg/models"
)

type NameEntities interface {
	FindByID(ctx context.Context, id int64) (*models.NameEntity, error)
	FindByNameAndCategory(ctx context.Context, name string, category models.Category) (*models.NameEntity, error)
	ListByCategory(ctx context.Context, category models.Category) ([]models.NameEntity, error)
	// Create inserts the value or returns the existing row for its
	// (name, category). inserted is false when the row already existed.
	Create(ctx context.Context, ne models.NameEntity) (created models.NameEntity, inserted bool, err error)
	Update(ctx context.Context, ne models.NameEntity) error
	Delete(ctx context.Context, id int64) error
}

type Skills interface {
	Save(ctx context.Context, profileID int64, skill models.Skill) (models.Skill, error)
	FindByID(ctx context.Context, profileID, skillID int64) (*models.Skill, error)
	Delete(ctx context.Context, profileID, skillID int64) error
	FindAllByName(ctx context.Context, name string) ([]models.Skill, error)
	ListNames(ctx context.Context) ([]string, error)
}

// EntryRef locates an entry inside its owning profile.
type EntryRef struct {
	ProfileID int64
	Category  models.Category
	Entry     models.ProfileEntry
}

type Entries interface {
	Save(ctx context.Context, profileID int64, category models.Category, entry models.ProfileEntry) (models.ProfileEntry, error)
	FindByID(ctx context.Context, id int64) (*EntryRef, error)
	Delete(ctx context.Context, id int64) error
}

type Projects interface {
	Save(ctx context.Context, profileID int64, project models.Project) (models.Project, error)
	FindByID(ctx context.Context, profileID, projectID int64) (*models.Project, error)
	Delete(ctx context.Context, profileID, projectID int64) error
}

type Profiles interface {
	Create(ctx context.Context) (models.Profile, error)
	FindByID(ctx context.Context, id int64) (*models.Profile, error)
	FindAll(ctx context.Context) ([]models.Profile, error)
	// FindReferencing returns every profile with an entry pointing at the
	// reference value.
	FindReferencing(ctx context.Context, nameEntityID int64) ([]models.Profile, error)
	// Save writes the full graph: base fields, entries, skills and projects.
	// Children missing from p are removed. Project skills are linked to the
	// profile skill of the same id, or failing that the same name.
	Save(ctx context.Context, p models.Profile) (models.Profile, error)
	// Touch stamps the last-edited time without rewriting the graph.
	Touch(ctx context.Context, id int64, at time.Time) error
	Delete(ctx context.Context, id int64) error
}

type Notifications interface {
	Create(ctx context.Context, n models.Notification) (models.Notification, error)
	FindByID(ctx context.Context, id int64) (models.Notification, error)
	ListByStatus(ctx context.Context, status models.NotificationStatus) ([]models.Notification, error)
	UpdateStatus(ctx context.Context, id int64, status models.NotificationStatus) error
	Delete(ctx context.Context, id int64) error
	DeleteByStatus(ctx context.Context, status models.NotificationStatus) (int64, error)
	DeleteBySkillName(ctx context.Context, name string) (int64, error)
	DeleteByProfileID(ctx context.Context, profileID int64) (int64, error)
}

type Transactor interface {
	// WithinTx runs fn as one atomic unit of work. Nested calls join the
	// outer unit.
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store bundles every repository the engine needs.
type Store interface {
	Transactor
	NameEntities() NameEntities
	Skills() Skills
	Entries() Entries
	Projects() Projects
	Profiles() Profiles
	Notifications() Notifications
	Ping(ctx context.Context) error
}
