package skills

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	sageerrors "github.com/Ramsey-B/sage/pkg/errors"
	"github.com/Ramsey-B/sage/pkg/metrics"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/store"
	"github.com/Ramsey-B/sage/pkg/tracing"
)

// Hook observes committed renames.
type Hook interface {
	AfterRename(ctx context.Context, oldName, newName string, profiles []models.Profile) error
}

// Locker serializes global renames across instances.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func() error) error
}

// Service renames skills across every stored profile.
type Service struct {
	store   store.Store
	locker  Locker
	lockTTL time.Duration
	hooks   []Hook
	logger  ectologger.Logger
}

func NewService(st store.Store, logger ectologger.Logger, hooks ...Hook) *Service {
	return &Service{store: st, logger: logger, hooks: hooks, lockTTL: 2 * time.Minute}
}

// UseLocker makes Rename hold a global lock. A nil locker disables locking.
func (s *Service) UseLocker(l Locker, ttl time.Duration) {
	s.locker = l
	if ttl > 0 {
		s.lockTTL = ttl
	}
}

// RenameAndMerge returns every stored profile touched by renaming oldName to
// newName, with duplicates merged. Nothing is persisted.
func (s *Service) RenameAndMerge(ctx context.Context, oldName, newName string) ([]models.Profile, error) {
	ctx, span := tracing.StartSpan(ctx, "SkillService.RenameAndMerge")
	defer span.End()

	all, err := s.store.Profiles().FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}

	touched := []models.Profile{}
	for _, p := range all {
		if renamed, changed := RenameInProfile(p, oldName, newName); changed {
			touched = append(touched, renamed)
		}
	}
	return touched, nil
}

// Apply renames and persists inside the caller's unit of work.
func (s *Service) Apply(ctx context.Context, oldName, newName string) ([]models.Profile, error) {
	ctx, span := tracing.StartSpan(ctx, "SkillService.Apply")
	defer span.End()

	touched, err := s.RenameAndMerge(ctx, oldName, newName)
	if err != nil {
		return nil, err
	}

	saved := make([]models.Profile, 0, len(touched))
	for _, p := range touched {
		out, err := s.store.Profiles().Save(ctx, p)
		if err != nil {
			s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"profile_id": p.ID,
				"old_name":   oldName,
				"new_name":   newName,
			}).Error("failed to save renamed profile")
			return nil, fmt.Errorf("failed to save profile %d: %w", p.ID, err)
		}
		saved = append(saved, out)
	}
	return saved, nil
}

// Rename renames oldName to newName everywhere as one unit of work and
// returns the number of affected profiles.
func (s *Service) Rename(ctx context.Context, oldName, newName string) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "SkillService.Rename")
	defer span.End()

	oldName, newName = strings.TrimSpace(oldName), strings.TrimSpace(newName)
	if oldName == "" || newName == "" {
		return 0, sageerrors.BadRequest("oldname and newname are required")
	}

	var saved []models.Profile
	work := func() error {
		return s.store.WithinTx(ctx, func(ctx context.Context) error {
			var err error
			saved, err = s.Apply(ctx, oldName, newName)
			return err
		})
	}

	var err error
	if s.locker != nil {
		err = s.locker.WithLock(ctx, "skill-rename", s.lockTTL, work)
	} else {
		err = work()
	}
	if err != nil {
		return 0, err
	}

	metrics.RecordSkillRename()
	s.logger.WithContext(ctx).WithFields(map[string]any{
		"old_name":          oldName,
		"new_name":          newName,
		"affected_profiles": len(saved),
	}).Info("renamed skill")

	for _, h := range s.hooks {
		if err := h.AfterRename(ctx, oldName, newName, saved); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warnf("rename hook %T failed", h)
		}
	}
	return len(saved), nil
}
