package reconcile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"
	sagecontext "github.com/Ramsey-B/sage/pkg/context"
	sageerrors "github.com/Ramsey-B/sage/pkg/errors"
	"github.com/Ramsey-B/sage/pkg/metrics"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/store"
	"github.com/Ramsey-B/sage/pkg/tracing"
)

// NotificationSink persists queued notifications inside the caller's unit of
// work and returns them with ids assigned.
type NotificationSink interface {
	RaiseAll(ctx context.Context, notifications []models.Notification) ([]models.Notification, error)
}

// Locker serializes work on a key across service instances.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func() error) error
}

// Result is what a committed import produced.
type Result struct {
	Profile       models.Profile
	Notifications []models.Notification
	Updated       bool
}

// Hook observes committed imports. Errors are logged and never undo the import.
type Hook interface {
	AfterImport(ctx context.Context, result Result) error
}

type Option func(*Pipeline)

// WithLocker serializes imports of the same profile.
func WithLocker(l Locker, ttl time.Duration) Option {
	return func(p *Pipeline) {
		p.locker = l
		p.lockTTL = ttl
	}
}

func WithHooks(hooks ...Hook) Option {
	return func(p *Pipeline) {
		p.hooks = append(p.hooks, hooks...)
	}
}

// Pipeline merges submitted profile graphs into canonical storage.
type Pipeline struct {
	store     store.Store
	validator *EntryValidator
	refs      *ReferenceResolver
	skills    *SkillResolver
	sink      NotificationSink
	locker    Locker
	lockTTL   time.Duration
	hooks     []Hook
	logger    ectologger.Logger
}

func NewPipeline(st store.Store, c Classifier, sink NotificationSink, settings Settings, logger ectologger.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:     st,
		validator: NewEntryValidator(settings),
		refs:      NewReferenceResolver(st.NameEntities(), logger),
		skills:    NewSkillResolver(st.Skills(), c, logger),
		sink:      sink,
		lockTTL:   30 * time.Second,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// References exposes the resolver for fine-grained profile edits.
func (p *Pipeline) References() *ReferenceResolver { return p.refs }

// Skills exposes the skill resolver for fine-grained profile edits.
func (p *Pipeline) Skills() *SkillResolver { return p.skills }

// Validator exposes the entry validator for fine-grained profile edits.
func (p *Pipeline) Validator() *EntryValidator { return p.validator }

// ImportProfile reconciles profile into canonical storage and returns the
// persisted graph.
func (p *Pipeline) ImportProfile(ctx context.Context, profile models.Profile) (models.Profile, error) {
	ctx, span := tracing.StartSpan(ctx, "Pipeline.ImportProfile")
	defer span.End()
	return p.run(ctx, profile, false)
}

// UpdateProfile imports profile and records a PROFILE_UPDATED notification.
func (p *Pipeline) UpdateProfile(ctx context.Context, profile models.Profile) (models.Profile, error) {
	ctx, span := tracing.StartSpan(ctx, "Pipeline.UpdateProfile")
	defer span.End()
	return p.run(ctx, profile, true)
}

func (p *Pipeline) run(ctx context.Context, profile models.Profile, updated bool) (models.Profile, error) {
	start := time.Now()
	ctx = sagecontext.SetProfileID(ctx, profile.ID)
	log := p.logger.WithContext(ctx).WithField("profile_id", profile.ID)

	if messages := p.validator.Validate(profile); len(messages) > 0 {
		metrics.RecordImport("invalid", time.Since(start).Seconds())
		log.WithField("errors", messages).Info("rejected invalid profile")
		return models.Profile{}, sageerrors.NewValidationError(messages)
	}

	var (
		result Result
		stage  = "begin"
		ran    bool
	)
	work := func() error {
		ran = true
		return p.store.WithinTx(ctx, func(ctx context.Context) error {
			var err error
			result, err = p.reconcile(ctx, profile, updated, &stage)
			return err
		})
	}

	var err error
	if p.locker != nil {
		err = p.locker.WithLock(ctx, fmt.Sprintf("profile:%d", profile.ID), p.lockTTL, work)
		if err != nil && !ran {
			log.WithError(err).Warn("failed to acquire profile import lock")
			metrics.RecordImport("conflict", time.Since(start).Seconds())
			return models.Profile{}, sageerrors.Conflict(fmt.Sprintf("Profile with id: %d is already being imported!", profile.ID))
		}
	} else {
		err = work()
	}

	if err != nil {
		metrics.RecordImport("failed", time.Since(start).Seconds())
		status := sageerrors.StatusCode(err)
		if status >= 400 && status < 500 {
			return models.Profile{}, err
		}
		log.WithError(err).WithField("stage", stage).Error("profile import failed, rolled back")
		return models.Profile{}, fmt.Errorf("profile import failed at stage %s: %w", stage, err)
	}

	metrics.RecordImport("success", time.Since(start).Seconds())
	log.WithFields(map[string]any{
		"notifications": len(result.Notifications),
		"skills":        len(result.Profile.Skills),
		"projects":      len(result.Profile.Projects),
		"updated":       updated,
	}).Info("imported profile")

	for _, h := range p.hooks {
		if err := h.AfterImport(ctx, result); err != nil {
			log.WithError(err).Warnf("import hook %T failed", h)
		}
	}
	return result.Profile, nil
}

// reconcile runs the import stages in order. Each stage receives a snapshot
// and returns a new one. stage tracks the step reached for failure logs.
func (p *Pipeline) reconcile(ctx context.Context, submitted models.Profile, updated bool, stage *string) (Result, error) {
	*stage = "load"
	existing, err := p.store.Profiles().FindByID(ctx, submitted.ID)
	if err != nil {
		return Result{}, err
	}
	if existing == nil {
		return Result{}, sageerrors.NotFound("Profile with id: %d was not found!", submitted.ID)
	}

	*stage = "remove_invalid"
	current := p.validator.RemoveInvalid(submitted)
	current.Skills = dropBlankSkills(current.Skills)

	*stage = "entries"
	current, queued, err := p.resolveEntries(ctx, current)
	if err != nil {
		return Result{}, err
	}

	*stage = "profile_skills"
	index := NewSkillIndex(existing.Skills)
	current, index, skillNotes, err := p.resolveProfileSkills(ctx, current, index)
	if err != nil {
		return Result{}, err
	}
	queued = append(queued, skillNotes...)

	*stage = "project_skills"
	current, index, skillNotes, err = p.resolveProjectSkills(ctx, current, index)
	if err != nil {
		return Result{}, err
	}
	queued = append(queued, skillNotes...)

	*stage = "projects"
	current.Skills = index.Skills()
	current, err = p.resolveProjects(ctx, current)
	if err != nil {
		return Result{}, err
	}

	*stage = "save"
	now := time.Now().UTC()
	current.LastEdited = &now
	saved, err := p.store.Profiles().Save(ctx, current)
	if err != nil {
		return Result{}, err
	}
	if updated {
		queued = append(queued, models.NewProfileUpdatedNotification(saved.ID))
	}

	*stage = "notifications"
	raised, err := p.sink.RaiseAll(ctx, queued)
	if err != nil {
		return Result{}, err
	}

	return Result{Profile: saved, Notifications: raised, Updated: updated}, nil
}

func (p *Pipeline) resolveEntries(ctx context.Context, in models.Profile) (models.Profile, []models.Notification, error) {
	out := in.Clone()
	var queued []models.Notification

	for _, c := range models.EntryCategories {
		entries := out.Entries(c)
		if len(entries) == 0 {
			continue
		}
		resolved := make([]models.ProfileEntry, 0, len(entries))
		seen := map[string]bool{}
		for _, e := range entries {
			ne, created, err := p.refs.Resolve(ctx, e.NameEntity, c)
			if err != nil {
				return in, nil, err
			}
			e.NameEntity = ne
			// Two spellings that trim to the same value collapse here.
			key := fmt.Sprintf("%d|%s", ne.ID, degreeKey(c, e))
			if seen[key] {
				continue
			}
			seen[key] = true

			saved, err := p.store.Entries().Save(ctx, out.ID, c, e)
			if err != nil {
				return in, nil, fmt.Errorf("failed to save %s entry: %w", c.EntryKind(), err)
			}
			resolved = append(resolved, saved)
			if created {
				queued = append(queued, models.NewProfileEntryNotification(out.ID, saved.ID, *ne))
			}
		}
		out.SetEntries(c, resolved)
	}
	return out, queued, nil
}

func degreeKey(c models.Category, e models.ProfileEntry) string {
	if c == models.CategoryEducation {
		return e.Degree
	}
	return ""
}

func (p *Pipeline) resolveProfileSkills(ctx context.Context, in models.Profile, ix SkillIndex) (models.Profile, SkillIndex, []models.Notification, error) {
	out := in.Clone()
	var queued []models.Notification
	for _, s := range in.Skills {
		res, next, err := p.skills.ResolveProfileSkill(ctx, in.ID, s, ix)
		if err != nil {
			return in, ix, nil, err
		}
		ix = next
		if res.Notification != nil {
			queued = append(queued, res.Notification)
		}
	}
	out.Skills = ix.Skills()
	return out, ix, queued, nil
}

func (p *Pipeline) resolveProjectSkills(ctx context.Context, in models.Profile, ix SkillIndex) (models.Profile, SkillIndex, []models.Notification, error) {
	out := in.Clone()
	var queued []models.Notification
	for i, pr := range in.Projects {
		keys := []string{}
		for _, s := range dropBlankSkills(pr.Skills) {
			res, next, err := p.skills.ResolveProjectSkill(ctx, in.ID, s, ix)
			if err != nil {
				return in, ix, nil, err
			}
			ix = next
			if res.Notification != nil {
				queued = append(queued, res.Notification)
			}
			if !ectolinq.Contains(keys, res.Skill.Key()) {
				keys = append(keys, res.Skill.Key())
			}
		}
		out.Projects[i].Skills = skillsForKeys(ix, keys)
	}
	// Ratings may have been raised by a later project; refresh every view.
	for i := range out.Projects {
		out.Projects[i].Skills = skillsForKeys(ix, skillKeys(out.Projects[i].Skills))
	}
	out.Skills = ix.Skills()
	return out, ix, queued, nil
}

func (p *Pipeline) resolveProjects(ctx context.Context, in models.Profile) (models.Profile, error) {
	out := in.Clone()
	for i, pr := range in.Projects {
		client, _, err := p.refs.Resolve(ctx, pr.Client, models.CategoryCompany)
		if err != nil {
			return in, err
		}
		broker, _, err := p.refs.Resolve(ctx, pr.Broker, models.CategoryCompany)
		if err != nil {
			return in, err
		}
		roles := make([]models.NameEntity, 0, len(pr.Roles))
		for j := range pr.Roles {
			role, _, err := p.refs.Resolve(ctx, &pr.Roles[j], models.CategoryProjectRole)
			if err != nil {
				return in, err
			}
			if !ectolinq.Contains(roleIDs(roles), role.ID) {
				roles = append(roles, *role)
			}
		}

		pr.Client, pr.Broker, pr.Roles = client, broker, roles
		saved, err := p.store.Projects().Save(ctx, in.ID, pr)
		if err != nil {
			return in, fmt.Errorf("failed to save project %q: %w", pr.Name, err)
		}
		out.Projects[i] = saved
	}
	return out, nil
}

func dropBlankSkills(skills []models.Skill) []models.Skill {
	return ectolinq.Filter(skills, func(s models.Skill) bool {
		return strings.TrimSpace(s.Name) != ""
	})
}

func roleIDs(roles []models.NameEntity) []int64 {
	return ectolinq.Map(roles, func(r models.NameEntity) int64 { return r.ID })
}

func skillKeys(skills []models.Skill) []string {
	return ectolinq.Map(skills, func(s models.Skill) string { return s.Key() })
}

func skillsForKeys(ix SkillIndex, keys []string) []models.Skill {
	out := make([]models.Skill, 0, len(keys))
	for _, k := range keys {
		if s, ok := ix.Lookup(k); ok {
			out = append(out, s)
		}
	}
	return out
}
