package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/sage/pkg/classifier"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/store"
	"github.com/Ramsey-B/sage/pkg/tracing"
)

// Classifier never fails; degraded lookups come back as the fallback.
type Classifier interface {
	Classify(ctx context.Context, name string) classifier.Classification
}

// SkillIndex is an immutable view of the skills resolved so far in one
// import, keyed by merge identity and kept in first-seen order. stored holds
// the profile's persisted skills so a resubmitted skill keeps its row.
// flagged holds the keys already reported as blacklisted in this import.
type SkillIndex struct {
	order   []string
	byKey   map[string]models.Skill
	stored  map[string]models.Skill
	flagged map[string]bool
}

func NewSkillIndex(stored []models.Skill) SkillIndex {
	ix := SkillIndex{byKey: map[string]models.Skill{}, stored: map[string]models.Skill{}, flagged: map[string]bool{}}
	for _, s := range stored {
		if _, dup := ix.stored[s.Key()]; !dup {
			ix.stored[s.Key()] = s
		}
	}
	return ix
}

func (ix SkillIndex) Lookup(key string) (models.Skill, bool) {
	s, ok := ix.byKey[key]
	return s, ok
}

// With returns a copy of the index holding s.
func (ix SkillIndex) With(s models.Skill) SkillIndex {
	next := SkillIndex{
		order:   append([]string(nil), ix.order...),
		byKey:   make(map[string]models.Skill, len(ix.byKey)+1),
		stored:  ix.stored,
		flagged: ix.flagged,
	}
	for k, v := range ix.byKey {
		next.byKey[k] = v
	}
	if _, ok := next.byKey[s.Key()]; !ok {
		next.order = append(next.order, s.Key())
	}
	next.byKey[s.Key()] = s.Clone()
	return next
}

// withFlag returns a copy of the index with key marked as reported.
func (ix SkillIndex) withFlag(key string) SkillIndex {
	flagged := make(map[string]bool, len(ix.flagged)+1)
	for k := range ix.flagged {
		flagged[k] = true
	}
	flagged[key] = true
	ix.flagged = flagged
	return ix
}

// Skills returns the resolved skills in first-seen order.
func (ix SkillIndex) Skills() []models.Skill {
	return ectolinq.Map(ix.order, func(k string) models.Skill {
		return ix.byKey[k].Clone()
	})
}

func (ix SkillIndex) Len() int {
	return len(ix.order)
}

// Resolution is the outcome of resolving one submitted skill.
type Resolution struct {
	Skill        models.Skill
	Created      bool
	Notification models.Notification
}

// SkillResolver deduplicates skills case-insensitively within a profile.
type SkillResolver struct {
	skills     store.Skills
	classifier Classifier
	logger     ectologger.Logger
}

func NewSkillResolver(skills store.Skills, c Classifier, logger ectologger.Logger) *SkillResolver {
	return &SkillResolver{skills: skills, classifier: c, logger: logger}
}

// ResolveProfileSkill resolves a skill from the profile's own skill set.
func (r *SkillResolver) ResolveProfileSkill(ctx context.Context, profileID int64, skill models.Skill, ix SkillIndex) (Resolution, SkillIndex, error) {
	ctx, span := tracing.StartSpan(ctx, "SkillResolver.ResolveProfileSkill")
	defer span.End()
	return r.resolve(ctx, profileID, skill, ix)
}

// ResolveProjectSkill resolves a project skill against the profile skills
// resolved so far. A skill the profile does not hold yet is added to it, so
// the returned index always contains the result.
func (r *SkillResolver) ResolveProjectSkill(ctx context.Context, profileID int64, skill models.Skill, profileSkills SkillIndex) (Resolution, SkillIndex, error) {
	ctx, span := tracing.StartSpan(ctx, "SkillResolver.ResolveProjectSkill")
	defer span.End()
	return r.resolve(ctx, profileID, skill, profileSkills)
}

func (r *SkillResolver) resolve(ctx context.Context, profileID int64, incoming models.Skill, ix SkillIndex) (Resolution, SkillIndex, error) {
	incoming = incoming.Clone()
	incoming.Name = strings.TrimSpace(incoming.Name)
	key := incoming.Key()

	if canonical, ok := ix.Lookup(key); ok {
		canonical.Rating = max(canonical.Rating, incoming.Rating)
		canonical.Versions = mergeVersions(canonical.Versions, incoming.Versions)
		res := Resolution{Skill: canonical}
		ix = ix.With(canonical)

		// Every occurrence is classified, but a blacklisted key is reported
		// once per import.
		verdict := r.classifier.Classify(ctx, incoming.Name)
		if verdict.Blacklisted && !ix.flagged[key] {
			res.Notification = models.NewSkillNotification(profileID, canonical, models.ReasonSkillBlacklisted)
			ix = ix.withFlag(key)
			r.logNotification(ctx, profileID, canonical.Name, res.Notification, verdict)
		}
		return res, ix, nil
	}

	if incoming.ID == 0 {
		if stored, ok := ix.stored[key]; ok {
			incoming.ID = stored.ID
		}
	}

	saved, err := r.skills.Save(ctx, profileID, incoming)
	if err != nil {
		return Resolution{}, ix, fmt.Errorf("failed to save skill %q: %w", incoming.Name, err)
	}
	created := incoming.ID == 0 || saved.ID != incoming.ID

	res := Resolution{Skill: saved, Created: created}
	ix = ix.With(saved)
	verdict := r.classifier.Classify(ctx, saved.Name)
	switch {
	case verdict.Blacklisted:
		res.Notification = models.NewSkillNotification(profileID, saved, models.ReasonSkillBlacklisted)
		ix = ix.withFlag(key)
	case created:
		res.Notification = models.NewSkillNotification(profileID, saved, models.ReasonSkillUnknown)
	}

	if res.Notification != nil {
		r.logNotification(ctx, profileID, saved.Name, res.Notification, verdict)
	}
	return res, ix, nil
}

func (r *SkillResolver) logNotification(ctx context.Context, profileID int64, name string, n models.Notification, verdict classifier.Classification) {
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"profile_id":  profileID,
		"skill_name":  name,
		"reason":      n.Header().Reason,
		"qualifier":   verdict.Qualifier,
		"blacklisted": verdict.Blacklisted,
	}).Debug("queued skill notification")
}

func mergeVersions(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	out := append([]string(nil), a...)
	for _, v := range b {
		if !ectolinq.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
