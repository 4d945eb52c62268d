package classifier

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	sageerrors "github.com/Ramsey-B/sage/pkg/errors"
	"github.com/Ramsey-B/sage/pkg/metrics"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/tracing"
)

// Source is anything that can classify a skill and may fail doing so.
type Source interface {
	Classify(ctx context.Context, name string) (Classification, error)
}

// Cache stores classifications between imports.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, expiration time.Duration) error
}

// Resilient never fails: it serves cached answers, calls the source, and on
// any error falls back to the safe default.
type Resilient struct {
	source Source
	cache  Cache
	ttl    time.Duration
	logger ectologger.Logger
}

// NewResilient wraps source. cache may be nil.
func NewResilient(source Source, cache Cache, ttl time.Duration, logger ectologger.Logger) *Resilient {
	return &Resilient{source: source, cache: cache, ttl: ttl, logger: logger}
}

func cacheKey(name string) string {
	return "classifier:" + models.SkillKey(name)
}

func (r *Resilient) Classify(ctx context.Context, name string) Classification {
	ctx, span := tracing.StartSpan(ctx, "Classifier.Classify")
	defer span.End()

	log := r.logger.WithContext(ctx).WithField("skill_name", name)

	if r.cache != nil {
		var cached Classification
		found, err := r.cache.GetJSON(ctx, cacheKey(name), &cached)
		if err != nil {
			log.WithError(err).Warn("failed to read classifier cache")
		} else if found {
			metrics.RecordClassifierRequest("cache_hit")
			return cached
		}
	}

	if r.source == nil {
		metrics.RecordClassifierRequest("fallback")
		return Fallback()
	}

	result, err := r.source.Classify(ctx, name)
	if err != nil {
		log.WithError(err).WithField("cause", sageerrors.ErrClassifierDegraded.Error()).Warn("classifier unavailable, using fallback")
		metrics.RecordClassifierRequest("fallback")
		return Fallback()
	}
	metrics.RecordClassifierRequest("ok")

	if r.cache != nil {
		if err := r.cache.SetJSON(ctx, cacheKey(name), result, r.ttl); err != nil {
			log.WithError(err).Warn("failed to write classifier cache")
		}
	}
	return result
}
