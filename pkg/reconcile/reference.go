package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/sage/pkg/metrics"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/store"
	"github.com/Ramsey-B/sage/pkg/tracing"
)

// ReferenceResolver maps submitted reference values onto the canonical row
// for their (name, category), creating it when none exists.
type ReferenceResolver struct {
	names  store.NameEntities
	logger ectologger.Logger
}

func NewReferenceResolver(names store.NameEntities, logger ectologger.Logger) *ReferenceResolver {
	return &ReferenceResolver{names: names, logger: logger}
}

// Resolve returns the canonical value for candidate and whether this call
// created it. A nil candidate resolves to nil. Any id the candidate carries is
// ignored: identity is (name, category) only.
func (r *ReferenceResolver) Resolve(ctx context.Context, candidate *models.NameEntity, category models.Category) (*models.NameEntity, bool, error) {
	if candidate == nil {
		return nil, false, nil
	}

	ctx, span := tracing.StartSpan(ctx, "ReferenceResolver.Resolve")
	defer span.End()

	name := strings.TrimSpace(candidate.Name)
	existing, err := r.names.FindByNameAndCategory(ctx, name, category)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up %s %q: %w", category, name, err)
	}
	if existing != nil {
		return existing, false, nil
	}

	// Create is an upsert on (name, category): a concurrent import that won
	// the race hands back its row with inserted=false.
	created, inserted, err := r.names.Create(ctx, models.NameEntity{Name: name, Category: category})
	if err != nil {
		return nil, false, fmt.Errorf("failed to create %s %q: %w", category, name, err)
	}
	if inserted {
		metrics.RecordReferenceCreated(string(category))
		r.logger.WithContext(ctx).WithFields(map[string]any{
			"name_entity_id": created.ID,
			"name":           created.Name,
			"category":       category,
		}).Info("created reference value")
	}
	return &created, inserted, nil
}
