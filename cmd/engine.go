package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/sage/config"
	"github.com/Ramsey-B/sage/pkg/classifier"
	"github.com/Ramsey-B/sage/pkg/database"
	"github.com/Ramsey-B/sage/pkg/entries"
	"github.com/Ramsey-B/sage/pkg/events"
	"github.com/Ramsey-B/sage/pkg/graph"
	"github.com/Ramsey-B/sage/pkg/kafka"
	"github.com/Ramsey-B/sage/pkg/notifications"
	"github.com/Ramsey-B/sage/pkg/reconcile"
	"github.com/Ramsey-B/sage/pkg/redis"
	"github.com/Ramsey-B/sage/pkg/skills"
	"github.com/Ramsey-B/sage/pkg/store"
	"github.com/Ramsey-B/sage/pkg/store/memory"
	"github.com/Ramsey-B/sage/pkg/store/postgres"
)

// infra holds the connections the engine is built on. Optional pieces are nil
// when disabled.
type infra struct {
	db       database.DB
	store    store.Store
	redis    *redis.Client
	producer *kafka.Producer
	graph    *graph.Client
}

// engine is the wired reconciliation core.
type engine struct {
	store     store.Store
	pipeline  *reconcile.Pipeline
	center    *notifications.Center
	skills    *skills.Service
	entries   *entries.Service
	projector *graph.Projector
}

// openStore connects the configured store, migrating postgres first.
func openStore(ctx context.Context, cfg *config.Config, logger ectologger.Logger) (database.DB, store.Store, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Warn("using the in-memory store; data is lost on exit")
		return nil, memory.New(logger), nil
	}

	db, err := database.Open(ctx, cfg.Database(), logger)
	if err != nil {
		return nil, nil, err
	}
	if err := database.NewMigrationService(logger, cfg.Migration()).Migrate(db, cfg.DatabaseName); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, postgres.New(db, logger), nil
}

func buildEngine(cfg *config.Config, in infra, logger ectologger.Logger) *engine {
	var (
		importHooks []reconcile.Hook
		notifyHooks []notifications.Hook
		renameHooks []skills.Hook
	)
	if in.producer != nil {
		emitter := events.NewEmitter(in.producer, logger)
		importHooks = append(importHooks, emitter)
		notifyHooks = append(notifyHooks, emitter)
		renameHooks = append(renameHooks, emitter)
	}

	var projector *graph.Projector
	if in.graph != nil {
		projector = graph.NewProjector(in.graph, logger)
		importHooks = append(importHooks, projector)
		notifyHooks = append(notifyHooks, projector)
		renameHooks = append(renameHooks, projector)
	}

	renamer := skills.NewService(in.store, logger, renameHooks...)
	center := notifications.NewCenter(in.store, renamer, logger, notifyHooks...)

	var cache classifier.Cache
	if in.redis != nil {
		cache = in.redis
	}
	skillClassifier := classifier.NewResilient(classifier.NewClient(cfg.Classifier(), logger), cache, cfg.ClassifierCacheTTL, logger)

	opts := []reconcile.Option{reconcile.WithHooks(importHooks...)}
	if in.redis != nil {
		locker := redis.NewLocker(in.redis, "sage:lock:", 10*time.Second)
		opts = append(opts, reconcile.WithLocker(locker, cfg.ImportLockTTL))
		renamer.UseLocker(locker, 0)
	}

	settings := cfg.Reconcile()
	return &engine{
		store:     in.store,
		pipeline:  reconcile.NewPipeline(in.store, skillClassifier, center, settings, logger, opts...),
		center:    center,
		skills:    renamer,
		entries:   entries.NewService(in.store, skillClassifier, center, settings, logger, importHooks...),
		projector: projector,
	}
}
