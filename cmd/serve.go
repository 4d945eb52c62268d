package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Ramsey-B/sage/pkg/graph"
	"github.com/Ramsey-B/sage/pkg/health"
	"github.com/Ramsey-B/sage/pkg/kafka"
	"github.com/Ramsey-B/sage/pkg/redis"
	"github.com/Ramsey-B/sage/pkg/routes"
	"github.com/Ramsey-B/sage/pkg/routes/admin"
	"github.com/Ramsey-B/sage/pkg/routes/entries"
	graphroutes "github.com/Ramsey-B/sage/pkg/routes/graph"
	"github.com/Ramsey-B/sage/pkg/routes/profile"
	"github.com/Ramsey-B/sage/pkg/routes/suggestion"
	"github.com/Ramsey-B/sage/pkg/startup"
	"github.com/Ramsey-B/sage/pkg/tracing"
	"github.com/spf13/cobra"
)

func (a *App) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the import consumer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *App) serve(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger

	shutdownTracing, err := tracing.Setup(ctx, cfg.AppName, cfg.Version, cfg.OTLP())
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.WithError(err).Warn("failed to flush traces")
		}
	}()

	checker := health.NewChecker(cfg.Version)
	var (
		in       infra
		eng      *engine
		consumer *kafka.Consumer
		server   *http.Server
	)

	s := startup.NewStartup(logger, cfg.StartupMaxAttempts)
	s.AddDependency(startup.Func{
		Name: "store",
		OnStart: func(ctx context.Context) error {
			db, st, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			in.db, in.store = db, st
			checker.AddCheck("store", true, st.Ping)
			return nil
		},
		OnStop: func(context.Context) error {
			if in.db == nil {
				return nil
			}
			return in.db.Close()
		},
	})

	requires := []string{"store"}
	if cfg.RedisEnabled {
		requires = append(requires, "redis")
		s.AddDependency(startup.Func{
			Name: "redis",
			OnStart: func(context.Context) error {
				client, err := redis.NewClient(cfg.Redis(), logger)
				if err != nil {
					return err
				}
				in.redis = client
				checker.AddCheck("redis", false, client.Ping)
				return nil
			},
			OnStop: func(context.Context) error { return in.redis.Close() },
		})
	}
	if cfg.GraphEnabled {
		requires = append(requires, "graph")
		s.AddDependency(startup.Func{
			Name: "graph",
			OnStart: func(ctx context.Context) error {
				client, err := graph.NewClient(cfg.Graph(), logger)
				if err != nil {
					return err
				}
				if err := client.VerifyConnectivity(ctx); err != nil {
					_ = client.Close(ctx)
					return err
				}
				in.graph = client
				checker.AddCheck("graph", false, client.VerifyConnectivity)
				return nil
			},
			OnStop: func(ctx context.Context) error { return in.graph.Close(ctx) },
		})
	}
	if cfg.KafkaProducerEnabled {
		requires = append(requires, "kafka-producer")
		s.AddDependency(startup.Func{
			Name: "kafka-producer",
			OnStart: func(context.Context) error {
				in.producer = kafka.NewProducer(cfg.Producer(), logger)
				return nil
			},
			OnStop: func(context.Context) error { return in.producer.Close() },
		})
	}

	s.AddDependency(startup.Func{
		Name:     "engine",
		Requires: requires,
		OnStart: func(context.Context) error {
			eng = buildEngine(cfg, in, logger)
			return nil
		},
	})

	if cfg.KafkaConsumerEnabled {
		s.AddDependency(startup.Func{
			Name:     "kafka-consumer",
			Requires: []string{"engine"},
			OnStart: func(context.Context) error {
				consumer = kafka.NewConsumer(cfg.Consumer(), logger, kafka.NewImportHandler(eng.pipeline, logger))
				checker.AddCheck("kafka-consumer", false, func(context.Context) error {
					if !consumer.Health() {
						return errors.New("consumer is not running")
					}
					return nil
				})
				return consumer.Start(ctx)
			},
			OnStop: func(context.Context) error { return consumer.Stop() },
		})
	}

	s.AddDependency(startup.Func{
		Name:     "http",
		Requires: []string{"engine"},
		OnStart: func(context.Context) error {
			server = a.httpServer(checker, eng)
			go func() {
				logger.Infof("listening on %s", server.Addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.WithError(err).Error("http server stopped")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error { return server.Shutdown(ctx) },
	})

	if err := s.Start(ctx); err != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.Stop(stopCtx)
		return err
	}
	checker.SetReady(true)
	logger.Info("sage started")

	<-ctx.Done()
	checker.SetReady(false)
	logger.Info("shutting down")

	stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return s.Stop(stopCtx)
}

func (a *App) httpServer(checker *health.Checker, eng *engine) *http.Server {
	cfg, logger := a.cfg, a.logger

	handlers := routes.Handlers{
		Entries:     entries.NewHandler(eng.entries),
		Admin:       admin.NewHandler(eng.center, eng.skills),
		Suggestions: suggestion.NewHandler(eng.store, cfg.Reconcile()),
	}
	if eng.projector != nil {
		handlers.Profiles = profile.NewHandler(eng.store, eng.pipeline, logger, eng.projector)
		handlers.Graph = graphroutes.NewHandler(eng.projector)
	} else {
		handlers.Profiles = profile.NewHandler(eng.store, eng.pipeline, logger)
	}

	e := routes.New(cfg.AppName, logger, checker, handlers)
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           e,
		ReadTimeout:       time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second,
		IdleTimeout:       time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
}
