package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/internal/database"
	catalogrepo "github.com/Ramsey-B/fern/internal/repositories/catalog"
	"github.com/Ramsey-B/fern/pkg/catalog"
	"github.com/Ramsey-B/fern/pkg/container"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/jobs"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/middleware"
	fernredis "github.com/Ramsey-B/fern/pkg/redis"
	"github.com/Ramsey-B/fern/pkg/resolution"
	"github.com/Ramsey-B/fern/pkg/routes/cards"
	"github.com/Ramsey-B/fern/pkg/routes/health"
	"github.com/Ramsey-B/fern/pkg/routes/imports"
	"github.com/Ramsey-B/fern/pkg/startup"
	"github.com/Ramsey-B/fern/pkg/submissions"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const shutdownTimeout = 15 * time.Second

var errConsumerStopped = errors.New("submission consumer is not running")

func newServeCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the resolution API and submission consumer",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}
}

type service struct {
	cfg     config.Config
	logger  ectologger.Logger
	boot    *startup.Startup
	checker *health.Checker

	db       *sqlx.DB
	redis    *fernredis.Client
	producer *kafka.Producer
	consumer *kafka.Consumer
}

func runServe(ctx context.Context, cfg config.Config) error {
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		ServiceName: cfg.AppName,
		Version:     cfg.Version,
		Endpoint:    cfg.OtelEndpoint,
		Protocol:    cfg.OtelProtocol,
		Insecure:    cfg.OtelInsecure,
		SampleRatio: cfg.OtelSampleRatio,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.WithError(err).Warn("Failed to flush traces")
		}
	}()

	policy, err := matching.LoadPolicy(cfg.MatchPolicyPath)
	if err != nil {
		return err
	}

	svc := &service{
		cfg:     cfg,
		logger:  logger,
		boot:    startup.NewStartup(logger, cfg.StartupMaxAttempts),
		checker: health.NewChecker(cfg.Version),
	}
	svc.registerDependencies()

	if err := svc.boot.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := svc.boot.Stop(stopCtx); err != nil {
			logger.WithError(err).Error("Failed to stop dependencies")
		}
	}()

	cat, err := svc.catalog()
	if err != nil {
		return err
	}

	engine := resolution.NewEngine(logger, cat, policy, cfg.Orgs())
	store := svc.jobStore()
	runner := jobs.NewRunner(logger, engine, store, jobs.RunnerOptions{
		ProgressInterval: cfg.JobProgressInterval,
		ResultTTL:        cfg.JobResultTTL,
	})

	if svc.producer != nil {
		handler := submissions.NewHandler(logger, engine, events.NewEmitter(svc.producer, logger))
		svc.consumer = kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers:         cfg.KafkaBrokers,
			Topic:           cfg.KafkaSubmissionsTopic,
			ConsumerGroup:   cfg.KafkaConsumerGroup,
			RetryBackoff:    cfg.KafkaRetryBackoff,
			MaxRetryBackoff: cfg.KafkaMaxRetryBackoff,
		}, logger, handler.Handle)
		if err := svc.consumer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start submission consumer: %w", err)
		}
		svc.checker.AddCheck("consumer", health.PingFunc(func(context.Context) error {
			if !svc.consumer.Health() {
				return errConsumerStopped
			}
			return nil
		}))
		defer func() {
			if err := svc.consumer.Stop(); err != nil {
				logger.WithError(err).Warn("Failed to stop submission consumer")
			}
		}()
	}

	if _, err := container.New(cfg.AppName, container.Dependencies{
		Logger: logger,
		Engine: engine,
		Runner: runner,
		Store:  store,
		Limits: jobs.Limits{
			MaxRows:        cfg.ImportMaxRows,
			MaxUploadBytes: int64(cfg.ImportMaxUploadBytes),
		},
	}); err != nil {
		return err
	}

	e := svc.newEcho()
	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           e,
		ReadTimeout:       time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second,
		IdleTimeout:       time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.WithField("port", cfg.Port).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()
	svc.checker.SetReady(true)

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	svc.checker.SetReady(false)
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// registerDependencies adds the configured external dependencies to the
// startup manager and the health checker
func (s *service) registerDependencies() {
	cfg := s.cfg

	if cfg.DatabaseHost != "" {
		s.boot.AddDependency(startup.Dependency{
			Name: "database",
			StartFunc: func(ctx context.Context) error {
				db, err := database.Connect(ctx, databaseConfig(cfg), s.logger)
				if err != nil {
					return err
				}
				migrations := database.NewMigrationService(s.logger, migrationConfig(cfg))
				if err := migrations.MigratePostgres(db.DB, cfg.DatabaseName); err != nil {
					_ = db.Close()
					return err
				}
				s.db = db
				return nil
			},
			StopFunc: func(context.Context) error {
				return s.db.Close()
			},
		})
		s.checker.AddCheck("database", health.PingFunc(func(ctx context.Context) error {
			if s.db == nil {
				return errors.New("database not connected")
			}
			return s.db.PingContext(ctx)
		}))
	}

	if cfg.JobStore == "redis" {
		s.redis = fernredis.NewClient(fernredis.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, s.logger)
		s.boot.AddDependency(startup.Dependency{
			Name:      "redis",
			StartFunc: s.redis.Connect,
			StopFunc:  func(context.Context) error { return s.redis.Close() },
		})
		s.checker.AddCheck("redis", s.redis)
	}

	if cfg.KafkaConsumerEnabled {
		brokers := cfg.KafkaBrokers
		s.boot.AddDependency(startup.Dependency{
			Name: "kafka",
			StartFunc: func(ctx context.Context) error {
				if err := kafka.Ping(ctx, brokers); err != nil {
					return err
				}
				s.producer = kafka.NewProducer(kafka.ProducerConfig{
					Brokers:      brokers,
					Topic:        cfg.KafkaResolutionsTopic,
					BatchSize:    cfg.KafkaBatchSize,
					BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
					RequiredAcks: cfg.KafkaRequiredAcks,
					Compression:  cfg.KafkaCompression,
				}, s.logger)
				return nil
			},
			StopFunc: func(context.Context) error {
				return s.producer.Close()
			},
		})
		s.checker.AddCheck("kafka", health.PingFunc(func(ctx context.Context) error {
			return kafka.Ping(ctx, brokers)
		}))
	}
}

func (s *service) catalog() (catalog.Catalog, error) {
	if s.db != nil {
		return catalogrepo.NewRepository(s.db, s.logger), nil
	}
	if s.cfg.CatalogFixturePath == "" {
		return nil, errNoCatalog
	}
	mem, err := catalog.LoadFixture(s.cfg.CatalogFixturePath)
	if err != nil {
		return nil, err
	}
	s.logger.WithField("path", s.cfg.CatalogFixturePath).Warn("Serving from a catalog fixture")
	return mem, nil
}

func (s *service) jobStore() jobs.Store {
	if s.redis != nil {
		return jobs.NewRedisStore(s.redis, s.cfg.JobProgressTTL)
	}
	return jobs.NewMemoryStore()
}

func (s *service) newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(s.logger)

	e.Use(echomw.Recover())
	e.Use(otelecho.Middleware(s.cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(s.logger))
	e.Use(middleware.Container(s.cfg.AppName))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: s.cfg.AllowOrigins,
		AllowMethods: s.cfg.AllowMethods,
	}))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.checker.RegisterRoutes(e)

	api := e.Group("/api/v1")
	cards.Register(api.Group("/cards"))
	imports.Register(api.Group("/imports"))

	return e
}
