package app

import (
	"fmt"
	"log/slog"
	"net/http"

	_ "github.com/lib/pq"
	"github.com/jmoiron/sqlx"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"

	"github.com/matchsight/matchsight/external/workflow"
	"github.com/matchsight/matchsight/internal/config"
	"github.com/matchsight/matchsight/internal/domain/fixture"
	cacherepo "github.com/matchsight/matchsight/internal/infrastructure/repository/cache"
	"github.com/matchsight/matchsight/internal/infrastructure/repository/postgres"
	"github.com/matchsight/matchsight/internal/interfaces/httpapi"
	basecache "github.com/matchsight/matchsight/internal/platform/cache"
	idgen "github.com/matchsight/matchsight/internal/platform/id"
	"github.com/matchsight/matchsight/internal/platform/logging"
	"github.com/matchsight/matchsight/internal/platform/resilience"
	"github.com/matchsight/matchsight/internal/usecase"
)

// NewHTTPServer wires the full service: traced postgres access, the cached
// read path, the workflow dispatch client, and the HTTP router. The returned
// cleanup closes the database pool.
func NewHTTPServer(cfg config.Config, logger *slog.Logger, appLogger *logging.Logger) (*http.Server, func() error, error) {
	db, err := openDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}

	fixtureRepo := postgres.NewFixtureRepository(db)
	artifactRepo := postgres.NewArtifactRepository(db)
	configRepo := postgres.NewAutomationConfigRepository(db)
	logRepo := postgres.NewAutomationLogRepository(db)

	var store *basecache.Store
	var fixtureReads fixture.Repository = fixtureRepo
	if cfg.CacheEnabled {
		store = basecache.NewStore(cfg.CacheTTL)
		fixtureReads = cacherepo.NewFixtureRepository(fixtureRepo, store)
	}

	configSvc := usecase.NewConfigService(configRepo, store, cfg.PollInterval, cfg.RetryBuffer)
	fixtureSvc := usecase.NewFixtureService(fixtureReads)
	logSvc := usecase.NewLogService(logRepo)

	dispatcher := workflow.NewClient(workflow.ClientConfig{
		TriggerURL:     cfg.WorkflowTriggerURL,
		PredictionURL:  cfg.PredictionWebhookURL,
		AnalysisURL:    cfg.AnalysisWebhookURL,
		Secret:         cfg.WorkflowSecret,
		Timeout:        cfg.WorkflowTimeout,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.WorkflowCircuitEnabled,
			FailureThreshold: cfg.WorkflowCircuitFailureCount,
			OpenTimeout:      cfg.WorkflowCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.WorkflowCircuitHalfOpenMax,
		},
	}, logger)

	automationSvc := usecase.NewAutomationService(
		fixtureRepo,
		artifactRepo,
		fixtureRepo,
		logRepo,
		configSvc,
		dispatcher,
		idgen.NewUUIDGenerator(),
		appLogger,
		usecase.AutomationOptions{
			BatchSize:       cfg.DispatchBatch,
			BatchDelay:      cfg.DispatchDelay,
			PredictionModel: cfg.PredictionModel,
		},
	)

	handler := httpapi.NewHandler(automationSvc, configSvc, logSvc, fixtureSvc, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, cfg.AdminAPIKey)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		db.Close()
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, db.Close, nil
}

func openDatabase(cfg config.Config) (*sqlx.DB, error) {
	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)

	db, err := otelsqlx.Connect("postgres", dsn,
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithDBName(dbNameFromURL(dsn)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	return db, nil
}
