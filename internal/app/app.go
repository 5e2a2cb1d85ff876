package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/raybet/matchsync/external/jobqueue"
	"github.com/raybet/matchsync/external/thesportsdb"
	"github.com/raybet/matchsync/internal/config"
	"github.com/raybet/matchsync/internal/infrastructure/repository/postgres"
	"github.com/raybet/matchsync/internal/interfaces/httpapi"
	idgen "github.com/raybet/matchsync/internal/platform/id"
	"github.com/raybet/matchsync/internal/platform/logging"
	"github.com/raybet/matchsync/internal/platform/resilience"
	"github.com/raybet/matchsync/internal/usecase"
)

// ConnectDB opens the instrumented Postgres pool and verifies connectivity.
func ConnectDB(ctx context.Context, cfg config.Config, logger *logging.Logger) (*sqlx.DB, error) {
	if logger == nil {
		logger = logging.Default()
	}

	db, err := otelsqlx.Open("postgres",
		normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary),
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("database connected",
		"db_name", dbNameFromURL(cfg.DBURL),
		"max_open_conns", cfg.DBMaxOpenConns,
		"max_idle_conns", cfg.DBMaxIdleConns,
	)
	return db, nil
}

// NewHTTPServer wires repositories, services, and the router into a ready
// http.Server. The caller owns db and server lifecycle.
func NewHTTPServer(cfg config.Config, db *sqlx.DB, logger *logging.Logger) (*http.Server, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	matchRepo := postgres.NewMatchRepository(db, cfg.MatchesTable)
	predictionRepo := postgres.NewPredictionRepository(db, cfg.PredictionsTable)
	profileRepo := postgres.NewProfileRepository(db, cfg.ProfilesTable)
	runRepo := postgres.NewJobRunRepository(db, cfg.JobRunsTable)

	var feed usecase.ExternalMatchProvider
	if cfg.FeedEnabled {
		feed = thesportsdb.NewClient(thesportsdb.ClientConfig{
			BaseURL:    cfg.FeedBaseURL,
			APIKey:     cfg.FeedAPIKey,
			Timeout:    cfg.FeedTimeout,
			MaxRetries: cfg.FeedMaxRetries,
			Logger:     logger,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.FeedCircuitEnabled,
				FailureThreshold: cfg.FeedCircuitFailureCount,
				OpenTimeout:      cfg.FeedCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.FeedCircuitHalfOpenMaxReq,
			},
		})
	} else {
		logger.Warn("match feed disabled, sync runs will fail until FEED_ENABLED=true")
	}

	ids := idgen.NewRandomGenerator()

	reconciler := usecase.NewReconcileService(feed, matchRepo, ids, usecase.ReconcileConfig{
		LeagueID: cfg.FeedLeagueID,
		Season:   cfg.FeedSeason,
	}, logger)

	recalc := usecase.NewRecalcService(matchRepo, predictionRepo, profileRepo, usecase.RecalcConfig{
		PageSize:   cfg.RecalcPageSize,
		MaxWorkers: cfg.RecalcMaxWorkers,
	}, logger)

	sync := usecase.NewSyncService(reconciler, recalc, runRepo, ids, cfg.FeedLeagueID, logger)

	var scheduler httpapi.NextRunScheduler
	if cfg.QStashEnabled {
		queue := jobqueue.NewQStashPublisher(jobqueue.QStashPublisherConfig{
			BaseURL:          cfg.QStashBaseURL,
			Token:            cfg.QStashToken,
			TargetBaseURL:    cfg.QStashTargetBaseURL,
			Retries:          cfg.QStashRetries,
			InternalJobToken: cfg.InternalJobToken,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.QStashCircuitEnabled,
				FailureThreshold: cfg.QStashCircuitFailureCount,
				OpenTimeout:      cfg.QStashCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.QStashCircuitHalfOpenMaxReq,
			},
		}, logger)

		scheduler = usecase.NewSchedulerService(queue, matchRepo, usecase.SchedulerConfig{
			Enabled:        true,
			Interval:       cfg.SyncInterval,
			LiveInterval:   cfg.SyncLiveInterval,
			PreKickoffLead: cfg.SyncPreKickoffLead,
			LeagueID:       cfg.FeedLeagueID,
		}, logger)
	} else {
		logger.Info("qstash disabled, sync runs will not self-schedule")
	}

	handler := httpapi.NewHandler(sync, scheduler, matchRepo, profileRepo, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	return &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}, nil
}
