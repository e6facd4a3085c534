package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/footchat/footchat/external/apifootball"
	"github.com/footchat/footchat/internal/config"
	"github.com/footchat/footchat/internal/infrastructure/nlp/openai"
	"github.com/footchat/footchat/internal/infrastructure/repository/memory"
	"github.com/footchat/footchat/internal/infrastructure/repository/postgres"
	"github.com/footchat/footchat/internal/interfaces/httpapi"
	"github.com/footchat/footchat/internal/platform/cache"
	idgen "github.com/footchat/footchat/internal/platform/id"
	"github.com/footchat/footchat/internal/platform/logging"
	"github.com/footchat/footchat/internal/platform/resilience"
	"github.com/footchat/footchat/internal/usecase"
	"github.com/jmoiron/sqlx"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	_ "github.com/lib/pq"
)

// Application bundles the HTTP server with the resources it owns.
type Application struct {
	Server  *http.Server
	Answers *usecase.AnswerService
	Warmup  *usecase.WarmupService

	db     *sqlx.DB
	logger *logging.Logger
}

// Build wires the full ask pipeline. The entity mapping store is Postgres
// when DB_URL is set and in-process memory otherwise, so the service runs
// without a database in development.
func Build(cfg config.Config, logger *logging.Logger) (*Application, error) {
	if logger == nil {
		logger = logging.Default()
	}

	var db *sqlx.DB
	var mappings usecase.EntityMappingRepository
	if cfg.DBURL == "" {
		logger.Info("entity mappings in memory", "reason", "DB_URL empty")
		mappings = memory.NewMappingRepository()
	} else {
		dbURL := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)
		opened, err := otelsqlx.Open("postgres", dbURL,
			otelsql.WithDBSystem("postgresql"),
			otelsql.WithDBName(dbNameFromURL(dbURL)),
			otelsql.WithQueryFormatter(formatDBQueryForTrace),
		)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		db = opened
		mappings = postgres.NewMappingRepository(db)
	}

	provider := apifootball.NewClient(apifootball.ClientConfig{
		BaseURL:    cfg.APIFootballBaseURL,
		Key:        cfg.APIFootballKey,
		Timeout:    cfg.APIFootballTimeout,
		MaxRetries: cfg.APIFootballMaxRetries,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.APIFootballCircuitEnabled,
			FailureThreshold: cfg.APIFootballCircuitFailureCount,
			OpenTimeout:      cfg.APIFootballCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.APIFootballCircuitHalfOpenMaxReq,
		},
	})

	extractor := openai.NewClient(openai.ClientConfig{
		BaseURL:           cfg.OpenAIBaseURL,
		Key:               cfg.OpenAIKey,
		Model:             cfg.OpenAIModel,
		Timeout:           cfg.OpenAITimeout,
		MaxQuestionLength: cfg.MaxQuestionLength,
		LogCost:           cfg.OpenAILogCost,
		Logger:            logger,
	})

	var results *cache.Store
	if cfg.CacheEnabled {
		results = cache.NewStore(cfg.CacheTTL)
	}

	resolver := usecase.NewEntityResolverService(provider, mappings, logger)
	turns := usecase.NewTurnService(resolver, usecase.NewQueryPlanService(), idgen.NewRandomGenerator(), logger)
	answers := usecase.NewAnswerService(extractor, turns, provider, results, logger)

	handler := httpapi.NewHandler(answers, turns, resolver, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return &Application{
		Server:  server,
		Answers: answers,
		Warmup:  usecase.NewWarmupService(resolver, logger),
		db:      db,
		logger:  logger,
	}, nil
}

// RunWarmup pre-resolves the configured team and league names so the first
// user questions skip the provider search round-trip.
func (a *Application) RunWarmup(ctx context.Context, cfg config.Config) {
	if !cfg.WarmupEnabled {
		return
	}

	result, err := a.Warmup.Warm(ctx, usecase.WarmupInput{
		Teams:      cfg.WarmupTeams,
		Leagues:    cfg.WarmupLeagues,
		MaxWorkers: cfg.WarmupWorkers,
	})
	if err != nil {
		a.logger.WarnContext(ctx, "warmup failed", "error", err)
		return
	}

	a.logger.InfoContext(ctx, "warmup finished",
		"tasks", result.TaskCount,
		"succeeded", result.SuccessCount,
		"failed", result.FailedCount,
		"workers", result.WorkerCount,
	)
}

func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
