package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/raidscribe/raidscribe-engine/pkg/config"
	"github.com/raidscribe/raidscribe-engine/pkg/database"
	"github.com/raidscribe/raidscribe-engine/pkg/handlers"
	"github.com/raidscribe/raidscribe-engine/pkg/llm"
	"github.com/raidscribe/raidscribe-engine/pkg/middleware"
	"github.com/raidscribe/raidscribe-engine/pkg/repositories"
	"github.com/raidscribe/raidscribe-engine/pkg/retry"
	"github.com/raidscribe/raidscribe-engine/pkg/roster"
	"github.com/raidscribe/raidscribe-engine/pkg/services"
	"github.com/raidscribe/raidscribe-engine/pkg/verify"
)

// Version is set at build time via ldflags
var Version = "dev"

// migrationsDir holds the SQL migration files, relative to the working
// directory.
const migrationsDir = "migrations"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("database", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)),
		zap.Bool("ai_available", cfg.AI.IsAvailable()),
		zap.Bool("chat_verifier", cfg.Verifiers.ChatBaseURL != ""),
		zap.Bool("calendar_verifier", cfg.Verifiers.CalendarBaseURL != ""))

	ctx := context.Background()

	db, err := connectDatabase(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := migrateDatabase(cfg, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	mappingRepo := repositories.NewNameMappingRepository(db)
	raidRepo := repositories.NewRAIDItemRepository(db)

	rosterSource, err := roster.NewCSVSource(cfg.RosterDir, logger)
	if err != nil {
		logger.Fatal("Failed to create roster source", zap.Error(err))
	}

	var llmClient llm.Client
	var inference services.NameInferenceService
	if cfg.AI.IsAvailable() {
		client, err := llm.NewOpenAIClient(&llm.Config{
			Endpoint: cfg.AI.BaseURL,
			Model:    cfg.AI.Model,
			APIKey:   cfg.AI.APIKey,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to create LLM client", zap.Error(err))
		}
		llmClient = client
		inference = services.NewNameInferenceService(client, cfg.AI.InferenceTimeout(), cfg.Resolution.ReviewThreshold, logger)
	} else {
		logger.Warn("No AI endpoint configured; name inference and transcript extraction are disabled")
	}

	var membership verify.MembershipVerifier
	if cfg.Verifiers.ChatBaseURL != "" {
		membership = verify.NewChatDirectoryVerifier(cfg.Verifiers.ChatBaseURL, cfg.Verifiers.ChatToken, cfg.Resolution.VerifyTimeout())
	}
	var attendance verify.AttendanceVerifier
	if cfg.Verifiers.CalendarBaseURL != "" {
		attendance = verify.NewCalendarAttendanceVerifier(cfg.Verifiers.CalendarBaseURL, cfg.Verifiers.CalendarToken, cfg.Resolution.VerifyTimeout())
	}

	resolver := services.NewIdentityResolverService(mappingRepo, inference, membership, attendance,
		services.ResolverConfig{
			FuzzyThreshold:  cfg.Resolution.FuzzyThreshold,
			ReviewThreshold: cfg.Resolution.ReviewThreshold,
			MaxAlternatives: cfg.Resolution.MaxAlternatives,
			Concurrency:     cfg.Resolution.Concurrency,
			VerifyTimeout:   cfg.Resolution.VerifyTimeout(),
		}, logger)

	var extraction services.RAIDExtractionService
	if llmClient != nil {
		extraction = services.NewRAIDExtractionService(llmClient, resolver, raidRepo, logger)
	}

	mux := http.NewServeMux()

	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewResolutionHandler(resolver, mappingRepo, rosterSource, logger).RegisterRoutes(mux)
	handlers.NewExtractionHandler(extraction, raidRepo, rosterSource, logger).RegisterRoutes(mux)

	server := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting raidscribe-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, server); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// connectDatabase opens the pgx pool, retrying transient startup failures
// (the database container may still be coming up).
func connectDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*database.DB, error) {
	return retry.DoWithResult(ctx, retry.DefaultConfig(), func() (*database.DB, error) {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		db, err := database.NewConnection(connectCtx, &database.Config{
			URL:            cfg.Database.ConnectionString(),
			MaxConnections: cfg.Database.MaxConnections,
		})
		if err != nil {
			logger.Warn("Database connection attempt failed", zap.Error(err))
			return nil, err
		}
		return db, nil
	})
}

func migrateDatabase(cfg *config.Config, logger *zap.Logger) error {
	migrationDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer migrationDB.Close()

	return database.RunMigrations(migrationDB, migrationsDir, logger)
}
