package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/tripbites/tournament-ranking/brackets"
	"github.com/tripbites/tournament-ranking/cache"
	"github.com/tripbites/tournament-ranking/config"
	"github.com/tripbites/tournament-ranking/db"
	"github.com/tripbites/tournament-ranking/handlers"
	"github.com/tripbites/tournament-ranking/metrics"
	"github.com/tripbites/tournament-ranking/repositories"
	api "github.com/tripbites/tournament-ranking/routes"
	"github.com/tripbites/tournament-ranking/sentiment"
	"github.com/tripbites/tournament-ranking/services"
	"github.com/tripbites/tournament-ranking/storage"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	if err := db.Migrate(ctx, dbConn); err != nil {
		logger.Error("failed to apply schema", slog.Any("error", err))
		os.Exit(1)
	}

	metrics.Register()

	rankingOpts := services.RankingOptions{CountByeWins: cfg.CountByeWins}

	if cfg.RedisURL != "" {
		redisClient, err := cache.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer redisClient.Close()
		rankingOpts.Cache = cache.NewRankingCache(redisClient, cfg.RankingCacheTTL)
		logger.Info("ranking cache enabled", slog.Duration("ttl", cfg.RankingCacheTTL))
	}

	if cfg.R2Enabled() {
		uploader, err := storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		rankingOpts.Publisher = storage.NewSnapshotPublisher(uploader)
		logger.Info("Cloudflare R2 snapshot publishing enabled")
	}

	analyzer := sentiment.NewClient(sentiment.Config{
		APIKey:            cfg.SentimentAPIKey,
		BaseURL:           cfg.SentimentBaseURL,
		Model:             cfg.SentimentModel,
		Timeout:           cfg.SentimentTimeout,
		RequestsPerSecond: cfg.SentimentRPS,
	}, logger)
	if cfg.SentimentAPIKey == "" {
		logger.Warn("SENTIMENT_API_KEY is not set, rankings use the neutral sentiment score")
	}

	wsHub := brackets.NewHub(logger)
	go wsHub.Run(ctx)
	logger.Info("WebSocket Hub started")

	tripRepo := repositories.NewPostgresTripRepository(dbConn)
	entryRepo := repositories.NewPostgresEntryRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	voteRepo := repositories.NewPostgresVoteRepository(dbConn)
	answerRepo := repositories.NewPostgresAnswerRepository(dbConn)
	rankingRepo := repositories.NewPostgresRankingRepository(dbConn)

	tournamentService := services.NewTournamentService(tripRepo, entryRepo, tournamentRepo, logger)
	votingService := services.NewVotingService(tournamentRepo, tripRepo, voteRepo, wsHub, cfg.CountByeWins, logger)
	rankingService := services.NewRankingService(
		tripRepo,
		entryRepo,
		tournamentRepo,
		voteRepo,
		answerRepo,
		rankingRepo,
		analyzer,
		rankingOpts,
		logger,
	)
	rankingJob := services.NewRankingJob(tripRepo, rankingService, cfg.RankingBatchSize, logger)
	logger.Info("Services initialized")

	if cfg.RankingJobInterval > 0 {
		go runScheduler(ctx, rankingJob, cfg.RankingJobInterval, logger)
	} else {
		logger.Info("ranking scheduler disabled")
	}

	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Tournament: handlers.NewTournamentHandler(tournamentService),
		Vote:       handlers.NewVoteHandler(votingService),
		Ranking:    handlers.NewRankingHandler(rankingService),
		WebSocket:  handlers.NewWebSocketHandler(wsHub, tournamentService, cfg.AllowedOrigins, logger),
	}, cfg.JWTSecretKey, cfg.AllowedOrigins)
	logger.Info("Routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.SentimentTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}

// runScheduler ranks every eligible trip once at startup and then on each tick.
func runScheduler(ctx context.Context, job *services.RankingJob, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	logger.Info("ranking scheduler started", slog.Duration("interval", interval))

	run := func() {
		if _, err := job.RunAll(ctx); err != nil {
			logger.Error("Scheduler: ranking run failed", slog.Any("error", err))
		}
	}

	run()
	for {
		select {
		case <-ctx.Done():
			logger.Info("ranking scheduler stopped")
			return
		case <-ticker.C:
			run()
		}
	}
}
