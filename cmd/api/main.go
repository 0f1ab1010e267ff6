package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/rs/cors"

	"github.com/trustcircles/backend/internal/account"
	"github.com/trustcircles/backend/internal/audit"
	"github.com/trustcircles/backend/internal/auth"
	"github.com/trustcircles/backend/internal/chain"
	"github.com/trustcircles/backend/internal/config"
	"github.com/trustcircles/backend/internal/engine"
	"github.com/trustcircles/backend/internal/handlers"
	"github.com/trustcircles/backend/internal/metrics"
	"github.com/trustcircles/backend/internal/repository"
	"github.com/trustcircles/backend/internal/router"
	"github.com/trustcircles/backend/internal/token"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Unable to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("Cannot reach PostgreSQL (connection refused or invalid). Ensure Postgres is running, e.g. docker-compose up -d", "error", err)
		os.Exit(1)
	}
	slog.Info("Connected to PostgreSQL database successfully!")

	// River migrations
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		slog.Error("Failed to create River migrator", "error", err)
		os.Exit(1)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		slog.Error("River migrate up failed. If the error is 'connection refused', start PostgreSQL first", "error", err)
		os.Exit(1)
	}
	slog.Info("River migrations applied")

	// Block clock
	heightStore := chain.NewPGHeightStore(pool)
	if err := heightStore.Init(ctx); err != nil {
		slog.Error("Failed to seed chain height", "error", err)
		os.Exit(1)
	}

	// Workers: chain tick + audit journal appends
	workers := river.NewWorkers()
	river.AddWorker(workers, chain.NewTickWorker(heightStore, logger))
	river.AddWorker(workers, audit.NewAppendWorker(pool))

	blockInterval := time.Duration(cfg.BlockIntervalSeconds) * time.Second
	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
		},
		Workers: workers,
		PeriodicJobs: []*river.PeriodicJob{
			river.NewPeriodicJob(
				river.PeriodicInterval(blockInterval),
				func() (river.JobArgs, *river.InsertOpts) {
					return chain.TickArgs{}, nil
				},
				&river.PeriodicJobOpts{RunOnStart: true},
			),
		},
	})
	if err != nil {
		slog.Error("Failed to create River client", "error", err)
		os.Exit(1)
	}

	// Engine with its collaborators
	ledger := token.NewLedger(pool)
	eng := engine.New(engine.Params{
		MinCircleStake:      cfg.MinCircleStake,
		MinMemberStake:      cfg.MinMemberStake,
		MaxRepTransfer:      cfg.MaxRepTransfer,
		MaxProposalAmount:   cfg.MaxProposalAmt,
		JoiningBonus:        cfg.JoiningBonus,
		VotingPeriodBlocks:  cfg.VotingPeriodBlocks,
		QuorumPercent:       cfg.QuorumPercent,
		RepWeightMultiplier: cfg.RepWeightMultiplier,
	}, ledger, chain.NewClock(heightStore), logger)

	// Commit observers: audit journal (via river) and Prometheus counters.
	m := metrics.New(prometheus.NewRegistry())
	auditHook := audit.Hook(func(ctx context.Context, args audit.AppendArgs) error {
		_, err := riverClient.Insert(ctx, args, nil)
		return err
	}, logger)
	metricsHook := m.Hook()
	eng.OnCommit = func(ev engine.Event) {
		metricsHook(ev)
		auditHook(ev)
	}

	// Auth & account surface
	accountRepo := repository.NewAccountRepo(pool)
	apiKeyRepo := repository.NewAPIKeyRepo(pool)
	authSvc := auth.NewService(accountRepo, ledger, cfg.JWTSecret, cfg.SignupGrantUnits, cfg.ProtocolFeePercent)
	authHandler := auth.NewHandler(authSvc, logger)
	accountHandler := account.NewHandler(authSvc, accountRepo, apiKeyRepo, logger)

	queryHandler := &handlers.QueryHandler{Engine: eng}

	mux := http.NewServeMux()
	mux.Handle("/api/", router.New(authHandler, accountHandler, queryHandler))
	mux.Handle("GET /metrics", m.Handler())
	RegisterV1Routes(mux, pool, apiKeyRepo, eng, logger)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
	}).Handler(mux)

	// Start River client (ticks blocks, drains the audit queue)
	riverCtx, stopRiver := context.WithCancel(ctx)
	defer stopRiver()
	go func() {
		if err := riverClient.Start(riverCtx); err != nil && riverCtx.Err() == nil {
			slog.Error("River client stopped", "error", err)
		}
	}()

	serverAddr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	slog.Info("Starting HTTP server", "addr", serverAddr)
	if err := http.ListenAndServe(serverAddr, corsHandler); err != nil {
		slog.Error("HTTP server failed", "error", err)
		os.Exit(1)
	}
}
