// Package control wires the synchronizer's components together and manages
// their lifecycle.
package control

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/vietddude/dasync/internal/core/checkpoint"
	"github.com/vietddude/dasync/internal/core/config"
	"github.com/vietddude/dasync/internal/indexing/health"
	"github.com/vietddude/dasync/internal/indexing/planner"
	"github.com/vietddude/dasync/internal/indexing/processor"
	"github.com/vietddude/dasync/internal/indexing/syncer"
	"github.com/vietddude/dasync/internal/infra/da"
	redisjournal "github.com/vietddude/dasync/internal/infra/redis"
	"github.com/vietddude/dasync/internal/infra/storage"
	"github.com/vietddude/dasync/internal/infra/storage/memory"
	"github.com/vietddude/dasync/internal/infra/storage/postgres"
)

// App is the main application struct that manages the synchronizer
// lifecycle. The design assumes a single active synchronizer per checkpoint:
// two instances sharing one checkpoint store would race.
type App struct {
	cfg config.AppConfig

	db          *postgres.DB
	redisClient *redisjournal.Client

	checkpoint   *checkpoint.Manager
	syncer       *syncer.Syncer
	healthServer *health.Server

	errCh chan error
}

// New creates the application with all dependencies initialized.
func New(cfg config.AppConfig) (*App, error) {
	app := &App{
		cfg:   cfg,
		errCh: make(chan error, 1),
	}

	// 1. Initialize storage
	var checkpointRepo storage.CheckpointRepository
	var enqueueRepo storage.EnqueueRepository
	var txRepo storage.TransactionRepository
	var storeRepo storage.StoreRepository

	if cfg.Database.URL != "" {
		db, err := postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := db.Migrate(); err != nil {
			return nil, err
		}
		app.db = db

		checkpointRepo = postgres.NewCheckpointRepo(db)
		enqueueRepo = postgres.NewEnqueueRepo(db)
		txRepo = postgres.NewTxRepo(db)
		storeRepo = postgres.NewStoreRepo(db)
		slog.Info("Using PostgreSQL storage")
	} else {
		store := memory.NewMemoryStorage()
		checkpointRepo = memory.NewCheckpointRepo(store)
		enqueueRepo = memory.NewEnqueueRepo(store)
		txRepo = memory.NewTxRepo(store)
		storeRepo = memory.NewStoreRepo(store)
		slog.Warn("No database configured, using in-memory storage")
	}

	// 2. Optional failed-batch journal
	var journal syncer.FailureJournal
	if cfg.Redis.URL != "" {
		client, err := redisjournal.NewClient(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		app.redisClient = client
		journal = redisjournal.NewFailedBatchJournal(client)
		slog.Info("Failed-batch journal enabled")
	}

	// 3. Load the checkpoint
	app.checkpoint = checkpoint.NewManager(checkpointRepo)
	index, err := app.checkpoint.Load(context.Background(), cfg.Sync.InitialBatchIndex)
	if err != nil {
		return nil, err
	}
	slog.Info("Checkpoint loaded", "last_batch_index", index)

	// 4. DA client and sync pipeline
	daClient := da.NewClient(da.Config{
		Endpoint:            cfg.DA.Endpoint,
		RequestTimeout:      cfg.DA.RequestTimeout.Std(),
		RetryAttempts:       cfg.DA.RetryAttempts,
		LatestIndexFallback: cfg.DA.LatestIndexFallback,
	})

	proc := processor.New(processor.Config{
		DA:           daClient,
		Checkpoint:   app.checkpoint,
		Enqueues:     enqueueRepo,
		Transactions: txRepo,
		Stores:       storeRepo,
		L2ChainID:    cfg.Sync.L2ChainID,
	})

	app.syncer = syncer.New(syncer.Config{
		Planner:        planner.New(daClient, cfg.Sync.StepSize),
		Processor:      proc,
		Checkpoint:     app.checkpoint,
		PollInterval:   cfg.Sync.PollInterval.Std(),
		CatchAllErrors: cfg.Sync.CatchAllErrors,
		Journal:        journal,
	})

	// 5. Health + metrics server
	var dbPinger health.Pinger
	if app.db != nil {
		dbPinger = app.db
	}
	monitor := health.NewMonitor(app.syncer, app.checkpoint, dbPinger)
	app.healthServer = health.NewServer(monitor, cfg.Server.Port)

	return app, nil
}

// Start launches the health server and the sync loop.
func (a *App) Start(ctx context.Context) error {
	go func() {
		if err := a.healthServer.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("Health server failed", "error", err)
		}
	}()

	go func() {
		if err := a.syncer.Start(ctx); err != nil {
			a.errCh <- err
		}
	}()

	slog.Info("Synchronizer started",
		"endpoint", a.cfg.DA.Endpoint,
		"poll_interval", a.cfg.Sync.PollInterval.Std(),
		"step_size", a.cfg.Sync.StepSize)
	return nil
}

// Fatal surfaces a service-fatal sync failure.
func (a *App) Fatal() <-chan error {
	return a.errCh
}

// Stop gracefully shuts the application down.
func (a *App) Stop(ctx context.Context) error {
	if err := a.syncer.Stop(); err != nil {
		return err
	}

	if err := a.healthServer.Stop(ctx); err != nil {
		slog.Warn("Health server shutdown failed", "error", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			slog.Warn("Redis shutdown failed", "error", err)
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}

	return nil
}
