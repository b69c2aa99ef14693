package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sourcegraph/conc"

	server "github.com/taskmarket/taskmarket/internal"
	"github.com/taskmarket/taskmarket/internal/chain"
	"github.com/taskmarket/taskmarket/internal/config"
	"github.com/taskmarket/taskmarket/internal/escrow"
	"github.com/taskmarket/taskmarket/internal/eventbus"
	"github.com/taskmarket/taskmarket/internal/ledger"
	"github.com/taskmarket/taskmarket/internal/organization"
	orgrepo "github.com/taskmarket/taskmarket/internal/organization/repositoryimpl"
	"github.com/taskmarket/taskmarket/internal/profile"
	profilerepo "github.com/taskmarket/taskmarket/internal/profile/repositoryimpl"
	"github.com/taskmarket/taskmarket/internal/task"
	"github.com/taskmarket/taskmarket/internal/task/storeimpl"
	"github.com/taskmarket/taskmarket/pkg/clog"
	"github.com/taskmarket/taskmarket/pkg/storage"
)

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load env", "error", err)
		os.Exit(1)
	}

	// Setup logger
	level := env.SlogLevel()
	var handler slog.Handler
	if env.Env == "local" {
		handler = clog.NewTextHandler(os.Stderr, clog.WithLevel(level))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))

	// Setup storage
	var store storage.Storage
	switch env.StorageEnv.Type {
	case "s3":
		store, err = storage.NewS3Storage(context.Background(), env.StorageEnv.S3Bucket, env.StorageEnv.S3Prefix, env.StorageEnv.S3Region)
		if err != nil {
			slog.Error("failed to create S3 storage", "error", err)
			os.Exit(1)
		}
	default:
		store, err = storage.NewLocalStorage(env.StorageEnv.BaseDir)
		if err != nil {
			slog.Error("failed to create local storage", "error", err)
			os.Exit(1)
		}
	}

	// Setup event bus
	bus := eventbus.New()

	// Setup ledger and repositories
	led, err := ledger.NewYAMLLedger(context.Background(), store, env.Genesis)
	if err != nil {
		slog.Error("failed to load ledger", "error", err)
		os.Exit(1)
	}
	profileRepo := profilerepo.NewYAMLRepository(store)
	orgRepo := orgrepo.NewYAMLRepository(store)
	taskStore := storeimpl.NewYAMLStore(store)

	// Setup engine
	profileService := profile.NewService(profileRepo)
	engine := task.NewEngine(
		task.Config{
			MaxTasksOwned:       env.MaxTasksOwned,
			MaxTitleLen:         env.MaxTitleLen,
			MaxSpecificationLen: env.MaxSpecificationLen,
			MaxAttachmentsLen:   env.MaxAttachmentsLen,
			MaxKeywordsLen:      env.MaxKeywordsLen,
			MaxFeedbackLen:      env.MaxFeedbackLen,
		},
		taskStore,
		escrow.New(led),
		profileService,
		orgRepo,
		chain.SystemClock{},
		chain.NewCounter(0),
		bus,
	)

	srv := server.NewServer(
		env,
		task.NewServer(engine),
		profile.NewServer(profileService),
		organization.NewServer(orgRepo),
		ledger.NewServer(led),
	)

	// Graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	var wg conc.WaitGroup
	wg.Go(func() {
		runRounds(ctx, engine, env.RoundInterval)
	})
	wg.Go(func() {
		if err := srv.ListenAndServe(ctx); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	})

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	wg.Wait()
}

// runRounds drives the engine's round counter and deadline sweep on a fixed
// interval until ctx is cancelled.
func runRounds(ctx context.Context, engine *task.Engine, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			round := engine.BeginRound(ctx)
			slog.Debug("round started", "round", round)
		}
	}
}
