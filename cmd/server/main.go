package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"goalgate/backend/internal/clock"
	"goalgate/backend/internal/config"
	"goalgate/backend/internal/db"
	"goalgate/backend/internal/events"
	"goalgate/backend/internal/handler"
	"goalgate/backend/internal/notify"
	"goalgate/backend/internal/observability"
	"goalgate/backend/internal/repository"
	"goalgate/backend/internal/router"
	"goalgate/backend/internal/service"
)

func main() {
	cfg := config.Load()
	observability.SetLevel(cfg.LogLevel)
	log := observability.Logger()
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, closeStore, err := openStore(cfg)
	if err != nil {
		log.Error("open storage", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	var notifier notify.Notifier = notify.Log{}
	if cfg.Notify == config.NotifyTerminal {
		notifier = notify.NewTerminal(os.Stdout)
	}
	recorder := &events.Recorder{Limit: 256}
	sink := events.Multi{events.Notifying{Notifier: notifier}, recorder}
	clk := clock.System{}

	goalService, err := service.NewGoalService(ctx, repository.NewGoalRepository(kv), clk, sink)
	if err != nil {
		log.Error("load goals", "error", err)
		os.Exit(1)
	}

	engine := service.NewPomodoroEngine(repository.NewStatsRepository(kv), clk, clk, sink, service.PomodoroOptions{
		Durations: cfg.Durations,
		Location:  cfg.Location,
	})
	if err := engine.Init(ctx); err != nil {
		log.Error("init pomodoro", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	binder := service.NewBinder(goalService, engine)
	statsService := service.NewStatsService(goalService, engine, clk, cfg.Location)
	preferencesService := service.NewPreferencesService(repository.NewPreferencesRepository(kv))

	api := router.New(router.Handlers{
		Goals:       handler.NewGoalHandler(goalService),
		Pomodoro:    handler.NewPomodoroHandler(engine, binder),
		Stats:       handler.NewStatsHandler(statsService),
		Preferences: handler.NewPreferencesHandler(preferencesService),
		Events:      handler.NewEventsHandler(recorder),
	}, cfg.CORSOrigins)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("backend listening", "addr", cfg.Addr, "storage", cfg.Storage)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("run server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown server", "error", err)
	}
}

func openStore(cfg config.Config) (repository.KVStore, func(), error) {
	if cfg.Storage == config.StorageMemory {
		return repository.NewMemoryKV(), func() {}, nil
	}

	database, err := db.Open(cfg.DBDriver, cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	if err := db.RunMigrations(database, cfg.MigrationsDir); err != nil {
		_ = database.Close()
		return nil, nil, err
	}
	return repository.NewSQLiteKV(database), func() { _ = database.Close() }, nil
}
