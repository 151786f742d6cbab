package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"github.com/tmichel/herald/artwork"
	"github.com/tmichel/herald/cache"
	"github.com/tmichel/herald/config"
	"github.com/tmichel/herald/db"
	"github.com/tmichel/herald/discord"
	"github.com/tmichel/herald/events"
	"github.com/tmichel/herald/history"
	"github.com/tmichel/herald/migrations"
	"github.com/tmichel/herald/notify"
	"github.com/tmichel/herald/plex"
	"github.com/tmichel/herald/presence"
	"github.com/tmichel/herald/routes"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, reading config from the environment")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.GetLogLevel(),
	})))

	database, err := db.Initialize(cfg.Herald.DbPath)
	if err != nil {
		slog.Error("Failed to initialise database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	goose.SetBaseFS(migrations.GetMigrations())

	if err := goose.SetDialect("sqlite3"); err != nil {
		slog.Error("Failed to set migration dialect", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := goose.Up(database.DB, "."); err != nil {
		slog.Error("Failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	store, err := cache.New(cfg.Herald.CacheDir)
	if err != nil {
		slog.Error("Failed to initialise artwork cache", slog.String("error", err.Error()))
		os.Exit(1)
	}

	art := artwork.NewClient(cfg, store)

	jobScheduler := setupJobs(store, art)
	jobScheduler.StartAsync()
	defer jobScheduler.Stop()

	stream := events.Init()
	historyStore := history.NewStore(database)

	driver := presence.NewDriver(
		plex.NewClient(cfg),
		discord.NewClient(cfg.Discord.ClientId),
		art,
	)
	driver.PollInterval = time.Duration(cfg.Herald.PollSeconds) * time.Second
	driver.PushMinInterval = time.Duration(cfg.Herald.PushMinSeconds) * time.Second
	driver.Broadcast = stream
	driver.History = historyStore
	if notifier := notify.NewPushover(cfg); notifier != nil {
		driver.Alerts = notifier
	}

	if cfg.Herald.HttpEnabled {
		router := routes.Register(http.NewServeMux(), driver, historyStore, stream)
		go func() {
			slog.Info("Status API listening", slog.String("addr", cfg.Herald.HttpAddr))
			if err := http.ListenAndServe(cfg.Herald.HttpAddr, router); err != nil {
				slog.Error("Status API stopped", slog.String("error", err.Error()))
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Herald is mirroring Plex playback into Discord")
	driver.Run(ctx)

	slog.Info("Herald has shut down")
}
