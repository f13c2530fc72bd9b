package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"live-announcer/internal/adapter"
	"live-announcer/internal/config"
	"live-announcer/internal/glimesh"
	"live-announcer/internal/handler"
	"live-announcer/internal/logger"
	"live-announcer/internal/metrics"
	"live-announcer/internal/middleware"
	"live-announcer/internal/repository/sqlite"
	"live-announcer/internal/service"
	"live-announcer/internal/task"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load .env file if it exists (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg.LogConfiguration()

	appLogger := logger.New(logger.ParseLevel(cfg.LogLevel))
	logger.SetGlobalLogger(appLogger)

	db, err := sqlite.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := sqlite.Migrate(db.DB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	store := sqlite.NewAnnouncementRepository(db)

	twitch := adapter.NewTwitchClient(context.Background(), adapter.TwitchOptions{
		ClientID:         cfg.TwitchClientID,
		ClientSecret:     cfg.TwitchSecret,
		CategoryCacheTTL: cfg.CategoryCacheTTL,
	})

	chat, err := adapter.NewDiscordClient(cfg.DiscordBotToken)
	if err != nil {
		log.Fatalf("Failed to create Discord client: %v", err)
	}

	reconciler := service.NewReconciler(store, chat, service.ReconcilerOptions{
		ChannelID: cfg.AnnouncementChannelID,
		Renderer: &service.Renderer{
			MentionRoleID: cfg.AnnouncementRoleID,
			Production:    cfg.IsProduction(),
			ImageSize:     cfg.AnnouncementImageSize,
			Location:      cfg.Location,
		},
		Metrics: metrics.New(prometheus.DefaultRegisterer),
		Logger:  appLogger,
	})
	dispatcher := service.NewDispatcher(reconciler, twitch, cfg.Platforms(), cfg.Members, appLogger)

	mux := http.NewServeMux()
	handler.NewWebhookHandler(dispatcher, appLogger).Register(mux, promhttp.Handler())

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      middleware.Recover(appLogger, middleware.RequestLogger(appLogger, mux)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		appLogger.Info("Starting server", map[string]interface{}{"addr": server.Addr})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Shutting down server", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if cfg.GlimeshEnabled() {
		subscriber := glimesh.NewSubscriber(glimesh.Options{
			ClientID:  cfg.GlimeshClientID,
			ChannelID: cfg.GlimeshChannel,
			Logger:    appLogger,
		}, func(ctx context.Context, channel glimesh.Channel) error {
			_, err := dispatcher.HandleGlimeshEvent(ctx, channel)
			return err
		})
		g.Go(func() error {
			return subscriber.Run(gctx)
		})
	}

	if cfg.SweepInterval > 0 {
		sweeper := task.NewStaleSweeper(store, twitch, dispatcher, cfg.SweepInterval, appLogger)
		sweeper.Start(gctx)
		defer sweeper.Stop()
	}

	if err := g.Wait(); err != nil {
		appLogger.Error("Server exited with error", map[string]interface{}{"error": err.Error()})
		db.Close()
		os.Exit(1)
	}

	appLogger.Info("Server exited", nil)
}
