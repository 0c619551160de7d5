package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/config"
	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/db"
	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/handler"
	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/metrics"
	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/middleware"
	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/repository"
	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/router"
	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/service"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load(os.Getenv(config.ConfigPathEnv))
	if err != nil {
		middleware.InitLogger("info", "engage-api").Fatal().Err(err).Msg("invalid configuration")
	}
	log := middleware.InitLogger(cfg.Log.Level, cfg.Log.Service)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.Database.URL, cfg.Database.MaxConns, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Register(reg, pool)

	feedCache := service.NewFeedCache(cfg.Redis.URL, cfg.Cache.FeedTTL, log)
	defer feedCache.Close()

	// Row API
	reactions := repository.NewReactionRepo(pool)
	comments := repository.NewCommentRepo(pool)
	views := repository.NewViewRepo(pool)
	viewSources := []service.ViewCountSource{
		repository.NewPlaylistItemViews(pool),
		repository.NewMusicVideoViews(pool),
	}

	// Engine
	feed := service.NewFeedService(feedCache, log,
		repository.NewCreatorStudioSource(pool, repository.DefaultContentLimit),
		repository.NewLegacyMusicVideoSource(pool),
		repository.NewPlaylistItemSource(pool, repository.DefaultContentLimit),
	)
	sessions := service.NewSessionRegistry(service.SessionDeps{
		Reactions:   reactions,
		Comments:    comments,
		ViewSources: viewSources,
		Views:       views,
		Feed:        feed,
		Timeout:     cfg.Engine.RemoteTimeout,
		Logger:      log,
	}, cfg.Engine.SessionIdleTTL)
	banners := service.NewBannerCache(repository.NewProfileRepo(pool), cfg.Cache.BannerTTL, nil)
	playlists := service.NewPlaylistService(repository.NewPlaylistRepo(pool), feed, log)
	videos := service.NewVideoService(views, viewSources...)

	// Background workers
	countWorker := service.NewCountWorker(pool, service.NewCountService(pool), cfg.Engine.CountBatchWindow, log)
	go countWorker.Start(ctx)
	go sessions.Run(ctx, cfg.Engine.SessionSweep)
	go purgeBanners(ctx, banners, cfg.Cache.BannerTTL)

	app := fiber.New(fiber.Config{
		AppName:      "Engage API",
		ServerHeader: "Engage",
	})
	limiters := router.DefaultLimiters()
	defer limiters.Close()
	router.Setup(app, &router.Handlers{
		Health:   handler.NewHealthHandler(pool, feedCache.Client(), sessions, version),
		Session:  handler.NewSessionHandler(sessions),
		Video:    handler.NewVideoHandler(videos),
		Feed:     handler.NewFeedHandler(feed, banners),
		Playlist: handler.NewPlaylistHandler(playlists),
		Gatherer: reg,
	}, limiters, cfg.CORS.Origins)

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	log.Info().Str("port", cfg.Server.Port).Str("env", cfg.Server.Environment).Msg("engage backend starting")
	if err := app.Listen(":"+cfg.Server.Port, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
		log.Error().Err(err).Msg("server stopped")
	}
}

func purgeBanners(ctx context.Context, banners *service.BannerCache, every time.Duration) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			banners.Purge()
		case <-ctx.Done():
			return
		}
	}
}
