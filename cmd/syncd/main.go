package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	_ "github.com/cometsur/checkin-sync/docs" // swagger docs
	"github.com/cometsur/checkin-sync/internal/api"
	"github.com/cometsur/checkin-sync/internal/api/handler"
	"github.com/cometsur/checkin-sync/internal/core/domain"
	"github.com/cometsur/checkin-sync/internal/core/ports"
	"github.com/cometsur/checkin-sync/internal/core/service"
	"github.com/cometsur/checkin-sync/internal/infrastructure/cache"
	mongodb "github.com/cometsur/checkin-sync/internal/infrastructure/db/mongo"
	redisdb "github.com/cometsur/checkin-sync/internal/infrastructure/db/redis"
	"github.com/cometsur/checkin-sync/internal/infrastructure/queue"
	"github.com/cometsur/checkin-sync/internal/infrastructure/realtime"
	"github.com/cometsur/checkin-sync/internal/infrastructure/remote"
	"github.com/cometsur/checkin-sync/internal/pkg/config"
	"github.com/cometsur/checkin-sync/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// @title Check-in Sync API
// @version 1.0
// @description Local operator API of the conference check-in agent.
// @BasePath /
// @schemes http
func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "syncd",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Cache and scan dedup ---
	var (
		store  ports.CacheStore
		dedup  ports.ScanDeduper
		checks []handler.DependencyCheck
	)
	if cfg.Redis.Addr != "" {
		backend, err := redisdb.Open(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		}, logger.Component("cache"))
		if err != nil {
			log.Fatal().Err(err).Msg("redis unavailable")
		}
		defer backend.Close()

		go func() {
			if err := backend.Store.Run(ctx); err != nil {
				log.Error().Err(err).Msg("cache change relay stopped")
			}
		}()
		store = backend.Store
		dedup = backend.Dedup
		checks = append(checks, handler.RedisCheck(backend.Client))
		log.Info().Str("addr", cfg.Redis.Addr).Msg("using redis cache")
	} else {
		store = cache.NewMemoryStore()
		dedup = cache.NewMemoryDeduper(nil)
		log.Info().Msg("using in-memory cache")
	}

	// --- Check-in journal ---
	var journal ports.CheckinJournal
	if cfg.Mongo.URI != "" {
		conn, err := mongodb.Open(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			log.Fatal().Err(err).Msg("mongo unavailable")
		}
		defer func() {
			if err := conn.Close(); err != nil {
				log.Warn().Err(err).Msg("mongo disconnect")
			}
		}()

		j, err := conn.Journal(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("check-in journal without indexes")
		}
		journal = j
		checks = append(checks, handler.MongoCheck(conn.Database()))
	}

	// --- Services ---
	userAPI := remote.NewClient(remote.Config{BaseURL: cfg.API.BaseURL, Timeout: cfg.API.Timeout}, logger.Component("remote"))
	roster := service.NewRosterCache(store)

	authService := service.NewAuthService(userAPI, store, logger.Component("auth"))
	registration := service.NewRegistrationService(userAPI, store, roster, logger.Component("registration"))
	reconciler := service.NewReconciler(userAPI, store, roster, nil, logger.Component("reconciler"))
	checkins := service.NewCheckinService(roster, reconciler, dedup, journal, cfg.Checkin.DedupWindow, logger.Component("checkin"))

	sessionSync := service.NewSessionSynchronizer(userAPI, store, service.SessionConfig{
		InitialDelay: cfg.Sync.SessionInitialDelay,
		Interval:     cfg.Sync.SessionInterval,
		SessionTTL:   cfg.Sync.SessionTTL,
		SignalWindow: cfg.Sync.ChangeSignalWindow,
	}, logger.Component("session"))
	rosterSync := service.NewRosterSynchronizer(userAPI, store, roster, service.RosterConfig{
		Interval: cfg.Sync.RosterInterval,
	}, logger.Component("roster"))

	forum := service.NewForum(
		realtime.NewTransport(realtime.Config{URL: cfg.Forum.URL, ConnectTimeout: cfg.Forum.ConnectTimeout}, logger.Component("realtime")),
		store,
		service.ForumConfig{},
		logger.Component("forum"),
	)

	dispatcher := queue.NewDispatcher(cfg.Checkin.Workers, checkins, logger.Component("dispatcher"))
	dispatcher.Start(ctx)

	// A renewed token means the forum must reconnect with it.
	sessionSync.OnChange(func(sig domain.ChangeSignal) {
		if sig.Has(domain.FieldAuthToken) && forum.Connected() {
			forum.Disconnect()
		}
	})

	sessionSync.Start(ctx)
	rosterSync.Start(ctx)
	if cfg.Forum.URL != "" {
		forum.Start(ctx)
	}

	// --- HTTP server ---
	e := api.NewRouter(api.Dependencies{
		Auth:       authService,
		Registrar:  registration,
		Session:    sessionSync,
		Roster:     rosterSync,
		Mutator:    reconciler,
		Checkins:   checkins,
		Dispatcher: dispatcher,
		Forum:      forum,
		Checks:     checks,
	}, logger.Component("http"))

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("check-in agent listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server start")
		}
	}()

	<-ctx.Done()
	shutdown(e.Shutdown, log)

	sessionSync.Stop()
	rosterSync.Stop()
	forum.Stop()
	dispatcher.Wait()
	log.Info().Msg("check-in agent stopped")
}

func shutdown(fn func(context.Context) error, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
}
