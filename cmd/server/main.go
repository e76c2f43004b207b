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

	"github.com/playpool/cuesim/internal/api"
	"github.com/playpool/cuesim/internal/config"
	"github.com/playpool/cuesim/internal/database"
	"github.com/playpool/cuesim/internal/logging"
	"github.com/playpool/cuesim/internal/migrations"
	"github.com/playpool/cuesim/internal/redis"
	"github.com/playpool/cuesim/internal/session"
	"github.com/playpool/cuesim/internal/ws"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.IsDevelopment())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MigrateOnStart {
		if err := migrations.RunMigrations(cfg.DatabaseURL, "migrations", log); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	rdb, err := redis.Connect(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer rdb.Close()

	mgr := session.NewManager(database.NewStore(db), session.OptionsFromConfig(cfg), log)
	relay := redis.NewRelay(rdb, log)
	idle := session.NewIdleTracker(rdb, cfg, log)
	hub := ws.NewHub(mgr, relay, idle, log)

	go hub.Run(ctx)
	go relay.Subscribe(ctx, hub.Deliver)
	go idle.Run(ctx, hub.AbortIdle)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	api.SetupRoutes(router, mgr, hub, cfg, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("instance", hub.ID()).Msg("relay server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
