// cmd/server/main.go
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
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/kamikaze305/pablo-golf/service/internal/api"
	"github.com/kamikaze305/pablo-golf/service/internal/cache"
	"github.com/kamikaze305/pablo-golf/service/internal/config"
	"github.com/kamikaze305/pablo-golf/service/internal/database"
	"github.com/kamikaze305/pablo-golf/service/internal/game"
	"github.com/kamikaze305/pablo-golf/service/internal/room"
	"github.com/kamikaze305/pablo-golf/service/internal/session"
	"github.com/kamikaze305/pablo-golf/service/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	setupLogging(cfg)
	log := logrus.WithField("component", "server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("Server stopped with error")
	}
	log.Info("Server stopped")
}

func setupLogging(cfg *config.Config) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	if cfg.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Entry) error {
	if cfg.IsProduction() && cfg.JWTSecret == "change-me-in-production" {
		log.Warn("JWT_SECRET is the default value; reconnect tokens can be forged")
	}

	opts := room.Options{
		MaxRooms:       cfg.MaxRooms,
		MaxConnections: cfg.MaxConnections,
		Timings: game.Timings{
			RoundEndDelay:       cfg.RoundEndDelay,
			PabloWindowDuration: cfg.PabloWindowDuration,
			SpyRevealDuration:   cfg.SpyRevealDuration,
		},
		HostPolicy: game.HostPolicyByName(cfg.HostPolicy),
		Tokens:     session.NewTokens(cfg.JWTSecret, cfg.SessionTTL),
		Sessions:   session.NewMemoryStore(cfg.SessionTTL),
		IdleTTL:    cfg.SessionTTL,
		Log:        logrus.NewEntry(logrus.StandardLogger()),
	}

	// Redis backs sessions and the action log when configured.
	if cfg.RedisURL != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		opts.Sessions = session.NewRedisStore(rdb, cfg.SessionTTL)
		opts.Actions = cache.NewActionLog(rdb)
		log.Info("Redis connected; sessions and action log enabled")
	} else {
		log.Info("REDIS_URL not set; using in-memory sessions, action log disabled")
	}

	var history api.History
	if cfg.DatabaseURL != "" {
		if cfg.RunMigrations {
			if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
				return err
			}
		}
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		archive := database.NewArchive(pool)
		opts.Archive = archive
		history = archive
		log.Info("Database connected; round archive enabled")
	} else {
		log.Info("DATABASE_URL not set; round archive disabled")
	}

	hub := ws.NewHub(opts.Log)
	opts.Notifier = hub
	manager, err := room.NewManager(opts)
	if err != nil {
		return err
	}
	defer manager.Close()

	socket := ws.NewHandler(manager, hub, ws.Options{
		OriginPatterns: api.OriginHosts(cfg),
		MaxConnections: cfg.MaxConnections,
		Log:            opts.Log,
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	api.SetupRoutes(router, api.Deps{
		Config:  cfg,
		Lobby:   manager,
		History: history,
		Socket:  socket,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("port", cfg.Port).Info("Starting Pablo server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		manager.Run(gctx, room.DefaultSweepInterval)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
