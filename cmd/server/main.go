package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/pfolio/portfolio-api/internal/config"
	"github.com/pfolio/portfolio-api/internal/database"
	"github.com/pfolio/portfolio-api/internal/handler"
	"github.com/pfolio/portfolio-api/internal/logging"
	"github.com/pfolio/portfolio-api/internal/metrics"
	"github.com/pfolio/portfolio-api/internal/middleware"
	"github.com/pfolio/portfolio-api/internal/queue"
	"github.com/pfolio/portfolio-api/internal/repository"
	"github.com/pfolio/portfolio-api/internal/router"
	"github.com/pfolio/portfolio-api/internal/service"
	"github.com/pfolio/portfolio-api/internal/storage"
)

func main() {
	cfg := config.Load()
	log := logging.New(os.Stdout, cfg.Env, cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "server stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *logging.SlogLogger) error {
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.MigrateUp(db); err != nil {
		return err
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn(ctx, "redis unavailable; rate limiting and caching disabled")
	} else {
		defer rdb.Close()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	qcfg := config.LoadQueueConfig()
	var events service.EventPublisher
	if qcfg.Enabled {
		pub := queue.NewPublisher(qcfg.URL, qcfg.Queue, log)
		defer pub.Close()
		events = pub
	}
	if cfg.AuditConsumerEnabled {
		consumer := &queue.AuditConsumer{URL: qcfg.URL, Queue: qcfg.Queue, LogDir: qcfg.LogDir, Log: log}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error(ctx, "audit consumer stopped", "err", err)
			}
		}()
	}

	users := repository.NewUserRepo(db)
	revoked := repository.NewTokenRepo(db)
	authSvc := service.NewAuthService(users, revoked, events, metrics.NewAuth(reg), log, service.AuthOptions{
		Secret:            cfg.JWTSecret,
		SessionTTL:        cfg.SessionTTL,
		BcryptCost:        cfg.BcryptCost,
		AdminEmail:        cfg.AdminEmail,
		AdminTempPassword: cfg.AdminTempPassword,
	})

	profiles := repository.NewProfileRepo(db)
	contacts := repository.NewContactRepo(db)
	projects := repository.NewProjectRepo(db)
	cacheCfg := config.LoadCacheConfig()

	uploads := &handler.UploadHandler{Log: log}
	if scfg := config.LoadStorageConfig(); scfg.Enabled {
		assets, err := newAssets(ctx, scfg)
		if err != nil {
			log.Warn(ctx, "object storage unavailable; uploads disabled", "err", err)
		} else {
			uploads.Assets = assets
		}
	}

	e := router.New(log)
	router.RegisterRoutes(e, db, reg)
	router.RegisterAuth(e, handler.NewAuthHandler(authSvc, log, cfg.SeedEndpointEnabled), authSvc,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log))
	router.RegisterPublic(e, &handler.PublicHandler{Profiles: profiles, Contacts: contacts, Projects: projects, Log: log},
		middleware.NewRedisCache(cacheCfg, rdb, log))
	router.RegisterAdmin(e, &handler.AdminHandler{
		Profiles: profiles,
		Contacts: contacts,
		Projects: projects,
		Cache:    middleware.NewCachePurger(cacheCfg, rdb),
		Log:      log,
	}, uploads, authSvc)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "listening", "addr", srv.Addr, "env", cfg.Env)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newAssets(ctx context.Context, cfg config.StorageConfig) (*storage.Assets, error) {
	client, err := storage.NewMinioClient(cfg)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return storage.NewAssets(client, storage.PublicBaseURL(cfg), cfg.MaxUploadSize), nil
}
