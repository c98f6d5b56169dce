package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	alertevents "alertcast/internal/alert/events"
	alerthandler "alertcast/internal/alert/handler"
	alertmetrics "alertcast/internal/alert/metrics"
	"alertcast/internal/alert/service"
	"alertcast/internal/alert/store"
	"alertcast/internal/platform/config"
	"alertcast/internal/platform/httpserver"
	"alertcast/internal/platform/kafka"
	"alertcast/internal/platform/logger"
	"alertcast/internal/platform/metrics"
	"alertcast/internal/platform/middleware"
	platformredis "alertcast/internal/platform/redis"
	httpapi "alertcast/internal/transport/http"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in internal/alert.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	var (
		alerts       store.AlertStore
		interactions store.InteractionStore
		prefs        store.PreferenceStore
		tiers        store.TierStore
		admin        store.AdminStore
	)

	ctx := context.Background()

	if cfg.Postgres.URL != "" {
		db, err := store.Open(cfg.Postgres.URL)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := store.EnsureSchema(ctx, db); err != nil {
			log.Error("schema setup failed", "error", err)
			os.Exit(1)
		}
		adminStore, err := store.NewPostgresAdminStore(ctx, db, cfg.AdminAddress)
		if err != nil {
			log.Error("admin seed failed", "error", err)
			os.Exit(1)
		}
		alerts = store.NewPostgresAlertStore(db)
		interactions = store.NewPostgresInteractionStore(db)
		prefs = store.NewPostgresPreferenceStore(db)
		tiers = store.NewPostgresTierStore(db)
		admin = adminStore
		log.Info("using postgres stores")
	} else {
		alerts = store.NewMemoryAlertStore()
		interactions = store.NewMemoryInteractionStore()
		prefs = store.NewMemoryPreferenceStore()
		tiers = store.NewMemoryTierStore()
		admin = store.NewMemoryAdminStore(cfg.AdminAddress)
		log.Info("using in-memory stores")
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		interactions = store.NewRedisInteractionStore(redisClient.Client)
		log.Info("using redis interaction store")
	}

	var publisher alertevents.Publisher
	kafkaPublisher, err := kafka.NewPublisher(cfg.Kafka)
	if err != nil {
		log.Error("kafka setup failed", "error", err)
		os.Exit(1)
	}
	if kafkaPublisher != nil {
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		log.Info("publishing lifecycle events", "topic", cfg.Kafka.Topic)
	}

	svc := service.New(alerts, interactions, prefs, tiers, admin,
		service.WithLogger(log),
		service.WithMetrics(alertmetrics.New()),
		service.WithPublisher(publisher),
	)

	router := httpapi.NewRouter(httpapi.Deps{
		Logger:    log,
		Validator: middleware.NewHMACValidator(cfg.JWTSigningKey),
		Metrics:   metrics.New(),
		Health: func(r *http.Request) error {
			if redisClient != nil {
				return redisClient.Health(r.Context())
			}
			return nil
		},
	}, alerthandler.New(svc, log))

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting alertcast", "addr", cfg.Addr, "admin", cfg.AdminAddress)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
