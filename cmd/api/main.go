package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/angelmondragon/smartcart/api/controllers"
	"github.com/angelmondragon/smartcart/api/routes"
	"github.com/angelmondragon/smartcart/internal/catalog"
	"github.com/angelmondragon/smartcart/internal/events"
	"github.com/angelmondragon/smartcart/internal/loyalty"
	"github.com/angelmondragon/smartcart/internal/session"
	"github.com/angelmondragon/smartcart/pkg/config"
	"github.com/angelmondragon/smartcart/pkg/db"
	"github.com/angelmondragon/smartcart/pkg/logger"
	"github.com/angelmondragon/smartcart/pkg/metrics"
	"github.com/angelmondragon/smartcart/pkg/migrate"
	pkgredis "github.com/angelmondragon/smartcart/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
		Fields:      map[string]string{"env": cfg.App.Env},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	readiness := map[string]controllers.Pinger{}
	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i]())
		}
	}()

	var products catalog.Catalog
	if cfg.Catalog.UsesDB() {
		dbClient, dbErr := db.New(ctx, cfg.DB, db.Options{UseSQLite: cfg.FeatureFlags.UseSQLite}, logg)
		if dbErr != nil {
			return dbErr
		}
		closers = append(closers, dbClient.Close)
		readiness["database"] = dbClient

		if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
			return err
		}
		products = catalog.NewRepository(dbClient.DB(), dbClient)
	} else {
		mem, memErr := catalog.NewMemory(catalog.DefaultSeed()...)
		if memErr != nil {
			return memErr
		}
		products = mem
	}

	var (
		redisClient *pkgredis.Client
		idem        pkgredis.IdempotencyStore
	)
	if cfg.Redis.Enabled() {
		rc, redisErr := pkgredis.New(ctx, cfg.Redis, logg)
		if redisErr != nil {
			return redisErr
		}
		closers = append(closers, rc.Close)
		readiness["redis"] = rc
		redisClient = rc
		idem = rc
	}

	var balances loyalty.BalanceProvider = loyalty.NewStatic(cfg.Loyalty.DefaultBalance)
	if cfg.Loyalty.UsesRedis() {
		rb, balErr := loyalty.NewRedisBalance(redisClient, cfg.Loyalty.DefaultBalance)
		if balErr != nil {
			return balErr
		}
		balances = rb
	}

	var publisher events.Publisher = events.Noop{}
	if cfg.Eventing.Enabled() {
		kp, pubErr := events.NewKafkaPublisher(cfg.Eventing.KafkaBrokers, cfg.Eventing.CheckoutTopic, cfg.Eventing.WriteTimeout)
		if pubErr != nil {
			return pubErr
		}
		publisher = kp
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	manager, err := session.NewManager(session.ManagerParams{
		Catalog:     products,
		Loyalty:     balances,
		Publisher:   publisher,
		Metrics:     metrics.NewCartMetrics(reg),
		Logger:      logg,
		MaxSessions: cfg.Session.MaxSessions,
	})
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	logCtx := logg.WithFields(context.Background(), map[string]any{
		"addr":           addr,
		"instance":       id,
		"catalog_source": cfg.Catalog.Source,
		"loyalty_source": cfg.Loyalty.Source,
		"eventing":       cfg.Eventing.Enabled(),
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, manager, products, idem, readiness, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(logCtx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return multierr.Append(err, manager.Shutdown(context.Background()))
		}
		return manager.Shutdown(context.Background())
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return multierr.Combine(
		server.Shutdown(shutdownCtx),
		manager.Shutdown(shutdownCtx),
	)
}
