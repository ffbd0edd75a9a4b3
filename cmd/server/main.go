package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/chatloom/chatloom/pkg/billing"
	"github.com/chatloom/chatloom/pkg/config"
	"github.com/chatloom/chatloom/pkg/email"
	"github.com/chatloom/chatloom/pkg/httpserver"
	"github.com/chatloom/chatloom/pkg/logger"
	"github.com/chatloom/chatloom/pkg/pg"
	"github.com/chatloom/chatloom/pkg/ratelimiter"
	"github.com/chatloom/chatloom/pkg/redis"
	svcbilling "github.com/chatloom/chatloom/svc/billing"
)

type appConfig struct {
	BaseURL         string `env:"APP_BASE_URL" envDefault:"http://localhost:3000"`
	PlanCatalogPath string `env:"PLAN_CATALOG_PATH"`
}

func main() {
	ctx := context.Background()

	var logCfg logger.Config
	config.MustLoad(&logCfg)
	log := logger.NewFromConfig(logCfg, logger.WithAttrs(slog.String("app", "chatloom")))

	if err := run(ctx, log); err != nil {
		log.ErrorContext(ctx, "server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger) error {
	var (
		appCfg    appConfig
		dbCfg     pg.Config
		redisCfg  redis.Config
		stripeCfg billing.StripeConfig
		emailCfg  email.Config
		limitCfg  ratelimiter.Config
		srvCfg    httpserver.Config
	)
	config.MustLoad(&appCfg)
	config.MustLoad(&dbCfg)
	config.MustLoad(&redisCfg)
	config.MustLoad(&stripeCfg)
	config.MustLoad(&emailCfg)
	config.MustLoad(&limitCfg)
	config.MustLoad(&srvCfg)

	pool, err := pg.Connect(ctx, dbCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, dbCfg, log); err != nil {
		return err
	}

	healthchecks := []func(context.Context) error{pg.Healthcheck(pool)}

	// Redis is optional: without it the rate limiter falls back to
	// per-instance in-memory buckets.
	var limiterStore ratelimiter.Store
	if redisCfg.ConnectionURL != "" {
		redisClient, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		limiterStore = ratelimiter.NewRedisStore(redisClient)
		healthchecks = append(healthchecks, redis.Healthcheck(redisClient))
	} else {
		memStore := ratelimiter.NewMemoryStore()
		defer memStore.Close()
		limiterStore = memStore
	}

	bucket, err := ratelimiter.NewBucket(limiterStore, limitCfg)
	if err != nil {
		return err
	}

	// Without Stripe credentials billing endpoints answer with an explicit
	// configuration error instead of refusing to start.
	var provider billing.PaymentProvider
	if stripeCfg.Configured() {
		stripeProvider, err := billing.NewStripeProvider(stripeCfg)
		if err != nil {
			return err
		}
		provider = stripeProvider
	} else {
		log.WarnContext(ctx, "stripe credentials missing, billing is disabled")
	}

	catalogSource := svcbilling.DefaultPlans()
	if appCfg.PlanCatalogPath != "" {
		catalogSource = billing.NewFileSource(appCfg.PlanCatalogPath)
	}
	catalog, err := billing.NewCatalog(ctx, catalogSource)
	if err != nil {
		return err
	}

	var sender email.EmailSender
	if emailCfg.Configured() {
		if sender, err = email.NewPostmarkClient(emailCfg); err != nil {
			return err
		}
	} else {
		sender = email.NewLogSender(log)
	}
	notifier := svcbilling.NewEmailNotifier(sender, catalog, appCfg.BaseURL)

	store := svcbilling.NewPgUserStore(pool)
	checkout := billing.NewCheckoutService(provider, store, appCfg.BaseURL, log)
	reconciler := billing.NewReconciler(provider, store, catalog, log,
		billing.WithNotifier(notifier))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Get("/health", httpserver.HealthCheckHandler(log, healthchecks...))
	r.Mount("/api", svcbilling.Router(svcbilling.RouterOptions{
		Checkout:       checkout,
		Reconciler:     reconciler,
		Store:          store,
		Catalog:        catalog,
		PublishableKey: stripeCfg.PublishableKey,
		CheckoutLimit:  ratelimiter.Middleware(bucket, ratelimiter.KeyByClientIP),
		Logger:         log,
	}))

	srv := httpserver.New(srvCfg, httpserver.WithLogger(log))
	return srv.Run(ctx, r)
}
