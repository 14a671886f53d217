package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/artcafe/storefront/api/controllers"
	"github.com/artcafe/storefront/api/routes"
	"github.com/artcafe/storefront/internal/cart"
	"github.com/artcafe/storefront/internal/catalog"
	"github.com/artcafe/storefront/internal/checkout"
	"github.com/artcafe/storefront/internal/notify"
	"github.com/artcafe/storefront/internal/orders"
	"github.com/artcafe/storefront/pkg/auth"
	"github.com/artcafe/storefront/pkg/config"
	"github.com/artcafe/storefront/pkg/docstore/driver"
	"github.com/artcafe/storefront/pkg/env"
	"github.com/artcafe/storefront/pkg/logger"
	"github.com/artcafe/storefront/pkg/mailrelay"
	"github.com/artcafe/storefront/pkg/metrics"
	"github.com/artcafe/storefront/pkg/pubsub"
	"github.com/artcafe/storefront/pkg/redis"
)

const shutdownTimeout = 20 * time.Second

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
	})

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := driver.Open(runCtx, cfg.DocStore, logg)
	if err != nil {
		logg.Error(runCtx, "failed to bootstrap document store", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			logg.Error(context.Background(), "error closing document store", err)
		}
	}()

	redisClient, err := redis.New(runCtx, cfg.Redis, logg)
	if err != nil {
		logg.Error(runCtx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessions := scs.New()
	sessions.Store = redis.NewSessionStore(redisClient)
	sessions.Lifetime = cfg.Session.Lifetime
	sessions.IdleTimeout = cfg.Session.IdleTimeout
	sessions.Cookie.Name = cfg.Session.CookieName
	sessions.Cookie.Secure = cfg.Session.SecureCookie
	sessions.Cookie.HttpOnly = true
	sessions.Cookie.SameSite = http.SameSiteLaxMode

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)
	cartMetrics := metrics.NewCartMetrics(registry)

	catalogService, err := catalog.NewService(store, redisClient, cfg.Catalog, logg)
	if err != nil {
		logg.Error(runCtx, "failed to create catalog service", err)
		os.Exit(1)
	}

	ordersRepo, err := orders.NewRepository(store)
	if err != nil {
		logg.Error(runCtx, "failed to create orders repository", err)
		os.Exit(1)
	}

	var mail *mailrelay.Client
	if cfg.Mail.Enabled() {
		mail, err = mailrelay.NewClient(cfg.Mail)
		if err != nil {
			logg.Error(runCtx, "failed to create mail relay client", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(runCtx, "mail relay disabled, order confirmations will not be sent")
	}

	readiness := map[string]controllers.Pinger{
		"docstore": store,
		"redis":    redisClient,
	}

	var events *notify.EventPublisher
	if cfg.PubSub.Enabled() {
		psClient, err := pubsub.NewClient(runCtx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(runCtx, "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := psClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
		events = notify.NewEventPublisher(psClient.OrdersPublisher())
		readiness["pubsub"] = psClient
	} else {
		events = notify.NewEventPublisher(nil)
	}
	notifier := notify.NewNotifier(mail, events, logg)

	orchestrator, err := checkout.NewOrchestrator(checkout.Params{
		Auth:     auth.ContextProvider{},
		Orders:   ordersRepo,
		Notifier: notifier,
		Metrics:  checkoutMetrics,
		Logger:   logg,
		Config:   cfg.Checkout,
	})
	if err != nil {
		logg.Error(runCtx, "failed to create checkout orchestrator", err)
		os.Exit(1)
	}

	carts := cart.NewRegistry(cfg.Cart.IdleTTL)
	go carts.RunSweeper(runCtx, cfg.Cart.SweepInterval, logg, cartMetrics.Swept)

	addr := ":" + env.Get("PORT", cfg.App.Port)
	ctx := logg.WithFields(runCtx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": env.Instance(),
		"docstore": cfg.DocStore.NormalizedDriver(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			sessions,
			redisClient,
			readiness,
			catalogService,
			carts,
			orchestrator,
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutting down api server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(shutdownCtx, "api server shutdown failed", err)
	}
	if err := notifier.Wait(shutdownCtx); err != nil {
		logg.Warn(shutdownCtx, "pending order notifications abandoned")
	}
}
