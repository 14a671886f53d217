package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/artcafe/storefront/internal/catalog"
	"github.com/artcafe/storefront/pkg/config"
	"github.com/artcafe/storefront/pkg/docstore/driver"
	"github.com/artcafe/storefront/pkg/logger"
	"github.com/artcafe/storefront/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "seed"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	file := flag.String("file", "catalog.json", "catalog fixture with menu and art entries")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"file": *file,
	})

	fh, err := os.Open(*file)
	if err != nil {
		logg.Error(ctx, "failed to open fixture", err)
		os.Exit(1)
	}
	defer fh.Close()

	f, err := decodeFixture(fh)
	if err != nil {
		logg.Error(ctx, "invalid fixture", err)
		os.Exit(1)
	}

	store, err := driver.Open(ctx, cfg.DocStore, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap document store", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			logg.Error(context.Background(), "error closing document store", err)
		}
	}()

	counts, err := seedCatalog(ctx, store, f)
	if err != nil {
		logg.Error(ctx, "seeding stopped", err)
		os.Exit(1)
	}
	logg.Info(logg.WithFields(ctx, map[string]any{"menu": counts.Menu, "art": counts.Art}), "catalog seeded")

	// Cached listings would hide the new entries until their TTL lapses.
	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Warn(ctx, "redis unavailable, catalog cache not invalidated")
		return
	}
	defer redisClient.Close()

	svc, err := catalog.NewService(store, redisClient, cfg.Catalog, logg)
	if err != nil {
		logg.Error(ctx, "failed to create catalog service", err)
		os.Exit(1)
	}
	if err := svc.Invalidate(ctx); err != nil {
		logg.Error(ctx, "failed to invalidate catalog cache", err)
	}
}
