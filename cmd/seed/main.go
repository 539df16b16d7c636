package main

import (
	"context"
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"shoppingcart/internal/config"
	"shoppingcart/internal/logging"
	cartrepo "shoppingcart/internal/repository/cart"
	"shoppingcart/internal/seed"
	cartsvc "shoppingcart/internal/service/cart"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.New(logging.Options{Service: "cart-seed", Env: cfg.Env, Level: cfg.LogLevel})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	repo, closeRepo, err := cartrepo.OpenInstrumented(ctx, cfg, logger, prometheus.DefaultRegisterer)
	if err != nil {
		logger.Fatal("open cart repository", zap.String("backend", cfg.Repository), zap.Error(err))
	}
	defer closeRepo()

	if err := seed.Apply(ctx, cartsvc.NewFactory(repo, logger)); err != nil {
		logger.Fatal("seed apply", zap.Error(err))
	}

	logger.Info("seed applied", zap.String("cart", seed.DemoCartID))
}
