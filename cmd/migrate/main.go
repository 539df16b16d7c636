package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"shoppingcart/internal/config"
	"shoppingcart/internal/db"
	"shoppingcart/internal/logging"
	"shoppingcart/internal/migrate"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.New(logging.Options{Service: "cart-migrate", Env: cfg.Env, Level: cfg.LogLevel})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	if err := migrate.Apply(ctx, pool, logger); err != nil {
		logger.Fatal("apply migrations", zap.Error(err))
	}
	if err := migrate.EnsureCartTable(ctx, pool, cfg.DBTable, logger); err != nil {
		logger.Fatal("ensure cart table", zap.String("table", cfg.DBTable), zap.Error(err))
	}

	logger.Info("migrations applied")
}
