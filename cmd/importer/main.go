package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"shoppingcart/internal/config"
	"shoppingcart/internal/importer"
	"shoppingcart/internal/logging"
	cartrepo "shoppingcart/internal/repository/cart"
	cartsvc "shoppingcart/internal/service/cart"
)

func main() {
	var (
		filePath string
		cartID   string
		instance string
		replace  bool
	)
	flag.StringVar(&filePath, "file", "", "Path to a CSV of cart lines (id,name,price,quantity,tax,total,options)")
	flag.StringVar(&cartID, "cart", "", "Cart id to import into")
	flag.StringVar(&instance, "instance", cartsvc.DefaultInstanceName, "Cart instance")
	flag.BoolVar(&replace, "replace", false, "Start from an empty cart instead of the stored one")
	flag.Parse()

	if filePath == "" || cartID == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	logger, err := logging.New(logging.Options{Service: "cart-importer", Env: cfg.Env, Level: cfg.LogLevel})
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

	factory := cartsvc.NewFactory(repo, logger)
	cart := factory.New(instance)
	if !replace {
		if cart, err = factory.Open(ctx, cartID, instance); err != nil {
			logger.Fatal("open cart", zap.String("id", cartID), zap.Error(err))
		}
	}

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatal("open file", zap.Error(err))
	}
	defer f.Close()

	start := time.Now()
	count, err := importer.NewCSVImporter(f, cart).Run()
	if err != nil {
		logger.Fatal("import failed", zap.Int("imported", count), zap.Error(err))
	}
	if err := cart.Store(ctx, cartID); err != nil {
		logger.Fatal("store cart", zap.String("id", cartID), zap.Error(err))
	}

	fmt.Printf("Imported %d rows into cart %s (%s, %d lines) in %s\n",
		count, cartID, cart.CurrentInstance(), cart.Count(), time.Since(start).Truncate(time.Millisecond))
}
