package cart

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/go-faster/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"shoppingcart/internal/config"
	"shoppingcart/internal/db"
)

// Open connects the backend selected by cfg.Repository. The returned func
// releases the underlying connection.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (Repository, func(), error) {
	switch cfg.Repository {
	case config.BackendDatabase:
		pool, err := db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			return nil, nil, errors.Wrap(err, "connect db")
		}
		return NewPostgres(pool, cfg.DBTable, logger), pool.Close, nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, errors.Wrap(err, "ping redis")
		}
		return NewRedis(client, cfg.RedisTable, logger), func() { _ = client.Close() }, nil

	case config.BackendFirestore:
		var opts []option.ClientOption
		if cfg.FirestoreCredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.FirestoreCredentialsFile))
		}
		client, err := firestore.NewClient(ctx, cfg.FirestoreProject, opts...)
		if err != nil {
			return nil, nil, errors.Wrap(err, "create firestore client")
		}
		return NewFirestore(client, cfg.FirestoreCollection, logger), func() { _ = client.Close() }, nil

	default:
		return nil, nil, errors.Errorf("unknown CART_REPOSITORY %q", cfg.Repository)
	}
}

// OpenInstrumented is Open with the result wrapped by Instrumented.
func OpenInstrumented(ctx context.Context, cfg config.Config, logger *zap.Logger, reg prometheus.Registerer) (Repository, func(), error) {
	repo, closeRepo, err := Open(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	wrapped, err := Instrumented(repo, cfg.Repository, reg)
	if err != nil {
		closeRepo()
		return nil, nil, err
	}
	return wrapped, closeRepo, nil
}
