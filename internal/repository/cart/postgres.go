package cart

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"shoppingcart/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	table  string
	logger *zap.Logger
}

// NewPostgres stores carts as rows (id, instance, content) in table.
// An empty table name selects DefaultTable.
func NewPostgres(pool *pgxpool.Pool, table string, logger *zap.Logger) Repository {
	if strings.TrimSpace(table) == "" {
		table = DefaultTable
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{
		pool:   pool,
		table:  pgx.Identifier{table}.Sanitize(),
		logger: logger,
	}
}

func (r *postgresRepo) CreateOrUpdate(ctx context.Context, id, instance string, content []byte) error {
	q := `
INSERT INTO ` + r.table + ` (id, instance, content)
VALUES ($1, $2, $3)
ON CONFLICT (id, instance) DO UPDATE SET content = EXCLUDED.content
`
	if _, err := r.pool.Exec(ctx, q, id, instance, string(content)); err != nil {
		r.logger.Error("cart repo: upsert", zap.String("id", id), zap.String("instance", instance), zap.Error(err))
		return err
	}
	r.logger.Debug("cart repo: upserted", zap.String("id", id), zap.String("instance", instance), zap.Int("bytes", len(content)))
	return nil
}

func (r *postgresRepo) FindByIDAndInstanceName(ctx context.Context, id, instance string) (*domain.StoredCart, error) {
	q := `
SELECT id, instance, content
FROM ` + r.table + `
WHERE id = $1 AND instance = $2
`
	var (
		stored  domain.StoredCart
		content string
	)
	err := r.pool.QueryRow(ctx, q, id, instance).Scan(&stored.ID, &stored.Instance, &content)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("cart repo: find not found", zap.String("id", id), zap.String("instance", instance))
			return nil, domain.ErrNotFound
		}
		r.logger.Error("cart repo: find", zap.String("id", id), zap.String("instance", instance), zap.Error(err))
		return nil, err
	}
	stored.Content = []byte(content)
	return &stored, nil
}

func (r *postgresRepo) Remove(ctx context.Context, id, instance string) error {
	q := `DELETE FROM ` + r.table + ` WHERE id = $1 AND instance = $2`
	cmd, err := r.pool.Exec(ctx, q, id, instance)
	if err != nil {
		r.logger.Error("cart repo: remove", zap.String("id", id), zap.String("instance", instance), zap.Error(err))
		return err
	}
	r.logger.Debug("cart repo: removed", zap.String("id", id), zap.String("instance", instance), zap.Int64("rows", cmd.RowsAffected()))
	return nil
}

// SetExpireTime is a no-op: the table has no native TTL.
func (r *postgresRepo) SetExpireTime(_ context.Context, id, instance string, ttl time.Duration) error {
	r.logger.Debug("cart repo: expire ignored", zap.String("id", id), zap.String("instance", instance), zap.Duration("ttl", ttl))
	return nil
}

// RenameCart is a no-op for the relational backend.
func (r *postgresRepo) RenameCart(_ context.Context, oldID, newID, instance string) error {
	r.logger.Debug("cart repo: rename ignored", zap.String("old_id", oldID), zap.String("new_id", newID), zap.String("instance", instance))
	return nil
}
