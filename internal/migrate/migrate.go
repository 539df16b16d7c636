package migrate

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"

	"github.com/go-faster/errors"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

//go:embed sql/*.sql
var migrationsFS embed.FS

// CartTable is the table the migrations create.
const CartTable = "shopping_cart"

// Apply runs all migrations up using the embedded migration files.
func Apply(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	srcDriver, err := iofs.New(migrationsFS, "sql")
	if err != nil {
		return errors.Wrap(err, "init iofs")
	}

	sqlDB, err := sql.Open("pgx", pool.Config().ConnString())
	if err != nil {
		return errors.Wrap(err, "open sql db")
	}
	defer sqlDB.Close()

	if err := sqlDB.PingContext(ctx); err != nil {
		return errors.Wrap(err, "ping sql db")
	}

	dbDriver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return errors.Wrap(err, "init db driver")
	}

	m, err := migrate.NewWithInstance("iofs", srcDriver, "pgx", dbDriver)
	if err != nil {
		return errors.Wrap(err, "init migrate")
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Debug("migrate: schema up to date")
			return nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			return errors.Wrap(err, "migrate up (every version needs both .up.sql and .down.sql)")
		}
		return errors.Wrap(err, "migrate up")
	}

	version, dirty, err := m.Version()
	if err != nil {
		return errors.Wrap(err, "read schema version")
	}
	logger.Info("migrate: applied", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

// EnsureCartTable creates table with the same columns and keys as CartTable
// when a deployment stores carts under another name. Apply must have run
// first.
func EnsureCartTable(ctx context.Context, pool *pgxpool.Pool, table string, logger *zap.Logger) error {
	if table == "" || table == CartTable {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	stmt := `CREATE TABLE IF NOT EXISTS ` + pgx.Identifier{table}.Sanitize() +
		` (LIKE ` + CartTable + ` INCLUDING ALL)`
	if _, err := pool.Exec(ctx, stmt); err != nil {
		return errors.Wrapf(err, "create cart table %q", table)
	}
	logger.Info("migrate: cart table ready", zap.String("table", table))
	return nil
}
