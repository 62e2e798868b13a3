package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"

	"github.com/wichananm65/user-directory/internal/config"
)

var drivers = map[string]bool{
	"pgx":      true,
	"postgres": true,
}

// Open returns a pinged connection pool for cfg. The pool is shared by every
// repository for the lifetime of the process.
func Open(ctx context.Context, cfg config.Database) (*sql.DB, error) {
	if !drivers[cfg.Driver] {
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := sql.Open(cfg.Driver, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}
