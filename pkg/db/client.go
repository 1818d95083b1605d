package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Pinger is anything the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Client owns the gorm connection used by the SQL-backed cart and order
// repositories.
type Client struct {
	gdb *gorm.DB
	raw *sql.DB
}

// New opens a postgres or sqlite connection and sizes its pool.
func New(ctx context.Context, driver string, cfg config.DBConfig, logg *logger.Logger) (*Client, error) {
	if cfg.DSN == "" {
		return nil, errors.New("database DSN is required")
	}

	var dialector gorm.Dialector
	switch driver {
	case config.StorageDriverPostgres:
		dialector = postgres.New(postgres.Config{DSN: cfg.DSN, PreferSimpleProtocol: true})
	case config.StorageDriverSQLite:
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 newQueryLogger(logg, cfg.SlowQueryThreshold),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	raw, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("sql handle: %w", err)
	}
	sizePool(raw, driver, cfg)

	logg.Info(logg.WithField(ctx, "driver", driver), "db.connected")
	return &Client{gdb: gdb, raw: raw}, nil
}

func sizePool(raw *sql.DB, driver string, cfg config.DBConfig) {
	// sqlite has a single writer; more connections only produce SQLITE_BUSY.
	if driver == config.StorageDriverSQLite {
		raw.SetMaxOpenConns(1)
		return
	}
	if cfg.MaxOpenConns > 0 {
		raw.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		raw.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	raw.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	raw.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
}

func (c *Client) DB() *gorm.DB { return c.gdb }

// SQL exposes the pooled database/sql handle for goose.
func (c *Client) SQL() *sql.DB { return c.raw }

func (c *Client) Ping(ctx context.Context) error {
	return c.raw.PingContext(ctx)
}

func (c *Client) Close() error {
	return c.raw.Close()
}

// RunInTx runs fn in a transaction on conn. An error or panic from fn rolls
// the transaction back.
func RunInTx(ctx context.Context, conn *gorm.DB, fn func(tx *gorm.DB) error) error {
	return conn.WithContext(ctx).Transaction(fn)
}
