package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/eden/gameserver/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	connectAttempts = 5
	connectBackoff  = 2 * time.Second
)

// DB is the pgx pool shared by the repositories.
type DB struct {
	Pool         *pgxpool.Pool
	queryTimeout time.Duration
	log          *zap.Logger
}

// NewDB opens the pool and waits for the server to answer, retrying a few
// times while the database comes up.
func NewDB(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 && int32(cfg.MaxIdleConns) <= poolCfg.MaxConns {
		poolCfg.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	db := &DB{Pool: pool, queryTimeout: cfg.QueryTimeout, log: log.Named("db")}

	for attempt := 1; ; attempt++ {
		err = db.Ping(ctx)
		if err == nil {
			break
		}
		if attempt == connectAttempts {
			pool.Close()
			return nil, fmt.Errorf("ping db after %d attempts: %w", attempt, err)
		}
		db.log.Warn("database not ready, retrying",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			pool.Close()
			return nil, fmt.Errorf("ping db: %w", ctx.Err())
		case <-time.After(connectBackoff):
		}
	}

	db.log.Info("database connected",
		zap.String("host", poolCfg.ConnConfig.Host),
		zap.String("database", poolCfg.ConnConfig.Database),
		zap.Int32("max_conns", poolCfg.MaxConns),
	)
	return db, nil
}

// Ping checks the server within one query timeout.
func (db *DB) Ping(ctx context.Context) error {
	ctx, cancel := db.queryContext(ctx)
	defer cancel()
	return db.Pool.Ping(ctx)
}

// PoolFields describes pool usage for status logging.
func (db *DB) PoolFields() []zap.Field {
	st := db.Pool.Stat()
	return []zap.Field{
		zap.Int32("db_conns", st.TotalConns()),
		zap.Int32("db_idle", st.IdleConns()),
		zap.Int32("db_acquired", st.AcquiredConns()),
	}
}

// queryContext bounds a single query by the configured timeout.
func (db *DB) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if db.queryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, db.queryTimeout)
}

func (db *DB) Close() {
	db.Pool.Close()
	db.log.Info("database closed")
}
