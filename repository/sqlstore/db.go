package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/nijaru/golf-directory/errors"
	"github.com/nijaru/golf-directory/repository"
)

type DBConfig struct {
	MaxRetries         int
	RetryDelay         time.Duration
	QueryTimeout       time.Duration
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

func DefaultDBConfig() DBConfig {
	return DBConfig{
		MaxRetries:         3,
		RetryDelay:         time.Second,
		QueryTimeout:       30 * time.Second,
		MaxConnections:     10,
		MaxIdleConnections: 5,
		ConnMaxLifetime:    time.Hour,
	}
}

// Options selects the backing database. URL wins over Path.
type Options struct {
	Path   string
	URL    string
	Config DBConfig
	Logger *logrus.Logger
}

// Store implements the repository interfaces on database/sql.
type Store struct {
	queries
	db      *sql.DB
	config  DBConfig
	dialect Dialect
	logger  *logrus.Logger
}

// Open connects, applies pragmas and creates missing tables.
func Open(ctx context.Context, opts Options) (*Store, error) {
	const op = "sqlstore.Open"

	cfg := opts.Config
	if cfg.MaxRetries <= 0 {
		cfg = DefaultDBConfig()
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	dialect, dsn := SQLite, opts.Path
	if opts.URL != "" {
		dialect, dsn = Postgres, opts.URL
	} else {
		if dsn == "" {
			return nil, errors.Config(op, nil, "database path is required")
		}
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, errors.Persistence(op, err, "failed to create database directory")
		}
	}

	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, errors.Persistence(op, err, "failed to open database")
	}
	configureDB(db, dialect, cfg)

	if err := withRetry(ctx, cfg, op, func() error { return db.PingContext(ctx) }); err != nil {
		db.Close()
		return nil, err
	}

	if dialect == SQLite {
		if err := configurePragmas(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}

	if err := execSchema(ctx, db, dialect.schema()); err != nil {
		db.Close()
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"dialect": dialect.String(),
	}).Info("Database ready")

	s := &Store{
		db:      db,
		config:  cfg,
		dialect: dialect,
		logger:  log,
	}
	s.queries = queries{exec: db, dialect: dialect, timeout: cfg.QueryTimeout}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Dialect reports which backend Open selected.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Stats() sql.DBStats {
	return s.db.Stats()
}

func configureDB(db *sql.DB, dialect Dialect, config DBConfig) {
	if dialect == SQLite {
		// SQLite has a single writer.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(config.MaxConnections)
	}
	db.SetMaxIdleConns(config.MaxIdleConnections)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
}

func configurePragmas(ctx context.Context, db *sql.DB) error {
	const op = "sqlstore.configurePragmas"

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA cache_size = -2000", // Use up to 2MB of memory for cache
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return errors.Persistence(op, err, fmt.Sprintf("failed to set pragma: %s", pragma))
		}
	}

	return nil
}

func execSchema(ctx context.Context, db *sql.DB, schema string) error {
	const op = "sqlstore.execSchema"

	return WithTransaction(ctx, db, func(tx Executor) error {
		for _, stmt := range strings.Split(schema, ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return errors.Persistence(op, err, fmt.Sprintf("failed to execute schema statement: %s", stmt))
			}
		}
		return nil
	})
}

// withRetry retries fn while it fails with a lock or connection error.
func withRetry(ctx context.Context, config DBConfig, op string, fn func() error) error {
	var lastErr error
	for i := 0; i < config.MaxRetries; i++ {
		if err := ctx.Err(); err != nil {
			return errors.Persistence(op, err, "context cancelled")
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isRetryable(err) {
			return err
		}

		select {
		case <-time.After(config.RetryDelay * time.Duration(i+1)):
		case <-ctx.Done():
			return errors.Persistence(op, ctx.Err(), "context cancelled")
		}
	}
	return errors.Persistence(op, lastErr, "max retries exceeded")
}

func isLockError(err error) bool {
	return strings.Contains(err.Error(), "database is locked") ||
		strings.Contains(err.Error(), "busy")
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return isLockError(err) ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "the database system is starting up")
}

var (
	_ repository.QuotaRepository    = (*Store)(nil)
	_ repository.VideoRepository    = (*Store)(nil)
	_ repository.ChannelRepository  = (*Store)(nil)
	_ repository.AnalysisRepository = (*Store)(nil)
	_ repository.Transactor         = (*Store)(nil)
	_ repository.Tx                 = (*queries)(nil)
)
