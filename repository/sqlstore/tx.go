package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nijaru/golf-directory/errors"
	"github.com/nijaru/golf-directory/models"
	"github.com/nijaru/golf-directory/repository"
)

type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// TxFn is a function that will be called with a transaction
type TxFn func(tx Executor) error

// WithTransaction wraps a transaction with proper rollback/commit logic
func WithTransaction(ctx context.Context, db *sql.DB, fn TxFn) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p) // re-throw panic after rollback
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// WithinTx runs fn in one transaction. Lock contention retries the whole
// transaction; any other error rolls back and is returned.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	const op = "Store.WithinTx"

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err := withRetry(ctx, s.config, op, func() error {
		return WithTransaction(ctx, s.db, func(exec Executor) error {
			return fn(&queries{exec: exec, dialect: s.dialect})
		})
	})
	if err != nil {
		if errors.KindOf(err) != errors.KindInternal {
			return err
		}
		return errors.Persistence(op, err, "transaction failed")
	}
	return nil
}

// IncrementQuota adds count operations of kind op to the ledger row for date
// in its own transaction.
func (s *Store) IncrementQuota(ctx context.Context, date string, op models.Operation, count int64) error {
	return s.WithinTx(ctx, func(tx repository.Tx) error {
		return tx.IncrementQuota(ctx, date, op, count)
	})
}
