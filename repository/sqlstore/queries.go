package sqlstore

import (
	"context"
	"time"
)

// queries runs statements against either the pool or an open transaction.
type queries struct {
	exec    Executor
	dialect Dialect
	timeout time.Duration
}

func (q *queries) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if q.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, q.timeout)
}

func (q *queries) execContext(ctx context.Context, query string, args ...any) error {
	_, err := q.exec.ExecContext(ctx, q.dialect.rebind(query), args...)
	return err
}

// utc normalises timestamps so SQLite text comparisons order correctly.
func utc(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
