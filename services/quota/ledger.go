package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nijaru/golf-directory/errors"
	"github.com/nijaru/golf-directory/models"
	"github.com/nijaru/golf-directory/repository"
)

// Spender is the ledger surface the jobs depend on.
type Spender interface {
	CanAfford(ctx context.Context, op models.Operation, count int64) bool
	Record(ctx context.Context, op models.Operation, count int64) error
	RecordTx(ctx context.Context, tx repository.Tx, op models.Operation, count int64) error
	Refresh(ctx context.Context)
}

var _ Spender = (*Ledger)(nil)

// Observer receives ledger updates, typically for metrics.
type Observer interface {
	ObserveQuota(usage *models.QuotaUsage, ceiling int64)
}

// Ledger tracks API units spent per UTC day against a fixed ceiling.
type Ledger struct {
	repo     repository.QuotaRepository
	ceiling  int64
	now      func() time.Time
	logger   *logrus.Logger
	observer Observer
}

type Option func(*Ledger)

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func WithLogger(logger *logrus.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

func WithObserver(o Observer) Option {
	return func(l *Ledger) { l.observer = o }
}

func NewLedger(repo repository.QuotaRepository, ceiling int64, opts ...Option) *Ledger {
	if ceiling <= 0 {
		ceiling = models.DefaultDailyQuota
	}
	l := &Ledger{
		repo:    repo,
		ceiling: ceiling,
		now:     time.Now,
		logger:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) Ceiling() int64 { return l.ceiling }

func (l *Ledger) today() string {
	return models.QuotaDate(l.now())
}

// Check returns nil when count more operations of kind op fit under
// today's ceiling. An unreadable ledger is an error, never an allowance.
func (l *Ledger) Check(ctx context.Context, op models.Operation, count int64) error {
	const opName = "Ledger.Check"

	cost, ok := op.Cost()
	if !ok || count < 0 {
		return errors.InvalidInput(opName, nil, fmt.Sprintf("cannot price %d x %q", count, op))
	}

	usage, err := l.repo.GetQuotaUsage(ctx, l.today())
	if err != nil {
		return errors.Persistence(opName, err, "quota ledger unreadable")
	}

	current := usage.TotalUnits()
	if current+cost*count > l.ceiling {
		return errors.QuotaExhausted(opName,
			fmt.Sprintf("%d x %s needs %d units, %d of %d used", count, op, cost*count, current, l.ceiling))
	}
	return nil
}

// CanAfford is Check as a yes/no answer. Denials are logged.
func (l *Ledger) CanAfford(ctx context.Context, op models.Operation, count int64) bool {
	err := l.Check(ctx, op, count)
	if err == nil {
		return true
	}

	kind := errors.KindOf(err)
	log := l.logger.WithError(err).WithFields(logrus.Fields{
		"operation": op,
		"count":     count,
		"category":  kind,
	})
	switch kind {
	case errors.KindQuota:
		log.Warn("Daily quota would be exceeded")
	case errors.KindInvalidInput:
		log.Warn("Quota check for unknown operation denied")
	default:
		log.Error("Quota ledger unreadable, denying spend")
	}
	return false
}

// Record adds count operations of kind op to today's row.
func (l *Ledger) Record(ctx context.Context, op models.Operation, count int64) error {
	const opName = "Ledger.Record"

	if err := validate(opName, op, count); err != nil {
		return err
	}
	if err := l.repo.IncrementQuota(ctx, l.today(), op, count); err != nil {
		return err
	}
	l.observe(ctx)
	return nil
}

// RecordTx adds the increment inside the caller's transaction, so it commits
// or rolls back together with the caller's writes.
func (l *Ledger) RecordTx(ctx context.Context, tx repository.Tx, op models.Operation, count int64) error {
	const opName = "Ledger.RecordTx"

	if err := validate(opName, op, count); err != nil {
		return err
	}
	return tx.IncrementQuota(ctx, l.today(), op, count)
}

// Usage returns today's row.
func (l *Ledger) Usage(ctx context.Context) (*models.QuotaUsage, error) {
	return l.repo.GetQuotaUsage(ctx, l.today())
}

// Remaining returns the units still available today.
func (l *Ledger) Remaining(ctx context.Context) (int64, error) {
	usage, err := l.Usage(ctx)
	if err != nil {
		return 0, err
	}
	remaining := l.ceiling - usage.TotalUnits()
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Refresh pushes the current row to the observer after a committed
// transaction that used RecordTx.
func (l *Ledger) Refresh(ctx context.Context) {
	l.observe(ctx)
}

func (l *Ledger) observe(ctx context.Context) {
	if l.observer == nil {
		return
	}
	usage, err := l.Usage(ctx)
	if err != nil {
		return
	}
	l.observer.ObserveQuota(usage, l.ceiling)
}

func validate(opName string, op models.Operation, count int64) error {
	if !op.Valid() {
		return errors.InvalidInput(opName, nil, fmt.Sprintf("unknown operation %q", op))
	}
	if count <= 0 {
		return errors.InvalidInput(opName, nil, "count must be positive")
	}
	return nil
}
