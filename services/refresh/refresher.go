package refresh

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nijaru/golf-directory/errors"
	"github.com/nijaru/golf-directory/models"
	"github.com/nijaru/golf-directory/repository"
	"github.com/nijaru/golf-directory/services/quota"
)

// MaxBatchSize is the most ids a single videos.list call accepts.
const MaxBatchSize = 50

// StatsFetcher returns current statistics for up to MaxBatchSize ids.
// One call costs one video_list unit regardless of how many ids it carries.
type StatsFetcher interface {
	FetchStats(ctx context.Context, ids []string) ([]models.Video, error)
}

// Recorder observes batch outcomes.
type Recorder interface {
	ObserveBatch(job string, outcome Outcome, refreshed int)
}

type Outcome string

const (
	OutcomeOK           Outcome = "ok"
	OutcomeFetchError   Outcome = "fetch_error"
	OutcomePersistError Outcome = "persist_error"
	OutcomeQuotaDenied  Outcome = "quota_denied"
)

type Options struct {
	Job       string
	RunID     string
	BatchSize int
	// Delay spaces consecutive batch calls.
	Delay time.Duration
}

type Result struct {
	Requested     int  `json:"requested"`
	Refreshed     int  `json:"refreshed"`
	Batches       int  `json:"batches"`
	FailedBatches int  `json:"failed_batches"`
	Stopped       bool `json:"stopped"`
}

type Refresher struct {
	fetcher      StatsFetcher
	store        repository.Transactor
	ledger       quota.Spender
	logger       *logrus.Logger
	recorder     Recorder
	fetchTimeout time.Duration
	now          func() time.Time
}

type Option func(*Refresher)

func WithLogger(logger *logrus.Logger) Option {
	return func(r *Refresher) { r.logger = logger }
}

func WithRecorder(rec Recorder) Option {
	return func(r *Refresher) { r.recorder = rec }
}

func WithFetchTimeout(d time.Duration) Option {
	return func(r *Refresher) { r.fetchTimeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(r *Refresher) { r.now = now }
}

func New(fetcher StatsFetcher, store repository.Transactor, ledger quota.Spender, opts ...Option) *Refresher {
	r := &Refresher{
		fetcher:      fetcher,
		store:        store,
		ledger:       ledger,
		logger:       logrus.StandardLogger(),
		fetchTimeout: 30 * time.Second,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Refresh walks ids in order, in fixed-size batches. Each batch is gated on
// quota, fetched, and persisted together with its quota increment. The walk
// stops at the first quota denial; other batch failures are skipped.
// The returned error is non-nil only when ctx ends during pacing.
func (r *Refresher) Refresh(ctx context.Context, ids []string, opts Options) (Result, error) {
	res := Result{Requested: len(ids)}
	if len(ids) == 0 {
		return res, nil
	}

	size := opts.BatchSize
	if size <= 0 || size > MaxBatchSize {
		size = MaxBatchSize
	}
	for start := 0; start < len(ids); start += size {
		if start > 0 {
			if err := pause(ctx, opts.Delay); err != nil {
				return res, err
			}
		}

		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]

		log := r.logger.WithFields(logrus.Fields{
			"job":    opts.Job,
			"run_id": opts.RunID,
			"batch":  start / size,
			"first":  start,
			"last":   end - 1,
		})

		if !r.ledger.CanAfford(ctx, models.OpVideoList, 1) {
			log.WithField("category", errors.KindQuota).
				WithField("refreshed", res.Refreshed).
				Warn("Quota exhausted, stopping refresh")
			r.observe(opts.Job, OutcomeQuotaDenied, 0)
			res.Stopped = true
			break
		}

		res.Batches++
		n, outcome := r.refreshBatch(ctx, batch, log)
		r.observe(opts.Job, outcome, n)
		if outcome != OutcomeOK {
			res.FailedBatches++
			continue
		}
		res.Refreshed += n
	}

	r.ledger.Refresh(ctx)
	return res, nil
}

func (r *Refresher) refreshBatch(ctx context.Context, batch []string, log *logrus.Entry) (int, Outcome) {
	fetchCtx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
	videos, err := r.fetcher.FetchStats(fetchCtx, batch)
	cancel()
	if err != nil {
		log.WithError(err).WithField("category", errors.KindCollaborator).Error("Stats fetch failed, skipping batch")
		// Failed calls are still billed.
		if recErr := r.ledger.Record(ctx, models.OpVideoList, 1); recErr != nil {
			log.WithError(recErr).WithField("category", errors.KindPersistence).Error("Failed to record quota for failed fetch")
		}
		return 0, OutcomeFetchError
	}

	now := r.now().UTC()
	err = r.store.WithinTx(ctx, func(tx repository.Tx) error {
		for i := range videos {
			if videos[i].UpdatedAt.IsZero() {
				videos[i].UpdatedAt = now
			}
			if err := tx.UpsertVideo(ctx, &videos[i]); err != nil {
				return err
			}
		}
		return r.ledger.RecordTx(ctx, tx, models.OpVideoList, 1)
	})
	if err != nil {
		log.WithError(err).WithField("category", errors.KindPersistence).Error("Batch persistence failed, rolled back")
		return 0, OutcomePersistError
	}

	log.WithFields(logrus.Fields{
		"requested": len(batch),
		"returned":  len(videos),
	}).Debug("Batch refreshed")
	return len(videos), OutcomeOK
}

// pause sleeps d between batches, returning early when ctx ends.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (r *Refresher) observe(job string, outcome Outcome, refreshed int) {
	if r.recorder != nil {
		r.recorder.ObserveBatch(job, outcome, refreshed)
	}
}
