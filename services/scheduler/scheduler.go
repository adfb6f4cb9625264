package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nijaru/golf-directory/errors"
)

// JobFunc is a job body. runID identifies one execution in logs.
type JobFunc func(ctx context.Context, runID string) error

type Job struct {
	Name       string
	Schedule   Schedule
	RunOnStart bool
	Run        JobFunc
}

// Observer receives one call per finished run.
type Observer interface {
	ObserveJob(job string, d time.Duration, err error)
}

type JobStatus struct {
	Name         string        `json:"name"`
	Schedule     string        `json:"schedule"`
	Running      bool          `json:"running"`
	Runs         int           `json:"runs"`
	LastRun      time.Time     `json:"last_run,omitempty"`
	LastDuration time.Duration `json:"last_duration_ns"`
	LastRunID    string        `json:"last_run_id,omitempty"`
	LastError    string        `json:"last_error,omitempty"`
	NextRun      time.Time     `json:"next_run"`
}

type entry struct {
	job    Job
	status JobStatus
}

// Scheduler runs registered jobs one at a time from a single loop.
type Scheduler struct {
	mu       sync.Mutex
	entries  []*entry
	tick     time.Duration
	now      func() time.Time
	newRunID func() string
	logger   *logrus.Logger
	observer Observer
	started  bool
}

type Option func(*Scheduler)

func WithTick(d time.Duration) Option {
	return func(s *Scheduler) { s.tick = d }
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func WithLogger(logger *logrus.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

func WithObserver(o Observer) Option {
	return func(s *Scheduler) { s.observer = o }
}

func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		tick:     10 * time.Second,
		now:      time.Now,
		newRunID: uuid.NewString,
		logger:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds a job. Jobs run in registration order when due together.
func (s *Scheduler) Register(job Job) error {
	const op = "Scheduler.Register"

	if job.Name == "" || job.Run == nil || job.Schedule == nil {
		return errors.InvalidInput(op, nil, "job needs a name, a schedule and a body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.job.Name == job.Name {
			return errors.InvalidInput(op, nil, fmt.Sprintf("job %q already registered", job.Name))
		}
	}
	s.entries = append(s.entries, &entry{
		job:    job,
		status: JobStatus{Name: job.Name, Schedule: job.Schedule.String()},
	})
	return nil
}

// Start primes the schedule: RunOnStart jobs run once immediately, every
// other job gets its first due time.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.started = true
	entries := append([]*entry(nil), s.entries...)
	s.mu.Unlock()

	start := s.now()
	for _, e := range entries {
		if e.job.RunOnStart {
			continue
		}
		s.mu.Lock()
		e.status.NextRun = e.job.Schedule.Next(start)
		s.mu.Unlock()
	}

	for _, e := range entries {
		if !e.job.RunOnStart {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		s.logger.WithField("job", e.job.Name).Info("Running job on startup")
		s.runJob(ctx, e)
	}
}

// Run primes the schedule and then checks for due jobs every tick until ctx
// ends. A job in progress when ctx ends runs to completion first.
func (s *Scheduler) Run(ctx context.Context) error {
	fields := logrus.Fields{"tick": s.tick.String()}
	for _, st := range s.Status() {
		fields[st.Name] = st.Schedule
	}
	s.logger.WithFields(fields).Info("Scheduler starting")

	s.Start(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopped")
			return nil
		case <-ticker.C:
			s.RunPending(ctx, s.now())
		}
	}
}

// RunPending runs every job due at now, sequentially, and returns how many ran.
func (s *Scheduler) RunPending(ctx context.Context, now time.Time) int {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		s.Start(ctx)
		s.mu.Lock()
	}
	var due []*entry
	for _, e := range s.entries {
		if !now.Before(e.status.NextRun) {
			due = append(due, e)
		}
	}
	s.mu.Unlock()

	ran := 0
	for _, e := range due {
		if ctx.Err() != nil {
			break
		}
		s.runJob(ctx, e)
		ran++
	}
	return ran
}

func (s *Scheduler) runJob(ctx context.Context, e *entry) {
	runID := s.newRunID()
	log := s.logger.WithFields(logrus.Fields{"job": e.job.Name, "run_id": runID})

	start := s.now()
	s.mu.Lock()
	e.status.Running = true
	e.status.LastRun = start
	e.status.LastRunID = runID
	s.mu.Unlock()

	log.Info("Job started")
	err := s.invoke(context.WithoutCancel(ctx), e.job, runID)
	finish := s.now()
	elapsed := finish.Sub(start)

	s.mu.Lock()
	e.status.Running = false
	e.status.Runs++
	e.status.LastDuration = elapsed
	e.status.LastError = ""
	if err != nil {
		e.status.LastError = err.Error()
	}
	e.status.NextRun = e.job.Schedule.Next(finish)
	next := e.status.NextRun
	s.mu.Unlock()

	if s.observer != nil {
		s.observer.ObserveJob(e.job.Name, elapsed, err)
	}

	log = log.WithFields(logrus.Fields{
		"duration_ms": elapsed.Milliseconds(),
		"next_run":    next.Format(time.RFC3339),
	})
	if err != nil {
		log.WithError(err).WithField("category", errors.KindOf(err)).Error("Job failed")
		return
	}
	log.Info("Job finished")
}

func (s *Scheduler) invoke(ctx context.Context, job Job, runID string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithFields(logrus.Fields{
				"job":    job.Name,
				"run_id": runID,
				"stack":  string(debug.Stack()),
			}).Error("Job panicked")
			err = errors.Internal("Scheduler.invoke", nil, fmt.Sprintf("panic: %v", r))
		}
	}()
	return job.Run(ctx, runID)
}

// Status snapshots every job's state.
func (s *Scheduler) Status() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]JobStatus, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.status
	}
	return out
}
