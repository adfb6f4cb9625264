// Package pipeline binds the selector, refresher, collector and narrator
// into the scheduled jobs.
package pipeline

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nijaru/golf-directory/models"
	"github.com/nijaru/golf-directory/services/collector"
	"github.com/nijaru/golf-directory/services/narrator"
	"github.com/nijaru/golf-directory/services/refresh"
	"github.com/nijaru/golf-directory/services/scheduler"
	"github.com/nijaru/golf-directory/services/selector"
)

const (
	JobFastRefresh        = "fast_refresh"
	JobCollectToday       = "collect_today"
	JobCollectWhitelisted = "collect_whitelisted"
	JobMaintenance        = "maintenance"
)

type Config struct {
	BatchSize        int
	FastDelay        time.Duration
	MaintenanceDelay time.Duration
}

type Schedules struct {
	FastRefresh        scheduler.Schedule
	CollectToday       scheduler.Schedule
	CollectWhitelisted scheduler.Schedule
	Maintenance        scheduler.Schedule
	CollectOnStart     bool
}

type Jobs struct {
	selector  *selector.Selector
	refresher *refresh.Refresher
	collector *collector.Collector
	narrator  *narrator.Narrator
	whitelist models.Whitelist
	cfg       Config
	logger    *logrus.Logger
	now       func() time.Time
}

type Deps struct {
	Selector  *selector.Selector
	Refresher *refresh.Refresher
	Collector *collector.Collector
	Narrator  *narrator.Narrator
	Whitelist models.Whitelist
	Logger    *logrus.Logger
	Now       func() time.Time
}

func New(deps Deps, cfg Config) *Jobs {
	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Jobs{
		selector:  deps.Selector,
		refresher: deps.Refresher,
		collector: deps.Collector,
		narrator:  deps.Narrator,
		whitelist: deps.Whitelist,
		cfg:       cfg,
		logger:    deps.Logger,
		now:       deps.Now,
	}
}

// Register adds the four jobs to s.
func (j *Jobs) Register(s *scheduler.Scheduler, sched Schedules) error {
	jobs := []scheduler.Job{
		{Name: JobFastRefresh, Schedule: sched.FastRefresh, Run: j.FastRefresh},
		{Name: JobCollectToday, Schedule: sched.CollectToday, RunOnStart: sched.CollectOnStart, Run: j.CollectToday},
		{Name: JobCollectWhitelisted, Schedule: sched.CollectWhitelisted, RunOnStart: sched.CollectOnStart, Run: j.CollectWhitelisted},
		{Name: JobMaintenance, Schedule: sched.Maintenance, Run: j.Maintenance},
	}
	for _, job := range jobs {
		if err := s.Register(job); err != nil {
			return err
		}
	}
	return nil
}

// FastRefresh refreshes the curated and momentum candidates.
func (j *Jobs) FastRefresh(ctx context.Context, runID string) error {
	log := j.logger.WithFields(logrus.Fields{"job": JobFastRefresh, "run_id": runID})

	candidates, err := j.selector.RefreshCandidates(ctx, j.whitelist, j.now())
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		log.Info("No videos due for refresh")
		return nil
	}

	res, err := j.refresher.Refresh(ctx, models.CandidateIDs(candidates), refresh.Options{
		Job:       JobFastRefresh,
		RunID:     runID,
		BatchSize: j.cfg.BatchSize,
		Delay:     j.cfg.FastDelay,
	})
	log.WithFields(logrus.Fields{
		"candidates": len(candidates),
		"refreshed":  res.Refreshed,
		"batches":    res.Batches,
		"failed":     res.FailedBatches,
		"stopped":    res.Stopped,
	}).Info("Fast refresh finished")
	return err
}

// CollectToday collects today's search results, then makes sure the video
// of the day has a summary.
func (j *Jobs) CollectToday(ctx context.Context, runID string) error {
	_, collectErr := j.collector.CollectToday(ctx, j.whitelist, runID)
	if collectErr != nil {
		j.logger.WithError(collectErr).WithFields(logrus.Fields{
			"job":    JobCollectToday,
			"run_id": runID,
		}).Warn("Search collection failed, continuing with video of the day")
	}

	_, narrateErr := j.narrator.EnsureVideoOfTheDay(ctx, j.whitelist, runID)
	return stderrors.Join(collectErr, narrateErr)
}

func (j *Jobs) CollectWhitelisted(ctx context.Context, runID string) error {
	_, err := j.collector.CollectWhitelisted(ctx, j.whitelist, runID)
	return err
}

// Maintenance refreshes older high-view videos that have gone stale.
func (j *Jobs) Maintenance(ctx context.Context, runID string) error {
	log := j.logger.WithFields(logrus.Fields{"job": JobMaintenance, "run_id": runID})

	candidates, err := j.selector.MaintenanceCandidates(ctx, j.whitelist, j.now())
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		log.Info("No videos need maintenance")
		return nil
	}

	res, err := j.refresher.Refresh(ctx, models.CandidateIDs(candidates), refresh.Options{
		Job:       JobMaintenance,
		RunID:     runID,
		BatchSize: j.cfg.BatchSize,
		Delay:     j.cfg.MaintenanceDelay,
	})
	log.WithFields(logrus.Fields{
		"candidates": len(candidates),
		"refreshed":  res.Refreshed,
		"stopped":    res.Stopped,
	}).Info("Maintenance finished")
	return err
}
