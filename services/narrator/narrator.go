package narrator

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nijaru/golf-directory/errors"
	"github.com/nijaru/golf-directory/models"
	"github.com/nijaru/golf-directory/repository"
	"github.com/nijaru/golf-directory/services/selector"
)

// Generator produces a summary for one video.
type Generator interface {
	GenerateSummary(ctx context.Context, video *models.Video) (*models.Summary, error)
}

// Picker chooses the video of the day.
type Picker interface {
	VideoOfTheDay(ctx context.Context, whitelist models.Whitelist, now time.Time) (*models.Video, error)
}

type Outcome string

const (
	OutcomeNoCandidate Outcome = "no_candidate"
	OutcomeExists      Outcome = "exists"
	OutcomeGenerated   Outcome = "generated"
	OutcomeFailed      Outcome = "failed"
	OutcomeDisabled    Outcome = "disabled"
)

// Narrator keeps the video of the day narrated.
type Narrator struct {
	picker    Picker
	analyses  repository.AnalysisRepository
	generator Generator
	logger    *logrus.Logger
	now       func() time.Time
}

type Option func(*Narrator)

func WithLogger(logger *logrus.Logger) Option {
	return func(n *Narrator) { n.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(n *Narrator) { n.now = now }
}

// New returns a Narrator. A nil generator leaves narration disabled.
func New(picker Picker, analyses repository.AnalysisRepository, generator Generator, opts ...Option) *Narrator {
	n := &Narrator{
		picker:    picker,
		analyses:  analyses,
		generator: generator,
		logger:    logrus.StandardLogger(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// EnsureVideoOfTheDay generates and stores a summary for today's top
// momentum pick unless one already exists. A failed generation stores
// nothing, so the next run tries again.
func (n *Narrator) EnsureVideoOfTheDay(ctx context.Context, whitelist models.Whitelist, runID string) (Outcome, error) {
	const op = "Narrator.EnsureVideoOfTheDay"

	log := n.logger.WithFields(logrus.Fields{"job": "collect_today", "run_id": runID})

	if n.generator == nil {
		log.Debug("Narration disabled, skipping video of the day")
		return OutcomeDisabled, nil
	}

	now := n.now().UTC()
	video, err := n.picker.VideoOfTheDay(ctx, whitelist, now)
	if err != nil {
		return OutcomeFailed, err
	}
	if video == nil {
		log.Info("No video of the day candidate found")
		return OutcomeNoCandidate, nil
	}

	log = log.WithFields(logrus.Fields{
		"video_id": video.ID,
		"score":    selector.MomentumScore(video, now),
	})

	exists, err := n.analyses.HasAnalysis(ctx, video.ID)
	if err != nil {
		return OutcomeFailed, err
	}
	if exists {
		log.Info("Video of the day already has a summary")
		return OutcomeExists, nil
	}

	log.WithField("title", video.Title).Info("Generating summary for video of the day")
	summary, err := n.generator.GenerateSummary(ctx, video)
	if err != nil {
		log.WithError(err).WithField("category", errors.KindOf(err)).Warn("Summary generation failed, will retry next run")
		return OutcomeFailed, nil
	}

	result, err := json.Marshal(models.AnalysisResult{
		Summary:     summary.Text,
		Source:      models.AnalysisSourceTranscript,
		GeneratedAt: now,
	})
	if err != nil {
		return OutcomeFailed, errors.Internal(op, err, "failed to encode analysis result")
	}

	err = n.analyses.SaveAnalysis(ctx, &models.Analysis{
		VideoID:    video.ID,
		YouTubeURL: video.WatchURL(),
		Summary:    summary.Text,
		AudioURL:   summary.AudioURL,
		Status:     models.AnalysisCompleted,
		Result:     string(result),
		CreatedAt:  now,
	})
	if err != nil {
		return OutcomeFailed, err
	}

	log.WithField("audio_url", summary.AudioURL).Info("Summary saved")
	return OutcomeGenerated, nil
}
