package selector

import (
	"context"
	"sort"
	"time"

	"github.com/nijaru/golf-directory/models"
	"github.com/nijaru/golf-directory/repository"
)

const day = 24 * time.Hour

// Config holds the selection thresholds. Zero fields take defaults.
type Config struct {
	MinViews int64

	CuratedLookback    time.Duration
	CuratedMinDuration int64
	CuratedLimit       int

	MomentumLookback    time.Duration
	MomentumMinDuration int64
	MomentumLimit       int

	// A row is due when it was refreshed at least StaleAfter ago or was
	// published within FreshWindow.
	StaleAfter  time.Duration
	FreshWindow time.Duration

	MaxCandidates int

	MaintenanceMinAge   time.Duration
	MaintenanceMinViews int64
	MaintenanceStale    time.Duration
	MaintenanceLimit    int
}

func DefaultConfig() Config {
	return Config{
		MinViews: 100,

		CuratedLookback:    90 * day,
		CuratedMinDuration: 180,
		CuratedLimit:       50,

		MomentumLookback:    14 * day,
		MomentumMinDuration: 60,
		MomentumLimit:       20,

		StaleAfter:  10 * time.Minute,
		FreshWindow: 12 * time.Hour,

		MaxCandidates: 70,

		MaintenanceMinAge:   90 * day,
		MaintenanceMinViews: 500000,
		MaintenanceStale:    7 * day,
		MaintenanceLimit:    100,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MinViews == 0 {
		c.MinViews = d.MinViews
	}
	if c.CuratedLookback == 0 {
		c.CuratedLookback = d.CuratedLookback
	}
	if c.CuratedMinDuration == 0 {
		c.CuratedMinDuration = d.CuratedMinDuration
	}
	if c.CuratedLimit == 0 {
		c.CuratedLimit = d.CuratedLimit
	}
	if c.MomentumLookback == 0 {
		c.MomentumLookback = d.MomentumLookback
	}
	if c.MomentumMinDuration == 0 {
		c.MomentumMinDuration = d.MomentumMinDuration
	}
	if c.MomentumLimit == 0 {
		c.MomentumLimit = d.MomentumLimit
	}
	if c.StaleAfter == 0 {
		c.StaleAfter = d.StaleAfter
	}
	if c.FreshWindow == 0 {
		c.FreshWindow = d.FreshWindow
	}
	if c.MaxCandidates == 0 {
		c.MaxCandidates = d.MaxCandidates
	}
	if c.MaintenanceMinAge == 0 {
		c.MaintenanceMinAge = d.MaintenanceMinAge
	}
	if c.MaintenanceMinViews == 0 {
		c.MaintenanceMinViews = d.MaintenanceMinViews
	}
	if c.MaintenanceStale == 0 {
		c.MaintenanceStale = d.MaintenanceStale
	}
	if c.MaintenanceLimit == 0 {
		c.MaintenanceLimit = d.MaintenanceLimit
	}
	return c
}

// Selector decides which videos deserve a statistics refresh.
// All time cutoffs derive from the now passed in, so results are
// reproducible for a fixed catalog snapshot.
type Selector struct {
	videos repository.VideoRepository
	cfg    Config
}

func New(videos repository.VideoRepository, cfg Config) *Selector {
	return &Selector{videos: videos, cfg: cfg.withDefaults()}
}

func (s *Selector) Config() Config { return s.cfg }

// RefreshCandidates unions the curated and momentum tiers, drops rows that
// are not due, and orders by tier then views.
func (s *Selector) RefreshCandidates(ctx context.Context, whitelist models.Whitelist, now time.Time) ([]models.Candidate, error) {
	if whitelist.IsEmpty() {
		return nil, nil
	}
	now = now.UTC()

	curated, err := s.videos.CuratedVideos(ctx, s.curatedQuery(whitelist, now))
	if err != nil {
		return nil, err
	}
	momentum, err := s.videos.MomentumVideos(ctx, s.momentumQuery(whitelist, now, s.cfg.MomentumLimit))
	if err != nil {
		return nil, err
	}

	return s.merge(curated, momentum, now), nil
}

// MaintenanceCandidates returns older high-view videos that have gone stale.
func (s *Selector) MaintenanceCandidates(ctx context.Context, whitelist models.Whitelist, now time.Time) ([]models.Candidate, error) {
	if whitelist.IsEmpty() {
		return nil, nil
	}
	now = now.UTC()

	videos, err := s.videos.MaintenanceVideos(ctx, repository.MaintenanceQuery{
		ChannelIDs:      whitelist.IDs(),
		PublishedBefore: now.Add(-s.cfg.MaintenanceMinAge),
		MinViews:        s.cfg.MaintenanceMinViews,
		UpdatedBefore:   now.Add(-s.cfg.MaintenanceStale),
		Limit:           s.cfg.MaintenanceLimit,
	})
	if err != nil {
		return nil, err
	}

	out := make([]models.Candidate, len(videos))
	for i, v := range videos {
		out[i] = models.Candidate{VideoID: v.ID, Tier: models.TierCurated, ViewCount: v.ViewCount}
	}
	return out, nil
}

// VideoOfTheDay is the top momentum pick, or nil when nothing qualifies.
func (s *Selector) VideoOfTheDay(ctx context.Context, whitelist models.Whitelist, now time.Time) (*models.Video, error) {
	if whitelist.IsEmpty() {
		return nil, nil
	}
	videos, err := s.videos.MomentumVideos(ctx, s.momentumQuery(whitelist, now.UTC(), 1))
	if err != nil {
		return nil, err
	}
	if len(videos) == 0 {
		return nil, nil
	}
	v := videos[0]
	return &v, nil
}

// MomentumScore weights views by recency: x1000 within a day of
// publication, x100 within two, x10 within three, x1 after.
func MomentumScore(v *models.Video, now time.Time) int64 {
	age := v.Age(now)
	switch {
	case age <= day:
		return v.ViewCount * 1000
	case age <= 2*day:
		return v.ViewCount * 100
	case age <= 3*day:
		return v.ViewCount * 10
	default:
		return v.ViewCount
	}
}

func (s *Selector) curatedQuery(w models.Whitelist, now time.Time) repository.TierQuery {
	return repository.TierQuery{
		ChannelIDs:         w.IDs(),
		PublishedAfter:     now.Add(-s.cfg.CuratedLookback),
		MinViews:           s.cfg.MinViews,
		MinDurationSeconds: s.cfg.CuratedMinDuration,
		Limit:              s.cfg.CuratedLimit,
	}
}

func (s *Selector) momentumQuery(w models.Whitelist, now time.Time, limit int) repository.MomentumQuery {
	return repository.MomentumQuery{
		TierQuery: repository.TierQuery{
			ChannelIDs:         w.IDs(),
			PublishedAfter:     now.Add(-s.cfg.MomentumLookback),
			MinViews:           s.cfg.MinViews,
			MinDurationSeconds: s.cfg.MomentumMinDuration,
			RequireThumbnail:   true,
			Limit:              limit,
		},
		Cutoffs: [3]time.Time{now.Add(-day), now.Add(-2 * day), now.Add(-3 * day)},
	}
}

// merge keeps the first tier a video appears in, applies the due filter
// and the final ordering.
func (s *Selector) merge(curated, momentum []models.Video, now time.Time) []models.Candidate {
	seen := make(map[string]struct{}, len(curated)+len(momentum))
	out := make([]models.Candidate, 0, len(curated)+len(momentum))

	add := func(videos []models.Video, tier models.Tier) {
		for i := range videos {
			v := &videos[i]
			if _, dup := seen[v.ID]; dup {
				continue
			}
			seen[v.ID] = struct{}{}
			if !s.isDue(v, now) {
				continue
			}
			out = append(out, models.Candidate{
				VideoID:   v.ID,
				Tier:      tier,
				ViewCount: v.ViewCount,
				Score:     MomentumScore(v, now),
			})
		}
	}
	add(curated, models.TierCurated)
	add(momentum, models.TierMomentum)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Tier != out[j].Tier {
			return out[i].Tier < out[j].Tier
		}
		if out[i].ViewCount != out[j].ViewCount {
			return out[i].ViewCount > out[j].ViewCount
		}
		return out[i].VideoID < out[j].VideoID
	})

	if len(out) > s.cfg.MaxCandidates {
		out = out[:s.cfg.MaxCandidates]
	}
	return out
}

func (s *Selector) isDue(v *models.Video, now time.Time) bool {
	return !v.UpdatedAt.After(now.Add(-s.cfg.StaleAfter)) ||
		!v.PublishedAt.Before(now.Add(-s.cfg.FreshWindow))
}
