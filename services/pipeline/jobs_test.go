package pipeline

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nijaru/golf-directory/models"
	"github.com/nijaru/golf-directory/repository/sqlstore"
	"github.com/nijaru/golf-directory/services/collector"
	"github.com/nijaru/golf-directory/services/narrator"
	"github.com/nijaru/golf-directory/services/quota"
	"github.com/nijaru/golf-directory/services/refresh"
	"github.com/nijaru/golf-directory/services/scheduler"
	"github.com/nijaru/golf-directory/services/selector"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// fakeYouTube bumps view counts on every stats fetch.
type fakeYouTube struct {
	catalog map[string]models.Video
	fetched [][]string
}

func (f *fakeYouTube) FetchStats(_ context.Context, ids []string) ([]models.Video, error) {
	f.fetched = append(f.fetched, ids)
	var out []models.Video
	for _, id := range ids {
		v, ok := f.catalog[id]
		if !ok {
			continue
		}
		v.ViewCount += 10
		v.UpdatedAt = time.Time{}
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeYouTube) Search(context.Context, models.SearchQuery) ([]models.VideoStub, error) {
	return nil, nil
}

func (f *fakeYouTube) FetchChannels(context.Context, []string) ([]models.Channel, error) {
	return nil, nil
}

func (f *fakeYouTube) RecentUploads(context.Context, string, int, time.Time) ([]models.VideoStub, error) {
	return nil, nil
}

type fakeGenerator struct{ calls int }

func (g *fakeGenerator) GenerateSummary(_ context.Context, v *models.Video) (*models.Summary, error) {
	g.calls++
	return &models.Summary{Text: "Coming up: " + v.Title}, nil
}

type env struct {
	store  *sqlstore.Store
	ledger *quota.Ledger
	yt     *fakeYouTube
	gen    *fakeGenerator
	jobs   *Jobs
}

func newEnv(t *testing.T, seed ...models.Video) *env {
	t.Helper()
	ctx := context.Background()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	clock := func() time.Time { return now }

	store, err := sqlstore.Open(ctx, sqlstore.Options{Path: filepath.Join(t.TempDir(), "golf.db"), Logger: log})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	yt := &fakeYouTube{catalog: map[string]models.Video{}}
	for i := range seed {
		require.NoError(t, store.UpsertVideo(ctx, &seed[i]))
		yt.catalog[seed[i].ID] = seed[i]
	}

	ledger := quota.NewLedger(store, 10000, quota.WithClock(clock), quota.WithLogger(log))
	sel := selector.New(store, selector.Config{})
	refresher := refresh.New(yt, store, ledger, refresh.WithLogger(log), refresh.WithClock(clock))
	coll := collector.New(yt, store, ledger, refresher, collector.Config{}, collector.WithLogger(log), collector.WithClock(clock))
	gen := &fakeGenerator{}
	narr := narrator.New(sel, store, gen, narrator.WithLogger(log), narrator.WithClock(clock))

	jobs := New(Deps{
		Selector:  sel,
		Refresher: refresher,
		Collector: coll,
		Narrator:  narr,
		Whitelist: models.NewWhitelist([]string{"A"}),
		Logger:    log,
		Now:       clock,
	}, Config{BatchSize: 50})

	return &env{store: store, ledger: ledger, yt: yt, gen: gen, jobs: jobs}
}

func video(id string, views, duration int64, published, updated time.Duration) models.Video {
	return models.Video{
		ID:              id,
		Title:           "Video " + id,
		Description:     strings.Repeat("fairway ", 10),
		ChannelID:       "A",
		PublishedAt:     now.Add(-published),
		UpdatedAt:       now.Add(-updated),
		ViewCount:       views,
		DurationSeconds: duration,
		ThumbnailURL:    "https://i.ytimg.com/vi/" + id + "/hqdefault.jpg",
	}
}

func TestFastRefreshFreshUploadIsDue(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t,
		video("V", 500, 200, time.Hour, 20*time.Minute),
		video("W", 50, 600, 5*time.Minute, time.Hour),
	)

	require.NoError(t, e.jobs.FastRefresh(ctx, "run-1"))

	require.Len(t, e.yt.fetched, 1)
	assert.Equal(t, []string{"V"}, e.yt.fetched[0])

	v, err := e.store.FindVideo(ctx, "V")
	require.NoError(t, err)
	assert.Equal(t, int64(510), v.ViewCount)
	assert.True(t, v.UpdatedAt.Equal(now))

	u, err := e.ledger.Usage(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.VideoListOperations)
}

func TestFastRefreshMomentumOrdering(t *testing.T) {
	ctx := context.Background()
	// too short for the curated tier, so both land in momentum
	e := newEnv(t,
		video("Y", 5000, 90, 36*time.Hour, time.Hour),
		video("X", 1000, 90, 12*time.Hour, time.Hour),
	)

	require.NoError(t, e.jobs.FastRefresh(ctx, "run-1"))
	require.Len(t, e.yt.fetched, 1)
	// final order is by views inside a tier
	assert.Equal(t, []string{"Y", "X"}, e.yt.fetched[0])

	top, err := selector.New(e.store, selector.Config{}).VideoOfTheDay(ctx, models.NewWhitelist([]string{"A"}), now)
	require.NoError(t, err)
	require.NotNil(t, top)
	assert.Equal(t, "X", top.ID)
}

func TestCollectTodayNarratesVideoOfTheDay(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, video("X", 1000, 600, 12*time.Hour, time.Hour))

	require.NoError(t, e.jobs.CollectToday(ctx, "run-1"))
	require.NoError(t, e.jobs.CollectToday(ctx, "run-2"))

	assert.Equal(t, 1, e.gen.calls)
	a, err := e.store.FindAnalysis(ctx, "X")
	require.NoError(t, err)
	assert.Equal(t, "Coming up: Video X", a.Summary)
}

func TestMaintenanceRefreshesStalePopularVideos(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t,
		video("classic", 900000, 600, 200*24*time.Hour, 10*24*time.Hour),
		video("recent", 900000, 600, 200*24*time.Hour, time.Hour),
	)

	require.NoError(t, e.jobs.Maintenance(ctx, "run-1"))
	require.Len(t, e.yt.fetched, 1)
	assert.Equal(t, []string{"classic"}, e.yt.fetched[0])
}

func TestRegisterAddsAllJobs(t *testing.T) {
	e := newEnv(t)
	s := scheduler.New()

	require.NoError(t, e.jobs.Register(s, Schedules{
		FastRefresh:        scheduler.Every(2 * time.Minute),
		CollectToday:       scheduler.Every(30 * time.Minute),
		CollectWhitelisted: scheduler.Every(30 * time.Minute),
		Maintenance:        scheduler.Daily(3, 0, time.UTC),
		CollectOnStart:     true,
	}))

	var names []string
	for _, st := range s.Status() {
		names = append(names, st.Name)
	}
	assert.Equal(t, []string{JobFastRefresh, JobCollectToday, JobCollectWhitelisted, JobMaintenance}, names)
}
