package selector

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nijaru/golf-directory/models"
	"github.com/nijaru/golf-directory/repository"
	"github.com/nijaru/golf-directory/repository/sqlstore"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type stubVideos struct {
	curated, momentum, maintenance []models.Video

	curatedQuery     repository.TierQuery
	momentumQuery    repository.MomentumQuery
	maintenanceQuery repository.MaintenanceQuery
	calls            int
}

func (s *stubVideos) UpsertVideo(context.Context, *models.Video) error { return nil }

func (s *stubVideos) FindVideo(context.Context, string) (*models.Video, error) { return nil, nil }

func (s *stubVideos) CuratedVideos(_ context.Context, q repository.TierQuery) ([]models.Video, error) {
	s.calls++
	s.curatedQuery = q
	return s.curated, nil
}

func (s *stubVideos) MomentumVideos(_ context.Context, q repository.MomentumQuery) ([]models.Video, error) {
	s.calls++
	s.momentumQuery = q
	if q.Limit < len(s.momentum) {
		return s.momentum[:q.Limit], nil
	}
	return s.momentum, nil
}

func (s *stubVideos) MaintenanceVideos(_ context.Context, q repository.MaintenanceQuery) ([]models.Video, error) {
	s.calls++
	s.maintenanceQuery = q
	return s.maintenance, nil
}

func v(id string, views int64, published, updated time.Duration) models.Video {
	return models.Video{
		ID:              id,
		ChannelID:       "UC1",
		ViewCount:       views,
		PublishedAt:     now.Add(-published),
		UpdatedAt:       now.Add(-updated),
		DurationSeconds: 600,
		ThumbnailURL:    "https://i.ytimg.com/vi/" + id + "/hqdefault.jpg",
	}
}

func ids(cs []models.Candidate) []string { return models.CandidateIDs(cs) }

func TestRefreshCandidatesTierOrdering(t *testing.T) {
	stub := &stubVideos{
		curated: []models.Video{
			v("A", 100, 2*day, time.Hour),
			v("B", 5000, 3*day, time.Hour),
		},
		momentum: []models.Video{
			v("C", 50000, day, time.Hour),
		},
	}
	sel := New(stub, Config{})

	got, err := sel.RefreshCandidates(context.Background(), models.NewWhitelist([]string{"UC1"}), now)
	require.NoError(t, err)

	assert.Equal(t, []string{"B", "A", "C"}, ids(got))
	assert.Equal(t, models.TierCurated, got[0].Tier)
	assert.Equal(t, models.TierMomentum, got[2].Tier)
	assert.Equal(t, int64(50000*1000), got[2].Score)
}

func TestRefreshCandidatesExcludesRecentlyUpdated(t *testing.T) {
	stub := &stubVideos{
		curated: []models.Video{
			v("X", 9000, 30*day, 5*time.Minute),
			v("Y", 800, 30*day, 11*time.Minute),
			v("Z", 700, 6*time.Hour, time.Minute), // fresh upload stays due
		},
	}
	sel := New(stub, Config{})

	got, err := sel.RefreshCandidates(context.Background(), models.NewWhitelist([]string{"UC1"}), now)
	require.NoError(t, err)
	assert.Equal(t, []string{"Y", "Z"}, ids(got))
}

func TestRefreshCandidatesDeduplicatesAcrossTiers(t *testing.T) {
	shared := v("S", 400, 12*time.Hour+time.Minute, time.Hour)
	stub := &stubVideos{
		curated:  []models.Video{shared},
		momentum: []models.Video{shared, v("M", 300, 2*day, time.Hour)},
	}
	sel := New(stub, Config{})

	got, err := sel.RefreshCandidates(context.Background(), models.NewWhitelist([]string{"UC1"}), now)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "S", got[0].VideoID)
	assert.Equal(t, models.TierCurated, got[0].Tier)
	assert.Equal(t, "M", got[1].VideoID)
}

func TestRefreshCandidatesCapsResult(t *testing.T) {
	stub := &stubVideos{}
	for i := 0; i < 50; i++ {
		stub.curated = append(stub.curated, v(fmt.Sprintf("c%02d", i), int64(1000+i), 10*day, time.Hour))
	}
	for i := 0; i < 20; i++ {
		stub.momentum = append(stub.momentum, v(fmt.Sprintf("m%02d", i), int64(500+i), 5*day, time.Hour))
	}
	sel := New(stub, Config{MaxCandidates: 60})

	got, err := sel.RefreshCandidates(context.Background(), models.NewWhitelist([]string{"UC1"}), now)
	require.NoError(t, err)
	assert.Len(t, got, 60)
	for i := 0; i < 50; i++ {
		assert.Equal(t, models.TierCurated, got[i].Tier)
	}
}

func TestRefreshCandidatesEmptyWhitelist(t *testing.T) {
	stub := &stubVideos{curated: []models.Video{v("A", 1000, day, time.Hour)}}
	sel := New(stub, Config{})

	got, err := sel.RefreshCandidates(context.Background(), models.NewWhitelist(nil), now)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, stub.calls)
}

func TestQueriesDeriveFromNow(t *testing.T) {
	stub := &stubVideos{}
	sel := New(stub, Config{})
	w := models.NewWhitelist([]string{"UC1", "UC2"})

	_, err := sel.RefreshCandidates(context.Background(), w, now)
	require.NoError(t, err)

	assert.Equal(t, []string{"UC1", "UC2"}, stub.curatedQuery.ChannelIDs)
	assert.True(t, stub.curatedQuery.PublishedAfter.Equal(now.Add(-90*day)))
	assert.Equal(t, int64(100), stub.curatedQuery.MinViews)
	assert.Equal(t, int64(180), stub.curatedQuery.MinDurationSeconds)
	assert.Equal(t, 50, stub.curatedQuery.Limit)
	assert.False(t, stub.curatedQuery.RequireThumbnail)

	assert.True(t, stub.momentumQuery.PublishedAfter.Equal(now.Add(-14*day)))
	assert.Equal(t, int64(60), stub.momentumQuery.MinDurationSeconds)
	assert.Equal(t, 20, stub.momentumQuery.Limit)
	assert.True(t, stub.momentumQuery.RequireThumbnail)
	assert.True(t, stub.momentumQuery.Cutoffs[2].Equal(now.Add(-3*day)))

	_, err = sel.MaintenanceCandidates(context.Background(), w, now)
	require.NoError(t, err)
	assert.True(t, stub.maintenanceQuery.PublishedBefore.Equal(now.Add(-90*day)))
	assert.True(t, stub.maintenanceQuery.UpdatedBefore.Equal(now.Add(-7*day)))
	assert.Equal(t, int64(500000), stub.maintenanceQuery.MinViews)
	assert.Equal(t, 100, stub.maintenanceQuery.Limit)
}

func TestVideoOfTheDay(t *testing.T) {
	stub := &stubVideos{momentum: []models.Video{v("top", 9000, 3*time.Hour, time.Hour), v("next", 100, day, time.Hour)}}
	sel := New(stub, Config{})
	w := models.NewWhitelist([]string{"UC1"})

	got, err := sel.VideoOfTheDay(context.Background(), w, now)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "top", got.ID)
	assert.Equal(t, 1, stub.momentumQuery.Limit)

	empty := New(&stubVideos{}, Config{})
	got, err = empty.VideoOfTheDay(context.Background(), w, now)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMomentumScore(t *testing.T) {
	tests := []struct {
		name string
		age  time.Duration
		want int64
	}{
		{"hours old", 6 * time.Hour, 10000},
		{"exactly one day", day, 10000},
		{"day and a half", 36 * time.Hour, 1000},
		{"under three days", 60 * time.Hour, 100},
		{"a week", 7 * day, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			video := v("x", 10, tt.age, time.Hour)
			assert.Equal(t, tt.want, MomentumScore(&video, now))
		})
	}
}

func TestSelectionIsDeterministicOverStore(t *testing.T) {
	ctx := context.Background()
	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	store, err := sqlstore.Open(ctx, sqlstore.Options{Path: filepath.Join(t.TempDir(), "golf.db"), Logger: log})
	require.NoError(t, err)
	defer store.Close()

	seed := []models.Video{
		v("curated-old", 2000, 40*day, time.Hour),
		v("curated-new", 900, 2*day, time.Hour),
		v("hot", 700, 5*time.Hour, 2*time.Minute),
		v("warm", 40000, 10*day, time.Hour),
		v("just-touched", 5000, 20*day, time.Minute),
		v("other-channel", 99999, day, time.Hour),
	}
	seed[5].ChannelID = "UC9"
	for i := range seed {
		require.NoError(t, store.UpsertVideo(ctx, &seed[i]))
	}

	sel := New(store, Config{})
	w := models.NewWhitelist([]string{"UC1"})

	first, err := sel.RefreshCandidates(ctx, w, now)
	require.NoError(t, err)
	second, err := sel.RefreshCandidates(ctx, w, now)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"warm", "curated-old", "curated-new", "hot"}, ids(first))
}
