package narrator

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/nijaru/golf-directory/errors"
	"github.com/nijaru/golf-directory/models"
	"github.com/nijaru/golf-directory/repository/sqlstore"
	"github.com/nijaru/golf-directory/services/selector"
	"github.com/nijaru/golf-directory/storage"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

var whitelist = models.NewWhitelist([]string{"UC1"})

type stubGenerator struct {
	calls   int
	summary *models.Summary
	err     error
}

func (g *stubGenerator) GenerateSummary(context.Context, *models.Video) (*models.Summary, error) {
	g.calls++
	return g.summary, g.err
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func openStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	store, err := sqlstore.Open(context.Background(), sqlstore.Options{
		Path:   filepath.Join(t.TempDir(), "golf.db"),
		Logger: quietLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedVideo(t *testing.T, store *sqlstore.Store, id string, views int64, age time.Duration) {
	t.Helper()
	require.NoError(t, store.UpsertVideo(context.Background(), &models.Video{
		ID:              id,
		Title:           "Video " + id,
		Description:     strings.Repeat("golf ", 20),
		ChannelID:       "UC1",
		PublishedAt:     now.Add(-age),
		ViewCount:       views,
		DurationSeconds: 600,
		ThumbnailURL:    "https://i.ytimg.com/vi/" + id + "/hqdefault.jpg",
		UpdatedAt:       now,
	}))
}

func newNarrator(store *sqlstore.Store, gen Generator) *Narrator {
	sel := selector.New(store, selector.Config{})
	return New(sel, store, gen, WithLogger(quietLogger()), WithClock(func() time.Time { return now }))
}

func TestEnsureVideoOfTheDayGeneratesOnce(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	seedVideo(t, store, "hot", 5000, 6*time.Hour)
	seedVideo(t, store, "older", 400000, 5*24*time.Hour)

	gen := &stubGenerator{summary: &models.Summary{Text: "Coming up...", AudioURL: "/audio/jim-nantz-hot.mp3"}}
	n := newNarrator(store, gen)

	outcome, err := n.EnsureVideoOfTheDay(ctx, whitelist, "run-1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeGenerated, outcome)

	a, err := store.FindAnalysis(ctx, "hot")
	require.NoError(t, err)
	assert.Equal(t, "Coming up...", a.Summary)
	assert.Equal(t, "/audio/jim-nantz-hot.mp3", a.AudioURL)
	assert.Equal(t, "https://youtube.com/watch?v=hot", a.YouTubeURL)
	assert.Equal(t, models.AnalysisCompleted, a.Status)

	var result models.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(a.Result), &result))
	assert.Equal(t, models.AnalysisSourceTranscript, result.Source)

	outcome, err = n.EnsureVideoOfTheDay(ctx, whitelist, "run-2")
	require.NoError(t, err)
	assert.Equal(t, OutcomeExists, outcome)
	assert.Equal(t, 1, gen.calls)
}

func TestEnsureVideoOfTheDayFailureLeavesNoSummary(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	seedVideo(t, store, "hot", 5000, 6*time.Hour)

	gen := &stubGenerator{err: apperrors.Collaborator("test", errors.New("503"), "down")}
	n := newNarrator(store, gen)

	outcome, err := n.EnsureVideoOfTheDay(ctx, whitelist, "run-1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, outcome)

	has, err := store.HasAnalysis(ctx, "hot")
	require.NoError(t, err)
	assert.False(t, has)

	gen.err = nil
	gen.summary = &models.Summary{Text: "Second try"}
	outcome, err = n.EnsureVideoOfTheDay(ctx, whitelist, "run-2")
	require.NoError(t, err)
	assert.Equal(t, OutcomeGenerated, outcome)
}

func TestEnsureVideoOfTheDayNoCandidate(t *testing.T) {
	store := openStore(t)
	gen := &stubGenerator{}
	n := newNarrator(store, gen)

	outcome, err := n.EnsureVideoOfTheDay(context.Background(), whitelist, "run-1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoCandidate, outcome)
	assert.Zero(t, gen.calls)
}

func TestEnsureVideoOfTheDayDisabled(t *testing.T) {
	store := openStore(t)
	seedVideo(t, store, "hot", 5000, 6*time.Hour)
	n := newNarrator(store, nil)

	outcome, err := n.EnsureVideoOfTheDay(context.Background(), whitelist, "run-1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeDisabled, outcome)
}

type stubWriter struct {
	title, transcript string
	text              string
	err               error
}

func (w *stubWriter) WriteTrailer(_ context.Context, title, transcript string) (string, error) {
	w.title, w.transcript = title, transcript
	return w.text, w.err
}

type stubSpeaker struct {
	err error
}

func (s *stubSpeaker) Synthesize(context.Context, string) ([]byte, error) {
	return []byte("mp3"), s.err
}

func TestPipelineWithAudio(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir(), "/audio")
	require.NoError(t, err)
	w := &stubWriter{text: "Coming up at the Open."}
	p := &Pipeline{Writer: w, Speaker: &stubSpeaker{}, Store: store, Logger: quietLogger()}

	v := &models.Video{ID: "v1", Title: "The Open highlights", Description: strings.Repeat("links golf ", 10)}
	s, err := p.GenerateSummary(context.Background(), v)
	require.NoError(t, err)
	assert.Equal(t, "Coming up at the Open.", s.Text)
	assert.Equal(t, "/audio/jim-nantz-v1.mp3", s.AudioURL)
	assert.Equal(t, "The Open highlights", w.title)
	assert.True(t, strings.HasPrefix(w.transcript, "The Open highlights\n\nlinks golf"))
}

func TestPipelineKeepsTextWhenAudioFails(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir(), "/audio")
	require.NoError(t, err)
	p := &Pipeline{
		Writer:  &stubWriter{text: "Coming up."},
		Speaker: &stubSpeaker{err: errors.New("401")},
		Store:   store,
		Logger:  quietLogger(),
	}

	s, err := p.GenerateSummary(context.Background(), &models.Video{ID: "v1", Description: strings.Repeat("x", 80)})
	require.NoError(t, err)
	assert.Equal(t, "Coming up.", s.Text)
	assert.Empty(t, s.AudioURL)
}

func TestPipelineRejectsShortText(t *testing.T) {
	w := &stubWriter{}
	p := &Pipeline{Writer: w}

	_, err := p.GenerateSummary(context.Background(), &models.Video{ID: "v1", Title: "Short"})
	assert.Equal(t, apperrors.KindInvalidInput, apperrors.KindOf(err))
	assert.Empty(t, w.title)
}

func TestTranscriptTruncates(t *testing.T) {
	v := &models.Video{Title: "t", Description: strings.Repeat("a", 5000)}
	assert.Len(t, Transcript(v), maxTranscriptLen)
}

func TestTranscriptTruncatesOnRuneBoundary(t *testing.T) {
	v := &models.Video{Title: "t", Description: strings.Repeat("é", 3000)}
	got := Transcript(v)
	assert.True(t, utf8.ValidString(got))
	assert.Len(t, got, maxTranscriptLen-1)
}
