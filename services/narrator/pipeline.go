package narrator

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/nijaru/golf-directory/errors"
	"github.com/nijaru/golf-directory/models"
	"github.com/nijaru/golf-directory/storage"
)

const (
	minTranscriptLen = 50
	maxTranscriptLen = 3000
)

type TrailerWriter interface {
	WriteTrailer(ctx context.Context, title, transcript string) (string, error)
}

type Speaker interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Pipeline writes a trailer from the stored video text and optionally
// narrates it. Speaker and Store may be nil; the summary is then text only.
type Pipeline struct {
	Writer  TrailerWriter
	Speaker Speaker
	Store   storage.AudioStore
	Logger  *logrus.Logger
}

var _ Generator = (*Pipeline)(nil)

// Transcript builds the model input from a video's title and description.
func Transcript(v *models.Video) string {
	text := strings.TrimSpace(v.Title + "\n\n" + v.Description)
	if len(text) > maxTranscriptLen {
		cut := maxTranscriptLen
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return text
}

func (p *Pipeline) GenerateSummary(ctx context.Context, video *models.Video) (*models.Summary, error) {
	const op = "Pipeline.GenerateSummary"

	transcript := Transcript(video)
	if len(transcript) < minTranscriptLen {
		return nil, errors.InvalidInput(op, nil, "not enough text to summarize")
	}

	text, err := p.Writer.WriteTrailer(ctx, video.Title, transcript)
	if err != nil {
		return nil, err
	}
	summary := &models.Summary{Text: text}

	if p.Speaker == nil || p.Store == nil {
		return summary, nil
	}

	log := p.logger().WithField("video_id", video.ID)
	audio, err := p.Speaker.Synthesize(ctx, text)
	if err != nil {
		log.WithError(err).WithField("category", errors.KindCollaborator).Warn("Audio generation failed, saving text only")
		return summary, nil
	}
	url, err := p.Store.SaveAudio(ctx, storage.AudioFileName(video.ID), audio)
	if err != nil {
		log.WithError(err).WithField("category", errors.KindOf(err)).Warn("Audio upload failed, saving text only")
		return summary, nil
	}
	summary.AudioURL = url
	return summary, nil
}

func (p *Pipeline) logger() *logrus.Logger {
	if p.Logger == nil {
		return logrus.StandardLogger()
	}
	return p.Logger
}
