// Package ai holds the generative collaborators behind video-of-the-day
// summaries: a text writer on Gemini's OpenAI-compatible endpoint and an
// ElevenLabs speech client.
package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/nijaru/golf-directory/errors"
	"github.com/nijaru/golf-directory/retry"
)

const trailerPrompt = `You are channeling the legendary golf announcer Jim Nantz. Create a compelling TRAILER-STYLE preview in Jim's distinctive broadcasting style for this golf video: "%s"

Based on this transcript: %s

Guidelines:
- Channel Jim Nantz's warm, sophisticated, and reverent tone
- Build anticipation without revealing outcomes
- Focus on what viewers WILL SEE, not what happens
- Use phrases like "Coming up", "You'll witness", "We'll see"
- MAXIMUM 60-75 words (30 seconds of speaking time)
- End with intrigue that makes people want to watch
- Avoid spoiling any results or outcomes

Create a preview that captures the excitement and draws viewers in, just like Jim would introduce a major golf moment on CBS.`

type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	// Timeout bounds each completion attempt. Defaults to two minutes.
	Timeout time.Duration
	Retry   retry.Config
}

type GeminiWriter struct {
	client *openai.Client
	model  openai.ChatModel
	retry  retry.Config
}

func NewGeminiWriter(cfg GeminiConfig) *GeminiWriter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(cfg.Timeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)
	return &GeminiWriter{
		client: &client,
		model:  openai.ChatModel(cfg.Model),
		retry:  cfg.Retry,
	}
}

// WriteTrailer asks the model for a short spoiler-free broadcast preview.
func (w *GeminiWriter) WriteTrailer(ctx context.Context, title, transcript string) (string, error) {
	const op = "GeminiWriter.WriteTrailer"

	var text string
	err := retry.Do(ctx, w.retry, nil, func(ctx context.Context) error {
		resp, err := w.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model: w.model,
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.UserMessage(fmt.Sprintf(trailerPrompt, title, transcript)),
			},
		})
		if err != nil {
			var apiErr *openai.Error
			if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 && apiErr.StatusCode != 429 {
				return retry.Permanent(err)
			}
			return err
		}
		if len(resp.Choices) == 0 {
			return retry.Permanent(fmt.Errorf("no choices in response"))
		}
		text = strings.TrimSpace(resp.Choices[0].Message.Content)
		if text == "" {
			return retry.Permanent(fmt.Errorf("empty completion"))
		}
		return nil
	})
	if err != nil {
		return "", errors.Collaborator(op, err, "summary generation failed")
	}
	return text, nil
}
