package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/nijaru/golf-directory/errors"
	"github.com/nijaru/golf-directory/retry"
)

const (
	DefaultElevenLabsURL   = "https://api.elevenlabs.io"
	DefaultElevenLabsVoice = "NOpBlnGInO9m6vDvFkFC"
	DefaultElevenLabsModel = "eleven_multilingual_v2"
)

type SpeechConfig struct {
	APIKey  string
	BaseURL string
	VoiceID string
	ModelID string
	Timeout time.Duration
	Retry   retry.Config
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

type speechRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// ElevenLabs turns text into MP3 audio.
type ElevenLabs struct {
	cfg  SpeechConfig
	http *http.Client
}

func NewElevenLabs(cfg SpeechConfig) *ElevenLabs {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultElevenLabsURL
	}
	if cfg.VoiceID == "" {
		cfg.VoiceID = DefaultElevenLabsVoice
	}
	if cfg.ModelID == "" {
		cfg.ModelID = DefaultElevenLabsModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Minute
	}
	return &ElevenLabs{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// CleanForSpeech strips the generator marker and markdown emphasis.
func CleanForSpeech(text string) string {
	text = strings.ReplaceAll(text, "[AI-generated from video transcript]", "")
	text = strings.ReplaceAll(text, "*", "")
	return strings.TrimSpace(text)
}

func (e *ElevenLabs) Synthesize(ctx context.Context, text string) ([]byte, error) {
	const op = "ElevenLabs.Synthesize"

	clean := CleanForSpeech(text)
	if clean == "" {
		return nil, errors.InvalidInput(op, nil, "nothing to synthesize")
	}

	body, err := json.Marshal(speechRequest{
		Text:    clean,
		ModelID: e.cfg.ModelID,
		VoiceSettings: voiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.8,
			Style:           0.2,
			UseSpeakerBoost: true,
		},
	})
	if err != nil {
		return nil, errors.Internal(op, err, "failed to encode speech request")
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", strings.TrimRight(e.cfg.BaseURL, "/"), e.cfg.VoiceID)

	var audio []byte
	err = retry.Do(ctx, e.cfg.Retry, nil, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("xi-api-key", e.cfg.APIKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "audio/mpeg")

		resp, err := e.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return pkgerrors.Wrap(err, "read audio")
		}
		if resp.StatusCode != http.StatusOK {
			statusErr := fmt.Errorf("elevenlabs returned %d: %s", resp.StatusCode, truncate(string(data), 200))
			if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return retry.Permanent(statusErr)
			}
			return statusErr
		}
		if len(data) == 0 {
			return retry.Permanent(fmt.Errorf("empty audio response"))
		}
		audio = data
		return nil
	})
	if err != nil {
		return nil, errors.Collaborator(op, err, "speech synthesis failed")
	}
	return audio, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
