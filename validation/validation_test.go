package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nijaru/golf-directory/errors"
)

func TestChannelID(t *testing.T) {
	tests := []struct {
		id      string
		wantErr bool
	}{
		{"UCfi-mPMOmche6WI-jkvnGXw", false},
		{"UCbY_v56iMzSGvXK79X6f4dw", false},
		{"", true},
		{"@GoodGood", true},
		{"UCfi-mPMOmche6WI-jkvnGX", true},
		{"XXfi-mPMOmche6WI-jkvnGXw", true},
		{"UCfi mPMOmche6WI-jkvnGXw", true},
	}
	for _, tt := range tests {
		err := ChannelID(tt.id)
		if tt.wantErr {
			assert.True(t, errors.IsKind(err, errors.KindInvalidInput), "ChannelID(%q)", tt.id)
		} else {
			assert.NoError(t, err, "ChannelID(%q)", tt.id)
		}
	}
}

func TestVideoID(t *testing.T) {
	assert.NoError(t, VideoID("dQw4w9WgXcQ"))
	assert.NoError(t, VideoID("a-b_c-d_e-f"))
	assert.Error(t, VideoID(""))
	assert.Error(t, VideoID("dQw4w9WgXc"))
	assert.Error(t, VideoID("https://youtu.be/dQw4w9WgXcQ"))
}

func TestWhitelist(t *testing.T) {
	assert.NoError(t, Whitelist(nil))
	assert.NoError(t, Whitelist([]string{"UCfi-mPMOmche6WI-jkvnGXw", "UCbY_v56iMzSGvXK79X6f4dw"}))
	assert.Error(t, Whitelist([]string{"UCfi-mPMOmche6WI-jkvnGXw", "UCfi-mPMOmche6WI-jkvnGXw"}))
	assert.Error(t, Whitelist([]string{"UCfi-mPMOmche6WI-jkvnGXw", "golf"}))
}

func TestBaseURL(t *testing.T) {
	tests := []struct {
		raw     string
		wantErr bool
	}{
		{"", false},
		{"https://api.elevenlabs.io", false},
		{"https://generativelanguage.googleapis.com/v1beta/openai/", false},
		{"http://localhost:8080", false},
		{"ftp://example.com", true},
		{"https://", true},
		{"://bad", true},
	}
	for _, tt := range tests {
		err := BaseURL("endpoint", tt.raw)
		assert.Equal(t, tt.wantErr, err != nil, "BaseURL(%q) = %v", tt.raw, err)
	}
}
