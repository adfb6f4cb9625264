package models

import "time"

type AnalysisStatus string

const (
	AnalysisCompleted AnalysisStatus = "COMPLETED"
	AnalysisFailed    AnalysisStatus = "FAILED"
)

// Summary is what the narrator pipeline produces for one video.
type Summary struct {
	Text     string `json:"summary"`
	AudioURL string `json:"audio_url,omitempty"`
}

// Analysis is the persisted video-of-the-day summary.
type Analysis struct {
	VideoID    string         `json:"video_id"`
	YouTubeURL string         `json:"youtube_url"`
	Summary    string         `json:"summary"`
	AudioURL   string         `json:"audio_url,omitempty"`
	Status     AnalysisStatus `json:"status"`
	Result     string         `json:"result"`
	CreatedAt  time.Time      `json:"created_at"`
}

// AnalysisResult is the JSON payload stored alongside the summary.
type AnalysisResult struct {
	Summary     string    `json:"summary"`
	Source      string    `json:"source"`
	GeneratedAt time.Time `json:"generated_at"`
}

const AnalysisSourceTranscript = "transcript_analysis"
