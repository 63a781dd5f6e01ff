package sqlite

import "time"

// TranscriptRecord represents one completed transcription run
type TranscriptRecord struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"run_id"`
	Engine    string    `json:"engine"`
	Model     string    `json:"model"`
	Device    string    `json:"device"`
	Precision string    `json:"precision"`
	Text      string    `json:"text"`
	Duration  float64   `json:"duration"`
	Warnings  []string  `json:"warnings,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SegmentRecord represents one timestamped segment of a stored transcript
type SegmentRecord struct {
	ID           int64   `json:"id"`
	TranscriptID int64   `json:"transcript_id"`
	Seq          int     `json:"seq"`
	Text         string  `json:"text"`
	StartTime    float64 `json:"start_time"`
	EndTime      float64 `json:"end_time"`
	Language     string  `json:"language,omitempty"`
	Confidence   float64 `json:"confidence"`
}
