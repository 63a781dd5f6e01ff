package api

import (
	"time"

	"github.com/WanderingAstronomer/Vociferous-sub003/internal/storage/sqlite"
	"github.com/WanderingAstronomer/Vociferous-sub003/internal/transcribe"
)

// ErrorResponse is the JSON error envelope
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse reports service liveness
type HealthResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	ActiveRuns    int     `json:"active_runs"`
}

// EnginesResponse lists the registered engine kinds
type EnginesResponse struct {
	Engines []string `json:"engines"`
}

// TranscribeRequest starts a transcription run over a server-local file
type TranscribeRequest struct {
	File        string            `json:"file"`
	Engine      string            `json:"engine,omitempty"`
	Model       string            `json:"model,omitempty"`
	Language    string            `json:"language,omitempty"`
	Prompt      string            `json:"prompt,omitempty"`
	MaxDuration float64           `json:"max_duration,omitempty"`
	BeamSize    *int              `json:"beam_size,omitempty"`
	Temperature *float64          `json:"temperature,omitempty"`
	Params      map[string]string `json:"params,omitempty"`
}

// Options maps the request fields to transcription options
func (r TranscribeRequest) Options() transcribe.Options {
	return transcribe.Options{
		Language:    r.Language,
		MaxDuration: r.MaxDuration,
		BeamSize:    r.BeamSize,
		Temperature: r.Temperature,
		Prompt:      r.Prompt,
		Params:      r.Params,
	}
}

// SegmentResponse is one recognized segment
type SegmentResponse struct {
	Text       string  `json:"text"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Language   string  `json:"language,omitempty"`
	Confidence float64 `json:"confidence"`
}

// ResultResponse is the final transcript of a completed run
type ResultResponse struct {
	Text      string   `json:"text"`
	Engine    string   `json:"engine"`
	Model     string   `json:"model"`
	Device    string   `json:"device"`
	Precision string   `json:"precision"`
	Duration  float64  `json:"duration"`
	Warnings  []string `json:"warnings,omitempty"`
}

// RunResponse describes one transcription run
type RunResponse struct {
	ID         string            `json:"id"`
	File       string            `json:"file"`
	Engine     string            `json:"engine"`
	State      string            `json:"state"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`
	Error      string            `json:"error,omitempty"`
	Segments   []SegmentResponse `json:"segments"`
	Result     *ResultResponse   `json:"result,omitempty"`
}

// RunsResponse lists runs
type RunsResponse struct {
	Runs []RunResponse `json:"runs"`
}

// TranscriptResponse is a stored transcript
type TranscriptResponse struct {
	ID        int64             `json:"id"`
	RunID     string            `json:"run_id,omitempty"`
	Engine    string            `json:"engine"`
	Model     string            `json:"model"`
	Device    string            `json:"device"`
	Precision string            `json:"precision"`
	Text      string            `json:"text"`
	Duration  float64           `json:"duration"`
	Warnings  []string          `json:"warnings,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	Segments  []SegmentResponse `json:"segments,omitempty"`
}

// TranscriptsResponse lists stored transcripts
type TranscriptsResponse struct {
	Transcripts []TranscriptResponse `json:"transcripts"`
}

func newSegmentResponses(segments []transcribe.Segment) []SegmentResponse {
	out := make([]SegmentResponse, 0, len(segments))
	for _, segment := range segments {
		out = append(out, SegmentResponse{
			Text:       segment.Text,
			Start:      segment.Start,
			End:        segment.End,
			Language:   segment.Language,
			Confidence: segment.Confidence,
		})
	}
	return out
}

func newResultResponse(result transcribe.Result) *ResultResponse {
	return &ResultResponse{
		Text:      result.Text,
		Engine:    result.Engine,
		Model:     result.Model,
		Device:    result.Device,
		Precision: result.Precision,
		Duration:  result.Duration,
		Warnings:  result.Warnings,
	}
}

func newTranscriptResponse(record *sqlite.TranscriptRecord, segments []*sqlite.SegmentRecord) TranscriptResponse {
	resp := TranscriptResponse{
		ID:        record.ID,
		RunID:     record.RunID,
		Engine:    record.Engine,
		Model:     record.Model,
		Device:    record.Device,
		Precision: record.Precision,
		Text:      record.Text,
		Duration:  record.Duration,
		Warnings:  record.Warnings,
		CreatedAt: record.CreatedAt,
	}
	for _, segment := range segments {
		resp.Segments = append(resp.Segments, SegmentResponse{
			Text:       segment.Text,
			Start:      segment.StartTime,
			End:        segment.EndTime,
			Language:   segment.Language,
			Confidence: segment.Confidence,
		})
	}
	return resp
}
