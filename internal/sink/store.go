package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/WanderingAstronomer/Vociferous-sub003/internal/metrics"
	"github.com/WanderingAstronomer/Vociferous-sub003/internal/storage/sqlite"
	"github.com/WanderingAstronomer/Vociferous-sub003/internal/transcribe"
	"github.com/WanderingAstronomer/Vociferous-sub003/pkg/logger"
)

// Store persists completed transcripts to the database. Segments are held
// by the result itself, so streaming delivery is a no-op and the whole run
// is written in one transaction on completion.
type Store struct {
	storage *sqlite.TranscriptStorage
	runID   string
	logger  *logger.Logger
}

// NewStore creates a store sink for one run
func NewStore(storage *sqlite.TranscriptStorage, runID string, log *logger.Logger) *Store {
	return &Store{
		storage: storage,
		runID:   runID,
		logger:  log.Named("store-sink"),
	}
}

// HandleSegment is a no-op, persistence happens on completion
func (s *Store) HandleSegment(ctx context.Context, segment transcribe.Segment) error {
	return nil
}

// Complete writes the transcript and its segments to the database
func (s *Store) Complete(ctx context.Context, result transcribe.Result) error {
	record := &sqlite.TranscriptRecord{
		RunID:     s.runID,
		Engine:    result.Engine,
		Model:     result.Model,
		Device:    result.Device,
		Precision: result.Precision,
		Text:      result.Text,
		Duration:  result.Duration,
		Warnings:  result.Warnings,
		CreatedAt: time.Now().UTC(),
	}

	segments := make([]sqlite.SegmentRecord, 0, len(result.Segments))
	for _, segment := range result.Segments {
		segments = append(segments, sqlite.SegmentRecord{
			Text:       segment.Text,
			StartTime:  segment.Start,
			EndTime:    segment.End,
			Language:   segment.Language,
			Confidence: segment.Confidence,
		})
	}

	id, err := s.storage.StoreTranscript(record, segments)
	if err != nil {
		return fmt.Errorf("failed to store transcript: %w", err)
	}

	metrics.DefaultMetrics.RecordTranscriptStored()
	s.logger.Info("Transcript stored",
		logger.Int64("transcript_id", id),
		logger.String("run_id", s.runID),
		logger.Int("segments", len(segments)),
	)
	return nil
}
