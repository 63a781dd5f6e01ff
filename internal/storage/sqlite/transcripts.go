package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/WanderingAstronomer/Vociferous-sub003/pkg/logger"
)

// TranscriptStorage handles storage of transcription results
type TranscriptStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewTranscriptStorage creates a new SQLite transcript storage
func NewTranscriptStorage(db *sql.DB, log *logger.Logger) *TranscriptStorage {
	storage := &TranscriptStorage{
		db:     db,
		logger: log.Named("sqlite-transcripts"),
	}

	// Initialize database
	if err := storage.initDB(); err != nil {
		storage.logger.Error("Failed to initialize transcript storage", logger.Error(err))
	}

	return storage
}

// initDB initializes the database tables
func (s *TranscriptStorage) initDB() error {
	// Create transcripts table
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS transcripts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			engine TEXT NOT NULL,
			model TEXT NOT NULL,
			device TEXT NOT NULL,
			precision TEXT NOT NULL,
			text TEXT NOT NULL,
			duration REAL NOT NULL,
			warnings TEXT,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create transcripts table: %w", err)
	}

	// Create segments table
	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS transcript_segments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			transcript_id INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			text TEXT NOT NULL,
			start_time REAL NOT NULL,
			end_time REAL NOT NULL,
			language TEXT,
			confidence REAL NOT NULL DEFAULT 0,
			FOREIGN KEY (transcript_id) REFERENCES transcripts(id)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create transcript_segments table: %w", err)
	}

	// Create indexes for performance
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_transcripts_run_id ON transcripts(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transcripts_created_at ON transcripts(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_segments_transcript_id ON transcript_segments(transcript_id)`,
	}

	for _, indexSQL := range indexes {
		_, err = s.db.Exec(indexSQL)
		if err != nil {
			return fmt.Errorf("failed to create transcript index: %w", err)
		}
	}

	return nil
}

// StoreTranscript stores a transcript and its segments in one transaction
func (s *TranscriptStorage) StoreTranscript(record *TranscriptRecord, segments []SegmentRecord) (int64, error) {
	warnings, err := encodeWarnings(record.Warnings)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO transcripts
		(run_id, engine, model, device, precision, text, duration, warnings, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.RunID,
		record.Engine,
		record.Model,
		record.Device,
		record.Precision,
		record.Text,
		record.Duration,
		warnings,
		record.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert transcript: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	for i, segment := range segments {
		_, err = tx.Exec(
			`INSERT INTO transcript_segments
			(transcript_id, seq, text, start_time, end_time, language, confidence)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id,
			i,
			segment.Text,
			segment.StartTime,
			segment.EndTime,
			segment.Language,
			segment.Confidence,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert segment %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transcript: %w", err)
	}

	return id, nil
}

// GetTranscriptByID returns one transcript, or nil when no row matches
func (s *TranscriptStorage) GetTranscriptByID(id int64) (*TranscriptRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, run_id, engine, model, device, precision, text, duration, warnings, created_at
		FROM transcripts
		WHERE id = ?`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query transcript by id: %w", err)
	}
	defer rows.Close()

	records, err := s.scanTranscriptRows(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// GetTranscriptByRunID returns the most recent transcript stored for a run,
// or nil when no row matches
func (s *TranscriptStorage) GetTranscriptByRunID(runID string) (*TranscriptRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, run_id, engine, model, device, precision, text, duration, warnings, created_at
		FROM transcripts
		WHERE run_id = ?
		ORDER BY created_at DESC
		LIMIT 1`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query transcript by run id: %w", err)
	}
	defer rows.Close()

	records, err := s.scanTranscriptRows(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// GetRecentTranscripts returns recent transcripts across all runs
func (s *TranscriptStorage) GetRecentTranscripts(limit int) ([]*TranscriptRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, run_id, engine, model, device, precision, text, duration, warnings, created_at
		FROM transcripts
		ORDER BY created_at DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent transcripts: %w", err)
	}
	defer rows.Close()

	return s.scanTranscriptRows(rows)
}

// GetTranscriptsByTimeRange returns transcripts created within a time range
func (s *TranscriptStorage) GetTranscriptsByTimeRange(startTime, endTime time.Time) ([]*TranscriptRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, run_id, engine, model, device, precision, text, duration, warnings, created_at
		FROM transcripts
		WHERE created_at BETWEEN ? AND ?
		ORDER BY created_at DESC`,
		startTime.Format(time.RFC3339), endTime.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query transcripts by time range: %w", err)
	}
	defer rows.Close()

	return s.scanTranscriptRows(rows)
}

// GetSegmentsByTranscriptID returns a transcript's segments in stream order
func (s *TranscriptStorage) GetSegmentsByTranscriptID(transcriptID int64) ([]*SegmentRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, transcript_id, seq, text, start_time, end_time, language, confidence
		FROM transcript_segments
		WHERE transcript_id = ?
		ORDER BY seq ASC`,
		transcriptID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query segments: %w", err)
	}
	defer rows.Close()

	var records []*SegmentRecord
	for rows.Next() {
		var record SegmentRecord
		var language sql.NullString

		if err := rows.Scan(
			&record.ID,
			&record.TranscriptID,
			&record.Seq,
			&record.Text,
			&record.StartTime,
			&record.EndTime,
			&language,
			&record.Confidence,
		); err != nil {
			return nil, fmt.Errorf("failed to scan segment: %w", err)
		}

		if language.Valid {
			record.Language = language.String
		}

		records = append(records, &record)
	}

	return records, nil
}

// scanTranscriptRows scans database rows into TranscriptRecord structs
func (s *TranscriptStorage) scanTranscriptRows(rows *sql.Rows) ([]*TranscriptRecord, error) {
	var records []*TranscriptRecord
	for rows.Next() {
		var record TranscriptRecord
		var warnings sql.NullString
		var createdAt string

		if err := rows.Scan(
			&record.ID,
			&record.RunID,
			&record.Engine,
			&record.Model,
			&record.Device,
			&record.Precision,
			&record.Text,
			&record.Duration,
			&warnings,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transcript: %w", err)
		}

		// Parse timestamps
		var err error
		record.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}

		// Handle nullable warnings field
		if warnings.Valid && warnings.String != "" {
			if err := json.Unmarshal([]byte(warnings.String), &record.Warnings); err != nil {
				return nil, fmt.Errorf("failed to decode warnings: %w", err)
			}
		}

		records = append(records, &record)
	}

	return records, nil
}

// encodeWarnings packs the warning list into a nullable JSON column value
func encodeWarnings(warnings []string) (sql.NullString, error) {
	if len(warnings) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(warnings)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode warnings: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
