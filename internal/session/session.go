// Package session orchestrates the capture, recognition, and delivery
// stages of a streaming transcription run.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/WanderingAstronomer/Vociferous-sub003/internal/audio"
	"github.com/WanderingAstronomer/Vociferous-sub003/internal/metrics"
	"github.com/WanderingAstronomer/Vociferous-sub003/internal/transcribe"
	"github.com/WanderingAstronomer/Vociferous-sub003/pkg/logger"
)

// Pipeline stage names, used in errors, logs, and metrics labels
const (
	stageCapture     = "capture"
	stageRecognition = "recognition"
	stageDelivery    = "delivery"
)

// ErrAlreadyRunning is returned by Start while workers from a previous run
// are still alive
var ErrAlreadyRunning = errors.New("session already running")

// StageError wraps a fatal failure with the pipeline stage it came from
type StageError struct {
	Stage string
	Err   error
}

// Error implements the error interface
func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying cause
func (e *StageError) Unwrap() error {
	return e.Err
}

// Config holds session tuning. Zero values fall back to defaults.
type Config struct {
	AudioQueueSize   int           // capture to recognition queue capacity
	SegmentQueueSize int           // recognition to delivery queue capacity
	PollInterval     time.Duration // idle segment drain interval in recognition
	JoinTimeout      time.Duration // per-worker wait before declaring a leak
}

// DefaultConfig returns the default session tuning
func DefaultConfig() Config {
	return Config{
		AudioQueueSize:   256,
		SegmentQueueSize: 32,
		PollInterval:     100 * time.Millisecond,
		JoinTimeout:      5 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.AudioQueueSize <= 0 {
		c.AudioQueueSize = defaults.AudioQueueSize
	}
	if c.SegmentQueueSize <= 0 {
		c.SegmentQueueSize = defaults.SegmentQueueSize
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaults.PollInterval
	}
	if c.JoinTimeout <= 0 {
		c.JoinTimeout = defaults.JoinTimeout
	}
	return c
}

// Run describes one transcription run: where audio comes from, what
// recognizes it, and where transcript output goes
type Run struct {
	Source     audio.Source
	Engine     transcribe.Engine
	EngineKind string // metadata for the result, e.g. a registry kind
	Sink       Sink
	Options    transcribe.Options
	Polisher   Polisher // optional transcript rewrite before completion
}

type workerHandle struct {
	name string
	done chan struct{}
}

// Session drives one transcription run at a time across three workers:
// capture pulls audio chunks from the source into a bounded queue,
// recognition feeds them to the engine and forwards produced segments into
// a second bounded queue, and delivery streams segments to the sink and
// assembles the final result. A session is reusable: once a run's workers
// have exited, Start may be called again.
type Session struct {
	config Config
	logger *logger.Logger

	userStop atomic.Bool

	mu       sync.Mutex
	cancel   context.CancelFunc
	firstErr error
	warnings []string
	workers  []workerHandle
}

// NewSession creates a session with the given tuning
func NewSession(config Config, log *logger.Logger) *Session {
	return &Session{
		config: config.withDefaults(),
		logger: log.Named("session"),
	}
}

// Start validates the run and launches the three pipeline workers. It fails
// with ErrAlreadyRunning while any worker from a previous run is alive.
func (s *Session) Start(ctx context.Context, run Run) error {
	if run.Source == nil {
		return fmt.Errorf("run requires an audio source")
	}
	if run.Engine == nil {
		return fmt.Errorf("run requires an engine")
	}
	if run.Sink == nil {
		return fmt.Errorf("run requires a sink")
	}
	run.Options = run.Options.Sanitized()
	if err := run.Options.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.workersAliveLocked() {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.firstErr = nil
	s.warnings = nil
	s.userStop.Store(false)

	audioCh := make(chan audio.Chunk, s.config.AudioQueueSize)
	segmentCh := make(chan transcribe.Segment, s.config.SegmentQueueSize)

	capture := workerHandle{name: stageCapture, done: make(chan struct{})}
	recognition := workerHandle{name: stageRecognition, done: make(chan struct{})}
	delivery := workerHandle{name: stageDelivery, done: make(chan struct{})}
	s.workers = []workerHandle{capture, recognition, delivery}

	info := transcribe.DescribeEngine(run.Engine)
	startedAt := time.Now()

	go s.captureWorker(runCtx, capture, audioCh, run.Source, run.Options.MaxDuration)
	go s.recognitionWorker(runCtx, recognition, audioCh, segmentCh, run.Engine, run.Options)
	go s.deliveryWorker(runCtx, delivery, segmentCh, run, info, startedAt)

	metrics.DefaultMetrics.RecordSessionStart()
	s.logger.Info("Session started",
		logger.String("engine", run.EngineKind),
		logger.String("model", info.Model),
		logger.Float64("max_duration", run.Options.MaxDuration))
	return nil
}

// Stop requests cancellation of the current run. It is idempotent, returns
// immediately, and never waits for workers; use Join for that. A run ended
// by Stop produces no result and no error.
func (s *Session) Stop() {
	s.userStop.Store(true)

	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.logger.Info("Session stop requested")
}

// Join waits for the current run's workers to exit, bounded by the
// configured per-worker timeout, and returns the first fatal error of the
// run, if any. Workers that outlive their timeout are logged and left to
// finish on their own; Start keeps failing until they do.
func (s *Session) Join(ctx context.Context) error {
	s.mu.Lock()
	workers := append([]workerHandle(nil), s.workers...)
	s.mu.Unlock()

	leaked := false
	for _, worker := range workers {
		select {
		case <-worker.done:
		case <-time.After(s.config.JoinTimeout):
			leaked = true
			s.logger.Warn("Worker did not exit within join timeout",
				logger.String("worker", worker.name),
				logger.Duration("timeout", s.config.JoinTimeout))
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !leaked {
		s.workers = nil
	}
	return s.firstErr
}

// Running reports whether any worker of the current run is still alive
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workersAliveLocked()
}

func (s *Session) workersAliveLocked() bool {
	for _, worker := range s.workers {
		select {
		case <-worker.done:
		default:
			return true
		}
	}
	return false
}

// recordError stores the first fatal error of the run and cancels the rest
// of the pipeline. Cancellation errors are not faults and are dropped.
func (s *Session) recordError(stage string, err error) {
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}

	s.mu.Lock()
	first := s.firstErr == nil
	if first {
		s.firstErr = &StageError{Stage: stage, Err: err}
	}
	cancel := s.cancel
	s.mu.Unlock()

	if !first {
		s.logger.Debug("Suppressed subsequent stage error",
			logger.String("stage", stage), logger.Error(err))
		return
	}

	metrics.DefaultMetrics.RecordStageError(stage)
	s.logger.Error("Stage failed", logger.String("stage", stage), logger.Error(err))
	if cancel != nil {
		cancel()
	}
}

func (s *Session) addWarning(message string) {
	s.mu.Lock()
	s.warnings = append(s.warnings, message)
	s.mu.Unlock()
	s.logger.Warn("Session warning", logger.String("warning", message))
}

func (s *Session) warningList() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.warnings...)
}

func (s *Session) failed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.firstErr != nil
}

// captureWorker pulls chunks from the source and enqueues them for
// recognition. It always closes the audio queue on exit, marking end of
// audio, and always attempts a best-effort source stop.
func (s *Session) captureWorker(ctx context.Context, w workerHandle, audioCh chan<- audio.Chunk, source audio.Source, maxDuration float64) {
	defer close(w.done)
	defer close(audioCh)
	defer s.stopSource(source)

	for {
		if ctx.Err() != nil {
			return
		}

		chunk, err := source.Next(ctx)
		if errors.Is(err, io.EOF) {
			s.logger.Debug("Audio source exhausted")
			return
		}
		if err != nil {
			s.recordError(stageCapture, fmt.Errorf("failed to read audio chunk: %w", err))
			return
		}
		if err := chunk.Validate(); err != nil {
			s.recordError(stageCapture, fmt.Errorf("invalid audio chunk: %w", err))
			return
		}
		if maxDuration > 0 && chunk.Start >= maxDuration {
			s.logger.Info("Reached max duration, ending capture",
				logger.Float64("max_duration", maxDuration))
			return
		}

		select {
		case audioCh <- chunk:
			metrics.DefaultMetrics.RecordAudioCaptured(len(chunk.PCM))
		case <-ctx.Done():
			return
		}
	}
}

func (s *Session) stopSource(source audio.Source) {
	stopper, ok := source.(audio.Stopper)
	if !ok {
		return
	}
	if err := stopper.Stop(); err != nil {
		s.logger.Warn("Audio source stop failed", logger.Error(err))
	}
}

// recognitionWorker owns the engine for the run: it starts it, feeds it
// captured audio, and forwards produced segments to delivery. It always
// closes the segment queue on exit, marking end of segments.
func (s *Session) recognitionWorker(ctx context.Context, w workerHandle, audioCh <-chan audio.Chunk, segmentCh chan<- transcribe.Segment, engine transcribe.Engine, opts transcribe.Options) {
	defer close(w.done)
	defer close(segmentCh)

	// Engine start may block on one-time model loading; that is confined
	// to this worker
	if err := engine.Start(ctx, opts); err != nil {
		s.recordError(stageRecognition, err)
		return
	}

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case chunk, ok := <-audioCh:
			if !ok {
				if ctx.Err() != nil {
					return
				}
				// End of audio: force out whatever the engine holds
				if err := engine.Flush(ctx); err != nil {
					s.recordError(stageRecognition, err)
					return
				}
				s.forwardSegments(ctx, engine, segmentCh)
				return
			}
			if err := engine.PushAudio(ctx, chunk.PCM, int64(chunk.Start*1000)); err != nil {
				s.recordError(stageRecognition, err)
				return
			}
			s.forwardSegments(ctx, engine, segmentCh)
		case <-ticker.C:
			s.forwardSegments(ctx, engine, segmentCh)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Session) forwardSegments(ctx context.Context, engine transcribe.Engine, segmentCh chan<- transcribe.Segment) {
	for _, segment := range engine.PollSegments() {
		select {
		case segmentCh <- segment:
		case <-ctx.Done():
			return
		}
	}
}

// deliveryWorker streams segments to the sink as they arrive and, when the
// run ends without a fatal error or caller stop, assembles the result and
// completes the sink exactly once.
func (s *Session) deliveryWorker(ctx context.Context, w workerHandle, segmentCh <-chan transcribe.Segment, run Run, info transcribe.EngineInfo, startedAt time.Time) {
	defer close(w.done)

	var delivered []transcribe.Segment
	sinkFailed := false
	for segment := range segmentCh {
		if sinkFailed {
			// Keep draining so recognition is never left blocked
			continue
		}
		if err := run.Sink.HandleSegment(ctx, segment); err != nil {
			s.recordError(stageDelivery, fmt.Errorf("sink rejected segment: %w", err))
			sinkFailed = true
			continue
		}
		metrics.DefaultMetrics.RecordSegmentDelivered()
		delivered = append(delivered, segment)
	}

	elapsed := time.Since(startedAt).Seconds()
	switch {
	case s.failed():
		metrics.DefaultMetrics.RecordSessionEnd("failed", elapsed)
		s.logger.Info("Session failed",
			logger.Int("segments_delivered", len(delivered)))
		return
	case s.userStop.Load() || ctx.Err() != nil:
		// A cancelled parent context counts as a caller stop
		metrics.DefaultMetrics.RecordSessionEnd("cancelled", elapsed)
		s.logger.Info("Session cancelled",
			logger.Int("segments_discarded", len(delivered)))
		return
	}

	text := transcribe.JoinSegmentText(delivered)
	if run.Polisher != nil && text != "" {
		polished, err := run.Polisher.Polish(ctx, text)
		metrics.DefaultMetrics.RecordPolish(err)
		if err != nil {
			s.addWarning(fmt.Sprintf("transcript polishing failed: %v", err))
		} else if cleaned := transcribe.NormalizeText(polished); cleaned != "" {
			text = cleaned
		}
	}

	result := transcribe.NewResult(run.EngineKind, info, delivered, s.warningList())
	result.Text = text

	if err := run.Sink.Complete(ctx, result); err != nil {
		s.recordError(stageDelivery, fmt.Errorf("sink completion failed: %w", err))
		metrics.DefaultMetrics.RecordSessionEnd("failed", elapsed)
		return
	}

	metrics.DefaultMetrics.RecordSessionEnd("completed", elapsed)
	s.logger.Info("Session completed",
		logger.Int("segments", len(result.Segments)),
		logger.Float64("duration", result.Duration),
		logger.Int("warnings", len(result.Warnings)))
}
