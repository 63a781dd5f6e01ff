package transcribe

import (
	"context"
	"fmt"
	"sync"

	"github.com/WanderingAstronomer/Vociferous-sub003/pkg/logger"
)

// StubEngine accumulates pushed audio and, on flush, emits a single segment
// describing what it received. It exists to exercise the session plumbing
// without a real model behind it.
type StubEngine struct {
	mu     sync.Mutex
	config EngineConfig
	logger *logger.Logger

	started    bool
	opts       Options
	sampleRate int
	channels   int
	byteCount  int
	startSec   float64
	haveStart  bool
	pending    []Segment
}

// NewStubEngine creates a stub engine. Optional sample_rate and channels
// params control how byte counts map to durations.
func NewStubEngine(config EngineConfig, log *logger.Logger) (*StubEngine, error) {
	config = config.Sanitized()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	engine := &StubEngine{
		config:     config,
		logger:     log.Named("stub-engine"),
		sampleRate: 16000,
		channels:   1,
	}
	if v, ok := config.Params["sample_rate"]; ok {
		if _, err := fmt.Sscanf(v, "%d", &engine.sampleRate); err != nil || engine.sampleRate <= 0 {
			return nil, fmt.Errorf("invalid engine param sample_rate=%s", v)
		}
	}
	if v, ok := config.Params["channels"]; ok {
		if _, err := fmt.Sscanf(v, "%d", &engine.channels); err != nil || engine.channels <= 0 {
			return nil, fmt.Errorf("invalid engine param channels=%s", v)
		}
	}
	return engine, nil
}

// Start arms the engine and clears any previously buffered state
func (e *StubEngine) Start(ctx context.Context, opts Options) error {
	if err := opts.Validate(); err != nil {
		return NewEngineError("start", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.started = true
	e.opts = opts.Sanitized()
	e.byteCount = 0
	e.startSec = 0
	e.haveStart = false
	e.pending = nil
	return nil
}

// PushAudio counts the pushed bytes and remembers the first timestamp
func (e *StubEngine) PushAudio(ctx context.Context, pcm []byte, timestampMS int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return NewEngineError("push", ErrNotStarted)
	}
	if !e.haveStart {
		e.startSec = float64(timestampMS) / 1000
		e.haveStart = true
	}
	e.byteCount += len(pcm)
	return nil
}

// Flush emits one segment describing the audio received since start or the
// previous flush
func (e *StubEngine) Flush(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return NewEngineError("flush", ErrNotStarted)
	}
	if e.byteCount == 0 {
		return nil
	}

	duration := float64(e.byteCount) / (float64(e.sampleRate) * float64(e.channels) * 2)
	model := e.config.Model
	if model == "" {
		model = "stub"
	}
	e.pending = append(e.pending, Segment{
		Text:       fmt.Sprintf("[stub:%s] received %d bytes", model, e.byteCount),
		Start:      e.startSec,
		End:        e.startSec + duration,
		Language:   e.opts.Language,
		Confidence: 1.0,
	})

	e.byteCount = 0
	e.haveStart = false
	return nil
}

// PollSegments returns and clears the segments produced so far
func (e *StubEngine) PollSegments() []Segment {
	e.mu.Lock()
	defer e.mu.Unlock()

	segments := e.pending
	e.pending = nil
	return segments
}

// Describe reports the configured model metadata
func (e *StubEngine) Describe() EngineInfo {
	return EngineInfo{
		Model:     e.config.Model,
		Device:    e.config.Device,
		Precision: e.config.Precision,
	}
}
