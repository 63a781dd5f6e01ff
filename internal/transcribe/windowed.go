package transcribe

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/WanderingAstronomer/Vociferous-sub003/internal/metrics"
	"github.com/WanderingAstronomer/Vociferous-sub003/pkg/logger"
)

// WindowedEngine buffers pushed audio and consumes it in speech-aligned
// windows: per round it considers the leading window of the buffer, detects
// speech spans, truncates trailing silence, splits at the first qualifying
// silence gap, and hands exactly the consumed bytes to the recognizer. A
// cumulative stream offset keeps emitted timestamps correct as the buffer
// slides, is trimmed, or overflows.
type WindowedEngine struct {
	mu         sync.Mutex
	config     EngineConfig
	window     WindowConfig
	vad        *EnergyVAD
	recognizer Recognizer
	logger     *logger.Logger

	started    bool
	opts       Options
	buffer     []byte
	offset     float64 // seconds of audio ever consumed or dropped
	pending    []Segment
	lastPushMS int64
}

// NewWindowedEngine creates a windowed engine with the stub recognizer and
// tuning overrides taken from the engine config's param map
func NewWindowedEngine(config EngineConfig, log *logger.Logger) (*WindowedEngine, error) {
	config = config.Sanitized()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	window, vadConfig, err := tuningFromParams(config.Params)
	if err != nil {
		return nil, err
	}

	vad := NewEnergyVAD(vadConfig)
	return NewWindowedEngineWithRecognizer(config, window, vad, NewStubRecognizer(config.Model, vad), log)
}

// NewWindowedEngineWithRecognizer creates a windowed engine around a caller
// supplied recognizer backend
func NewWindowedEngineWithRecognizer(config EngineConfig, window WindowConfig, vad *EnergyVAD, recognizer Recognizer, log *logger.Logger) (*WindowedEngine, error) {
	if err := window.Validate(); err != nil {
		return nil, fmt.Errorf("invalid window config: %w", err)
	}
	if recognizer == nil {
		return nil, fmt.Errorf("recognizer must not be nil")
	}
	if vad == nil {
		vad = NewEnergyVAD(DefaultVADConfig())
	}

	return &WindowedEngine{
		config:     config,
		window:     window,
		vad:        vad,
		recognizer: recognizer,
		logger:     log.Named("windowed-engine"),
	}, nil
}

// tuningFromParams applies recognized override keys to the default window
// and VAD tuning; unrecognized keys are left for the backend
func tuningFromParams(params map[string]string) (WindowConfig, VADConfig, error) {
	window := DefaultWindowConfig()
	vad := DefaultVADConfig()

	for key, value := range params {
		var err error
		switch key {
		case "sample_rate":
			window.SampleRate, err = strconv.Atoi(value)
		case "channels":
			window.Channels, err = strconv.Atoi(value)
		case "window_seconds":
			window.WindowSeconds, err = strconv.ParseFloat(value, 64)
		case "min_seconds":
			window.MinSeconds, err = strconv.ParseFloat(value, 64)
		case "min_silence_ms":
			window.MinSilenceMS, err = strconv.Atoi(value)
		case "pad_ms":
			window.PadMS, err = strconv.Atoi(value)
		case "hop_seconds":
			window.HopSeconds, err = strconv.ParseFloat(value, 64)
		case "max_buffer_seconds":
			window.MaxBufferSeconds, err = strconv.ParseFloat(value, 64)
		case "vad_energy_threshold":
			vad.EnergyThreshold, err = strconv.ParseFloat(value, 64)
		case "vad_frame_ms":
			vad.FrameMS, err = strconv.Atoi(value)
		case "vad_min_speech_ms":
			vad.MinSpeechMS, err = strconv.Atoi(value)
		case "vad_hangover_ms":
			vad.HangoverMS, err = strconv.Atoi(value)
		}
		if err != nil {
			return window, vad, fmt.Errorf("invalid engine param %s=%s: %w", key, value, err)
		}
	}
	return window, vad, nil
}

// Start arms the engine for a new run, clearing all buffered state
func (e *WindowedEngine) Start(ctx context.Context, opts Options) error {
	if err := opts.Validate(); err != nil {
		return NewEngineError("start", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.started = true
	e.opts = opts.Sanitized()
	e.buffer = e.buffer[:0]
	e.offset = 0
	e.pending = nil
	e.lastPushMS = 0

	e.logger.Debug("Engine started",
		logger.String("model", e.config.Model),
		logger.String("language", opts.Language))
	return nil
}

// PushAudio appends PCM to the buffer, applies the overflow guard, and runs
// as many processing rounds as the buffered audio allows
func (e *WindowedEngine) PushAudio(ctx context.Context, pcm []byte, timestampMS int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return NewEngineError("push", ErrNotStarted)
	}

	e.buffer = append(e.buffer, pcm...)
	e.lastPushMS = timestampMS
	e.enforceOverflowCap()

	if err := e.processRounds(ctx, false); err != nil {
		return NewEngineError("push", err)
	}
	return nil
}

// Flush forces processing of everything still buffered
func (e *WindowedEngine) Flush(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return NewEngineError("flush", ErrNotStarted)
	}
	if err := e.processRounds(ctx, true); err != nil {
		return NewEngineError("flush", err)
	}
	return nil
}

// PollSegments returns and clears the segments produced so far
func (e *WindowedEngine) PollSegments() []Segment {
	e.mu.Lock()
	defer e.mu.Unlock()

	segments := e.pending
	e.pending = nil
	return segments
}

// Describe reports the configured model metadata
func (e *WindowedEngine) Describe() EngineInfo {
	return EngineInfo{
		Model:     e.config.Model,
		Device:    e.config.Device,
		Precision: e.config.Precision,
	}
}

// enforceOverflowCap drops the oldest excess when the buffer outgrows the
// cap, advancing the stream offset by exactly the dropped duration
func (e *WindowedEngine) enforceOverflowCap() {
	limit := e.window.maxBufferBytes()
	if limit <= 0 || len(e.buffer) <= limit {
		return
	}

	dropped := e.window.alignFrame(len(e.buffer) - limit)
	if dropped <= 0 {
		return
	}
	droppedSeconds := e.window.bytesToSeconds(dropped)
	e.offset += droppedSeconds
	e.dropFront(dropped)

	metrics.DefaultMetrics.RecordOverflowDropped(dropped)
	e.logger.Warn("Audio buffer overflow, dropped oldest audio",
		logger.Int("dropped_bytes", dropped),
		logger.Float64("dropped_seconds", droppedSeconds),
		logger.Float64("stream_offset", e.offset),
		logger.Int64("last_push_ms", e.lastPushMS))
}

// processRounds runs rounds until one makes no progress. Callers hold the
// engine lock.
func (e *WindowedEngine) processRounds(ctx context.Context, force bool) error {
	for {
		consumed, err := e.round(ctx, force)
		if err != nil {
			return err
		}
		if consumed == 0 || len(e.buffer) == 0 {
			return nil
		}
	}
}

// round evaluates the windowing policy once and recognizes the consumed
// bytes, if any
func (e *WindowedEngine) round(ctx context.Context, force bool) (int, error) {
	if !force && len(e.buffer) < e.window.minBytes() {
		return 0, nil
	}

	sliceLen := len(e.buffer)
	if wb := e.window.windowBytes(); sliceLen > wb {
		sliceLen = wb
	}
	sliceLen = e.window.alignFrame(sliceLen)
	if sliceLen == 0 {
		if force && len(e.buffer) > 0 {
			// A sub-frame remainder can never be recognized
			e.buffer = e.buffer[:0]
		}
		return 0, nil
	}

	slice := e.buffer[:sliceLen]
	spans := e.vad.DetectSpans(slice, e.window.SampleRate, e.window.Channels)

	consumed := planConsume(e.window, sliceLen, spans, force)
	if consumed == 0 {
		return 0, nil
	}

	segments, err := e.recognizer.Recognize(ctx, slice[:consumed], e.window.SampleRate, e.window.Channels, e.opts)
	if err != nil {
		return 0, err
	}

	// Map slice-local times to absolute stream time
	for _, segment := range segments {
		segment.Start += e.offset
		segment.End += e.offset
		if segment.Language == "" {
			segment.Language = e.opts.Language
		}
		e.pending = append(e.pending, segment)
	}

	consumedSeconds := e.window.bytesToSeconds(consumed)
	e.offset += consumedSeconds
	e.dropFront(consumed)

	e.logger.Debug("Processed window round",
		logger.Int("consumed_bytes", consumed),
		logger.Float64("consumed_seconds", consumedSeconds),
		logger.Int("spans", len(spans)),
		logger.Int("segments", len(segments)),
		logger.Float64("stream_offset", e.offset))

	// Slide: keep at most a hop of backlog behind the consumed point
	if hop := e.window.hopBytes(); len(e.buffer) > hop {
		excess := e.window.alignFrame(len(e.buffer) - hop)
		if excess > 0 {
			excessSeconds := e.window.bytesToSeconds(excess)
			e.offset += excessSeconds
			e.dropFront(excess)
			e.logger.Debug("Trimmed window backlog",
				logger.Int("dropped_bytes", excess),
				logger.Float64("dropped_seconds", excessSeconds),
				logger.Float64("stream_offset", e.offset))
		}
	}

	return consumed, nil
}

// dropFront removes the first n bytes of the buffer in place
func (e *WindowedEngine) dropFront(n int) {
	e.buffer = e.buffer[:copy(e.buffer, e.buffer[n:])]
}
