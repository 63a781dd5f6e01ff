package transcribe

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/WanderingAstronomer/Vociferous-sub003/pkg/logger"
)

func newTestWindowedEngine(t *testing.T, window WindowConfig) *WindowedEngine {
	t.Helper()

	vad := NewEnergyVAD(DefaultVADConfig())
	engine, err := NewWindowedEngineWithRecognizer(
		EngineConfig{Model: "base", Device: DeviceCPU},
		window, vad, NewStubRecognizer("base", vad), logger.Nop())
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	return engine
}

// A short utterance below the minimum threshold must be held back entirely
// until flush, then come out as a single segment covering the speech span.
func TestWindowedEngineHoldsShortAudioUntilFlush(t *testing.T) {
	engine := newTestWindowedEngine(t, WindowConfig{
		SampleRate:       16000,
		Channels:         1,
		WindowSeconds:    1,
		MinSeconds:       1,
		MinSilenceMS:     50,
		PadMS:            150,
		HopSeconds:       1,
		MaxBufferSeconds: 2,
	})
	ctx := context.Background()

	if err := engine.Start(ctx, Options{Language: "en"}); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	// 100ms silence, 200ms speech, 100ms silence in 100ms chunks
	chunks := [][]byte{
		appendTone(nil, 100, 0, 16000, 1),
		appendTone(nil, 100, 8000, 16000, 1),
		appendTone(nil, 100, 8000, 16000, 1),
		appendTone(nil, 100, 0, 16000, 1),
	}
	for i, chunk := range chunks {
		if err := engine.PushAudio(ctx, chunk, int64(i)*100); err != nil {
			t.Fatalf("push %d failed: %v", i, err)
		}
		if segments := engine.PollSegments(); len(segments) != 0 {
			t.Fatalf("expected audio to be held before flush, got %v", segments)
		}
	}

	if err := engine.Flush(ctx); err != nil {
		t.Fatalf("flush failed: %v", err)
	}

	segments := engine.PollSegments()
	if len(segments) != 1 {
		t.Fatalf("expected exactly one segment after flush, got %v", segments)
	}
	seg := segments[0]
	if seg.Start < 0.05 || seg.Start > 0.15 {
		t.Errorf("segment start %f not near speech onset 0.1", seg.Start)
	}
	if seg.End < 0.25 || seg.End > 0.35 {
		t.Errorf("segment end %f not near speech offset 0.3", seg.End)
	}
	if !strings.Contains(seg.Text, "speech") {
		t.Errorf("expected a speech segment, got %q", seg.Text)
	}
	if seg.Language != "en" {
		t.Errorf("expected language en, got %q", seg.Language)
	}

	if again := engine.PollSegments(); len(again) != 0 {
		t.Errorf("expected poll to clear segments, got %v", again)
	}
}

// Streaming pushes past the minimum trigger rounds on their own, and later
// segments carry absolute stream times from the cumulative offset.
func TestWindowedEngineStreamsWithAbsoluteTimes(t *testing.T) {
	engine := newTestWindowedEngine(t, WindowConfig{
		SampleRate:       16000,
		Channels:         1,
		WindowSeconds:    0.5,
		MinSeconds:       0.5,
		MinSilenceMS:     50,
		PadMS:            30,
		HopSeconds:       0.5,
		MaxBufferSeconds: 1,
	})
	ctx := context.Background()

	if err := engine.Start(ctx, Options{}); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	if err := engine.PushAudio(ctx, appendTone(nil, 600, 8000, 16000, 1), 0); err != nil {
		t.Fatalf("first push failed: %v", err)
	}
	first := engine.PollSegments()
	if len(first) != 1 {
		t.Fatalf("expected one segment from first window, got %v", first)
	}
	if first[0].Start != 0 {
		t.Errorf("expected first segment at stream start, got %f", first[0].Start)
	}

	if err := engine.PushAudio(ctx, appendTone(nil, 500, 8000, 16000, 1), 600); err != nil {
		t.Fatalf("second push failed: %v", err)
	}
	second := engine.PollSegments()
	if len(second) != 1 {
		t.Fatalf("expected one segment from second window, got %v", second)
	}
	if second[0].Start < 0.499 || second[0].Start > 0.501 {
		t.Errorf("expected second segment offset to 0.5s, got %f", second[0].Start)
	}
	if second[0].Start < first[0].End {
		t.Errorf("segment start %f regressed before previous end %f", second[0].Start, first[0].End)
	}
}

// When the overflow cap drops old audio, the stream offset must advance by
// the dropped duration so later segments still carry correct times.
func TestWindowedEngineOverflowAdvancesOffset(t *testing.T) {
	engine := newTestWindowedEngine(t, WindowConfig{
		SampleRate:       16000,
		Channels:         1,
		WindowSeconds:    0.5,
		MinSeconds:       0.5,
		MinSilenceMS:     50,
		PadMS:            30,
		HopSeconds:       0.5,
		MaxBufferSeconds: 0.5,
	})
	ctx := context.Background()

	if err := engine.Start(ctx, Options{}); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	// One second of silence against a half-second cap drops the first half
	if err := engine.PushAudio(ctx, appendTone(nil, 1000, 0, 16000, 1), 0); err != nil {
		t.Fatalf("push failed: %v", err)
	}

	segments := engine.PollSegments()
	if len(segments) != 1 {
		t.Fatalf("expected one segment, got %v", segments)
	}
	if segments[0].Start < 0.499 || segments[0].Start > 0.501 {
		t.Errorf("expected segment to start at 0.5s after drop, got %f", segments[0].Start)
	}
	if segments[0].End < 0.999 || segments[0].End > 1.001 {
		t.Errorf("expected segment to end at 1.0s, got %f", segments[0].End)
	}
}

type flakyRecognizer struct {
	calls int
	inner Recognizer
}

func (r *flakyRecognizer) Recognize(ctx context.Context, pcm []byte, sampleRate, channels int, opts Options) ([]Segment, error) {
	r.calls++
	if r.calls == 1 {
		return nil, errors.New("model exploded")
	}
	return r.inner.Recognize(ctx, pcm, sampleRate, channels, opts)
}

// A recognizer failure surfaces as an engine error and leaves the buffer
// untouched, so a later flush still covers all the audio.
func TestWindowedEngineRecognizerErrorKeepsBuffer(t *testing.T) {
	window := WindowConfig{
		SampleRate:       16000,
		Channels:         1,
		WindowSeconds:    0.5,
		MinSeconds:       0.5,
		MinSilenceMS:     50,
		PadMS:            30,
		HopSeconds:       0.5,
		MaxBufferSeconds: 1,
	}
	vad := NewEnergyVAD(DefaultVADConfig())
	flaky := &flakyRecognizer{inner: NewStubRecognizer("base", vad)}
	engine, err := NewWindowedEngineWithRecognizer(EngineConfig{Model: "base"}, window, vad, flaky, logger.Nop())
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	ctx := context.Background()

	if err := engine.Start(ctx, Options{}); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	err = engine.PushAudio(ctx, appendTone(nil, 500, 8000, 16000, 1), 0)
	if err == nil {
		t.Fatal("expected push to surface the recognizer failure")
	}
	if !IsEngineError(err) {
		t.Fatalf("expected an engine error, got %v", err)
	}

	if err := engine.Flush(ctx); err != nil {
		t.Fatalf("flush after failure failed: %v", err)
	}
	segments := engine.PollSegments()
	if len(segments) != 1 {
		t.Fatalf("expected buffered audio to survive the failure, got %v", segments)
	}
	if segments[0].Start != 0 {
		t.Errorf("expected segment from stream start, got %f", segments[0].Start)
	}
}

func TestWindowedEngineLifecycleErrors(t *testing.T) {
	engine := newTestWindowedEngine(t, DefaultWindowConfig())
	ctx := context.Background()

	err := engine.PushAudio(ctx, []byte{0, 0}, 0)
	if !errors.Is(err, ErrNotStarted) {
		t.Errorf("expected push before start to fail with ErrNotStarted, got %v", err)
	}
	if err := engine.Flush(ctx); !errors.Is(err, ErrNotStarted) {
		t.Errorf("expected flush before start to fail with ErrNotStarted, got %v", err)
	}

	bad := Options{Temperature: floatPtr(3)}
	if err := engine.Start(ctx, bad); err == nil {
		t.Error("expected start to reject invalid options")
	}
}

func TestWindowedEngineRestartResetsState(t *testing.T) {
	engine := newTestWindowedEngine(t, WindowConfig{
		SampleRate:       16000,
		Channels:         1,
		WindowSeconds:    0.5,
		MinSeconds:       0.5,
		MinSilenceMS:     50,
		PadMS:            30,
		HopSeconds:       0.5,
		MaxBufferSeconds: 1,
	})
	ctx := context.Background()

	if err := engine.Start(ctx, Options{}); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := engine.PushAudio(ctx, appendTone(nil, 600, 8000, 16000, 1), 0); err != nil {
		t.Fatalf("push failed: %v", err)
	}
	if segments := engine.PollSegments(); len(segments) == 0 {
		t.Fatal("expected segments from first run")
	}

	// A second start must reset the offset and discard leftovers
	if err := engine.Start(ctx, Options{}); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	if err := engine.PushAudio(ctx, appendTone(nil, 600, 8000, 16000, 1), 0); err != nil {
		t.Fatalf("push after restart failed: %v", err)
	}
	segments := engine.PollSegments()
	if len(segments) != 1 {
		t.Fatalf("expected one segment after restart, got %v", segments)
	}
	if segments[0].Start != 0 {
		t.Errorf("expected restarted stream to begin at zero, got %f", segments[0].Start)
	}
}

func TestNewWindowedEngineParamOverrides(t *testing.T) {
	engine, err := NewWindowedEngine(EngineConfig{
		Model: "base",
		Params: map[string]string{
			"window_seconds":       "2",
			"min_seconds":          "0.5",
			"min_silence_ms":       "200",
			"vad_energy_threshold": "250",
		},
	}, logger.Nop())
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	if engine.window.WindowSeconds != 2 {
		t.Errorf("expected window override 2, got %f", engine.window.WindowSeconds)
	}
	if engine.window.MinSeconds != 0.5 {
		t.Errorf("expected min override 0.5, got %f", engine.window.MinSeconds)
	}
	if engine.window.MinSilenceMS != 200 {
		t.Errorf("expected silence override 200, got %d", engine.window.MinSilenceMS)
	}
	if engine.vad.config.EnergyThreshold != 250 {
		t.Errorf("expected vad threshold override 250, got %f", engine.vad.config.EnergyThreshold)
	}

	if _, err := NewWindowedEngine(EngineConfig{
		Params: map[string]string{"window_seconds": "abc"},
	}, logger.Nop()); err == nil {
		t.Error("expected malformed param to fail")
	}

	if _, err := NewWindowedEngine(EngineConfig{
		Params: map[string]string{"window_seconds": "-1"},
	}, logger.Nop()); err == nil {
		t.Error("expected invalid window to fail validation")
	}
}

func TestWindowedEngineDescribe(t *testing.T) {
	engine := newTestWindowedEngine(t, DefaultWindowConfig())

	info := engine.Describe()
	if info.Model != "base" || info.Device != DeviceCPU {
		t.Errorf("unexpected engine info: %+v", info)
	}
}
