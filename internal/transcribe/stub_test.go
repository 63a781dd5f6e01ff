package transcribe

import (
	"context"
	"errors"
	"testing"

	"github.com/WanderingAstronomer/Vociferous-sub003/pkg/logger"
)

func TestStubEngineDescribesReceivedAudio(t *testing.T) {
	engine, err := NewStubEngine(EngineConfig{Model: "echo", Device: DeviceCPU}, logger.Nop())
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	ctx := context.Background()

	if err := engine.Start(ctx, Options{Language: "en"}); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := engine.PushAudio(ctx, make([]byte, 9600), 250); err != nil {
		t.Fatalf("first push failed: %v", err)
	}
	if err := engine.PushAudio(ctx, make([]byte, 6400), 550); err != nil {
		t.Fatalf("second push failed: %v", err)
	}
	if segments := engine.PollSegments(); len(segments) != 0 {
		t.Fatalf("expected no segments before flush, got %v", segments)
	}

	if err := engine.Flush(ctx); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	segments := engine.PollSegments()
	if len(segments) != 1 {
		t.Fatalf("expected one segment, got %v", segments)
	}
	seg := segments[0]
	if seg.Text != "[stub:echo] received 16000 bytes" {
		t.Errorf("unexpected text %q", seg.Text)
	}
	if seg.Start != 0.25 {
		t.Errorf("expected start from first push timestamp, got %f", seg.Start)
	}
	if seg.End != 0.75 {
		t.Errorf("expected end 0.75 for 0.5s of 16kHz mono audio, got %f", seg.End)
	}
	if seg.Language != "en" {
		t.Errorf("expected language en, got %q", seg.Language)
	}
}

func TestStubEngineFlushWithoutAudio(t *testing.T) {
	engine, err := NewStubEngine(EngineConfig{}, logger.Nop())
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	ctx := context.Background()

	if err := engine.Start(ctx, Options{}); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := engine.Flush(ctx); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	if segments := engine.PollSegments(); len(segments) != 0 {
		t.Fatalf("expected no segments, got %v", segments)
	}
}

func TestStubEngineRequiresStart(t *testing.T) {
	engine, err := NewStubEngine(EngineConfig{}, logger.Nop())
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	ctx := context.Background()

	if err := engine.PushAudio(ctx, []byte{0, 0}, 0); !errors.Is(err, ErrNotStarted) {
		t.Errorf("expected ErrNotStarted from push, got %v", err)
	}
	if err := engine.Flush(ctx); !errors.Is(err, ErrNotStarted) {
		t.Errorf("expected ErrNotStarted from flush, got %v", err)
	}
}

func TestStubEngineParamValidation(t *testing.T) {
	if _, err := NewStubEngine(EngineConfig{
		Params: map[string]string{"sample_rate": "zero"},
	}, logger.Nop()); err == nil {
		t.Error("expected malformed sample_rate to fail")
	}
	if _, err := NewStubEngine(EngineConfig{
		Params: map[string]string{"channels": "-2"},
	}, logger.Nop()); err == nil {
		t.Error("expected negative channels to fail")
	}
}
