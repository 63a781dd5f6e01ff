package transcribe

import (
	"context"
	"testing"

	"github.com/WanderingAstronomer/Vociferous-sub003/pkg/logger"
)

func TestDefaultRegistryKinds(t *testing.T) {
	registry := DefaultRegistry()

	kinds := registry.Kinds()
	if len(kinds) != 2 || kinds[0] != KindStub || kinds[1] != KindWindowed {
		t.Fatalf("expected sorted built-in kinds, got %v", kinds)
	}
	if !registry.Has(KindWindowed) || !registry.Has(KindStub) {
		t.Error("expected built-in kinds to be registered")
	}
	if registry.Has("whisper-api") {
		t.Error("did not expect unregistered kind")
	}
}

func TestRegistryCreate(t *testing.T) {
	registry := DefaultRegistry()

	engine, err := registry.Create(KindWindowed, EngineConfig{Model: "base"}, logger.Nop())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if info := DescribeEngine(engine); info.Model != "base" {
		t.Errorf("expected engine to carry its model, got %+v", info)
	}

	if _, err := registry.Create("missing", EngineConfig{}, logger.Nop()); err == nil {
		t.Error("expected unknown kind to fail")
	}

	// Factory errors propagate
	if _, err := registry.Create(KindWindowed, EngineConfig{Device: "abacus"}, logger.Nop()); err == nil {
		t.Error("expected invalid config to fail")
	}
}

func TestRegistryRegisterRejectsDuplicates(t *testing.T) {
	registry := NewRegistry()
	factory := func(config EngineConfig, log *logger.Logger) (Engine, error) {
		return NewStubEngine(config, log)
	}

	if err := registry.Register("custom", factory); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if err := registry.Register("custom", factory); err == nil {
		t.Error("expected duplicate register to fail")
	}
	if err := registry.Register("", factory); err == nil {
		t.Error("expected empty kind to fail")
	}
	if err := registry.Register("nilfactory", nil); err == nil {
		t.Error("expected nil factory to fail")
	}
}

type bareEngine struct{}

func (bareEngine) Start(ctx context.Context, opts Options) error                      { return nil }
func (bareEngine) PushAudio(ctx context.Context, pcm []byte, timestampMS int64) error { return nil }
func (bareEngine) Flush(ctx context.Context) error                                    { return nil }
func (bareEngine) PollSegments() []Segment                                            { return nil }

func TestDescribeEngineFallback(t *testing.T) {
	info := DescribeEngine(bareEngine{})
	if info != (EngineInfo{}) {
		t.Errorf("expected zero info for a non-describing engine, got %+v", info)
	}
}
