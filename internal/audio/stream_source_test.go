package audio

import (
	"context"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/WanderingAstronomer/Vociferous-sub003/pkg/logger"
)

func TestStreamSourceReadsRemotePCM(t *testing.T) {
	// 150ms of 16kHz mono PCM16
	payload := make([]byte, 4800)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/l16")
		w.Write(payload)
	}))
	defer server.Close()

	source := NewStreamSource(StreamConfig{
		URL:        server.URL,
		SampleRate: 16000,
		Channels:   1,
		ChunkMS:    50,
	}, logger.Nop())

	var total int
	var last Chunk
	for {
		chunk, err := source.Next(context.Background())
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := chunk.Validate(); err != nil {
			t.Errorf("invalid chunk: %v", err)
		}
		total += len(chunk.PCM)
		last = chunk
	}

	if total != len(payload) {
		t.Errorf("expected %d bytes, got %d", len(payload), total)
	}
	if math.Abs(last.End-0.15) > 1e-9 {
		t.Errorf("expected stream to end at 0.15s, got %f", last.End)
	}
}

func TestStreamSourceStop(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 32000))
	}))
	defer server.Close()

	source := NewStreamSource(StreamConfig{
		URL:        server.URL,
		SampleRate: 16000,
		Channels:   1,
		ChunkMS:    50,
	}, logger.Nop())

	if _, err := source.Next(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := source.Stop(); err != nil {
		t.Fatalf("unexpected stop error: %v", err)
	}
	if err := source.Stop(); err != nil {
		t.Fatalf("stop is not idempotent: %v", err)
	}
	if _, err := source.Next(context.Background()); err != io.EOF {
		t.Errorf("expected io.EOF after stop, got %v", err)
	}
}

func TestStreamSourceBadURL(t *testing.T) {
	source := NewStreamSource(StreamConfig{
		URL:        "://not-a-url",
		SampleRate: 16000,
		Channels:   1,
		ChunkMS:    50,
	}, logger.Nop())

	if _, err := source.Next(context.Background()); err == nil {
		t.Errorf("expected error for malformed URL")
	}
}
