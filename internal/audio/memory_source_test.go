package audio

import (
	"context"
	"errors"
	"io"
	"math"
	"testing"
)

func TestMemorySourceDrain(t *testing.T) {
	// 250ms of 16kHz mono audio in 100ms chunks: two full chunks plus a tail
	source := MemorySourceFromPCM(make([]byte, 8000), 16000, 1, 100, false)

	var chunks []Chunk
	for {
		chunk, err := source.Next(context.Background())
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		chunks = append(chunks, chunk)
	}

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		if math.Abs(chunks[i].Start-chunks[i-1].End) > 1e-9 {
			t.Errorf("chunk %d starts at %f, previous ended at %f", i, chunks[i].Start, chunks[i-1].End)
		}
	}
	if math.Abs(chunks[2].End-0.25) > 1e-9 {
		t.Errorf("expected final end 0.25, got %f", chunks[2].End)
	}

	// Subsequent calls keep returning EOF
	if _, err := source.Next(context.Background()); err != io.EOF {
		t.Errorf("expected io.EOF after drain, got %v", err)
	}
}

func TestMemorySourceStop(t *testing.T) {
	source := MemorySourceFromPCM(make([]byte, 8000), 16000, 1, 100, false)

	if _, err := source.Next(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := source.Stop(); err != nil {
		t.Fatalf("unexpected stop error: %v", err)
	}
	if _, err := source.Next(context.Background()); err != io.EOF {
		t.Errorf("expected io.EOF after stop, got %v", err)
	}
}

func TestMemorySourcePacedCancellation(t *testing.T) {
	source := MemorySourceFromPCM(make([]byte, 8000), 16000, 1, 100, true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := source.Next(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
