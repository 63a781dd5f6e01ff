package audio

import (
	"math"
	"testing"
)

func TestChunkerSplitsFixedChunks(t *testing.T) {
	// 100ms of 16kHz mono PCM16 is 3200 bytes
	chunker := NewChunker(16000, 1, 100)

	chunks := chunker.Push(make([]byte, 8000))
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk.PCM) != 3200 {
			t.Errorf("chunk %d: expected 3200 bytes, got %d", i, len(chunk.PCM))
		}
		if err := chunk.Validate(); err != nil {
			t.Errorf("chunk %d: %v", i, err)
		}
	}
	if chunks[0].Start != 0 || math.Abs(chunks[0].End-0.1) > 1e-9 {
		t.Errorf("chunk 0: expected [0, 0.1], got [%f, %f]", chunks[0].Start, chunks[0].End)
	}
	if math.Abs(chunks[1].Start-0.1) > 1e-9 || math.Abs(chunks[1].End-0.2) > 1e-9 {
		t.Errorf("chunk 1: expected [0.1, 0.2], got [%f, %f]", chunks[1].Start, chunks[1].End)
	}

	// 1600 bytes (50ms) remain buffered
	tail, ok := chunker.Flush()
	if !ok {
		t.Fatalf("expected a tail chunk")
	}
	if len(tail.PCM) != 1600 {
		t.Errorf("expected 1600 tail bytes, got %d", len(tail.PCM))
	}
	if math.Abs(tail.Start-0.2) > 1e-9 || math.Abs(tail.End-0.25) > 1e-9 {
		t.Errorf("tail: expected [0.2, 0.25], got [%f, %f]", tail.Start, tail.End)
	}
}

func TestChunkerAccumulatesAcrossPushes(t *testing.T) {
	chunker := NewChunker(16000, 1, 100)

	if chunks := chunker.Push(make([]byte, 2000)); len(chunks) != 0 {
		t.Fatalf("expected no chunks yet, got %d", len(chunks))
	}
	chunks := chunker.Push(make([]byte, 1500))
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk after second push, got %d", len(chunks))
	}
	if len(chunks[0].PCM) != 3200 {
		t.Errorf("expected 3200 bytes, got %d", len(chunks[0].PCM))
	}
}

func TestChunkerFlushEmpty(t *testing.T) {
	chunker := NewChunker(16000, 1, 100)
	if _, ok := chunker.Flush(); ok {
		t.Errorf("expected no tail from an empty chunker")
	}
}

func TestChunkerFlushDiscardsPartialFrame(t *testing.T) {
	// Stereo frame size is 4 bytes; 6 buffered bytes hold one whole frame
	chunker := NewChunker(16000, 2, 100)
	chunker.Push(make([]byte, 6))

	tail, ok := chunker.Flush()
	if !ok {
		t.Fatalf("expected a tail chunk")
	}
	if len(tail.PCM) != 4 {
		t.Errorf("expected 4 aligned bytes, got %d", len(tail.PCM))
	}
}

func TestChunkerReset(t *testing.T) {
	chunker := NewChunker(16000, 1, 100)
	chunker.Push(make([]byte, 4000))
	chunker.Reset()

	if _, ok := chunker.Flush(); ok {
		t.Errorf("expected nothing buffered after reset")
	}
	chunks := chunker.Push(make([]byte, 3200))
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Start != 0 {
		t.Errorf("expected timestamps rewound to 0, got %f", chunks[0].Start)
	}
}
