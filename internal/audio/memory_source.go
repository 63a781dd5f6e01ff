package audio

import (
	"context"
	"io"
	"sync"
	"time"
)

// MemorySource serves a pre-staged sequence of chunks, optionally paced at
// roughly real time. Useful for tests and canned demos.
type MemorySource struct {
	mu       sync.Mutex
	chunks   []Chunk
	pos      int
	realtime bool
	stopped  bool
}

// NewMemorySource creates a source over the given chunks
func NewMemorySource(chunks []Chunk, realtime bool) *MemorySource {
	return &MemorySource{
		chunks:   chunks,
		realtime: realtime,
	}
}

// MemorySourceFromPCM chunks a raw PCM buffer into chunkMS pieces and wraps
// them in a memory source
func MemorySourceFromPCM(pcm []byte, sampleRate, channels, chunkMS int, realtime bool) *MemorySource {
	chunker := NewChunker(sampleRate, channels, chunkMS)
	chunks := chunker.Push(pcm)
	if tail, ok := chunker.Flush(); ok {
		chunks = append(chunks, tail)
	}
	return NewMemorySource(chunks, realtime)
}

// Next returns the next staged chunk, or io.EOF once drained or stopped
func (s *MemorySource) Next(ctx context.Context) (Chunk, error) {
	s.mu.Lock()
	if s.stopped || s.pos >= len(s.chunks) {
		s.mu.Unlock()
		return Chunk{}, io.EOF
	}
	chunk := s.chunks[s.pos]
	s.pos++
	s.mu.Unlock()

	if s.realtime {
		select {
		case <-ctx.Done():
			return Chunk{}, ctx.Err()
		case <-time.After(time.Duration(chunk.Duration() * float64(time.Second))):
		}
	}
	return chunk, nil
}

// Stop ends the sequence early
func (s *MemorySource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	return nil
}
