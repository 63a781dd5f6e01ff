package audio

import (
	"context"
)

// Source produces a lazy, possibly unbounded sequence of audio chunks.
// Next returns io.EOF once the stream is exhausted.
type Source interface {
	Next(ctx context.Context) (Chunk, error)
}

// Stopper is implemented by sources that can be asked to stop early.
// Stopping is best-effort; the caller ignores errors beyond logging them.
type Stopper interface {
	Stop() error
}
