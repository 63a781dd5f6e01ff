// Package sink provides transcript sinks for transcription sessions.
package sink

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/WanderingAstronomer/Vociferous-sub003/internal/transcribe"
)

// Console writes segments to a writer as they arrive, then the assembled
// transcript on completion. Intended for interactive command line runs.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsole creates a console sink writing to w
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// HandleSegment prints one segment line
func (c *Console) HandleSegment(ctx context.Context, segment transcribe.Segment) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := fmt.Fprintf(c.w, "[%6.2fs -%6.2fs] %s\n", segment.Start, segment.End, segment.Text)
	return err
}

// Complete prints the assembled transcript and any warnings
func (c *Console) Complete(ctx context.Context, result transcribe.Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := fmt.Fprintf(c.w, "\ntranscript (%s/%s, %.2fs):\n%s\n",
		result.Engine, result.Model, result.Duration, result.Text); err != nil {
		return err
	}
	for _, warning := range result.Warnings {
		if _, err := fmt.Fprintf(c.w, "warning: %s\n", warning); err != nil {
			return err
		}
	}
	return nil
}
