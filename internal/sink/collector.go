package sink

import (
	"context"
	"sync"

	"github.com/WanderingAstronomer/Vociferous-sub003/internal/transcribe"
)

// Collector accumulates segments and the final result in memory. It backs
// synchronous API requests that wait for a run to finish before responding.
type Collector struct {
	mu       sync.Mutex
	segments []transcribe.Segment
	result   *transcribe.Result
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{}
}

// HandleSegment records the segment
func (c *Collector) HandleSegment(ctx context.Context, segment transcribe.Segment) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.segments = append(c.segments, segment)
	return nil
}

// Complete records the final result
func (c *Collector) Complete(ctx context.Context, result transcribe.Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.result = &result
	return nil
}

// Segments returns a copy of the segments collected so far
func (c *Collector) Segments() []transcribe.Segment {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]transcribe.Segment, len(c.segments))
	copy(out, c.segments)
	return out
}

// Result returns the final result, or false if the run has not completed
func (c *Collector) Result() (transcribe.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.result == nil {
		return transcribe.Result{}, false
	}
	return *c.result, true
}
