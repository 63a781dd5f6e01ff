package sink

import (
	"context"
	"errors"

	"github.com/WanderingAstronomer/Vociferous-sub003/internal/session"
	"github.com/WanderingAstronomer/Vociferous-sub003/internal/transcribe"
)

var (
	_ session.Sink = (*Console)(nil)
	_ session.Sink = (*Collector)(nil)
	_ session.Sink = (*Store)(nil)
	_ session.Sink = (*Broadcast)(nil)
	_ session.Sink = (*Multi)(nil)
)

// Multi fans out to an ordered list of sinks. Every sink sees every event
// even when an earlier one fails, and all failures are reported together.
type Multi struct {
	sinks []session.Sink
}

// NewMulti creates a fan-out over the given sinks
func NewMulti(sinks ...session.Sink) *Multi {
	return &Multi{sinks: sinks}
}

// HandleSegment delivers the segment to every sink in order
func (m *Multi) HandleSegment(ctx context.Context, segment transcribe.Segment) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.HandleSegment(ctx, segment); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Complete delivers the result to every sink in order
func (m *Multi) Complete(ctx context.Context, result transcribe.Result) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Complete(ctx, result); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
