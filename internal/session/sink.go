package session

import (
	"context"

	"github.com/WanderingAstronomer/Vociferous-sub003/internal/transcribe"
)

// Sink receives transcript output from a running session. HandleSegment is
// called once per segment as soon as the segment is produced; Complete is
// called at most once, with the assembled result, and only when the run
// finished without a fatal error or a caller stop. Sinks shared by several
// sessions must be safe for concurrent use.
type Sink interface {
	HandleSegment(ctx context.Context, segment transcribe.Segment) error
	Complete(ctx context.Context, result transcribe.Result) error
}

// Polisher rewrites an assembled transcript before completion. A failure is
// never fatal to the session; the raw text is kept and the failure recorded
// as a result warning.
type Polisher interface {
	Polish(ctx context.Context, text string) (string, error)
}
