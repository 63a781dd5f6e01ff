package transcribe

import (
	"context"
)

// Engine defines the contract for a stateful, push-based recognition engine.
// The lifecycle is Start, then any number of PushAudio/Flush/PollSegments
// rounds; Start again re-arms the engine for a fresh run.
type Engine interface {
	// Start transitions the engine into a fresh run, resetting internal
	// buffers. It may block on expensive one-time initialization.
	Start(ctx context.Context, opts Options) error
	// PushAudio appends raw PCM to the internal buffer and may trigger
	// processing as a side effect. It must not block indefinitely.
	PushAudio(ctx context.Context, pcm []byte, timestampMS int64) error
	// Flush forces processing of whatever remains buffered.
	Flush(ctx context.Context) error
	// PollSegments returns and clears the segments produced since the last
	// call. It never blocks and returns an empty slice when nothing is new.
	PollSegments() []Segment
}

// Describer is an optional capability for engines that report what they run
type Describer interface {
	Describe() EngineInfo
}

// DescribeEngine returns the engine's info when it implements Describer,
// or a zero EngineInfo otherwise
func DescribeEngine(engine Engine) EngineInfo {
	if describer, ok := engine.(Describer); ok {
		return describer.Describe()
	}
	return EngineInfo{}
}

// Ensure the built-in engines implement the contract
var (
	_ Engine    = (*WindowedEngine)(nil)
	_ Engine    = (*StubEngine)(nil)
	_ Describer = (*WindowedEngine)(nil)
	_ Describer = (*StubEngine)(nil)
)
