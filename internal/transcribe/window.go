package transcribe

import (
	"fmt"
)

// WindowConfig holds the windowing policy tuning for the windowed engine
type WindowConfig struct {
	SampleRate       int
	Channels         int
	WindowSeconds    float64 // slice of the buffer considered per round
	MinSeconds       float64 // minimum buffered audio before a round runs
	MinSilenceMS     int     // gap between spans that qualifies as a split
	PadMS            int     // trailing pad kept after a span boundary
	HopSeconds       float64 // post-round retained backlog bound
	MaxBufferSeconds float64 // overflow cap on the whole buffer
}

// DefaultWindowConfig returns windowing defaults for 16kHz mono speech
func DefaultWindowConfig() WindowConfig {
	return WindowConfig{
		SampleRate:       16000,
		Channels:         1,
		WindowSeconds:    10,
		MinSeconds:       1,
		MinSilenceMS:     300,
		PadMS:            150,
		HopSeconds:       5,
		MaxBufferSeconds: 30,
	}
}

// Validate checks the policy invariants
func (c WindowConfig) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", c.SampleRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("invalid channel count: %d", c.Channels)
	}
	if c.WindowSeconds <= 0 {
		return fmt.Errorf("window seconds must be positive, got %f", c.WindowSeconds)
	}
	if c.MinSeconds <= 0 {
		return fmt.Errorf("min seconds must be positive, got %f", c.MinSeconds)
	}
	if c.MinSeconds > c.WindowSeconds {
		return fmt.Errorf("min seconds (%f) must not exceed the window (%f)", c.MinSeconds, c.WindowSeconds)
	}
	if c.MinSilenceMS < 0 {
		return fmt.Errorf("min silence must not be negative, got %d", c.MinSilenceMS)
	}
	if c.PadMS < 0 {
		return fmt.Errorf("pad must not be negative, got %d", c.PadMS)
	}
	if c.HopSeconds <= 0 {
		return fmt.Errorf("hop seconds must be positive, got %f", c.HopSeconds)
	}
	if c.MaxBufferSeconds < c.WindowSeconds {
		return fmt.Errorf("max buffer (%fs) must be at least the window (%fs)", c.MaxBufferSeconds, c.WindowSeconds)
	}
	return nil
}

// frameSize returns the byte size of one interleaved sample frame
func (c WindowConfig) frameSize() int {
	return c.Channels * 2
}

// alignFrame rounds n down to a whole number of sample frames
func (c WindowConfig) alignFrame(n int) int {
	return n - n%c.frameSize()
}

// secondsToBytes converts a duration to a frame-aligned byte count
func (c WindowConfig) secondsToBytes(seconds float64) int {
	return c.alignFrame(int(seconds * float64(c.SampleRate) * float64(c.frameSize())))
}

// bytesToSeconds converts a byte count to its duration
func (c WindowConfig) bytesToSeconds(n int) float64 {
	return float64(n) / (float64(c.SampleRate) * float64(c.frameSize()))
}

// msToBytes converts milliseconds to a frame-aligned byte count
func (c WindowConfig) msToBytes(ms int) int {
	return c.secondsToBytes(float64(ms) / 1000)
}

func (c WindowConfig) windowBytes() int    { return c.secondsToBytes(c.WindowSeconds) }
func (c WindowConfig) minBytes() int       { return c.secondsToBytes(c.MinSeconds) }
func (c WindowConfig) padBytes() int       { return c.msToBytes(c.PadMS) }
func (c WindowConfig) hopBytes() int       { return c.secondsToBytes(c.HopSeconds) }
func (c WindowConfig) maxBufferBytes() int { return c.secondsToBytes(c.MaxBufferSeconds) }

// planConsume decides how many leading bytes of the window slice one round
// hands to the recognizer. The slice length is already bounded by the window.
// A zero return with force unset means the round is skipped.
func planConsume(c WindowConfig, sliceLen int, spans []Span, force bool) int {
	consumed := c.alignFrame(sliceLen)
	if consumed == 0 {
		return 0
	}

	if len(spans) > 0 {
		pad := c.padBytes()
		frameSize := c.frameSize()

		// Tail truncation: strip silence after the last span
		tail := spans[len(spans)-1].End*frameSize + pad
		if tail > consumed {
			tail = consumed
		}

		// First qualifying silence gap between consecutive spans wins
		split := 0
		for i := 0; i+1 < len(spans); i++ {
			gapFrames := spans[i+1].Start - spans[i].End
			gapMS := gapFrames * 1000 / c.SampleRate
			if gapMS >= c.MinSilenceMS {
				split = spans[i].End*frameSize + pad
				break
			}
		}

		consumed = tail
		if split > 0 && split < consumed {
			consumed = split
		}
	}

	consumed = c.alignFrame(consumed)
	if !force && consumed < c.minBytes() {
		return 0
	}
	return consumed
}
