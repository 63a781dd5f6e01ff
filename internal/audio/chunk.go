package audio

import (
	"fmt"
)

// BytesPerSample is the sample width used throughout: 16-bit little-endian PCM
const BytesPerSample = 2

// Chunk represents a timestamped slice of raw PCM audio
type Chunk struct {
	PCM        []byte
	SampleRate int
	Channels   int
	Start      float64 // seconds, session-relative
	End        float64 // seconds, session-relative
}

// NewChunk creates a new chunk whose end time is derived from the payload length
func NewChunk(pcm []byte, sampleRate, channels int, start float64) Chunk {
	frames := 0
	if sampleRate > 0 && channels > 0 {
		frames = len(pcm) / (channels * BytesPerSample)
	}
	end := start
	if frames > 0 {
		end = start + float64(frames)/float64(sampleRate)
	}
	return Chunk{
		PCM:        pcm,
		SampleRate: sampleRate,
		Channels:   channels,
		Start:      start,
		End:        end,
	}
}

// Duration returns the chunk duration in seconds
func (c Chunk) Duration() float64 {
	return c.End - c.Start
}

// Frames returns the number of sample frames in the payload
func (c Chunk) Frames() int {
	if c.Channels <= 0 {
		return 0
	}
	return len(c.PCM) / (c.Channels * BytesPerSample)
}

// Validate checks the chunk invariants
func (c Chunk) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", c.SampleRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("invalid channel count: %d", c.Channels)
	}
	if len(c.PCM) == 0 {
		return fmt.Errorf("empty PCM payload")
	}
	frameSize := c.Channels * BytesPerSample
	if len(c.PCM)%frameSize != 0 {
		return fmt.Errorf("payload length %d is not frame-aligned (frame size %d)", len(c.PCM), frameSize)
	}
	if c.End <= c.Start {
		return fmt.Errorf("chunk end %.4f must be after start %.4f", c.End, c.Start)
	}
	// Payload length must agree with the advertised duration
	expected := int(float64(c.SampleRate)*(c.End-c.Start)+0.5) * frameSize
	if len(c.PCM) != expected {
		return fmt.Errorf("payload length %d does not match duration (expected %d bytes)", len(c.PCM), expected)
	}
	return nil
}

// bytesPerSecond returns the byte rate for the given stream parameters
func bytesPerSecond(sampleRate, channels int) int {
	return sampleRate * channels * BytesPerSample
}

// durationOf returns the duration in seconds of n payload bytes
func durationOf(n, sampleRate, channels int) float64 {
	bps := bytesPerSecond(sampleRate, channels)
	if bps == 0 {
		return 0
	}
	return float64(n) / float64(bps)
}
