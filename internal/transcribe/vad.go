package transcribe

import (
	"encoding/binary"
	"math"
)

// Span is a range of sample-frame indexes identified as speech; Start is
// inclusive, End exclusive
type Span struct {
	Start int
	End   int
}

// VADConfig holds tuning for energy-based speech detection
type VADConfig struct {
	EnergyThreshold float64 // RMS threshold above which a frame counts as speech
	FrameMS         int     // analysis frame length
	MinSpeechMS     int     // spans shorter than this are discarded
	HangoverMS      int     // silence tolerated inside a span before it closes
}

// DefaultVADConfig returns detection tuning that works for 16kHz speech
func DefaultVADConfig() VADConfig {
	return VADConfig{
		EnergyThreshold: 500,
		FrameMS:         30,
		MinSpeechMS:     60,
		HangoverMS:      90,
	}
}

// EnergyVAD detects speech spans by thresholding short-frame RMS energy
type EnergyVAD struct {
	config VADConfig
}

// NewEnergyVAD creates a new detector
func NewEnergyVAD(config VADConfig) *EnergyVAD {
	return &EnergyVAD{config: config}
}

// DetectSpans scans 16-bit LE PCM and returns the speech spans found, in
// order, as sample-frame indexes relative to the start of pcm
func (v *EnergyVAD) DetectSpans(pcm []byte, sampleRate, channels int) []Span {
	framesPerWindow := sampleRate * v.config.FrameMS / 1000
	windowBytes := framesPerWindow * channels * 2
	if windowBytes <= 0 {
		return nil
	}
	windows := len(pcm) / windowBytes

	minSpeechFrames := sampleRate * v.config.MinSpeechMS / 1000

	var spans []Span
	inSpeech := false
	spanStart := 0
	lastSpeechEnd := 0
	silentMS := 0

	closeSpan := func() {
		if lastSpeechEnd-spanStart >= minSpeechFrames {
			spans = append(spans, Span{Start: spanStart, End: lastSpeechEnd})
		}
		inSpeech = false
	}

	for i := 0; i < windows; i++ {
		window := pcm[i*windowBytes : (i+1)*windowBytes]
		frameStart := i * framesPerWindow

		if rmsEnergy(window) >= v.config.EnergyThreshold {
			if !inSpeech {
				inSpeech = true
				spanStart = frameStart
			}
			lastSpeechEnd = frameStart + framesPerWindow
			silentMS = 0
			continue
		}

		if inSpeech {
			silentMS += v.config.FrameMS
			if silentMS >= v.config.HangoverMS {
				closeSpan()
			}
		}
	}
	if inSpeech {
		closeSpan()
	}

	return spans
}

// rmsEnergy computes the root mean square of 16-bit LE samples
func rmsEnergy(pcm []byte) float64 {
	samples := len(pcm) / 2
	if samples == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < samples; i++ {
		sample := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		sum += float64(sample) * float64(sample)
	}
	return math.Sqrt(sum / float64(samples))
}
