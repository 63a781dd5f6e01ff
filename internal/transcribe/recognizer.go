package transcribe

import (
	"context"
	"fmt"
)

// Recognizer turns a bounded slice of PCM into segments with times local to
// that slice. It is the boundary behind which real model backends live; the
// windowed engine decides what to hand it and maps its times to stream time.
type Recognizer interface {
	Recognize(ctx context.Context, pcm []byte, sampleRate, channels int, opts Options) ([]Segment, error)
}

// StubRecognizer emits one descriptive segment per detected speech span
// without running a model, keeping the pipeline exercisable end to end
type StubRecognizer struct {
	model string
	vad   *EnergyVAD
}

// NewStubRecognizer creates a stub recognizer; a nil vad gets the defaults
func NewStubRecognizer(model string, vad *EnergyVAD) *StubRecognizer {
	if vad == nil {
		vad = NewEnergyVAD(DefaultVADConfig())
	}
	if model == "" {
		model = "stub"
	}
	return &StubRecognizer{model: model, vad: vad}
}

// Recognize reports the speech spans found in pcm as segments. A slice with
// no detectable speech yields a single segment describing the whole slice.
func (r *StubRecognizer) Recognize(ctx context.Context, pcm []byte, sampleRate, channels int, opts Options) ([]Segment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	spans := r.vad.DetectSpans(pcm, sampleRate, channels)
	if len(spans) == 0 {
		duration := float64(len(pcm)/(channels*2)) / float64(sampleRate)
		return []Segment{{
			Text:       fmt.Sprintf("[%s] %d bytes", r.model, len(pcm)),
			Start:      0,
			End:        duration,
			Language:   opts.Language,
			Confidence: 1.0,
		}}, nil
	}

	segments := make([]Segment, 0, len(spans))
	for _, span := range spans {
		start := float64(span.Start) / float64(sampleRate)
		end := float64(span.End) / float64(sampleRate)
		segments = append(segments, Segment{
			Text:       fmt.Sprintf("[%s] speech %d-%dms", r.model, int(start*1000), int(end*1000)),
			Start:      start,
			End:        end,
			Language:   opts.Language,
			Confidence: 0.9,
		})
	}
	return segments, nil
}
