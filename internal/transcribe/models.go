package transcribe

import (
	"fmt"
	"strings"
)

// Device selectors accepted by EngineConfig
const (
	DeviceCPU  = "cpu"
	DeviceCUDA = "cuda"
	DeviceAuto = "auto"
)

// Precision modes accepted by EngineConfig
const (
	PrecisionAuto = "auto"
	PrecisionInt8 = "int8"
	PrecisionFP16 = "fp16"
	PrecisionFP32 = "fp32"
)

// MetaUnknown is the placeholder for engine metadata a backend never reported
const MetaUnknown = "unknown"

// Segment represents a timestamped piece of recognized text
type Segment struct {
	Text       string
	Start      float64 // seconds, session-relative
	End        float64 // seconds, session-relative
	Language   string
	Confidence float64
}

// Options represents per-run transcription configuration
type Options struct {
	Language    string
	MaxDuration float64 // seconds; 0 means unbounded
	BeamSize    *int
	Temperature *float64
	Prompt      string
	Params      map[string]string
}

// Validate checks the option invariants
func (o Options) Validate() error {
	if o.MaxDuration < 0 {
		return fmt.Errorf("max duration must not be negative, got %f", o.MaxDuration)
	}
	if o.BeamSize != nil && *o.BeamSize < 1 {
		return fmt.Errorf("beam size must be at least 1, got %d", *o.BeamSize)
	}
	if o.Temperature != nil && (*o.Temperature < 0.0 || *o.Temperature > 2.0) {
		return fmt.Errorf("temperature must be between 0.0 and 2.0, got %f", *o.Temperature)
	}
	return nil
}

// Sanitized returns a copy with blank entries stripped from the param map
func (o Options) Sanitized() Options {
	o.Params = sanitizeParams(o.Params)
	return o
}

// EngineConfig represents the static configuration of a recognition engine
type EngineConfig struct {
	Model     string
	Device    string
	Precision string
	CacheDir  string
	Params    map[string]string
}

// Validate checks the device and precision selectors
func (c EngineConfig) Validate() error {
	switch c.Device {
	case "", DeviceCPU, DeviceCUDA, DeviceAuto:
	default:
		return fmt.Errorf("unsupported device: %s", c.Device)
	}
	switch c.Precision {
	case "", PrecisionAuto, PrecisionInt8, PrecisionFP16, PrecisionFP32:
	default:
		return fmt.Errorf("unsupported precision: %s", c.Precision)
	}
	return nil
}

// Sanitized returns a copy with blank entries stripped from the param map
func (c EngineConfig) Sanitized() EngineConfig {
	c.Params = sanitizeParams(c.Params)
	return c
}

// sanitizeParams drops entries whose key or value is empty after trimming
func sanitizeParams(params map[string]string) map[string]string {
	if len(params) == 0 {
		return nil
	}
	out := make(map[string]string, len(params))
	for k, v := range params {
		key := strings.TrimSpace(k)
		value := strings.TrimSpace(v)
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// EngineInfo describes what a concrete engine runs, for result metadata
type EngineInfo struct {
	Model     string
	Device    string
	Precision string
}

// Result represents the final aggregate of one completed session run
type Result struct {
	Text      string
	Segments  []Segment
	Engine    string
	Model     string
	Device    string
	Precision string
	Duration  float64
	Warnings  []string
}

// NewResult assembles a result from the delivered segments. Metadata fields
// left empty by the engine default to "unknown"; duration is the end time of
// the last segment, 0 when none were produced.
func NewResult(engineKind string, info EngineInfo, segments []Segment, warnings []string) Result {
	duration := 0.0
	if len(segments) > 0 {
		duration = segments[len(segments)-1].End
	}

	owned := make([]Segment, len(segments))
	copy(owned, segments)

	return Result{
		Text:      JoinSegmentText(segments),
		Segments:  owned,
		Engine:    orUnknown(engineKind),
		Model:     orUnknown(info.Model),
		Device:    orUnknown(info.Device),
		Precision: orUnknown(info.Precision),
		Duration:  duration,
		Warnings:  append([]string(nil), warnings...),
	}
}

// JoinSegmentText concatenates segment text with whitespace collapsed to
// single spaces
func JoinSegmentText(segments []Segment) string {
	var builder strings.Builder
	for _, segment := range segments {
		if builder.Len() > 0 {
			builder.WriteByte(' ')
		}
		builder.WriteString(segment.Text)
	}
	return NormalizeText(builder.String())
}

// NormalizeText collapses all runs of whitespace into single spaces
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func orUnknown(value string) string {
	if value == "" {
		return MetaUnknown
	}
	return value
}
