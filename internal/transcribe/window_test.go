package transcribe

import (
	"testing"
)

// testWindowConfig uses a 1kHz mono stream so byte math stays readable:
// 2 bytes per frame, 2000-byte window, 400-byte minimum, 100-byte pad.
func testWindowConfig() WindowConfig {
	return WindowConfig{
		SampleRate:       1000,
		Channels:         1,
		WindowSeconds:    1,
		MinSeconds:       0.2,
		MinSilenceMS:     100,
		PadMS:            50,
		HopSeconds:       0.5,
		MaxBufferSeconds: 2,
	}
}

func TestWindowConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*WindowConfig)
		wantErr bool
	}{
		{"defaults", func(c *WindowConfig) {}, false},
		{"zero sample rate", func(c *WindowConfig) { c.SampleRate = 0 }, true},
		{"zero channels", func(c *WindowConfig) { c.Channels = 0 }, true},
		{"zero window", func(c *WindowConfig) { c.WindowSeconds = 0 }, true},
		{"zero min", func(c *WindowConfig) { c.MinSeconds = 0 }, true},
		{"min exceeds window", func(c *WindowConfig) { c.MinSeconds = c.WindowSeconds + 1 }, true},
		{"negative silence", func(c *WindowConfig) { c.MinSilenceMS = -1 }, true},
		{"negative pad", func(c *WindowConfig) { c.PadMS = -1 }, true},
		{"zero hop", func(c *WindowConfig) { c.HopSeconds = 0 }, true},
		{"buffer smaller than window", func(c *WindowConfig) { c.MaxBufferSeconds = c.WindowSeconds / 2 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultWindowConfig()
			tt.mutate(&config)
			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWindowConfigConversions(t *testing.T) {
	config := testWindowConfig()

	if got := config.windowBytes(); got != 2000 {
		t.Errorf("windowBytes = %d, want 2000", got)
	}
	if got := config.minBytes(); got != 400 {
		t.Errorf("minBytes = %d, want 400", got)
	}
	if got := config.padBytes(); got != 100 {
		t.Errorf("padBytes = %d, want 100", got)
	}
	if got := config.hopBytes(); got != 1000 {
		t.Errorf("hopBytes = %d, want 1000", got)
	}
	if got := config.bytesToSeconds(2000); got != 1.0 {
		t.Errorf("bytesToSeconds(2000) = %f, want 1.0", got)
	}

	stereo := config
	stereo.Channels = 2
	if got := stereo.alignFrame(7); got != 4 {
		t.Errorf("alignFrame(7) stereo = %d, want 4", got)
	}
}

func TestPlanConsume(t *testing.T) {
	config := testWindowConfig()

	tests := []struct {
		name     string
		sliceLen int
		spans    []Span
		force    bool
		want     int
	}{
		{"no spans consumes full window", 2000, nil, false, 2000},
		{"no spans misaligned slice", 2001, nil, false, 2000},
		{"no spans below minimum skips", 300, nil, false, 0},
		{"no spans below minimum forced", 300, nil, true, 300},
		{"single span truncates trailing silence", 2000, []Span{{100, 400}}, false, 900},
		{"tail capped at window", 2000, []Span{{950, 1000}}, false, 2000},
		{"qualifying gap splits early", 2000, []Span{{0, 200}, {350, 600}}, false, 500},
		{"gap below threshold ignored", 2000, []Span{{0, 200}, {260, 600}}, false, 1300},
		{"first qualifying gap wins", 2000, []Span{{0, 150}, {300, 450}, {600, 800}}, false, 400},
		{"split below minimum skips", 2000, []Span{{0, 100}, {400, 900}}, false, 0},
		{"split below minimum forced", 2000, []Span{{0, 100}, {400, 900}}, true, 300},
		{"empty slice", 0, nil, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := planConsume(config, tt.sliceLen, tt.spans, tt.force)
			if got != tt.want {
				t.Errorf("planConsume(%d, %v, force=%v) = %d, want %d",
					tt.sliceLen, tt.spans, tt.force, got, tt.want)
			}
		})
	}
}
