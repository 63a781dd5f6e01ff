package audio

import (
	"testing"
)

func TestNewChunkDerivesEnd(t *testing.T) {
	// 3200 bytes of 16kHz mono PCM16 is exactly 100ms
	pcm := make([]byte, 3200)
	chunk := NewChunk(pcm, 16000, 1, 0.5)

	if chunk.Start != 0.5 {
		t.Errorf("expected start 0.5, got %f", chunk.Start)
	}
	if chunk.End != 0.6 {
		t.Errorf("expected end 0.6, got %f", chunk.End)
	}
	if chunk.Frames() != 1600 {
		t.Errorf("expected 1600 frames, got %d", chunk.Frames())
	}
	if err := chunk.Validate(); err != nil {
		t.Errorf("expected valid chunk, got %v", err)
	}
}

func TestChunkValidate(t *testing.T) {
	tests := []struct {
		name    string
		chunk   Chunk
		wantErr bool
	}{
		{
			name:    "valid mono",
			chunk:   NewChunk(make([]byte, 1600), 16000, 1, 0),
			wantErr: false,
		},
		{
			name:    "valid stereo",
			chunk:   NewChunk(make([]byte, 6400), 16000, 2, 1.25),
			wantErr: false,
		},
		{
			name:    "zero sample rate",
			chunk:   Chunk{PCM: make([]byte, 1600), SampleRate: 0, Channels: 1, Start: 0, End: 0.05},
			wantErr: true,
		},
		{
			name:    "zero channels",
			chunk:   Chunk{PCM: make([]byte, 1600), SampleRate: 16000, Channels: 0, Start: 0, End: 0.05},
			wantErr: true,
		},
		{
			name:    "empty payload",
			chunk:   Chunk{PCM: nil, SampleRate: 16000, Channels: 1, Start: 0, End: 0.05},
			wantErr: true,
		},
		{
			name:    "misaligned payload",
			chunk:   Chunk{PCM: make([]byte, 1601), SampleRate: 16000, Channels: 1, Start: 0, End: 0.05},
			wantErr: true,
		},
		{
			name:    "end before start",
			chunk:   Chunk{PCM: make([]byte, 1600), SampleRate: 16000, Channels: 1, Start: 1.0, End: 0.5},
			wantErr: true,
		},
		{
			name:    "length disagrees with duration",
			chunk:   Chunk{PCM: make([]byte, 1600), SampleRate: 16000, Channels: 1, Start: 0, End: 1.0},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.chunk.Validate()
			if tt.wantErr && err == nil {
				t.Errorf("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}
