package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/youpy/go-wav"

	"github.com/WanderingAstronomer/Vociferous-sub003/pkg/logger"
)

// samplesPerRead is how many frames are pulled from the decoder per call
const samplesPerRead = 2048

// WAVSource reads 16-bit PCM from a WAV file and serves it as fixed-duration
// timestamped chunks
type WAVSource struct {
	mu      sync.Mutex
	path    string
	file    *os.File
	reader  *wav.Reader
	chunker *Chunker
	pending []Chunk

	sampleRate int
	channels   int

	eof     bool
	flushed bool
	stopped bool

	logger *logger.Logger
}

// NewWAVSource opens a WAV file for chunked reading
func NewWAVSource(path string, chunkMS int, log *logger.Logger) (*WAVSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAV file: %w", err)
	}

	reader := wav.NewReader(file)
	format, err := reader.Format()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to read WAV format: %w", err)
	}
	if format.BitsPerSample != 16 {
		file.Close()
		return nil, fmt.Errorf("unsupported WAV sample width: %d bits", format.BitsPerSample)
	}
	if format.NumChannels < 1 || format.NumChannels > 2 {
		file.Close()
		return nil, fmt.Errorf("unsupported WAV channel count: %d", format.NumChannels)
	}

	sampleRate := int(format.SampleRate)
	channels := int(format.NumChannels)

	log.Named("wav-source").Debug("Opened WAV file",
		logger.String("path", path),
		logger.Int("sample_rate", sampleRate),
		logger.Int("channels", channels))

	return &WAVSource{
		path:       path,
		file:       file,
		reader:     reader,
		chunker:    NewChunker(sampleRate, channels, chunkMS),
		sampleRate: sampleRate,
		channels:   channels,
		logger:     log.Named("wav-source"),
	}, nil
}

// SampleRate returns the sample rate declared by the file header
func (s *WAVSource) SampleRate() int {
	return s.sampleRate
}

// Channels returns the channel count declared by the file header
func (s *WAVSource) Channels() int {
	return s.channels
}

// Next returns the next chunk of decoded audio, or io.EOF at end of file
func (s *WAVSource) Next(ctx context.Context) (Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		if err := ctx.Err(); err != nil {
			return Chunk{}, err
		}
		if s.stopped {
			return Chunk{}, io.EOF
		}
		if len(s.pending) > 0 {
			chunk := s.pending[0]
			s.pending = s.pending[1:]
			return chunk, nil
		}
		if s.eof {
			if !s.flushed {
				s.flushed = true
				if tail, ok := s.chunker.Flush(); ok {
					return tail, nil
				}
			}
			return Chunk{}, io.EOF
		}

		samples, err := s.reader.ReadSamples(samplesPerRead)
		if len(samples) > 0 {
			s.pending = append(s.pending, s.chunker.Push(s.encodeSamples(samples))...)
		}
		if err == io.EOF {
			s.eof = true
			continue
		}
		if err != nil {
			return Chunk{}, fmt.Errorf("failed to read WAV samples: %w", err)
		}
	}
}

// encodeSamples converts decoded frames back to interleaved little-endian PCM
func (s *WAVSource) encodeSamples(samples []wav.Sample) []byte {
	pcm := make([]byte, 0, len(samples)*s.channels*BytesPerSample)
	var buf [BytesPerSample]byte
	for _, sample := range samples {
		for ch := 0; ch < s.channels; ch++ {
			binary.LittleEndian.PutUint16(buf[:], uint16(int16(sample.Values[ch])))
			pcm = append(pcm, buf[:]...)
		}
	}
	return pcm
}

// Stop ends reading early and releases the file handle
func (s *WAVSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	s.stopped = true
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("failed to close WAV file: %w", err)
	}
	return nil
}
