package audio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/WanderingAstronomer/Vociferous-sub003/pkg/logger"
)

const (
	streamReadSize    = 4096
	streamBufferSize  = 64 * 1024
	connectRetries    = 3
	connectRetryDelay = 1 * time.Second
)

// StreamConfig describes a raw PCM stream endpoint
type StreamConfig struct {
	URL        string
	SampleRate int
	Channels   int
	ChunkMS    int
}

// StreamSource pulls a raw 16-bit PCM byte stream over HTTP and serves it as
// fixed-duration timestamped chunks
type StreamSource struct {
	mu      sync.Mutex
	config  StreamConfig
	client  *http.Client
	chunker *Chunker
	pending []Chunk
	readBuf []byte

	// body is guarded separately so Stop can close it while Next is
	// blocked in a read
	bodyMu sync.Mutex
	body   io.ReadCloser

	connected bool
	eof       bool
	flushed   bool
	stopped   atomic.Bool

	logger *logger.Logger
}

// NewStreamSource creates a stream source; no connection is made until the
// first Next call
func NewStreamSource(config StreamConfig, log *logger.Logger) *StreamSource {
	// Keep-alive transport tuned for long-lived audio pulls; no overall
	// client timeout since the stream may be unbounded
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
		DisableCompression:  true,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &StreamSource{
		config:  config,
		client:  &http.Client{Transport: transport},
		chunker: NewChunker(config.SampleRate, config.Channels, config.ChunkMS),
		readBuf: make([]byte, streamReadSize),
		logger:  log.Named("stream-source"),
	}
}

// addCacheBreaker appends a timestamp query param so intermediaries never
// serve a stale stream
func (s *StreamSource) addCacheBreaker(url string) string {
	separator := "?"
	if strings.Contains(url, "?") {
		separator = "&"
	}
	return fmt.Sprintf("%s%snocache=%d", url, separator, time.Now().UnixNano())
}

// connect establishes the HTTP stream with bounded retries
func (s *StreamSource) connect(ctx context.Context) error {
	url := s.addCacheBreaker(s.config.URL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("User-Agent", "Vociferous/1.0")

	s.logger.Debug("Connecting to audio stream", logger.String("url", url))

	retryDelay := connectRetryDelay
	var resp *http.Response

	for attempt := 0; attempt < connectRetries; attempt++ {
		resp, err = s.client.Do(req)
		if err == nil && resp.StatusCode == http.StatusOK {
			break
		}
		if resp != nil {
			resp.Body.Close()
		}
		if attempt == connectRetries-1 {
			if err != nil {
				return fmt.Errorf("failed to connect after %d attempts: %w", connectRetries, err)
			}
			return fmt.Errorf("unexpected status code after %d attempts: %d", connectRetries, resp.StatusCode)
		}

		s.logger.Warn("Retrying connection to audio stream",
			logger.String("url", url),
			logger.Int("attempt", attempt+1),
			logger.Int("max_attempts", connectRetries),
			logger.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryDelay):
			retryDelay *= 2
		}
	}

	s.logger.Debug("Connected to audio stream",
		logger.String("url", url),
		logger.String("content_type", resp.Header.Get("Content-Type")))

	s.bodyMu.Lock()
	s.body = &bufferedReadCloser{
		reader: bufio.NewReaderSize(resp.Body, streamBufferSize),
		closer: resp.Body,
	}
	s.bodyMu.Unlock()
	s.connected = true
	return nil
}

// Next returns the next chunk of streamed audio, or io.EOF once the remote
// end closes the stream
func (s *StreamSource) Next(ctx context.Context) (Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		if err := ctx.Err(); err != nil {
			return Chunk{}, err
		}
		if s.stopped.Load() {
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
		if !s.connected {
			if err := s.connect(ctx); err != nil {
				return Chunk{}, err
			}
		}

		n, err := s.body.Read(s.readBuf)
		if n > 0 {
			s.pending = append(s.pending, s.chunker.Push(s.readBuf[:n])...)
		}
		if err == io.EOF {
			s.eof = true
			continue
		}
		if err != nil {
			// A closed body after Stop is a normal end of stream
			if s.stopped.Load() {
				return Chunk{}, io.EOF
			}
			return Chunk{}, fmt.Errorf("failed to read audio stream: %w", err)
		}
	}
}

// Stop closes the stream; a blocked read is unblocked by the body close
func (s *StreamSource) Stop() error {
	if !s.stopped.CompareAndSwap(false, true) {
		return nil
	}
	s.bodyMu.Lock()
	defer s.bodyMu.Unlock()
	if s.body != nil {
		if err := s.body.Close(); err != nil {
			return fmt.Errorf("failed to close stream body: %w", err)
		}
	}
	return nil
}

// bufferedReadCloser combines a buffered reader with the underlying closer
type bufferedReadCloser struct {
	reader *bufio.Reader
	closer io.Closer
}

func (b *bufferedReadCloser) Read(p []byte) (n int, err error) {
	return b.reader.Read(p)
}

func (b *bufferedReadCloser) Close() error {
	return b.closer.Close()
}
