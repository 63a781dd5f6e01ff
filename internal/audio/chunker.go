package audio

import (
	"bytes"
)

// Chunker splits an incoming PCM byte stream into fixed-duration chunks
// stamped with running session-relative times
type Chunker struct {
	sampleRate int
	channels   int
	chunkMS    int
	buffer     *bytes.Buffer
	bytesPerMS int
	elapsed    float64 // seconds of audio already emitted
}

// NewChunker creates a new chunker emitting chunks of chunkMS milliseconds
func NewChunker(sampleRate, channels, chunkMS int) *Chunker {
	return &Chunker{
		sampleRate: sampleRate,
		channels:   channels,
		chunkMS:    chunkMS,
		buffer:     bytes.NewBuffer(nil),
		bytesPerMS: bytesPerSecond(sampleRate, channels) / 1000,
	}
}

// Push appends raw PCM bytes and returns every complete chunk now available
func (c *Chunker) Push(data []byte) []Chunk {
	c.buffer.Write(data)

	chunkBytes := c.chunkMS * c.bytesPerMS
	if chunkBytes <= 0 {
		return nil
	}

	var chunks []Chunk
	for c.buffer.Len() >= chunkBytes {
		pcm := make([]byte, chunkBytes)
		n, _ := c.buffer.Read(pcm)
		chunk := NewChunk(pcm[:n], c.sampleRate, c.channels, c.elapsed)
		c.elapsed = chunk.End
		chunks = append(chunks, chunk)
	}
	return chunks
}

// Flush returns the buffered tail as a final short chunk, if any.
// Trailing bytes that do not fill a whole sample frame are discarded.
func (c *Chunker) Flush() (Chunk, bool) {
	frameSize := c.channels * BytesPerSample
	aligned := c.buffer.Len() - c.buffer.Len()%frameSize
	if aligned <= 0 {
		c.buffer.Reset()
		return Chunk{}, false
	}

	pcm := make([]byte, aligned)
	c.buffer.Read(pcm)
	c.buffer.Reset()

	chunk := NewChunk(pcm, c.sampleRate, c.channels, c.elapsed)
	c.elapsed = chunk.End
	return chunk, true
}

// Reset clears the buffer and rewinds the running timestamp
func (c *Chunker) Reset() {
	c.buffer.Reset()
	c.elapsed = 0
}
