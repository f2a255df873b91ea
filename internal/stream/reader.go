package stream

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/text/encoding/charmap"
)

// Encoding selects how chunk text is turned into bytes.
type Encoding int

const (
	// EncodingUTF8 copies the UTF-8 bytes of each chunk.
	EncodingUTF8 Encoding = iota
	// EncodingLatin1 writes one byte per character and rejects characters above U+00FF.
	EncodingLatin1
)

func (e Encoding) String() string {
	switch e {
	case EncodingUTF8:
		return "utf-8"
	case EncodingLatin1:
		return "latin1"
	default:
		return fmt.Sprintf("encoding(%d)", int(e))
	}
}

// ParseEncoding maps a configuration value to an Encoding.
func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return EncodingUTF8, nil
	case "latin1", "latin-1", "iso-8859-1":
		return EncodingLatin1, nil
	}
	return 0, fmt.Errorf("unknown encoding %q", name)
}

// Option configures a ChunkedReader.
type Option func(*ChunkedReader)

// WithEncoding sets the encoding used to turn chunks into bytes.
func WithEncoding(enc Encoding) Option {
	return func(r *ChunkedReader) {
		r.encoding = enc
	}
}

// ChunkedReader serves a fixed sequence of text chunks, one chunk per read.
// It is safe for concurrent use; each chunk is delivered to exactly one caller.
type ChunkedReader struct {
	mu       sync.Mutex
	chunks   []string
	cursor   int
	encoding Encoding
	// pending holds the undelivered bytes of a chunk partially consumed by Read.
	pending []byte
}

// NewChunkedReader returns a reader over a copy of chunks.
func NewChunkedReader(chunks []string, opts ...Option) *ChunkedReader {
	r := &ChunkedReader{
		chunks: append([]string(nil), chunks...),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReadInto writes the whole next chunk into buf[off:off+n] and returns its encoded length.
// If Read left a chunk partially delivered, its remainder is written instead.
// On failure the cursor does not move and buf is left untouched.
func (r *ChunkedReader) ReadInto(buf []byte, off, n int) (int, error) {
	if off < 0 || n < 0 || off > len(buf) {
		return 0, fmt.Errorf("%w: offset %d, length %d, buffer %d", ErrInvalidRange, off, n, len(buf))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.current()
	if err != nil {
		return 0, err
	}

	capacity := min(n, len(buf)-off)
	if len(data) > capacity {
		return 0, &BufferTooSmallError{Need: len(data), Have: capacity}
	}

	copy(buf[off:], data)
	r.advance()
	return len(data), nil
}

// Read implements io.Reader. A chunk larger than p is delivered over several
// calls; the cursor moves once the chunk is fully drained. Read returns io.EOF
// once all chunks are consumed.
func (r *ChunkedReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.current()
	if errors.Is(err, ErrExhausted) {
		return 0, io.EOF
	}
	if err != nil {
		return 0, err
	}

	n := copy(p, data)
	if n == len(data) {
		r.advance()
		return n, nil
	}
	r.pending = data[n:]
	return n, nil
}

// Next returns the next chunk as a unit.
func (r *ChunkedReader) Next() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.current()
	if err != nil {
		return "", err
	}
	chunk, err := r.decode(data)
	if err != nil {
		return "", fmt.Errorf("chunk %d: %w", r.cursor, err)
	}
	r.advance()
	return chunk, nil
}

// Len returns the total number of chunks.
func (r *ChunkedReader) Len() int {
	return len(r.chunks)
}

// Remaining returns the number of chunks not yet fully delivered.
func (r *ChunkedReader) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.chunks) - r.cursor
}

// current returns the undelivered bytes of the chunk at the cursor.
// r.mu must be held.
func (r *ChunkedReader) current() ([]byte, error) {
	if r.cursor >= len(r.chunks) {
		return nil, ErrExhausted
	}
	if r.pending != nil {
		return r.pending, nil
	}
	data, err := r.encode(r.chunks[r.cursor])
	if err != nil {
		return nil, fmt.Errorf("chunk %d: %w", r.cursor, err)
	}
	return data, nil
}

func (r *ChunkedReader) advance() {
	r.pending = nil
	r.cursor++
}

func (r *ChunkedReader) decode(data []byte) (string, error) {
	if r.encoding != EncodingLatin1 {
		return string(data), nil
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrEncoding, r.encoding, err)
	}
	return string(out), nil
}

func (r *ChunkedReader) encode(chunk string) ([]byte, error) {
	if r.encoding != EncodingLatin1 {
		return []byte(chunk), nil
	}
	out, err := charmap.ISO8859_1.NewEncoder().String(chunk)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrEncoding, r.encoding, err)
	}
	return []byte(out), nil
}
