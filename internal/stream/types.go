package stream

import (
	"context"
	"errors"
	"fmt"
)

// Chunk represents a processed piece of content from the stream
type Chunk struct {
	Content string
	Done    bool
	Error   error
}

var (
	// ErrExhausted is returned once every chunk has been delivered.
	ErrExhausted = errors.New("chunk sequence exhausted")
	// ErrBufferTooSmall is returned when the destination cannot hold the next chunk.
	ErrBufferTooSmall = errors.New("buffer too small for chunk")
	// ErrInvalidRange is returned for a negative or out of bounds offset/length pair.
	ErrInvalidRange = errors.New("invalid buffer range")
	// ErrEncoding is returned when a chunk cannot be represented in the reader's encoding.
	ErrEncoding = errors.New("chunk not representable in encoding")
)

// BufferTooSmallError carries the sizes involved in a rejected read.
type BufferTooSmallError struct {
	Need int
	Have int
}

func (e *BufferTooSmallError) Error() string {
	return fmt.Sprintf("buffer too small for chunk: need %d bytes, have %d", e.Need, e.Have)
}

func (e *BufferTooSmallError) Unwrap() error {
	return ErrBufferTooSmall
}

// Parser handles the processing of raw stream data into chunks
type Parser struct {
	ctx    context.Context
	chunks chan Chunk
}

func NewParser(ctx context.Context) *Parser {
	return &Parser{
		ctx:    ctx,
		chunks: make(chan Chunk),
	}
}

func (p *Parser) Chunks() <-chan Chunk {
	return p.chunks
}
