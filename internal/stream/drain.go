package stream

import (
	"context"
	"errors"
)

// Drain pulls every chunk from r into the returned channel, in order, and
// finishes with a Done chunk. The channel is closed when the reader is
// exhausted or a chunk fails. Once ctx is done nothing more is sent and the
// channel is closed, so callers check ctx.Err() to tell cancellation apart.
func Drain(ctx context.Context, r *ChunkedReader) <-chan Chunk {
	chunks := make(chan Chunk)

	go func() {
		defer close(chunks)
		done := ctx.Done()

		send := func(c Chunk) bool {
			select {
			case <-done:
				return false
			case chunks <- c:
				return true
			}
		}

		for {
			if ctx.Err() != nil {
				return
			}

			content, err := r.Next()
			if errors.Is(err, ErrExhausted) {
				send(Chunk{Done: true})
				return
			}
			if err != nil {
				send(Chunk{Error: err})
				return
			}
			if !send(Chunk{Content: content}) {
				return
			}
		}
	}()

	return chunks
}
