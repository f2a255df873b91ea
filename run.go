package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/markis/chunkstream/internal/args"
	"github.com/markis/chunkstream/internal/render"
	"github.com/markis/chunkstream/internal/sse"
	"github.com/markis/chunkstream/internal/stream"
	"golang.org/x/text/encoding/charmap"
)

func setupLogger(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// run streams the chunks described by a to out.
func run(ctx context.Context, a args.Arguments, wrap int, out io.Writer) error {
	chunks := a.Chunks
	if a.SSE {
		enc := sse.NewEncoder(a.Model)
		events, err := enc.Events(chunks)
		if err != nil {
			return err
		}
		slog.Debug("Framed chunks as events", "id", enc.ID, "model", a.Model, "events", len(events))
		chunks = events
	}

	reader := stream.NewChunkedReader(chunks, stream.WithEncoding(a.Encoding))
	slog.Debug("Reader ready", "chunks", reader.Len(), "encoding", a.Encoding, "buffer", a.BufferSize)

	if !a.Render {
		n, err := copyChunks(out, reader, a.BufferSize)
		slog.Debug("Stream finished", "bytes", n, "remaining", reader.Remaining())
		return err
	}

	// Producers stop once ctx is done, including when Render returns early.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	renderer := render.NewTerminalRenderer(out, a.UsePlainText, wrap)
	if !a.SSE {
		return renderIn(ctx, renderer, stream.Drain(ctx, reader))
	}

	pr, pw := io.Pipe()
	go func() {
		_, err := copyChunks(pw, reader, a.BufferSize)
		pw.CloseWithError(err)
	}()
	defer pr.Close()

	var body io.Reader = pr
	if a.Encoding == stream.EncodingLatin1 {
		body = charmap.ISO8859_1.NewDecoder().Reader(pr)
	}

	parser := stream.NewParser(ctx)
	go parser.Process(body)
	return renderIn(ctx, renderer, parser.Chunks())
}

// renderIn renders chunks and reports a cancelled context, since the
// producers close their channel without an error chunk once ctx is done.
func renderIn(ctx context.Context, renderer *render.TerminalRenderer, chunks <-chan stream.Chunk) error {
	if err := renderer.Render(chunks); err != nil {
		return err
	}
	return ctx.Err()
}

// copyChunks reads r one chunk at a time into a buffer of size bytes and
// writes each chunk to w. It returns the number of bytes written.
func copyChunks(w io.Writer, r *stream.ChunkedReader, size int) (int64, error) {
	buf := make([]byte, size)
	var total int64
	for {
		n, err := r.ReadInto(buf, 0, len(buf))
		if errors.Is(err, stream.ErrExhausted) {
			return total, nil
		}
		if err != nil {
			return total, fmt.Errorf("failed to read chunk: %w", err)
		}

		written, err := w.Write(buf[:n])
		total += int64(written)
		if err != nil {
			return total, fmt.Errorf("failed to write chunk: %w", err)
		}
		slog.Debug("Chunk written", "bytes", n, "remaining", r.Remaining())
	}
}
