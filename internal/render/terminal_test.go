package render

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/markis/chunkstream/internal/stream"
)

func feed(chunks ...stream.Chunk) <-chan stream.Chunk {
	ch := make(chan stream.Chunk, len(chunks))
	for _, c := range chunks {
		ch <- c
	}
	close(ch)
	return ch
}

func TestRender_PlainText(t *testing.T) {
	var out bytes.Buffer
	r := NewTerminalRenderer(&out, true, 80)

	err := r.Render(feed(
		stream.Chunk{Content: "first para"},
		stream.Chunk{Content: "graph\n\nsecond"},
		stream.Chunk{Done: true},
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := out.String(), "first paragraph\n\nsecond\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRender_Markdown(t *testing.T) {
	var out bytes.Buffer
	r := NewTerminalRenderer(&out, false, 80)

	if err := r.Render(feed(stream.Chunk{Content: "# Heading\n\nsome **bold** text"})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "Heading") || !strings.Contains(got, "bold") {
		t.Fatalf("rendered output missing content: %q", got)
	}
}

func TestRender_StopsOnError(t *testing.T) {
	var out bytes.Buffer
	r := NewTerminalRenderer(&out, true, 80)
	boom := errors.New("boom")

	err := r.Render(feed(stream.Chunk{Content: "partial"}, stream.Chunk{Error: boom}))
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want wrapped boom", err)
	}
}

func TestFindMarkdownBreakPoint(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{in: "no break", want: -1},
		{in: "a\n\nb", want: 3},
		{in: "a\n\nb\n\n", want: 6},
	}
	for _, tt := range tests {
		if got := findMarkdownBreakPoint(tt.in); got != tt.want {
			t.Errorf("findMarkdownBreakPoint(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
