package stream

import (
	"context"
	"strings"
	"testing"
	"time"
)

func collect(ch <-chan Chunk) []Chunk {
	var out []Chunk
	for c := range ch {
		out = append(out, c)
	}
	return out
}

func TestParser_Process(t *testing.T) {
	body := strings.Join([]string{
		`data: {"choices":[{"index":0,"delta":{"content":"Hel"},"finish_reason":null}]}`,
		``,
		`: keep-alive`,
		`data: {"choices":[{"index":0,"delta":{"content":"lo"},"finish_reason":null}]}`,
		``,
		`data: {"choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`,
		``,
		`data: [DONE]`,
		``,
	}, "\n")

	p := NewParser(context.Background())
	go p.Process(strings.NewReader(body))
	got := collect(p.Chunks())

	want := []Chunk{{Content: "Hel"}, {Content: "lo"}, {Done: true}}
	if len(got) != len(want) {
		t.Fatalf("got %d chunks %+v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chunk %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestParser_MessageFallbackAndDecodeError(t *testing.T) {
	body := "data: {not json}\n\ndata: {\"choices\":[{\"message\":{\"content\":\"full\"}}]}\n\ndata: [DONE]\n"

	p := NewParser(context.Background())
	go p.Process(strings.NewReader(body))
	got := collect(p.Chunks())

	if len(got) != 3 {
		t.Fatalf("got %d chunks %+v, want 3", len(got), got)
	}
	if got[0].Error == nil {
		t.Errorf("expected decode error first, got %+v", got[0])
	}
	if got[1].Content != "full" {
		t.Errorf("expected message content fallback, got %+v", got[1])
	}
	if !got[2].Done {
		t.Errorf("expected done chunk, got %+v", got[2])
	}
}

func TestParser_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewParser(ctx)
	go p.Process(strings.NewReader("data: [DONE]\n"))
	got := collect(p.Chunks())

	if len(got) != 0 {
		t.Fatalf("expected no chunks after cancellation, got %+v", got)
	}
}

func TestParser_AbandonedConsumerReleasedByCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	body := "data: {not json}\n\ndata: {\"choices\":[{\"delta\":{\"content\":\"x\"}}]}\n"

	p := NewParser(ctx)
	finished := make(chan struct{})
	go func() {
		p.Process(strings.NewReader(body))
		close(finished)
	}()

	// Nobody reads p.Chunks(); the first send blocks until ctx is cancelled.
	cancel()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Process did not return after cancellation")
	}
}

func TestDrain(t *testing.T) {
	r := NewChunkedReader([]string{"a", "", "b"})
	got := collect(Drain(context.Background(), r))

	want := []Chunk{{Content: "a"}, {Content: ""}, {Content: "b"}, {Done: true}}
	if len(got) != len(want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chunk %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestDrain_EncodingError(t *testing.T) {
	r := NewChunkedReader([]string{"ok", "€"}, WithEncoding(EncodingLatin1))
	got := collect(Drain(context.Background(), r))

	if len(got) != 2 || got[0].Content != "ok" || got[1].Error == nil {
		t.Fatalf("expected content then error, got %+v", got)
	}
}

func TestDrain_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := collect(Drain(ctx, NewChunkedReader([]string{"a"})))
	if len(got) != 0 {
		t.Fatalf("expected no chunks after cancellation, got %+v", got)
	}
}

func TestDrain_StopsWhenConsumerCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	chunks := make([]string, 100)
	for i := range chunks {
		chunks[i] = "x"
	}
	r := NewChunkedReader(chunks)
	ch := Drain(ctx, r)

	if c := <-ch; c.Content != "x" {
		t.Fatalf("got %+v", c)
	}
	cancel()

	extra := 0
	timeout := time.After(time.Second)
	for {
		select {
		case c, ok := <-ch:
			if !ok {
				if extra > 1 {
					t.Fatalf("received %d chunks after cancellation", extra)
				}
				if r.Remaining() == 0 {
					t.Fatal("reader was drained despite cancellation")
				}
				return
			}
			if c.Error != nil || c.Done {
				t.Fatalf("unexpected chunk after cancellation: %+v", c)
			}
			extra++
		case <-timeout:
			t.Fatal("channel not closed after cancellation")
		}
	}
}
