package stream

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

const (
	dataPrefix = "data:"
	doneMarker = "[DONE]"
)

// CompletionChunk is the subset of a chat.completion.chunk event the parser reads.
type CompletionChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

// Process reads server-sent events from body and emits their content as chunks.
// A Done chunk is sent for the first finish_reason or [DONE] marker; the
// channel is closed when body is exhausted. Once the context is done nothing
// more is sent and the channel is closed.
func (p *Parser) Process(body io.Reader) {
	defer close(p.chunks)
	done := p.ctx.Done()

	reader := bufio.NewReaderSize(body, 4096)
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	scanner.Split(bufio.ScanLines)

	finished := false

	for {
		select {
		case <-done:
			return
		default:
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					p.send(Chunk{Error: fmt.Errorf("error reading event stream: %w", err)})
				}
				return
			}

			line := scanner.Text()
			if !strings.HasPrefix(line, dataPrefix) {
				continue
			}

			data := strings.TrimSpace(strings.TrimPrefix(line, dataPrefix))
			if data == doneMarker {
				if !finished {
					finished = true
					if !p.send(Chunk{Done: true}) {
						return
					}
				}
				continue
			}

			var chunk CompletionChunk
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				if !p.send(Chunk{Error: fmt.Errorf("failed to decode event: %w", err)}) {
					return
				}
				continue
			}
			if len(chunk.Choices) == 0 {
				continue
			}

			choice := chunk.Choices[0]
			content := choice.Delta.Content
			if content == "" {
				content = choice.Message.Content
			}
			if content != "" && !p.send(Chunk{Content: content}) {
				return
			}
			if choice.FinishReason != nil && !finished {
				finished = true
				if !p.send(Chunk{Done: true}) {
					return
				}
			}
		}
	}
}

// send delivers c unless the context is done first.
func (p *Parser) send(c Chunk) bool {
	select {
	case <-p.ctx.Done():
		return false
	case p.chunks <- c:
		return true
	}
}
