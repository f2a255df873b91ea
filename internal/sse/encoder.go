// Package sse frames model output as OpenAI-compatible chat.completion.chunk
// server-sent events.
package sse

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	objectType   = "chat.completion.chunk"
	finishStop   = "stop"
	DoneEvent    = "data: [DONE]\n\n"
	eventPattern = "data: %s\n\n"
)

// Delta is the incremental message content of a choice. Content is nil only
// on the stop event, which frames as an empty delta object.
type Delta struct {
	Content *string `json:"content,omitempty"`
}

// Choice is a single streamed choice.
type Choice struct {
	Index        int     `json:"index"`
	Delta        Delta   `json:"delta"`
	FinishReason *string `json:"finish_reason"`
}

// CompletionChunk is one chat.completion.chunk payload.
type CompletionChunk struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
}

// Encoder builds the events of one streamed completion.
type Encoder struct {
	ID      string
	Model   string
	Created int64
}

// NewEncoder returns an encoder with a fresh completion id and the current time.
func NewEncoder(model string) *Encoder {
	return &Encoder{
		ID:      "chatcmpl-" + uuid.NewString(),
		Model:   model,
		Created: time.Now().Unix(),
	}
}

// Event frames a single content delta.
func (e *Encoder) Event(content string) (string, error) {
	return e.frame(Choice{Delta: Delta{Content: &content}})
}

// Stop frames the final event carrying finish_reason "stop".
func (e *Encoder) Stop() (string, error) {
	reason := finishStop
	return e.frame(Choice{FinishReason: &reason})
}

// Events frames every delta, then the stop event and the [DONE] marker.
func (e *Encoder) Events(deltas []string) ([]string, error) {
	events := make([]string, 0, len(deltas)+2)
	for i, d := range deltas {
		ev, err := e.Event(d)
		if err != nil {
			return nil, fmt.Errorf("failed to encode delta %d: %w", i, err)
		}
		events = append(events, ev)
	}

	stop, err := e.Stop()
	if err != nil {
		return nil, fmt.Errorf("failed to encode stop event: %w", err)
	}
	return append(events, stop, DoneEvent), nil
}

func (e *Encoder) frame(choice Choice) (string, error) {
	data, err := json.Marshal(CompletionChunk{
		ID:      e.ID,
		Object:  objectType,
		Created: e.Created,
		Model:   e.Model,
		Choices: []Choice{choice},
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(eventPattern, data), nil
}
