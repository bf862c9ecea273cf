package adapter

import (
	"context"
	"encoding/json"
	"fmt"

	"persona-chat-client/internal/domain/model"
)

// Usage reports estimated token consumption for one completed request.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// CompletionStream is a finite producer of content deltas. The channel
// closes when the server signals completion, on cancellation, or on a
// terminal error; Usage and Err are valid only after it closes. A
// cancelled stream closes with nil Err and zero Usage.
type CompletionStream interface {
	Deltas() <-chan string
	Usage() Usage
	Err() error
}

// CompletionStreamer is the port for streaming chat completions.
// Cancellation is carried by ctx; a synchronous error means the request
// never reached the network (unknown model, bad payload).
type CompletionStreamer interface {
	StreamCompletion(ctx context.Context, messages []model.Message, params model.SamplingParams, apiKey string) (CompletionStream, error)
}

// TransportError is a non-success response from an upstream endpoint
// with its body fully buffered.
type TransportError struct {
	Status int
	Body   []byte
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("completion endpoint returned status %d", e.Status)
}

// Message extracts the human-readable message from a structured error
// body, falling back to the raw body text.
func (e *TransportError) Message() string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(e.Body, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return string(e.Body)
}
