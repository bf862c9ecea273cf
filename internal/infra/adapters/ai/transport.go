package ai

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"persona-chat-client/internal/domain/ports/adapter"
)

const (
	defaultBaseURL  = "https://api.openai.com/v1"
	completionsPath = "/chat/completions"
	modelsPath      = "/models"
	speechPath      = "/audio/speech"
)

// StreamTransport opens long-lived streaming connections against the
// completion API. It carries no timeout: a streaming response stays
// open until the server finishes or the context is cancelled.
type StreamTransport struct {
	baseURL string
	client  *http.Client
}

func NewStreamTransport(baseURL string) *StreamTransport {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &StreamTransport{baseURL: baseURL, client: &http.Client{}}
}

// Open POSTs the JSON payload and hands back the live response body.
// A non-2xx status buffers the whole error body and returns it as an
// *adapter.TransportError; no chunk is ever delivered for a failed
// request. Cancelling ctx tears the connection down.
func (t *StreamTransport) Open(ctx context.Context, path string, payload []byte, apiKey string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &adapter.TransportError{Status: resp.StatusCode, Body: body}
	}
	return resp.Body, nil
}

// get performs a bearer-authenticated GET against the API, used by the
// model listing and key validation calls.
func (t *StreamTransport) get(ctx context.Context, path, apiKey string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	return t.client.Do(req)
}
