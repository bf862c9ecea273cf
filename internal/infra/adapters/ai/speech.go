package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"persona-chat-client/internal/domain"
)

// The speech endpoint accepts exactly these voices.
var speechVoices = []string{"alloy", "echo", "fable", "onyx", "nova", "shimmer"}

func ValidVoice(voice string) bool {
	for _, v := range speechVoices {
		if v == voice {
			return true
		}
	}
	return false
}

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

// Synthesize renders text to MP3 audio bytes. Voice and model are both
// mandatory and checked before any network access.
func (c *Client) Synthesize(ctx context.Context, text, voice, speechModel, apiKey string) ([]byte, error) {
	if speechModel == "" {
		return nil, fmt.Errorf("speech model missing: %w", domain.ErrInvalidArgument)
	}
	if !ValidVoice(voice) {
		return nil, fmt.Errorf("voice %q: %w", voice, domain.ErrInvalidVoice)
	}

	payload, err := json.Marshal(speechRequest{
		Model:          speechModel,
		Input:          text,
		Voice:          voice,
		ResponseFormat: "mp3",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal speech request: %w", err)
	}

	body, err := c.transport.Open(ctx, speechPath, payload, apiKey)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return io.ReadAll(body)
}
