package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"persona-chat-client/internal/domain"
	"persona-chat-client/internal/domain/model"
	"persona-chat-client/internal/domain/ports/adapter"
	"persona-chat-client/internal/infra/metrics"
	"persona-chat-client/internal/tokens"
)

// Compile-time assurance this client satisfies the port
var _ adapter.CompletionStreamer = (*Client)(nil)

const doneSentinel = "[DONE]"

// Client drives the streaming chat-completions endpoint: it truncates
// the history to the model's context budget, primes the persona, parses
// the data-framed response into content deltas and reports estimated
// token usage at end of stream.
type Client struct {
	transport *StreamTransport
	counter   tokens.Counter
	log       *zerolog.Logger
}

func NewClient(transport *StreamTransport, counter tokens.Counter, logger *zerolog.Logger) *Client {
	return &Client{transport: transport, counter: counter, log: logger}
}

type wireMessage struct {
	Role    model.Role `json:"role"`
	Content string     `json:"content"`
}

type completionRequest struct {
	Messages         []wireMessage      `json:"messages"`
	Stream           bool               `json:"stream"`
	Model            string             `json:"model"`
	Temperature      float64            `json:"temperature"`
	TopP             float64            `json:"top_p"`
	N                int                `json:"n"`
	Stop             string             `json:"stop,omitempty"`
	MaxTokens        int                `json:"max_tokens,omitempty"` // 0 == unlimited, field omitted
	PresencePenalty  float64            `json:"presence_penalty"`
	FrequencyPenalty float64            `json:"frequency_penalty"`
	LogitBias        map[string]float64 `json:"logit_bias"`
}

type chunkFrame struct {
	Choices []struct {
		Delta struct {
			Content *string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// StreamCompletion validates the model, truncates and primes the
// message sequence and opens the stream. Errors returned here never
// touched the network; transport failures surface through the stream's
// Err after its channel closes.
func (c *Client) StreamCompletion(ctx context.Context, messages []model.Message, params model.SamplingParams, apiKey string) (adapter.CompletionStream, error) {
	info, err := model.LookupModel(params.Model)
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, fmt.Errorf("no messages to submit: %w", domain.ErrInvalidArgument)
	}

	submit := tokens.Truncate(messages, c.counter, info.MaxTokens, params.MaxTokens)
	if !domain.IsSystemDirective(submit[0].Content) {
		persona := model.NewMessage(model.RoleSystem, domain.PersonaPrompt)
		submit = append([]model.Message{persona}, submit...)
	}

	payload, err := json.Marshal(buildRequest(submit, params))
	if err != nil {
		return nil, fmt.Errorf("marshal completion request: %w", err)
	}

	stream := newCompletionStream()
	go c.run(ctx, stream, submit, params.Model, payload, apiKey)
	return stream, nil
}

func buildRequest(submit []model.Message, params model.SamplingParams) completionRequest {
	wire := make([]wireMessage, 0, len(submit))
	for _, m := range submit {
		wire = append(wire, wireMessage{Role: m.Role, Content: m.Content})
	}
	return completionRequest{
		Messages:         wire,
		Stream:           true,
		Model:            params.Model,
		Temperature:      params.Temperature,
		TopP:             params.TopP,
		N:                params.N,
		Stop:             params.Stop,
		MaxTokens:        params.MaxTokens,
		PresencePenalty:  params.PresencePenalty,
		FrequencyPenalty: params.FrequencyPenalty,
		LogitBias:        parseLogitBias(params.LogitBias),
	}
}

// parseLogitBias decodes the raw bias text, defaulting to an empty map
// on blank or malformed input.
func parseLogitBias(raw string) map[string]float64 {
	bias := map[string]float64{}
	if raw == "" {
		return bias
	}
	if err := json.Unmarshal([]byte(raw), &bias); err != nil {
		return map[string]float64{}
	}
	return bias
}

func (c *Client) run(ctx context.Context, st *completionStream, submit []model.Message, modelName string, payload []byte, apiKey string) {
	start := time.Now()
	outcome := "ok"
	defer func() {
		metrics.ObserveStreamDuration(modelName, outcome, time.Since(start).Seconds())
		close(st.deltas)
	}()

	body, err := c.transport.Open(ctx, completionsPath, payload, apiKey)
	if err != nil {
		var terr *adapter.TransportError
		if errors.As(err, &terr) {
			c.log.Error().Int("status", terr.Status).Str("message", terr.Message()).Msg("completion request rejected")
		}
		outcome = "error"
		st.err = err
		return
	}
	defer body.Close()

	var buffer strings.Builder
	chunk := make([]byte, 4096)
	for {
		n, readErr := body.Read(chunk)
		if n > 0 {
			cancelled, finished := c.consumeChunk(ctx, st, string(chunk[:n]), &buffer)
			if cancelled {
				outcome = "cancelled"
				return
			}
			if finished {
				break
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			if ctx.Err() != nil {
				// Abort mid-stream: clean termination, zero usage.
				outcome = "cancelled"
				return
			}
			outcome = "error"
			st.err = readErr
			return
		}
	}

	st.usage = c.computeUsage(submit, buffer.String())
}

// consumeChunk splits one received chunk into frames and emits the
// content deltas in order. cancelled means the context fired and no
// further deltas may be emitted; finished means the termination marker
// was seen and parsing stops for the whole stream.
func (c *Client) consumeChunk(ctx context.Context, st *completionStream, chunk string, buffer *strings.Builder) (cancelled, finished bool) {
	if ctx.Err() != nil {
		return true, false
	}
	for _, frame := range strings.Split(chunk, "\n\n") {
		content, ok, done := c.parseFrame(frame)
		if done {
			return false, true
		}
		if !ok {
			continue
		}
		buffer.WriteString(content)
		select {
		case st.deltas <- content:
		case <-ctx.Done():
			return true, false
		}
	}
	return false, false
}

// parseFrame strips the data: prefix and decodes a single frame.
// Malformed JSON is logged and skipped; frames without a content delta
// (role-only, finish-reason) are skipped silently.
func (c *Client) parseFrame(frame string) (content string, ok, done bool) {
	cleaned := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(frame), "data:"))
	if cleaned == "" {
		return "", false, false
	}
	if cleaned == doneSentinel {
		return "", false, true
	}
	var f chunkFrame
	if err := json.Unmarshal([]byte(cleaned), &f); err != nil {
		c.log.Warn().Err(err).Msg("skipping malformed stream frame")
		return "", false, false
	}
	if len(f.Choices) == 0 || f.Choices[0].Delta.Content == nil {
		return "", false, false
	}
	return *f.Choices[0].Delta.Content, true, false
}

// computeUsage estimates tokens at end of stream. Messages still marked
// loading when submitted count toward completion tokens together with
// the freshly streamed text; everything else is prompt.
func (c *Client) computeUsage(submit []model.Message, streamed string) adapter.Usage {
	var loaded, pending []string
	for _, m := range submit {
		if m.Loading {
			pending = append(pending, m.Content)
		} else {
			loaded = append(loaded, m.Content)
		}
	}
	return adapter.Usage{
		PromptTokens:     c.counter.Count(strings.Join(loaded, "\n")),
		CompletionTokens: c.counter.Count(strings.Join(pending, "\n") + streamed),
	}
}
