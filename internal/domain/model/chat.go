package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// APIState reflects whether a primary completion request is in flight.
type APIState string

const (
	APIStateIdle    APIState = "idle"
	APIStateLoading APIState = "loading"
)

// Chat is the aggregate root for one conversation. Messages are only
// appended or truncated at a known index, never reordered; the token and
// cost accumulators are monotonically non-decreasing.
type Chat struct {
	ID                   string    `json:"id"`
	Title                string    `json:"title,omitempty"`
	Messages             []Message `json:"messages"`
	LatestMessage        string    `json:"latest_message,omitempty"`
	PromptTokensUsed     int       `json:"prompt_tokens_used"`
	CompletionTokensUsed int       `json:"completion_tokens_used"`
	CostIncurred         float64   `json:"cost_incurred"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func NewChat() *Chat {
	now := time.Now()
	return &Chat{
		ID:        uuid.NewString(),
		Messages:  make([]Message, 0, 8),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (c *Chat) AddMessage(m Message) {
	c.Messages = append(c.Messages, m)
	c.UpdatedAt = time.Now()
}

// MessageIndex returns the position of the message with the given id,
// or -1 when absent.
func (c *Chat) MessageIndex(id string) int {
	for i, m := range c.Messages {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// FindMessage returns a pointer into the live sequence so streaming
// callbacks can mutate content in place.
func (c *Chat) FindMessage(id string) *Message {
	for i := range c.Messages {
		if c.Messages[i].ID == id {
			return &c.Messages[i]
		}
	}
	return nil
}

func (c *Chat) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return &c.Messages[len(c.Messages)-1]
}

// WordCount sums whitespace-separated words over every message. The
// title sub-flow is gated on this.
func (c *Chat) WordCount() int {
	n := 0
	for _, m := range c.Messages {
		n += len(strings.Fields(m.Content))
	}
	return n
}

// AddUsage folds one completed request into the running accumulators.
func (c *Chat) AddUsage(promptTokens, completionTokens int, cost float64) {
	c.PromptTokensUsed += promptTokens
	c.CompletionTokensUsed += completionTokens
	c.CostIncurred += cost
	c.UpdatedAt = time.Now()
}
