package repository

import (
	"context"

	"persona-chat-client/internal/domain/model"
)

// State is the shared mutable session state: the chat collection, the
// active chat, credential, request state and the abort handle of the
// in-flight primary request. Chats are held by pointer; mutate them
// only inside StateStore.Update.
type State struct {
	Chats        []*model.Chat
	ActiveChatID string
	APIKey       string
	APIState     model.APIState
	Abort        context.CancelFunc
	Settings     model.Settings

	// Transient text-to-speech mirror of the streaming assistant reply.
	TTSMessageID string
	TTSText      string
}

func (s *State) ActiveChat() *model.Chat {
	return s.ChatByID(s.ActiveChatID)
}

func (s *State) ChatByID(id string) *model.Chat {
	for _, c := range s.Chats {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// StateStore owns the session state. Update runs fn with exclusive
// access; Snapshot returns a shallow copy whose Chats slice is private
// to the caller but shares the underlying chat objects.
type StateStore interface {
	Snapshot() State
	Update(fn func(*State))
}
