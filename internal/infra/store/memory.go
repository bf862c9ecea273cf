package store

import (
	"sync"

	"persona-chat-client/internal/domain/model"
	"persona-chat-client/internal/domain/ports/repository"
)

// Compile-time check
var _ repository.StateStore = (*MemoryStore)(nil)

// MemoryStore is the in-process session state owner. Every read and
// mutation runs under one mutex, so callback continuations from the
// primary stream and the sub-flows never interleave mid-update.
type MemoryStore struct {
	mu    sync.Mutex
	state repository.State
}

func NewMemoryStore(settings model.Settings, apiKey string) *MemoryStore {
	return &MemoryStore{state: repository.State{
		APIKey:   apiKey,
		APIState: model.APIStateIdle,
		Settings: settings,
	}}
}

func (s *MemoryStore) Snapshot() repository.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := s.state
	cp.Chats = append([]*model.Chat(nil), s.state.Chats...)
	return cp
}

func (s *MemoryStore) Update(fn func(*repository.State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
}
