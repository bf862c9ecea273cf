package redis

import (
	"context"
	"encoding/json"
	"time"

	"persona-chat-client/internal/domain/model"
	"persona-chat-client/internal/domain/ports/repository"
)

// Compile-time check
var _ repository.ChatArchive = (*ChatArchive)(nil)

// ChatArchive keeps a TTL-bound JSON snapshot of each chat, refreshed
// after every completed turn.
type ChatArchive struct {
	client RedisClient
	ttl    time.Duration
}

func NewChatArchive(client RedisClient, ttl time.Duration) *ChatArchive {
	return &ChatArchive{client: client, ttl: ttl}
}

func (a *ChatArchive) StoreChat(ctx context.Context, chat *model.Chat) error {
	data, err := json.Marshal(chat)
	if err != nil {
		return err
	}
	return a.client.Set(ctx, "chat:"+chat.ID, data, a.ttl)
}

func (a *ChatArchive) GetChat(ctx context.Context, chatID string) (*model.Chat, error) {
	data, err := a.client.Get(ctx, "chat:"+chatID)
	if err != nil {
		return nil, err
	}
	var chat model.Chat
	if err := json.Unmarshal([]byte(data), &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

func (a *ChatArchive) DeleteChat(ctx context.Context, chatID string) error {
	return a.client.Del(ctx, "chat:"+chatID)
}

// ExtendChat refreshes the snapshot TTL without rewriting it.
func (a *ChatArchive) ExtendChat(ctx context.Context, chatID string) error {
	return a.client.Expire(ctx, "chat:"+chatID, a.ttl)
}
