package repository

import (
	"context"

	"persona-chat-client/internal/domain/model"
)

// ChatArchive is an optional ephemeral snapshot cache for chats,
// refreshed after each completed turn. It is not the system of record;
// durable chat history is an external concern.
type ChatArchive interface {
	StoreChat(ctx context.Context, chat *model.Chat) error
	GetChat(ctx context.Context, chatID string) (*model.Chat, error)
	DeleteChat(ctx context.Context, chatID string) error
}
