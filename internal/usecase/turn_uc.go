package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"persona-chat-client/internal/domain"
	"persona-chat-client/internal/domain/model"
	"persona-chat-client/internal/domain/ports/adapter"
	"persona-chat-client/internal/domain/ports/repository"
	"persona-chat-client/internal/infra/logging"
	"persona-chat-client/internal/infra/metrics"
)

// Compile-time check
var _ TurnUseCase = (*turnUC)(nil)

// TurnUseCase drives one conversational turn against the active chat:
// the primary streaming reply, then the expression classification and
// title sub-flows. Submit blocks until the whole turn settles; rejected
// submissions (blank input, no active chat, missing key) are logged
// no-ops by design.
type TurnUseCase interface {
	Submit(ctx context.Context, msg model.Message)
	AbortCurrentRequest()
}

type turnUC struct {
	store   repository.StateStore
	ai      adapter.CompletionStreamer
	notify  adapter.Notifier
	archive repository.ChatArchive // optional
	log     *zerolog.Logger
}

func NewTurnUseCase(store repository.StateStore, ai adapter.CompletionStreamer, notify adapter.Notifier, archive repository.ChatArchive, logger *zerolog.Logger) *turnUC {
	return &turnUC{store: store, ai: ai, notify: notify, archive: archive, log: logger}
}

func (u *turnUC) Submit(ctx context.Context, msg model.Message) {
	if strings.TrimSpace(msg.Content) == "" {
		u.log.Error().Msg("message is empty")
		return
	}

	var (
		chat        *model.Chat
		history     []model.Message
		assistantID string
		apiKey      string
		settings    model.Settings
		streamCtx   context.Context
	)
	u.store.Update(func(st *repository.State) {
		chat = st.ActiveChat()
		if chat == nil {
			return
		}
		// Resubmitting an existing message discards everything after it.
		if i := chat.MessageIndex(msg.ID); i >= 0 {
			chat.Messages = chat.Messages[:i]
		}
		chat.AddMessage(msg)

		placeholder := model.Message{ID: uuid.NewString(), Role: model.RoleAssistant, Loading: true}
		chat.AddMessage(placeholder)
		assistantID = placeholder.ID

		st.APIState = model.APIStateLoading
		apiKey = st.APIKey
		settings = st.Settings

		// A fresh abort handle replaces (and cancels) any prior one, so
		// two primary streams can never be open at once.
		if st.Abort != nil {
			st.Abort()
		}
		cctx, cancel := context.WithCancel(ctx)
		streamCtx = cctx
		st.Abort = cancel
		st.TTSMessageID = assistantID
		st.TTSText = ""

		history = append([]model.Message(nil), chat.Messages...)
	})
	if chat == nil {
		u.log.Error().Msg("chat not found")
		return
	}

	ctx = logging.WithTurnID(ctx, ulid.Make().String())
	ctx = logging.WithChatID(ctx, chat.ID)
	log := *logging.With(ctx, u.log)
	defer logging.TraceDuration(&log, "TurnUC.Submit")()

	if apiKey == "" {
		log.Error().Err(domain.ErrMissingAPIKey).Msg("submission rejected")
		u.AbortCurrentRequest()
		return
	}

	stream, err := u.ai.StreamCompletion(streamCtx, history, settings.SamplingParams, apiKey)
	if err != nil {
		log.Error().Err(err).Msg("completion request failed")
		u.AbortCurrentRequest()
		return
	}

	for delta := range stream.Deltas() {
		u.store.Update(func(st *repository.State) {
			if m := chat.FindMessage(assistantID); m != nil {
				m.Content += delta
			}
			st.TTSText += delta
		})
	}

	if err := stream.Err(); err != nil {
		message := err.Error()
		var terr *adapter.TransportError
		if errors.As(err, &terr) {
			message = terr.Message()
		}
		u.notify.Show(message, adapter.SeverityError)
		// Same cleanup as a user abort; the partial reply stays as-is.
		u.AbortCurrentRequest()
		return
	}

	cancelled := streamCtx.Err() != nil

	u.store.Update(func(st *repository.State) {
		if m := chat.FindMessage(assistantID); m != nil {
			m.Loading = false
		}
		st.APIState = model.APIStateIdle
	})
	if cancelled {
		log.Debug().Msg("primary stream cancelled")
		return
	}
	u.updateTokens(chat, settings.Model, stream.Usage())

	u.classifyExpression(ctx, chat, settings, apiKey, &log)
	if settings.AutoTitle {
		u.findChatTitle(ctx, chat, settings, apiKey, &log)
	}

	if u.archive != nil {
		if err := u.archive.StoreChat(ctx, chat); err != nil {
			log.Warn().Err(err).Msg("archive chat snapshot")
		}
	}
}

// AbortCurrentRequest cancels the in-flight primary stream, if any, and
// unconditionally returns the session to idle. Safe to call with no
// active request.
func (u *turnUC) AbortCurrentRequest() {
	u.store.Update(func(st *repository.State) {
		if st.Abort != nil {
			st.Abort()
			metrics.StreamAborted()
		}
		st.Abort = nil
		st.APIState = model.APIStateIdle
	})
}

// classifyExpression asks the model to pick one expressive state for the
// latest exchange and accumulates the answer into the chat's
// LatestMessage. The request is not tied to the abort handle. The first
// delta resets accumulation so a stale value never bleeds through.
func (u *turnUC) classifyExpression(ctx context.Context, chat *model.Chat, settings model.Settings, apiKey string, log *zerolog.Logger) {
	var msgs []model.Message
	u.store.Update(func(*repository.State) {
		if last := chat.LastMessage(); last != nil {
			msgs = []model.Message{model.NewMessage(model.RoleSystem, domain.ExpressionPrompt), *last}
		}
	})
	if msgs == nil {
		log.Error().Msg("chat has no messages to classify")
		return
	}

	stream, err := u.ai.StreamCompletion(ctx, msgs, settings.SamplingParams, apiKey)
	if err != nil {
		log.Warn().Err(err).Msg("expression classification failed")
		return
	}

	first := true
	for delta := range stream.Deltas() {
		u.store.Update(func(*repository.State) {
			if first {
				chat.LatestMessage = ""
			} else {
				chat.LatestMessage += delta
			}
		})
		first = false
	}
	if err := stream.Err(); err != nil {
		log.Warn().Err(err).Msg("expression classification stream failed")
		return
	}
	u.updateTokens(chat, settings.Model, stream.Usage())
}

// findChatTitle synthesizes a short chat title once the conversation is
// substantial enough. It runs at most once per chat: a chat that
// already has a title is never retitled.
func (u *turnUC) findChatTitle(ctx context.Context, chat *model.Chat, settings model.Settings, apiKey string, log *zerolog.Logger) {
	var msgs []model.Message
	u.store.Update(func(*repository.State) {
		if len(chat.Messages) < 2 || chat.Title != "" || chat.WordCount() < 4 {
			return
		}
		contents := make([]string, 0, len(chat.Messages)-1)
		for _, m := range chat.Messages[1:] {
			contents = append(contents, m.Content)
		}
		msgs = append(msgs, model.NewMessage(model.RoleSystem, domain.TitlePrompt(contents)))
		msgs = append(msgs, chat.Messages[1:]...)
	})
	if msgs == nil {
		return
	}

	stream, err := u.ai.StreamCompletion(ctx, msgs, settings.SamplingParams, apiKey)
	if err != nil {
		log.Warn().Err(err).Msg("title synthesis failed")
		return
	}

	for delta := range stream.Deltas() {
		u.store.Update(func(*repository.State) {
			chat.Title += delta
			if strings.HasPrefix(strings.ToLower(chat.Title), "title:") {
				chat.Title = strings.TrimSpace(chat.Title[len("title:"):])
			}
			chat.Title = trimTrailingPunct(chat.Title)
		})
	}
	if err := stream.Err(); err != nil {
		log.Warn().Err(err).Msg("title synthesis stream failed")
		return
	}
	u.updateTokens(chat, settings.Model, stream.Usage())
}

// updateTokens folds one request's usage into the chat accumulators at
// the model's per-1000-token rates. All flows of a turn share it, so
// costs are additive into the same chat.
func (u *turnUC) updateTokens(chat *model.Chat, modelName string, usage adapter.Usage) {
	info, err := model.LookupModel(modelName)
	if err != nil {
		u.log.Warn().Err(err).Msg("cost lookup failed")
		return
	}
	cost := float64(usage.PromptTokens)/1000*info.PromptCostPer1K +
		float64(usage.CompletionTokens)/1000*info.CompletionCostPer1K
	u.store.Update(func(*repository.State) {
		chat.AddUsage(usage.PromptTokens, usage.CompletionTokens, cost)
	})
	metrics.ObserveCompletionUsage(modelName, usage.PromptTokens, usage.CompletionTokens, cost)
}

// trimTrailingPunct drops at most one trailing punctuation character;
// already-trimmed text passes through unchanged.
func trimTrailingPunct(s string) string {
	if s == "" {
		return s
	}
	if strings.ContainsRune(",.;:!?", rune(s[len(s)-1])) {
		return s[:len(s)-1]
	}
	return s
}
