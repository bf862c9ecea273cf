package web

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"persona-chat-client/internal/domain/ports/repository"
)

// Server exposes the observability surface: health, metrics and a
// read-only summary of the session state.
type Server struct {
	store repository.StateStore
	log   *zerolog.Logger
}

func NewServer(store repository.StateStore, logger *zerolog.Logger) *Server {
	return &Server{store: store, log: logger}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/state", s.handleState)
	return r
}

type chatSummary struct {
	ID                   string  `json:"id"`
	Title                string  `json:"title,omitempty"`
	Messages             int     `json:"messages"`
	PromptTokensUsed     int     `json:"prompt_tokens_used"`
	CompletionTokensUsed int     `json:"completion_tokens_used"`
	CostIncurred         float64 `json:"cost_incurred"`
}

type stateSummary struct {
	APIState     string        `json:"api_state"`
	ActiveChatID string        `json:"active_chat_id,omitempty"`
	Chats        []chatSummary `json:"chats"`
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	st := s.store.Snapshot()
	out := stateSummary{APIState: string(st.APIState), ActiveChatID: st.ActiveChatID}
	for _, c := range st.Chats {
		out.Chats = append(out.Chats, chatSummary{
			ID:                   c.ID,
			Title:                c.Title,
			Messages:             len(c.Messages),
			PromptTokensUsed:     c.PromptTokensUsed,
			CompletionTokensUsed: c.CompletionTokensUsed,
			CostIncurred:         c.CostIncurred,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		s.log.Error().Err(err).Msg("encode state summary")
	}
}
