package usecase

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"persona-chat-client/internal/domain"
	"persona-chat-client/internal/domain/model"
	"persona-chat-client/internal/domain/ports/adapter"
	"persona-chat-client/internal/domain/ports/repository"
	"persona-chat-client/internal/infra/store"
)

// ---- Fakes ----

type fakeStream struct {
	deltas chan string
	usage  adapter.Usage
	err    error
}

func newFakeStream(deltas []string, usage adapter.Usage, err error) *fakeStream {
	s := &fakeStream{deltas: make(chan string, len(deltas)), usage: usage, err: err}
	for _, d := range deltas {
		s.deltas <- d
	}
	close(s.deltas)
	return s
}

func (s *fakeStream) Deltas() <-chan string { return s.deltas }
func (s *fakeStream) Usage() adapter.Usage  { return s.usage }
func (s *fakeStream) Err() error            { return s.err }

type scriptedCall struct {
	deltas []string
	usage  adapter.Usage
	err    error
}

type fakeStreamer struct {
	calls    []scriptedCall
	manual   []*fakeStream // when set, returned instead of scripted calls
	requests [][]model.Message
}

func (f *fakeStreamer) StreamCompletion(ctx context.Context, msgs []model.Message, params model.SamplingParams, apiKey string) (adapter.CompletionStream, error) {
	f.requests = append(f.requests, append([]model.Message(nil), msgs...))
	i := len(f.requests) - 1
	if i < len(f.manual) && f.manual[i] != nil {
		return f.manual[i], nil
	}
	if i >= len(f.calls) {
		return newFakeStream(nil, adapter.Usage{}, nil), nil
	}
	c := f.calls[i]
	return newFakeStream(c.deltas, c.usage, c.err), nil
}

var _ adapter.CompletionStreamer = (*fakeStreamer)(nil)

type fakeNotifier struct {
	messages   []string
	severities []adapter.Severity
}

func (f *fakeNotifier) Show(message string, severity adapter.Severity) {
	f.messages = append(f.messages, message)
	f.severities = append(f.severities, severity)
}

var _ adapter.Notifier = (*fakeNotifier)(nil)

// ---- Helpers ----

func testSettings(autoTitle bool) model.Settings {
	return model.Settings{
		SamplingParams: model.SamplingParams{Model: "gpt-3.5-turbo", Temperature: 1, TopP: 1, N: 1},
		AutoTitle:      autoTitle,
	}
}

func newFixture(autoTitle bool, apiKey string, streamer *fakeStreamer) (*store.MemoryStore, *model.Chat, *fakeNotifier, TurnUseCase) {
	st := store.NewMemoryStore(testSettings(autoTitle), apiKey)
	chat := model.NewChat()
	st.Update(func(s *repository.State) {
		s.Chats = append(s.Chats, chat)
		s.ActiveChatID = chat.ID
	})
	notifier := &fakeNotifier{}
	logger := zerolog.Nop()
	uc := NewTurnUseCase(st, streamer, notifier, nil, &logger)
	return st, chat, notifier, uc
}

func approxEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

// ---- Tests ----

func TestSubmit_HappyPath(t *testing.T) {
	streamer := &fakeStreamer{calls: []scriptedCall{
		{deltas: []string{"Hel", "lo"}, usage: adapter.Usage{PromptTokens: 1000, CompletionTokens: 1000}},
		{deltas: []string{"discarded", "3"}, usage: adapter.Usage{PromptTokens: 100, CompletionTokens: 100}},
	}}
	st, chat, _, uc := newFixture(false, "sk-test", streamer)

	uc.Submit(context.Background(), model.NewMessage(model.RoleUser, "hello there"))

	snap := st.Snapshot()
	if snap.APIState != model.APIStateIdle {
		t.Fatalf("api state = %s, want idle", snap.APIState)
	}
	if len(chat.Messages) != 2 {
		t.Fatalf("chat has %d messages, want user+assistant", len(chat.Messages))
	}
	assistant := chat.Messages[1]
	if assistant.Role != model.RoleAssistant || assistant.Content != "Hello" || assistant.Loading {
		t.Fatalf("assistant message = %+v", assistant)
	}
	if snap.TTSText != "Hello" || snap.TTSMessageID != assistant.ID {
		t.Fatalf("tts mirror = %q for %q", snap.TTSText, snap.TTSMessageID)
	}

	// Classification sees only the directive plus the latest exchange,
	// and its first delta is dropped by the accumulation reset.
	if len(streamer.requests) != 2 {
		t.Fatalf("streamer called %d times, want 2", len(streamer.requests))
	}
	clsReq := streamer.requests[1]
	if len(clsReq) != 2 || clsReq[0].Content != domain.ExpressionPrompt || clsReq[1].Content != "Hello" {
		t.Fatalf("classification request = %+v", clsReq)
	}
	if chat.LatestMessage != "3" {
		t.Fatalf("latest message = %q, want 3", chat.LatestMessage)
	}

	// Costs from both flows are additive at gpt-3.5-turbo rates.
	if chat.PromptTokensUsed != 1100 || chat.CompletionTokensUsed != 1100 {
		t.Fatalf("token accumulators = %d/%d", chat.PromptTokensUsed, chat.CompletionTokensUsed)
	}
	wantCost := 1100.0/1000*0.0015 + 1100.0/1000*0.002
	if !approxEqual(chat.CostIncurred, wantCost) {
		t.Fatalf("cost = %v, want %v", chat.CostIncurred, wantCost)
	}
}

func TestSubmit_EmptyMessageIgnored(t *testing.T) {
	streamer := &fakeStreamer{}
	_, chat, _, uc := newFixture(false, "sk-test", streamer)

	uc.Submit(context.Background(), model.NewMessage(model.RoleUser, "   "))

	if len(streamer.requests) != 0 {
		t.Fatalf("blank submission reached the streamer")
	}
	if len(chat.Messages) != 0 {
		t.Fatalf("blank submission mutated the chat")
	}
}

func TestSubmit_NoActiveChat(t *testing.T) {
	streamer := &fakeStreamer{}
	st := store.NewMemoryStore(testSettings(false), "sk-test")
	notifier := &fakeNotifier{}
	logger := zerolog.Nop()
	uc := NewTurnUseCase(st, streamer, notifier, nil, &logger)

	uc.Submit(context.Background(), model.NewMessage(model.RoleUser, "hi"))

	if len(streamer.requests) != 0 {
		t.Fatalf("submission without an active chat reached the streamer")
	}
	if st.Snapshot().APIState != model.APIStateIdle {
		t.Fatalf("state not idle")
	}
}

func TestSubmit_MissingKeyAbortsBeforeNetwork(t *testing.T) {
	streamer := &fakeStreamer{}
	st, _, _, uc := newFixture(false, "", streamer)

	uc.Submit(context.Background(), model.NewMessage(model.RoleUser, "hi"))

	if len(streamer.requests) != 0 {
		t.Fatalf("missing key still reached the streamer")
	}
	if st.Snapshot().APIState != model.APIStateIdle {
		t.Fatalf("state not returned to idle")
	}
}

func TestSubmit_EditResubmitTruncates(t *testing.T) {
	streamer := &fakeStreamer{calls: []scriptedCall{
		{deltas: []string{"ok"}},
		{deltas: []string{"x", "1"}},
	}}
	_, chat, _, uc := newFixture(false, "sk-test", streamer)

	m0 := model.NewMessage(model.RoleUser, "first")
	m1 := model.NewMessage(model.RoleAssistant, "second")
	m2 := model.NewMessage(model.RoleUser, "third")
	chat.AddMessage(m0)
	chat.AddMessage(m1)
	chat.AddMessage(m2)

	edited := model.Message{ID: m1.ID, Role: model.RoleUser, Content: "edited"}
	uc.Submit(context.Background(), edited)

	if len(chat.Messages) != 3 {
		t.Fatalf("chat has %d messages, want [m0, edited, assistant]", len(chat.Messages))
	}
	if chat.Messages[0].ID != m0.ID {
		t.Fatalf("leading message replaced")
	}
	if chat.Messages[1].ID != m1.ID || chat.Messages[1].Content != "edited" {
		t.Fatalf("resubmitted message = %+v", chat.Messages[1])
	}
	if chat.MessageIndex(m2.ID) != -1 {
		t.Fatalf("messages after the edited one were not discarded")
	}
}

func TestSubmit_TitleRunsOnce(t *testing.T) {
	streamer := &fakeStreamer{calls: []scriptedCall{
		{deltas: []string{"Nice to meet you friend"}, usage: adapter.Usage{PromptTokens: 10, CompletionTokens: 10}},
		{deltas: []string{"x", "7"}},
		{deltas: []string{"Title: Zunda", " Chat."}},
		// second turn: primary + classification only
		{deltas: []string{"again"}},
		{deltas: []string{"x", "2"}},
	}}
	_, chat, _, uc := newFixture(true, "sk-test", streamer)

	uc.Submit(context.Background(), model.NewMessage(model.RoleUser, "hello there my friend"))

	if chat.Title == "" {
		t.Fatalf("title not synthesized")
	}
	if strings.HasPrefix(strings.ToLower(chat.Title), "title:") {
		t.Fatalf("title prefix not stripped: %q", chat.Title)
	}
	if strings.ContainsAny(chat.Title[len(chat.Title)-1:], ",.;:!?") {
		t.Fatalf("trailing punctuation not trimmed: %q", chat.Title)
	}
	title := chat.Title
	if len(streamer.requests) != 3 {
		t.Fatalf("first turn made %d requests, want 3", len(streamer.requests))
	}

	// The title request excludes the conversation opener.
	titleReq := streamer.requests[2]
	if !strings.HasPrefix(titleReq[0].Content, domain.TitleDirective) {
		t.Fatalf("title request lacks directive: %q", titleReq[0].Content)
	}
	for _, m := range titleReq[1:] {
		if m.ID == chat.Messages[0].ID {
			t.Fatalf("title request includes the opening message")
		}
	}

	uc.Submit(context.Background(), model.NewMessage(model.RoleUser, "more words to keep the gate open"))

	if len(streamer.requests) != 5 {
		t.Fatalf("second turn made %d total requests, want 5 (no second title)", len(streamer.requests))
	}
	if chat.Title != title {
		t.Fatalf("title changed on second turn: %q -> %q", title, chat.Title)
	}
}

func TestSubmit_TitleGatedByWordCount(t *testing.T) {
	streamer := &fakeStreamer{calls: []scriptedCall{
		{deltas: []string{"ok"}},
		{deltas: []string{"x", "5"}},
	}}
	_, chat, _, uc := newFixture(true, "sk-test", streamer)

	uc.Submit(context.Background(), model.NewMessage(model.RoleUser, "hi"))

	if chat.Title != "" {
		t.Fatalf("title synthesized below the word threshold: %q", chat.Title)
	}
	if len(streamer.requests) != 2 {
		t.Fatalf("made %d requests, want primary+classification only", len(streamer.requests))
	}
}

func TestSubmit_PrimaryErrorNotifiesAndKeepsPartial(t *testing.T) {
	terr := &adapter.TransportError{Status: 429, Body: []byte(`{"error":{"message":"Rate limit reached"}}`)}
	streamer := &fakeStreamer{calls: []scriptedCall{
		{deltas: []string{"par"}, err: terr},
	}}
	st, chat, notifier, uc := newFixture(false, "sk-test", streamer)

	uc.Submit(context.Background(), model.NewMessage(model.RoleUser, "hi"))

	if len(notifier.messages) != 1 || notifier.messages[0] != "Rate limit reached" {
		t.Fatalf("notifications = %q", notifier.messages)
	}
	if notifier.severities[0] != adapter.SeverityError {
		t.Fatalf("severity = %s", notifier.severities[0])
	}
	if st.Snapshot().APIState != model.APIStateIdle {
		t.Fatalf("state not returned to idle after error")
	}
	// The partially streamed reply is left as-is, not rolled back.
	assistant := chat.Messages[1]
	if assistant.Content != "par" {
		t.Fatalf("partial content = %q", assistant.Content)
	}
	if len(streamer.requests) != 1 {
		t.Fatalf("sub-flows ran after a failed primary")
	}
	if chat.PromptTokensUsed != 0 || chat.CostIncurred != 0 {
		t.Fatalf("failed request charged the accumulators")
	}
}

func TestSubmit_AbortMidStreamSkipsSubFlows(t *testing.T) {
	manual := &fakeStream{deltas: make(chan string)}
	streamer := &fakeStreamer{manual: []*fakeStream{manual}}
	st, chat, _, uc := newFixture(true, "sk-test", streamer)

	done := make(chan struct{})
	go func() {
		uc.Submit(context.Background(), model.NewMessage(model.RoleUser, "hello there my friend"))
		close(done)
	}()

	manual.deltas <- "par"
	waitFor(t, func() bool { return st.Snapshot().TTSText == "par" })

	uc.AbortCurrentRequest()
	close(manual.deltas)
	<-done

	snap := st.Snapshot()
	if snap.APIState != model.APIStateIdle {
		t.Fatalf("state = %s, want idle", snap.APIState)
	}
	if len(streamer.requests) != 1 {
		t.Fatalf("sub-flows ran after an aborted primary")
	}
	assistant := chat.Messages[1]
	if assistant.Content != "par" {
		t.Fatalf("aborted partial content = %q", assistant.Content)
	}
	if chat.PromptTokensUsed != 0 || chat.CompletionTokensUsed != 0 {
		t.Fatalf("aborted request charged the accumulators")
	}
}

func TestAbortCurrentRequest_Idempotent(t *testing.T) {
	streamer := &fakeStreamer{}
	st, _, _, uc := newFixture(false, "sk-test", streamer)

	fired := 0
	st.Update(func(s *repository.State) {
		s.Abort = func() { fired++ }
		s.APIState = model.APIStateLoading
	})

	uc.AbortCurrentRequest()
	uc.AbortCurrentRequest() // no active request: safe no-op

	if fired != 1 {
		t.Fatalf("abort handle fired %d times, want 1", fired)
	}
	snap := st.Snapshot()
	if snap.Abort != nil || snap.APIState != model.APIStateIdle {
		t.Fatalf("abort did not reset state: %+v", snap.APIState)
	}
}

func TestTrimTrailingPunct(t *testing.T) {
	if got := trimTrailingPunct("Hello."); got != "Hello" {
		t.Fatalf("got %q", got)
	}
	if got := trimTrailingPunct("Hello"); got != "Hello" {
		t.Fatalf("already trimmed text changed: %q", got)
	}
	if got := trimTrailingPunct("Hi!?"); got != "Hi!" {
		t.Fatalf("more than one character trimmed: %q", got)
	}
	if got := trimTrailingPunct(""); got != "" {
		t.Fatalf("empty input changed: %q", got)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not reached in time")
}
