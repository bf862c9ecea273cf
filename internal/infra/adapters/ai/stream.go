package ai

import "persona-chat-client/internal/domain/ports/adapter"

// Compile-time check
var _ adapter.CompletionStream = (*completionStream)(nil)

// completionStream carries the deltas of one in-flight request. The
// producer goroutine sets usage/err before closing the channel, so
// consumers may read them without further synchronization once the
// channel is closed.
type completionStream struct {
	deltas chan string
	usage  adapter.Usage
	err    error
}

func newCompletionStream() *completionStream {
	return &completionStream{deltas: make(chan string)}
}

func (s *completionStream) Deltas() <-chan string { return s.deltas }

func (s *completionStream) Usage() adapter.Usage { return s.usage }

func (s *completionStream) Err() error { return s.err }
