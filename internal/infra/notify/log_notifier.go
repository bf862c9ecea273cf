package notify

import (
	"github.com/rs/zerolog"

	"persona-chat-client/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.Notifier = (*LogNotifier)(nil)

// LogNotifier writes user-facing notifications to the log. The real
// rendering surface (toast UI) lives outside this core.
type LogNotifier struct {
	log *zerolog.Logger
}

func NewLogNotifier(logger *zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: logger}
}

func (n *LogNotifier) Show(message string, severity adapter.Severity) {
	switch severity {
	case adapter.SeverityError:
		n.log.Error().Str("notification", message).Msg("user notification")
	default:
		n.log.Info().Str("notification", message).Msg("user notification")
	}
}
