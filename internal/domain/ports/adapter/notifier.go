package adapter

type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityError Severity = "error"
)

// Notifier is the sink for user-facing messages. The rendering surface
// (toasts, dialogs) lives outside this core.
type Notifier interface {
	Show(message string, severity Severity)
}
