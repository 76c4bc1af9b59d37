// Package notify delivers ephemeral, best-effort notifications (model
// errors, search progress, review prompts) to whatever surface the caller
// provides. Notifications are never stored as chat messages and must not
// block stream processing.
package notify

import "log/slog"

// Level classifies a notification.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notifier receives ephemeral notifications.
type Notifier interface {
	Notify(level Level, text string)
}

// Func adapts a function to the Notifier interface.
type Func func(level Level, text string)

func (f Func) Notify(level Level, text string) {
	f(level, text)
}

// Slog returns a Notifier that forwards notifications to a logger.
// A nil logger defaults to slog.Default().
func Slog(log *slog.Logger) Notifier {
	if log == nil {
		log = slog.Default()
	}
	return Func(func(level Level, text string) {
		switch level {
		case LevelError:
			log.Error(text)
		case LevelWarn:
			log.Warn(text)
		default:
			log.Info(text)
		}
	})
}

// Nop returns a Notifier that discards everything.
func Nop() Notifier {
	return Func(func(Level, string) {})
}

// maxNoticeLen bounds user-visible failure summaries.
const maxNoticeLen = 140

// Truncate shortens text for a transient notification.
func Truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= maxNoticeLen {
		return text
	}
	return string(runes[:maxNoticeLen-1]) + "…"
}
