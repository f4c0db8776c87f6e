// Package diag is the diagnostics sink for migration and regeneration.
//
// Every skipped pass, dangling reference, and regeneration failure is
// reported as a Message. A Log keeps the messages for the host to inspect
// and forwards each one to a structured slog logger.
package diag

import (
	"context"
	"fmt"
	"log/slog"
)

// Severity of a diagnostic message.
type Severity int

const (
	Note Severity = iota
	Warning
	Failure
)

func (s Severity) String() string {
	switch s {
	case Note:
		return "note"
	case Warning:
		return "warning"
	case Failure:
		return "error"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

func (s Severity) level() slog.Level {
	switch s {
	case Warning:
		return slog.LevelWarn
	case Failure:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Message is one structured diagnostic.
type Message struct {
	Severity   Severity
	Definition string // path of the definition, if any
	Pass       string // migration pass name, if any
	Text       string
	Err        error
}

// Sink receives diagnostics.
type Sink interface {
	Report(msg Message)
}

// Log records messages in order and forwards them to a logger. The zero
// value is not usable; call NewLog.
type Log struct {
	Name     string
	logger   *slog.Logger
	messages []Message
}

// NewLog creates a message log. A nil logger discards forwarded output.
func NewLog(name string, logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Log{Name: name, logger: logger}
}

// Report records msg and forwards it to the logger.
func (l *Log) Report(msg Message) {
	l.messages = append(l.messages, msg)

	attrs := []slog.Attr{slog.String("log", l.Name)}
	if msg.Definition != "" {
		attrs = append(attrs, slog.String("definition", msg.Definition))
	}
	if msg.Pass != "" {
		attrs = append(attrs, slog.String("pass", msg.Pass))
	}
	if msg.Err != nil {
		attrs = append(attrs, slog.String("error", msg.Err.Error()))
	}
	l.logger.LogAttrs(context.Background(), msg.Severity.level(), msg.Text, attrs...)
}

// Messages returns a copy of everything reported so far.
func (l *Log) Messages() []Message {
	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Count returns the number of messages at or above severity.
func (l *Log) Count(atLeast Severity) int {
	n := 0
	for _, m := range l.messages {
		if m.Severity >= atLeast {
			n++
		}
	}
	return n
}

// Reset drops recorded messages.
func (l *Log) Reset() {
	l.messages = nil
}

// Fallback reports straight to a logger using the "[name] text" form. It is
// used when an operation runs without an attached message log.
type Fallback struct {
	Logger *slog.Logger
}

func (f Fallback) Report(msg Message) {
	logger := f.Logger
	if logger == nil {
		logger = slog.Default()
	}
	text := msg.Text
	if msg.Definition != "" {
		text = fmt.Sprintf("[%s] %s", msg.Definition, msg.Text)
	}
	if msg.Err != nil {
		logger.Log(context.Background(), msg.Severity.level(), text, "error", msg.Err)
		return
	}
	logger.Log(context.Background(), msg.Severity.level(), text)
}

// Or returns sink, or a Fallback on logger when sink is nil.
func Or(sink Sink, logger *slog.Logger) Sink {
	if sink != nil {
		return sink
	}
	return Fallback{Logger: logger}
}
