// Package notify surfaces workflow failures to the developer.
package notify

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/devflow/internal/logfields"
)

// Level is the severity of a message.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Message is a single notification.
type Message struct {
	Level    Level     `json:"level"`
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	Task     string    `json:"task,omitempty"`
	Document string    `json:"document,omitempty"`
	CycleID  string    `json:"cycle_id,omitempty"`
	Time     time.Time `json:"time"`
}

// Failure builds an error message for task, optionally about one document.
func Failure(task, document string, err error) Message {
	title := task + " failed"
	if document != "" {
		title = document + ": " + title
	}
	body := ""
	if err != nil {
		body = err.Error()
	}
	return Message{Level: LevelError, Title: title, Body: body, Task: task, Document: document, Time: time.Now()}
}

// Notifier delivers messages. Delivery is fire and forget; implementations
// log their own failures.
type Notifier interface {
	Notify(ctx context.Context, msg Message)
}

// LogNotifier writes messages to a structured logger.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier over logger, slog.Default() when nil.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, msg Message) {
	level := slog.LevelInfo
	if msg.Level == LevelError {
		level = slog.LevelError
	}
	attrs := []slog.Attr{slog.String("body", msg.Body)}
	if msg.Task != "" {
		attrs = append(attrs, logfields.Task(msg.Task))
	}
	if msg.Document != "" {
		attrs = append(attrs, logfields.Document(msg.Document))
	}
	if msg.CycleID != "" {
		attrs = append(attrs, logfields.CycleID(msg.CycleID))
	}
	n.logger.LogAttrs(ctx, level, msg.Title, attrs...)
}

// Multi fans a message out to every notifier in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, msg Message) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, msg)
		}
	}
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, msg Message)

func (f Func) Notify(ctx context.Context, msg Message) { f(ctx, msg) }
