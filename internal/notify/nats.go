package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"

	ferrors "git.home.luguber.info/inful/devflow/internal/foundation/errors"
	"git.home.luguber.info/inful/devflow/internal/logfields"
)

// Publisher is the part of a NATS connection the notifier uses.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSNotifier publishes messages as JSON to a NATS subject.
type NATSNotifier struct {
	pub     Publisher
	conn    *nats.Conn
	subject string
}

// NewNATSNotifier connects to url and publishes on subject.
func NewNATSNotifier(url, subject string) (*NATSNotifier, error) {
	conn, err := nats.Connect(url, nats.Name("devflow"))
	if err != nil {
		return nil, ferrors.NotifyError("failed to connect to NATS").
			WithContext("url", url).
			WithCause(err).
			Build()
	}
	slog.Info("NATS notifier connected", "url", url, "subject", subject)
	return &NATSNotifier{pub: conn, conn: conn, subject: subject}, nil
}

// NewNATSNotifierWithPublisher uses an existing publisher.
func NewNATSNotifierWithPublisher(pub Publisher, subject string) *NATSNotifier {
	return &NATSNotifier{pub: pub, subject: subject}
}

func (n *NATSNotifier) Notify(_ context.Context, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Warn("Failed to encode notification", logfields.Error(err))
		return
	}
	if err := n.pub.Publish(n.subject, data); err != nil {
		slog.Warn("Failed to publish notification", slog.String("subject", n.subject), logfields.Error(err))
	}
}

// Close drains the owned connection, if any.
func (n *NATSNotifier) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Drain()
}
