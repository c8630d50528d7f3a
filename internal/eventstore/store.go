// Package eventstore persists build cycle history as an append-only event log.
package eventstore

import (
	"context"
	"time"
)

// Store defines the interface for persisting and retrieving events.
type Store interface {
	// Append adds a new event to the store.
	Append(ctx context.Context, cycleID, eventType string, payload []byte, metadata map[string]string) error

	// GetByCycleID retrieves all events of one cycle in append order.
	GetByCycleID(ctx context.Context, cycleID string) ([]Event, error)

	// GetRange retrieves events within a time range.
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)

	// Recent retrieves the newest limit events of eventType, newest first.
	Recent(ctx context.Context, eventType string, limit int) ([]Event, error)

	// Close closes the store and releases resources.
	Close() error
}
