package eventstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"git.home.luguber.info/inful/devflow/internal/foundation/errors"
)

// EventCycleCompleted is the type of the event appended after every cycle.
const EventCycleCompleted = "CycleCompleted"

// CycleSummary is the payload of a CycleCompleted event.
type CycleSummary struct {
	CycleID    string    `json:"cycle_id"`
	Trigger    string    `json:"trigger"`
	Outcome    string    `json:"outcome"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	Changed    int       `json:"changed"`
	Removed    int       `json:"removed"`
	Affected   int       `json:"affected"`
	Compiled   int       `json:"compiled"`
	Failed     int       `json:"failed"`
	Failures   []string  `json:"failures,omitempty"`
}

// CycleCompleted is emitted when an incremental cycle finishes.
type CycleCompleted struct {
	BaseEvent
	Summary CycleSummary
}

// NewCycleCompleted creates a CycleCompleted event for summary.
func NewCycleCompleted(summary CycleSummary) (*CycleCompleted, error) {
	payload, err := json.Marshal(summary)
	if err != nil {
		return nil, errors.HistoryError("failed to marshal CycleCompleted payload").
			WithCause(err).
			WithContext("cycle_id", summary.CycleID).
			Build()
	}

	return &CycleCompleted{
		BaseEvent: BaseEvent{
			EventCycleID:   summary.CycleID,
			EventType:      EventCycleCompleted,
			EventTimestamp: time.Now(),
			EventPayload:   payload,
			EventMetadata:  map[string]string{"trigger": summary.Trigger, "outcome": summary.Outcome},
		},
		Summary: summary,
	}, nil
}

// DecodeCycleSummary parses the payload of a CycleCompleted event.
func DecodeCycleSummary(e Event) (*CycleSummary, error) {
	if e.Type() != EventCycleCompleted {
		return nil, fmt.Errorf("%w: unexpected event type %q", ErrUnmarshalPayloadFailed, e.Type())
	}
	var s CycleSummary
	if err := json.Unmarshal(e.Payload(), &s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnmarshalPayloadFailed, err)
	}
	return &s, nil
}

// RecordCycle appends a CycleCompleted event for summary.
func RecordCycle(ctx context.Context, store Store, summary CycleSummary) error {
	ev, err := NewCycleCompleted(summary)
	if err != nil {
		return err
	}
	return store.Append(ctx, ev.CycleID(), ev.Type(), ev.Payload(), ev.Metadata())
}

// RecentCycles returns the newest limit cycle summaries, newest first.
// Events with undecodable payloads are skipped.
func RecentCycles(ctx context.Context, store Store, limit int) ([]CycleSummary, error) {
	events, err := store.Recent(ctx, EventCycleCompleted, limit)
	if err != nil {
		return nil, err
	}
	out := make([]CycleSummary, 0, len(events))
	for _, e := range events {
		s, err := DecodeCycleSummary(e)
		if err != nil {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}
