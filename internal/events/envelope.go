package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var ErrInvalidEnvelope = errors.New("invalid event envelope")

// Envelope wraps every event the store emits. Consumers partition on
// PartitionKey and order on Sequence.
type Envelope[T any] struct {
	EventName     string    `json:"eventName"`
	EventVersion  int       `json:"eventVersion"`
	EventID       string    `json:"eventId"`
	CorrelationID string    `json:"correlationId,omitempty"`
	CausationID   string    `json:"causationId,omitempty"`
	Producer      string    `json:"producer"`
	PartitionKey  string    `json:"partitionKey"`
	Sequence      *int64    `json:"sequence,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
	Schema        string    `json:"schema"`
	Payload       T         `json:"payload"`
}

// Trace links an event to the request that caused it.
type Trace struct {
	CorrelationID string
	CausationID   string
}

type eventKind struct {
	name    string
	version int
	schema  string
}

// seal stamps identity, producer and time onto payload. A missing
// correlation id gets a fresh one so every event can be traced.
func seal[T any](kind eventKind, partitionKey string, seq int64, tr Trace, payload T) Envelope[T] {
	if tr.CorrelationID == "" {
		tr.CorrelationID = uuid.NewString()
	}
	return Envelope[T]{
		EventName:     kind.name,
		EventVersion:  kind.version,
		EventID:       uuid.NewString(),
		CorrelationID: tr.CorrelationID,
		CausationID:   tr.CausationID,
		Producer:      storeServiceName,
		PartitionKey:  partitionKey,
		Sequence:      &seq,
		OccurredAt:    time.Now().UTC(),
		Schema:        kind.schema,
		Payload:       payload,
	}
}

// Validate checks that e is a well formed envelope of the named event.
func (e Envelope[T]) Validate(name string, version int) error {
	switch {
	case e.EventName != name:
		return errors.Wrapf(ErrInvalidEnvelope, "eventName %q, want %q", e.EventName, name)
	case e.EventVersion != version:
		return errors.Wrapf(ErrInvalidEnvelope, "eventVersion %d, want %d", e.EventVersion, version)
	case e.EventID == "":
		return errors.Wrap(ErrInvalidEnvelope, "eventId missing")
	case e.PartitionKey == "":
		return errors.Wrap(ErrInvalidEnvelope, "partitionKey missing")
	case e.Sequence != nil && *e.Sequence < 1:
		return errors.Wrapf(ErrInvalidEnvelope, "sequence %d", *e.Sequence)
	case e.OccurredAt.IsZero():
		return errors.Wrap(ErrInvalidEnvelope, "occurredAt missing")
	}
	return nil
}
