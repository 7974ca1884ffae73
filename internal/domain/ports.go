package domain

import "context"

// EventSource delivers batches of audit events from the identity platform's
// stream. Implementations own redelivery semantics; the forwarder acknowledges
// after the send attempt, not after delivery (UDP gives no delivery signal).
type EventSource interface {
	// ReadBatch reads up to count pending events for this consumer.
	// An empty batch is not an error.
	ReadBatch(ctx context.Context, count int) ([]AuditEvent, error)

	// Acknowledge marks stream messages as handled.
	Acknowledge(ctx context.Context, messageIDs ...string) error
}

// DatagramSender ships one encoded record as a single datagram. An empty
// payload is a no-op by contract.
type DatagramSender interface {
	Send(payload []byte) error
	Close() error
}
