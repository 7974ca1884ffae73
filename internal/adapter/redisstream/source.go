// Package redisstream consumes identity-platform audit events from a Redis
// Stream via a consumer group, so several forwarder instances can share one
// stream.
package redisstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/user/gelf-forwarder/internal/domain"
)

const readBlock = 2 * time.Second

// Source implements domain.EventSource on top of Redis Streams.
type Source struct {
	client *redis.Client
	logger *slog.Logger

	stream   string
	group    string
	consumer string
}

// NewSource creates the source and ensures the consumer group exists.
func NewSource(client *redis.Client, logger *slog.Logger, stream, group, consumer string) (*Source, error) {
	s := &Source{
		client:   client,
		logger:   logger.With("component", "redis_event_source", "stream", stream),
		stream:   stream,
		group:    group,
		consumer: consumer,
	}

	err := client.XGroupCreateMkStream(context.Background(), stream, group, "0").Err()
	if err != nil && !isBusyGroupError(err) {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}
	return s, nil
}

// ReadBatch reads up to count pending audit events for this consumer.
// Envelopes that fail to decode are logged and skipped; they still carry a
// message id so the caller acknowledges them and they are not redelivered
// forever.
func (s *Source) ReadBatch(ctx context.Context, count int) ([]domain.AuditEvent, error) {
	streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    s.group,
		Consumer: s.consumer,
		Streams:  []string{s.stream, ">"},
		Count:    int64(count),
		Block:    readBlock,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to XREADGROUP from redis: %w", err)
	}

	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return nil, nil
	}

	messages := streams[0].Messages
	events := make([]domain.AuditEvent, 0, len(messages))
	for _, msg := range messages {
		payload, ok := msg.Values["payload"].(string)
		if !ok {
			s.logger.Warn("invalid message format in stream, skipping", "message_id", msg.ID)
			events = append(events, domain.AuditEvent{StreamMessageID: msg.ID})
			continue
		}

		event, err := DecodeEnvelope([]byte(payload))
		if err != nil {
			s.logger.Warn("failed to decode audit envelope, skipping", "message_id", msg.ID, "error", err)
			events = append(events, domain.AuditEvent{StreamMessageID: msg.ID})
			continue
		}
		event.StreamMessageID = msg.ID
		events = append(events, event)
	}

	return events, nil
}

// Acknowledge marks stream messages as handled.
func (s *Source) Acknowledge(ctx context.Context, messageIDs ...string) error {
	if len(messageIDs) == 0 {
		return nil
	}
	if err := s.client.XAck(ctx, s.stream, s.group, messageIDs...).Err(); err != nil {
		return fmt.Errorf("failed to XACK messages in redis: %w", err)
	}
	return nil
}

// DecodeEnvelope parses one audit-event envelope. Events arriving without an
// id get one assigned, so the record's event_id is never empty.
func DecodeEnvelope(payload []byte) (domain.AuditEvent, error) {
	var event domain.AuditEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return domain.AuditEvent{}, fmt.Errorf("failed to unmarshal audit envelope: %w", err)
	}

	switch event.Kind {
	case domain.KindUser:
		if event.User == nil {
			return domain.AuditEvent{}, fmt.Errorf("user envelope without user event")
		}
		if event.User.ID == "" {
			event.User.ID = uuid.NewString()
		}
	case domain.KindAdmin:
		if event.Admin == nil {
			return domain.AuditEvent{}, fmt.Errorf("admin envelope without admin event")
		}
		if event.Admin.ID == "" {
			event.Admin.ID = uuid.NewString()
		}
	default:
		return domain.AuditEvent{}, fmt.Errorf("unknown audit event kind %q", event.Kind)
	}

	return event, nil
}

func isBusyGroupError(err error) bool {
	return err != nil && err.Error() == "BUSYGROUP Consumer Group name already exists"
}
