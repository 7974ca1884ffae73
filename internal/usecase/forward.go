package usecase

import (
	"context"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/user/gelf-forwarder/internal/adapter/metrics"
	"github.com/user/gelf-forwarder/internal/domain"
	"github.com/user/gelf-forwarder/internal/gelf"
)

const defaultBatchSize = 100

// ForwardOptions tunes the forwarder. The zero value is usable.
type ForwardOptions struct {
	BatchSize int

	// IncludeRepresentation is applied to admin events drained from the
	// event source. Direct OnAdminEvent callers pass the flag themselves.
	IncludeRepresentation bool

	// Limiter caps outbound datagrams; nil means unlimited. Events over the
	// cap are dropped and counted, never queued.
	Limiter *rate.Limiter
}

// ForwardUseCase turns audit events into GELF records and ships them.
// Delivery failures are logged and counted but never propagate: an
// observability gap must not fail the audited operation. All methods are safe
// for concurrent use.
type ForwardUseCase struct {
	builder *gelf.Builder
	sender  domain.DatagramSender
	source  domain.EventSource // nil when embedded without a stream
	metrics *metrics.ForwarderMetrics
	logger  *slog.Logger
	opts    ForwardOptions
}

// NewForwardUseCase creates the forwarder. source may be nil for hosts that
// call OnUserEvent / OnAdminEvent directly.
func NewForwardUseCase(
	builder *gelf.Builder,
	sender domain.DatagramSender,
	source domain.EventSource,
	m *metrics.ForwarderMetrics,
	logger *slog.Logger,
	opts ForwardOptions,
) *ForwardUseCase {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	return &ForwardUseCase{
		builder: builder,
		sender:  sender,
		source:  source,
		metrics: m,
		logger:  logger.With("component", "forward_usecase"),
		opts:    opts,
	}
}

// OnUserEvent forwards one authentication event. link is the optional
// auth-session linkage of the producing request.
func (uc *ForwardUseCase) OnUserEvent(ctx context.Context, ev domain.UserEvent, link *domain.AuthSessionLink) {
	uc.ship(string(domain.KindUser), uc.builder.FromUserEvent(ev, link))
}

// OnAdminEvent forwards one administrative event. When includeRepresentation
// is false the resource representation is left out of the record.
func (uc *ForwardUseCase) OnAdminEvent(ctx context.Context, ev domain.AdminEvent, includeRepresentation bool) {
	uc.ship(string(domain.KindAdmin), uc.builder.FromAdminEvent(ev, includeRepresentation))
}

// ship encodes and sends one record, converting every failure into a log line
// plus a metric. Sending is best-effort by design: no retry, no backoff.
func (uc *ForwardUseCase) ship(kind string, rec gelf.Record) {
	payload, err := rec.Encode()
	if err != nil {
		uc.logger.Error("failed to build gelf payload", "kind", kind, "error", err)
		uc.metrics.IncEvent(kind, "build_error")
		return
	}

	if uc.opts.Limiter != nil && !uc.opts.Limiter.Allow() {
		uc.metrics.IncEvent(kind, "throttled")
		return
	}

	uc.logger.Debug("built gelf record", "kind", kind, "payload", string(payload))

	if err := uc.sender.Send(payload); err != nil {
		// The sender already logged the cause with full context.
		uc.metrics.IncEvent(kind, "send_error")
		return
	}

	uc.metrics.IncEvent(kind, "sent")
	uc.metrics.AddBytes(len(payload))
}

// ProcessBatch drains one batch from the event source, forwards every event,
// and acknowledges the batch. Events are acknowledged after the send attempt
// regardless of outcome: UDP gives no delivery signal, so redelivering would
// only duplicate the attempt, not improve its odds.
func (uc *ForwardUseCase) ProcessBatch(ctx context.Context) (int, error) {
	events, err := uc.source.ReadBatch(ctx, uc.opts.BatchSize)
	if err != nil {
		uc.logger.Error("failed to read audit event batch", "error", err)
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	messageIDs := make([]string, 0, len(events))
	for _, ev := range events {
		switch {
		case ev.Kind == domain.KindUser && ev.User != nil:
			uc.OnUserEvent(ctx, *ev.User, ev.AuthSession)
		case ev.Kind == domain.KindAdmin && ev.Admin != nil:
			uc.OnAdminEvent(ctx, *ev.Admin, uc.opts.IncludeRepresentation)
		default:
			uc.logger.Warn("skipping malformed audit event", "kind", ev.Kind, "message_id", ev.StreamMessageID)
		}
		if ev.StreamMessageID != "" {
			messageIDs = append(messageIDs, ev.StreamMessageID)
		}
	}

	if err := uc.source.Acknowledge(ctx, messageIDs...); err != nil {
		uc.logger.Error("failed to acknowledge audit events", "error", err)
		return 0, err
	}

	return len(events), nil
}
