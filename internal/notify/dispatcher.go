package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/outage-alert-service/internal/domain"
)

// DefaultConcurrency bounds parallel sends when none is configured.
const DefaultConcurrency = 4

// Delivery is the outcome of sending one group's digest.
type Delivery struct {
	Message Message
	// Err is a *domain.DispatchError when the send failed.
	Err      error
	Duration time.Duration
}

// Sent reports whether the transport accepted the message.
func (d Delivery) Sent() bool { return d.Err == nil }

// Dispatcher sends digests concurrently and writes history for the ones
// that went out.
type Dispatcher struct {
	transport   domain.Transport
	history     domain.NotificationStore
	clock       clockwork.Clock
	logger      *slog.Logger
	concurrency int
}

// NewDispatcher creates a Dispatcher. A non-positive concurrency selects
// DefaultConcurrency.
func NewDispatcher(transport domain.Transport, history domain.NotificationStore, clock clockwork.Clock, logger *slog.Logger, concurrency int) *Dispatcher {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Dispatcher{
		transport:   transport,
		history:     history,
		clock:       clock,
		logger:      logger,
		concurrency: concurrency,
	}
}

// Send delivers every non-empty message. A failed group never stops the
// others: each failure is captured in its Delivery. Deliveries keep the
// order of messages.
func (d *Dispatcher) Send(ctx context.Context, messages []Message) []Delivery {
	deliveries := make([]Delivery, 0, len(messages))
	for _, m := range messages {
		if m.Text != "" {
			deliveries = append(deliveries, Delivery{Message: m})
		}
	}

	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for i := range deliveries {
		g.Go(func() error {
			dl := &deliveries[i]
			start := d.clock.Now()
			if err := d.transport.SendMessage(ctx, dl.Message.GroupID, dl.Message.Text); err != nil {
				dl.Err = &domain.DispatchError{GroupID: dl.Message.GroupID, Err: err}
				d.logger.Warn("send to group failed", "group_id", dl.Message.GroupID, "error", err)
			} else {
				d.logger.Info("digest sent", "group_id", dl.Message.GroupID, "outages", len(dl.Message.Included))
			}
			dl.Duration = d.clock.Since(start)
			return nil
		})
	}
	_ = g.Wait()
	return deliveries
}

// RecordHistory appends a notification for every sent delivery and returns
// how many were written. Write failures are logged and skipped so one bad
// row does not hide the others.
func (d *Dispatcher) RecordHistory(ctx context.Context, eventID string, deliveries []Delivery) int {
	written := 0
	for _, dl := range deliveries {
		if !dl.Sent() {
			continue
		}
		_, err := d.history.RecordNotification(ctx, domain.Notification{
			EventType: domain.EventTypeOutage,
			EventID:   eventID,
			GroupID:   dl.Message.GroupID,
			Message:   dl.Message.Text,
			SentAt:    d.clock.Now().UTC(),
		})
		if err != nil {
			d.logger.Error("record notification failed", "group_id", dl.Message.GroupID, "event_id", eventID, "error", err)
			continue
		}
		written++
	}
	return written
}

// NotifiedIDs returns the outages rendered in at least one sent message,
// in first-seen order.
func NotifiedIDs(deliveries []Delivery) []int64 {
	seen := make(map[int64]bool)
	var ids []int64
	for _, dl := range deliveries {
		if !dl.Sent() {
			continue
		}
		for _, id := range dl.Message.Included {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}
