// Package broadcast fans ticket status changes out to live subscribers.
package broadcast

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/yfuks/avahost-tech-test/internal/domain"
)

// subscriberBufferSize is the channel buffer for each subscriber.
const subscriberBufferSize = 64

// subscription is one listener. done is closed together with ch and stops
// the goroutine watching the subscriber's context.
type subscription struct {
	ch   chan domain.Ticket
	done chan struct{}
}

func (s subscription) close() {
	close(s.ch)
	close(s.done)
}

// TicketBroadcaster is an in-memory pub/sub keyed by ticket id. Every
// subscriber of a ticket receives one snapshot per publish.
type TicketBroadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]map[string]subscription // ticketID -> subID -> sub
	closed      bool
	logger      *slog.Logger
}

// New creates a broadcaster. Pass nil logger for default.
func New(logger *slog.Logger) *TicketBroadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &TicketBroadcaster{
		subscribers: make(map[string]map[string]subscription),
		logger:      logger.With("component", "broadcaster"),
	}
}

// Subscribe registers a listener for ticketID. The subscription is removed
// and its channel closed when ctx is cancelled or on Unsubscribe. After
// Close the returned channel is already closed.
func (b *TicketBroadcaster) Subscribe(ctx context.Context, ticketID string) (<-chan domain.Ticket, string) {
	subID := uuid.New().String()
	sub := subscription{
		ch:   make(chan domain.Ticket, subscriberBufferSize),
		done: make(chan struct{}),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		sub.close()
		return sub.ch, subID
	}
	if _, ok := b.subscribers[ticketID]; !ok {
		b.subscribers[ticketID] = make(map[string]subscription)
	}
	b.subscribers[ticketID][subID] = sub
	b.mu.Unlock()

	b.logger.Debug("subscriber added", "ticket_id", ticketID, "sub_id", subID)

	go func() {
		select {
		case <-ctx.Done():
			b.Unsubscribe(ticketID, subID)
		case <-sub.done:
		}
	}()

	return sub.ch, subID
}

// Publish delivers a snapshot of ticket to every subscriber of its id.
// Subscribers whose buffer is full miss this snapshot.
func (b *TicketBroadcaster) Publish(ticket domain.Ticket) {
	// Sends happen under the read lock so Unsubscribe cannot close a
	// channel mid-send; they never block.
	b.mu.RLock()
	defer b.mu.RUnlock()

	subs := b.subscribers[ticket.ID]
	for subID, sub := range subs {
		select {
		case sub.ch <- ticket:
		default:
			b.logger.Warn("dropped ticket update for slow subscriber",
				"ticket_id", ticket.ID,
				"sub_id", subID)
		}
	}
}

// Unsubscribe removes a subscription and closes its channel. Tickets with
// no remaining subscribers are forgotten.
func (b *TicketBroadcaster) Unsubscribe(ticketID, subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.subscribers[ticketID]
	if !ok {
		return
	}
	sub, exists := subs[subID]
	if !exists {
		return
	}

	delete(subs, subID)
	sub.close()
	if len(subs) == 0 {
		delete(b.subscribers, ticketID)
	}

	b.logger.Debug("subscriber removed", "ticket_id", ticketID, "sub_id", subID)
}

// SubscriberCount returns the number of live subscriptions for ticketID.
func (b *TicketBroadcaster) SubscriberCount(ticketID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[ticketID])
}

// Close closes every subscriber channel. Later subscriptions are closed
// immediately and later publishes are no-ops.
func (b *TicketBroadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ticketID, subs := range b.subscribers {
		for subID, sub := range subs {
			sub.close()
			delete(subs, subID)
		}
		delete(b.subscribers, ticketID)
	}
	b.closed = true

	b.logger.Debug("broadcaster closed")
}
