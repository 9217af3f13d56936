// Package notificationbus provides per-owner publish/subscribe fan-out of
// ledger notifications.
//
// Delivery is at-most-once and best-effort: only subscribers connected at
// publish time receive the event, there is no replay, and a subscriber that
// cannot keep up has events dropped rather than blocking the publisher.
package notificationbus

import (
	"context"
	"fmt"
	"sync"

	"github.com/ledgerbank/ledger-api/internal/domain"
)

// subscriberBuffer bounds how many undelivered notifications a single
// subscriber may queue before further events are dropped for it.
const subscriberBuffer = 32

// Subscriber is one connected client of an owner's topic.
type Subscriber struct {
	owner string
	ch    chan domain.Notification
}

// C returns the channel on which the subscriber receives notifications.
// The channel is closed on Unsubscribe.
func (s *Subscriber) C() <-chan domain.Notification {
	return s.ch
}

// Bus maintains the dynamic set of connected subscribers per owner.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]map[*Subscriber]struct{}
}

// New returns an empty Bus.
func New() *Bus {
	return &Bus{
		subs: make(map[string]map[*Subscriber]struct{}),
	}
}

// Subscribe joins the owner's topic and returns the new subscriber.
func (b *Bus) Subscribe(owner string) *Subscriber {
	sub := &Subscriber{
		owner: owner,
		ch:    make(chan domain.Notification, subscriberBuffer),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[owner] == nil {
		b.subs[owner] = make(map[*Subscriber]struct{})
	}

	b.subs[owner][sub] = struct{}{}

	return sub
}

// Unsubscribe leaves the topic and closes the subscriber's channel.
// It is idempotent with respect to repeated invocation.
func (b *Bus) Unsubscribe(sub *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	owned, ok := b.subs[sub.owner]
	if !ok {
		return
	}

	if _, ok := owned[sub]; !ok {
		return
	}

	delete(owned, sub)

	if len(owned) == 0 {
		delete(b.subs, sub.owner)
	}

	close(sub.ch)
}

// Publish delivers the notification to every subscriber currently connected
// to the owner's topic. It never blocks: subscribers with a full buffer are
// skipped.
//
// Sends happen under the read lock while Unsubscribe closes channels under
// the write lock, so a publish can never hit a closed channel.
func (b *Bus) Publish(owner string, n domain.Notification) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs[owner] {
		select {
		case sub.ch <- n:
		default:
		}
	}
}

// MovementCommitted implements the ledger notifier interface by turning the
// committed movement into a human-readable notification on the owner's topic.
func (b *Bus) MovementCommitted(_ context.Context, owner string, movement domain.Movement) {
	b.Publish(owner, NewMovementNotification(movement))
}

// NewMovementNotification formats a committed movement as a Notification.
func NewMovementNotification(m domain.Movement) domain.Notification {
	kind := domain.NotificationCredit
	sign := "+"

	if m.Kind == domain.Debit {
		kind = domain.NotificationDebit
		sign = "-"
	}

	return domain.Notification{
		Message:   fmt.Sprintf("%s: %s%s", m.Description, sign, m.Amount),
		Kind:      kind,
		Timestamp: m.CreatedAt,
	}
}
