// Package signalbus implements the process-wide best-effort event
// broadcaster (spec.md §4.10): a single publisher and many independent
// cooperative receivers, replacing a listener-registry pattern. Hook
// handlers run independently of ingest and never alter request outcomes.
package signalbus

import "sync"

// capacity is the fixed buffer size for every subscriber channel
// (spec.md §4.10).
const capacity = 100

// ContentBlockCreated is published when a TAXII 1.x content block is
// ingested into one or more collections.
type ContentBlockCreated struct {
	BlockID       string
	CollectionIDs []string
	ServiceID     string
}

// InboxMessageCreated is published when a TAXII 1.x inbox message is
// received.
type InboxMessageCreated struct {
	MessageID string
	ServiceID string
}

// SubscriptionCreated is published when a TAXII 1.x subscription is
// created.
type SubscriptionCreated struct {
	SubscriptionID string
	CollectionName string
}

// Event is the union of everything the bus can publish.
type Event struct {
	ContentBlockCreated *ContentBlockCreated
	InboxMessageCreated *InboxMessageCreated
	SubscriptionCreated *SubscriptionCreated
}

// Bus is a multi-producer, multi-consumer broadcaster. The zero value is not
// usable; construct with New.
type Bus struct {
	mu          sync.Mutex
	subscribers map[chan Event]struct{}
}

// New constructs an empty bus.
func New() *Bus {
	return &Bus{subscribers: make(map[chan Event]struct{})}
}

// Subscribe returns a receive channel and an unsubscribe function.
// Subscribers are expected to be obtained at router-construction time
// (spec.md §4.10), not per-request.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, capacity)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subscribers[ch]; ok {
			delete(b.subscribers, ch)
			close(ch)
		}
	}
	return ch, unsubscribe
}

// Publish broadcasts ev to every current subscriber. Sends are best-effort:
// a subscriber with a full buffer (lagging) simply misses the event.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

// PublishContentBlockCreated is a convenience wrapper over Publish.
func (b *Bus) PublishContentBlockCreated(e ContentBlockCreated) {
	b.Publish(Event{ContentBlockCreated: &e})
}

// PublishInboxMessageCreated is a convenience wrapper over Publish.
func (b *Bus) PublishInboxMessageCreated(e InboxMessageCreated) {
	b.Publish(Event{InboxMessageCreated: &e})
}

// PublishSubscriptionCreated is a convenience wrapper over Publish.
func (b *Bus) PublishSubscriptionCreated(e SubscriptionCreated) {
	b.Publish(Event{SubscriptionCreated: &e})
}
