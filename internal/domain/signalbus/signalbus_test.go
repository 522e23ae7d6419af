package signalbus

import (
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestPublishDeliversToSubscriber(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := New()
	ch, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	bus.PublishInboxMessageCreated(InboxMessageCreated{MessageID: "msg-1"})

	select {
	case ev := <-ch:
		if ev.InboxMessageCreated == nil || ev.InboxMessageCreated.MessageID != "msg-1" {
			t.Errorf("unexpected event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestPublishWithNoSubscribersDoesNotBlock(t *testing.T) {
	bus := New()
	bus.PublishContentBlockCreated(ContentBlockCreated{BlockID: "b1"})
}

func TestPublishDropsWhenSubscriberBufferFull(t *testing.T) {
	bus := New()
	ch, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	for i := 0; i < capacity+10; i++ {
		bus.PublishSubscriptionCreated(SubscriptionCreated{SubscriptionID: "s"})
	}

	count := 0
	for {
		select {
		case <-ch:
			count++
		default:
			if count != capacity {
				t.Errorf("count = %d, want %d (excess publishes must be dropped)", count, capacity)
			}
			return
		}
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := New()
	ch, unsubscribe := bus.Subscribe()
	unsubscribe()

	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed after unsubscribe")
	}
}
