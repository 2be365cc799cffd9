package bus

import (
	"testing"
	"time"

	"github.com/swytch/backend/internal/domain"
	"github.com/swytch/backend/internal/platform/logger"
)

func TestPublishSubscribe(t *testing.T) {
	t.Run("subscriber receives published events in order", func(t *testing.T) {
		b := New(logger.NewNop())
		ch, cancel := b.Subscribe()
		defer cancel()

		b.Publish(domain.Event{Type: domain.EventAnalysisStarted})
		b.Publish(domain.Event{Type: domain.EventAnalysisComplete})

		first := <-ch
		second := <-ch
		if first.Type != domain.EventAnalysisStarted || second.Type != domain.EventAnalysisComplete {
			t.Errorf("unexpected order: %s, %s", first.Type, second.Type)
		}
	})

	t.Run("all subscribers receive the event", func(t *testing.T) {
		b := New(logger.NewNop())
		ch1, cancel1 := b.Subscribe()
		defer cancel1()
		ch2, cancel2 := b.Subscribe()
		defer cancel2()

		b.Publish(domain.Event{Type: domain.EventAnalysisProgress})

		if evt := <-ch1; evt.Type != domain.EventAnalysisProgress {
			t.Errorf("subscriber 1 got %s", evt.Type)
		}
		if evt := <-ch2; evt.Type != domain.EventAnalysisProgress {
			t.Errorf("subscriber 2 got %s", evt.Type)
		}
	})

	t.Run("cancelled subscriber stops receiving", func(t *testing.T) {
		b := New(logger.NewNop())
		ch, cancel := b.Subscribe()
		cancel()

		b.Publish(domain.Event{Type: domain.EventAnalysisStarted})

		if _, ok := <-ch; ok {
			t.Error("expected closed channel after cancel")
		}
		if b.SubscriberCount() != 0 {
			t.Errorf("expected 0 subscribers, got %d", b.SubscriberCount())
		}
	})

	t.Run("cancel is safe to call twice", func(t *testing.T) {
		b := New(logger.NewNop())
		_, cancel := b.Subscribe()
		cancel()
		cancel()
	})

	t.Run("slow subscriber misses events instead of blocking", func(t *testing.T) {
		b := New(logger.NewNop())
		_, cancel := b.Subscribe() // never drained
		defer cancel()

		done := make(chan struct{})
		go func() {
			for i := 0; i < subscriberBuffer*3; i++ {
				b.Publish(domain.Event{Type: domain.EventAnalysisProgress})
			}
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("publisher blocked on a full subscriber")
		}
	})

	t.Run("publish with no subscribers is a no-op", func(t *testing.T) {
		b := New(logger.NewNop())
		b.Publish(domain.Event{Type: domain.EventAnalysisError})
	})
}
