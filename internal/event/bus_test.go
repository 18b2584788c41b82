package event

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestNewBus(t *testing.T) {
	bus := NewBus()
	if bus == nil {
		t.Fatal("NewBus() returned nil")
	}
	if bus.IsClosed() {
		t.Error("new bus should not be closed")
	}
}

func TestBus_Subscribe_NilHandler(t *testing.T) {
	bus := NewBus()
	if _, err := bus.Subscribe("test.event", nil); err != ErrNilHandler {
		t.Errorf("expected ErrNilHandler, got %v", err)
	}
}

func TestBus_Subscribe_EmptyPattern(t *testing.T) {
	bus := NewBus()
	_, err := bus.Subscribe("", func(ctx context.Context, evt Event) {})
	if err != ErrInvalidPattern {
		t.Errorf("expected ErrInvalidPattern, got %v", err)
	}
}

func TestBus_Publish(t *testing.T) {
	bus := NewBus(WithSource("test"))

	var got []Event
	_, err := bus.Subscribe("test.event", func(ctx context.Context, evt Event) {
		got = append(got, evt)
	})
	if err != nil {
		t.Fatalf("Subscribe() failed: %v", err)
	}

	evt, err := bus.Publish(context.Background(), "test.event", "payload")
	if err != nil {
		t.Fatalf("Publish() failed: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(got))
	}
	if got[0].Metadata.ID != evt.Metadata.ID {
		t.Error("delivered event differs from returned event")
	}
	if got[0].Payload != "payload" {
		t.Errorf("payload = %v, want payload", got[0].Payload)
	}
	if evt.Metadata.Source != "test" {
		t.Errorf("source = %q, want test", evt.Metadata.Source)
	}
}

func TestBus_PublishInvalidEvent(t *testing.T) {
	bus := NewBus()
	if _, err := bus.Publish(context.Background(), "", nil); err != ErrInvalidEvent {
		t.Errorf("expected ErrInvalidEvent, got %v", err)
	}
}

func TestBus_PatternMatching(t *testing.T) {
	tests := []struct {
		pattern string
		typ     Type
		want    bool
	}{
		{"*", "anything", true},
		{"todo.*", "todo.added", true},
		{"todo.*", "todo.a.b", true},
		{"todo.*", "counter.inc", false},
		{"*.changed", "config.changed", true},
		{"todo.?dded", "todo.added", true},
		{"todo.added", "todo.added", true},
		{"todo.added", "todo.removed", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"/"+string(tt.typ), func(t *testing.T) {
			bus := NewBus()
			called := false
			bus.Subscribe(tt.pattern, func(ctx context.Context, evt Event) {
				called = true
			})
			bus.Publish(context.Background(), tt.typ, nil)
			if called != tt.want {
				t.Errorf("pattern %q on %q: called = %v, want %v", tt.pattern, tt.typ, called, tt.want)
			}
		})
	}
}

func TestBus_DeliveryOrder(t *testing.T) {
	bus := NewBus()
	var order []int

	for i := 1; i <= 3; i++ {
		n := i
		bus.Subscribe("*", func(ctx context.Context, evt Event) {
			order = append(order, n)
		})
	}

	bus.Publish(context.Background(), "x", nil)

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("order = %v, want [1 2 3]", order)
	}
}

func TestBus_Cancel(t *testing.T) {
	bus := NewBus()
	calls := 0
	sub, _ := bus.Subscribe("*", func(ctx context.Context, evt Event) {
		calls++
	})

	sub.Cancel()
	sub.Cancel()

	if sub.IsActive() {
		t.Error("expected subscription to be inactive after Cancel()")
	}
	bus.Publish(context.Background(), "x", nil)
	if calls != 0 {
		t.Errorf("cancelled subscription received %d events", calls)
	}
	if n := bus.Stats().ActiveSubscribers; n != 0 {
		t.Errorf("ActiveSubscribers = %d, want 0", n)
	}
}

func TestBus_CancelDuringPublish(t *testing.T) {
	bus := NewBus()
	var second *Subscription
	secondCalls := 0

	bus.Subscribe("*", func(ctx context.Context, evt Event) {
		second.Cancel()
	})
	second, _ = bus.Subscribe("*", func(ctx context.Context, evt Event) {
		secondCalls++
	})

	bus.Publish(context.Background(), "x", nil)
	if secondCalls != 0 {
		t.Errorf("subscription cancelled mid-publish was still called %d times", secondCalls)
	}
}

func TestBus_Once(t *testing.T) {
	bus := NewBus()
	calls := 0
	sub, _ := bus.Subscribe("*", func(ctx context.Context, evt Event) {
		calls++
	}, WithOnce())

	bus.Publish(context.Background(), "a", nil)
	bus.Publish(context.Background(), "b", nil)

	if calls != 1 {
		t.Errorf("once subscription called %d times, want 1", calls)
	}
	if sub.IsActive() {
		t.Error("once subscription should be cancelled after delivery")
	}
}

func TestBus_OnceConcurrentPublish(t *testing.T) {
	for i := 0; i < 50; i++ {
		bus := NewBus()
		var calls atomic.Int32
		bus.Subscribe("*", func(ctx context.Context, evt Event) {
			calls.Add(1)
		}, WithOnce())
		ch, _ := bus.SubscribeChan("*", 16, WithOnce())

		start := make(chan struct{})
		var wg sync.WaitGroup
		for j := 0; j < 8; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				bus.Publish(context.Background(), "x", nil)
			}()
		}
		close(start)
		wg.Wait()

		if n := calls.Load(); n != 1 {
			t.Fatalf("once handler called %d times, want 1", n)
		}
		received := 0
		for range ch.C() {
			received++
		}
		if received != 1 {
			t.Fatalf("once channel received %d events, want 1", received)
		}
		if n := bus.Stats().ActiveSubscribers; n != 0 {
			t.Fatalf("ActiveSubscribers = %d, want 0", n)
		}
	}
}

func TestBus_Filter(t *testing.T) {
	bus := NewBus()
	var got []any
	bus.Subscribe("*", func(ctx context.Context, evt Event) {
		got = append(got, evt.Payload)
	}, WithFilter(func(evt Event) bool {
		n, ok := evt.Payload.(int)
		return ok && n%2 == 0
	}))

	for i := 0; i < 5; i++ {
		bus.Publish(context.Background(), "n", i)
	}

	if len(got) != 3 {
		t.Errorf("filtered deliveries = %v, want [0 2 4]", got)
	}
}

func TestBus_SubscribeChan(t *testing.T) {
	bus := NewBus()
	sub, err := bus.SubscribeChan("*", 1)
	if err != nil {
		t.Fatalf("SubscribeChan() failed: %v", err)
	}

	bus.Publish(context.Background(), "first", nil)
	bus.Publish(context.Background(), "second", nil)

	evt := <-sub.C()
	if evt.Type != "first" {
		t.Errorf("received %q, want first", evt.Type)
	}

	stats := bus.Stats()
	if stats.EventsDropped != 1 {
		t.Errorf("EventsDropped = %d, want 1", stats.EventsDropped)
	}
	if stats.EventsDelivered != 1 {
		t.Errorf("EventsDelivered = %d, want 1", stats.EventsDelivered)
	}

	sub.Cancel()
	if _, ok := <-sub.C(); ok {
		t.Error("channel should be closed after Cancel()")
	}
}

func TestBus_PanicRecovery(t *testing.T) {
	var reported *PanicError
	bus := NewBus(WithPanicHandler(func(evt Event, err *PanicError) {
		reported = err
	}))

	after := false
	bus.Subscribe("*", func(ctx context.Context, evt Event) {
		panic("boom")
	})
	bus.Subscribe("*", func(ctx context.Context, evt Event) {
		after = true
	})

	if _, err := bus.Publish(context.Background(), "x", nil); err != nil {
		t.Fatalf("Publish() failed: %v", err)
	}

	if !after {
		t.Error("a panicking handler should not stop delivery")
	}
	if reported == nil {
		t.Fatal("panic handler was not called")
	}
	if !errors.Is(reported, ErrHandlerPanic) {
		t.Error("PanicError should match ErrHandlerPanic")
	}
	if reported.Value != "boom" {
		t.Errorf("panic value = %v, want boom", reported.Value)
	}
	if bus.Stats().HandlerPanics != 1 {
		t.Errorf("HandlerPanics = %d, want 1", bus.Stats().HandlerPanics)
	}
}

func TestBus_ContextCancelled(t *testing.T) {
	bus := NewBus()
	calls := 0
	bus.Subscribe("*", func(ctx context.Context, evt Event) {
		calls++
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := bus.Publish(ctx, "x", nil); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Errorf("handler called %d times with cancelled context", calls)
	}
}

func TestBus_Close(t *testing.T) {
	bus := NewBus()
	sub, _ := bus.SubscribeChan("*", 4)

	bus.Close()
	bus.Close()

	if sub.IsActive() {
		t.Error("subscriptions should be cancelled by Close()")
	}
	if _, err := bus.Publish(context.Background(), "x", nil); err != ErrBusClosed {
		t.Errorf("expected ErrBusClosed, got %v", err)
	}
	if _, err := bus.SubscribeChan("*", 1); err != ErrBusClosed {
		t.Errorf("expected ErrBusClosed, got %v", err)
	}
}

func TestBus_ConcurrentPublish(t *testing.T) {
	bus := NewBus()
	var mu sync.Mutex
	count := 0
	bus.Subscribe("*", func(ctx context.Context, evt Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				bus.Publish(context.Background(), "x", j)
			}
		}()
	}
	wg.Wait()

	if count != 1000 {
		t.Errorf("count = %d, want 1000", count)
	}
	if bus.Stats().EventsPublished != 1000 {
		t.Errorf("EventsPublished = %d, want 1000", bus.Stats().EventsPublished)
	}
}
