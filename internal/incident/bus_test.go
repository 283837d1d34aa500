package incident

import (
	"testing"
	"time"
)

func TestBus_PublishReachesSubscriber(t *testing.T) {
	bus := NewEventBus()
	ch := bus.Subscribe("a1")
	defer bus.Unsubscribe("a1", ch)

	event := &Event{AnalysisID: "a1", Type: "status", Data: "running"}
	bus.Publish("a1", event)

	select {
	case got := <-ch:
		if got.Data != "running" {
			t.Errorf("got event data %q, want %q", got.Data, "running")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBus_NoCrossTalk(t *testing.T) {
	bus := NewEventBus()
	ch := bus.Subscribe("a1")
	defer bus.Unsubscribe("a1", ch)

	bus.Publish("other", &Event{AnalysisID: "other", Type: "status", Data: "x"})

	select {
	case e := <-ch:
		t.Fatalf("received event for another analysis: %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBus_UnsubscribeClosesChannel(t *testing.T) {
	bus := NewEventBus()
	ch := bus.Subscribe("a1")
	bus.Unsubscribe("a1", ch)

	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed after Unsubscribe")
	}
}

func TestBus_SlowSubscriberDoesNotBlock(t *testing.T) {
	bus := NewEventBus()
	ch := bus.Subscribe("a1")
	defer bus.Unsubscribe("a1", ch)

	// Fill beyond the buffer; Publish must never block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			bus.Publish("a1", &Event{AnalysisID: "a1", Type: "output", Data: "line"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}
