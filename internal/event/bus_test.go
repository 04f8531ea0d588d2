package event

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	b := NewBus()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := b.Subscribe(ctx, SessionCreated)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	b.Publish(SessionCreated, SessionCreatedData{Game: "suspended", SessionID: "deadbeefdeadbeef"})

	select {
	case ev := <-events:
		if ev.Type != SessionCreated {
			t.Errorf("event type = %q, want %q", ev.Type, SessionCreated)
		}
		var data SessionCreatedData
		if err := json.Unmarshal(ev.Data, &data); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		if data.Game != "suspended" || data.SessionID != "deadbeefdeadbeef" {
			t.Errorf("unexpected payload: %+v", data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event never delivered")
	}
}

func TestBus_TopicsAreIsolated(t *testing.T) {
	b := NewBus()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	swept, err := b.Subscribe(ctx, SessionSwept)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	b.Publish(SessionCommand, SessionCommandData{Game: "zork1", SessionID: "x", Command: "look"})
	b.Publish(SessionSwept, SessionSweptData{Removed: 3})

	select {
	case ev := <-swept:
		var data SessionSweptData
		if err := json.Unmarshal(ev.Data, &data); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		if data.Removed != 3 {
			t.Errorf("sweep payload = %+v, crossed topics?", data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event never delivered")
	}
}

func TestBus_SubscriberClosesOnCancel(t *testing.T) {
	b := NewBus()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	events, err := b.Subscribe(ctx, SessionCreated)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	cancel()

	select {
	case _, open := <-events:
		if open {
			t.Error("received event after cancel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber channel never closed")
	}
}

func TestPublish_GlobalBusNeverPanics(t *testing.T) {
	Reset()
	defer Reset()

	// No subscribers; publishing must be a no-op, not a hang or panic.
	Publish(EnhanceSubstituted, EnhanceSubstitutedData{Robot: "WALDO", Command: "waldo, report"})
}
