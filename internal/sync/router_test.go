package sync

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/ccellsty/oryxchatfrfr/internal/realtime"
)

func TestRouterUnsubscribeStopsDispatchImmediately(t *testing.T) {
	channel := newMemChannel()
	router := NewRouter(channel)
	defer router.Close()

	ctx := context.Background()
	applied := 0
	cancel, err := router.Subscribe(ctx, "test", "t1", func(context.Context, realtime.Event) {
		applied++
	}, nil)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	ev := realtime.Event{Table: "x", Op: realtime.OpInsert, Row: json.RawMessage(`{}`)}
	if err := channel.Publish(ctx, "t1", ev); err != nil {
		t.Fatal(err)
	}
	if applied != 1 {
		t.Fatalf("expected 1 apply, got %d", applied)
	}

	cancel()
	if err := channel.Publish(ctx, "t1", ev); err != nil {
		t.Fatal(err)
	}
	if applied != 1 {
		t.Fatalf("apply ran after cancel, count %d", applied)
	}

	// Cancel twice is safe.
	cancel()
}

func TestRouterReconnectRunsRefreshes(t *testing.T) {
	channel := newMemChannel()
	router := NewRouter(channel)
	defer router.Close()

	ctx := context.Background()
	refreshed := map[string]int{}

	_, err := router.Subscribe(ctx, "a", "t1", func(context.Context, realtime.Event) {}, func(context.Context) error {
		refreshed["a"]++
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	cancelB, err := router.Subscribe(ctx, "b", "t2", func(context.Context, realtime.Event) {}, func(context.Context) error {
		refreshed["b"]++
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	channel.fireReconnect()
	if refreshed["a"] != 1 || refreshed["b"] != 1 {
		t.Fatalf("expected both refreshes to run, got %v", refreshed)
	}

	// Cancelled subscriptions no longer refresh.
	cancelB()
	channel.fireReconnect()
	if refreshed["a"] != 2 || refreshed["b"] != 1 {
		t.Fatalf("expected only live subscription refreshed, got %v", refreshed)
	}
}

func TestRouterClosedRouterStopsReconnectHandling(t *testing.T) {
	channel := newMemChannel()
	router := NewRouter(channel)

	refreshed := 0
	_, err := router.Subscribe(context.Background(), "a", "t1", func(context.Context, realtime.Event) {}, func(context.Context) error {
		refreshed++
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	router.Close()
	channel.fireReconnect()
	if refreshed != 0 {
		t.Fatalf("closed router must ignore reconnects, got %d refreshes", refreshed)
	}
}
