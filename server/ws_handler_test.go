package server

import (
	"encoding/json"
	"testing"
	"time"
)

func TestHubBroadcastReachesClients(t *testing.T) {
	hub := NewStationHub()
	go hub.Run()

	client := &wsClient{hub: hub, send: make(chan []byte, 4)}
	hub.register <- client

	hub.BroadcastEvent("now_playing", map[string]string{"title": "Ode", "artist": "Joy"})

	select {
	case payload := <-client.send:
		var event WSEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		if event.Type != "now_playing" {
			t.Errorf("event type = %q, want now_playing", event.Type)
		}
		if event.Timestamp == 0 {
			t.Error("event timestamp missing")
		}
		data, ok := event.Data.(map[string]interface{})
		if !ok || data["title"] != "Ode" {
			t.Errorf("event data = %v, want title Ode", event.Data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event delivered to client")
	}

	hub.unregister <- client
	select {
	case _, open := <-client.send:
		if open {
			t.Error("send channel still open after unregister")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("send channel not closed after unregister")
	}
}

func TestHubListenerCount(t *testing.T) {
	hub := NewStationHub()
	go hub.Run()

	first := &wsClient{hub: hub, send: make(chan []byte, 1)}
	second := &wsClient{hub: hub, send: make(chan []byte, 1)}
	hub.register <- first
	hub.register <- second

	waitFor(t, func() bool { return hub.ListenerCount() == 2 })

	hub.unregister <- first
	waitFor(t, func() bool { return hub.ListenerCount() == 1 })
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
