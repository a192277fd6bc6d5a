package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/billtrust/sla-monitor-report-lambda/pkg/logger"
)

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, got %d", want, hub.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_PublishEventReachesClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(logger.New("error"))
	go hub.Run(ctx)

	client := &Client{hub: hub, send: make(chan Message, 4)}
	hub.Register(client)
	waitForClients(t, hub, 1)

	if err := hub.PublishEvent(ctx, "sla.report.published", map[string]string{"serviceName": "billing"}); err != nil {
		t.Fatalf("PublishEvent() error = %v", err)
	}

	select {
	case message := <-client.send:
		if message.Type != "sla.report.published" {
			t.Errorf("unexpected message type %s", message.Type)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("message was not delivered")
	}

	hub.Unregister(client)
	waitForClients(t, hub, 0)
	if _, ok := <-client.send; ok {
		t.Error("expected client channel to be closed after unregister")
	}
}

func TestHub_DisconnectsSlowClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(logger.New("error"))
	go hub.Run(ctx)

	slow := &Client{hub: hub, send: make(chan Message)}
	hub.Register(slow)
	waitForClients(t, hub, 1)

	_ = hub.PublishEvent(ctx, "sla.report.published", nil)
	waitForClients(t, hub, 0)
}

func TestHub_CloseStopsRun(t *testing.T) {
	hub := NewHub(logger.New("error"))
	stopped := make(chan struct{})
	go func() {
		hub.Run(context.Background())
		close(stopped)
	}()

	client := &Client{hub: hub, send: make(chan Message, 1)}
	hub.Register(client)
	waitForClients(t, hub, 1)

	if err := hub.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := hub.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after Close")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("expected clients to be disconnected, got %d", hub.ClientCount())
	}
}
