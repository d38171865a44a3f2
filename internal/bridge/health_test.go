package bridge

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestHealthReporter_Status(t *testing.T) {
	client := newMockMQTT()
	h := NewHealthReporter(HealthReporterConfig{
		InstanceID: "landarea-test",
		Version:    "1.2.3",
		Encoding:   EncodingMsgpack,
		Publisher:  client,
		Stats:      func() (uint64, uint64) { return 5, 2 },
		Source:     func() string { return "database" },
	})

	if err := h.PublishNow(); err != nil {
		t.Fatalf("PublishNow() error = %v", err)
	}

	msg, ok := client.last("landarea/health/converter")
	if !ok {
		t.Fatal("no health message")
	}
	var got HealthMessage
	if err := json.Unmarshal(msg.payload, &got); err != nil {
		t.Fatalf("health payload not JSON: %v", err)
	}
	if got.Status != HealthHealthy || got.Served != 5 || got.Rejected != 2 ||
		got.CatalogSource != "database" || got.Encoding != EncodingMsgpack || got.Version != "1.2.3" {
		t.Errorf("health = %+v", got)
	}
}

func TestHealthReporter_DegradedWhenDisconnected(t *testing.T) {
	client := newMockMQTT()
	client.connected = false
	h := NewHealthReporter(HealthReporterConfig{Publisher: client})

	status, reason := h.determineStatus()
	if status != HealthDegraded || reason == "" {
		t.Errorf("determineStatus() = %q, %q, want degraded with reason", status, reason)
	}
}

func TestHealthReporter_PeriodicAndStop(t *testing.T) {
	client := newMockMQTT()
	h := NewHealthReporter(HealthReporterConfig{
		Publisher: client,
		Interval:  5 * time.Millisecond,
	})

	h.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	h.Stop()
	h.Stop() // second call is a no-op

	client.mu.Lock()
	count := len(client.messages)
	client.mu.Unlock()
	if count < 3 {
		t.Errorf("published %d health messages, want at least 3", count)
	}
}

func TestHealthReporter_NilPublisher(t *testing.T) {
	h := NewHealthReporter(HealthReporterConfig{})
	if err := h.PublishNow(); err != nil {
		t.Errorf("PublishNow() without publisher error = %v", err)
	}
}

func TestHealthReporter_StopWithoutStart(t *testing.T) {
	client := newMockMQTT()
	h := NewHealthReporter(HealthReporterConfig{Publisher: client, Interval: time.Millisecond})

	h.Stop()
	h.Start(context.Background()) // ignored after Stop

	time.Sleep(10 * time.Millisecond)
	client.mu.Lock()
	count := len(client.messages)
	client.mu.Unlock()
	if count != 1 {
		t.Fatalf("published %d messages, want only the stopping status", count)
	}

	msg, _ := client.last("landarea/health/converter")
	var got HealthMessage
	if err := json.Unmarshal(msg.payload, &got); err != nil {
		t.Fatalf("health payload not JSON: %v", err)
	}
	if got.Status != HealthStopping {
		t.Errorf("status = %q, want %q", got.Status, HealthStopping)
	}
}
