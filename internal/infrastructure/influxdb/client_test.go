package influxdb

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/nerrad567/landarea-core/internal/infrastructure/config"
)

// testConfig returns a configuration for a local development InfluxDB.
func testConfig() config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           "http://127.0.0.1:8086",
		Token:         "landarea-dev-token",
		Org:           "landarea",
		Bucket:        "metrics",
		BatchSize:     100,
		FlushInterval: 1,
	}
}

// connectOrSkip connects to the local InfluxDB, skipping the test when it
// is not running unless RUN_INTEGRATION is set.
func connectOrSkip(t *testing.T) *Client {
	t.Helper()

	client, err := Connect(testConfig())
	if err != nil {
		if os.Getenv("RUN_INTEGRATION") == "" {
			t.Skip("InfluxDB not available, skipping integration test")
		}
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false

	if _, err := Connect(cfg); !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	cfg := testConfig()
	cfg.URL = "http://127.0.0.1:59999"

	if _, err := Connect(cfg); !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestClose_Nil(t *testing.T) {
	c := &Client{}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on zero client error = %v", err)
	}
}

func TestDisconnectedClient_NoOps(t *testing.T) {
	c := &Client{}

	// None of these may panic on a client that never connected.
	c.RecordConversion("http", "acre", "sqft", "standard", true)
	c.Flush()

	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

func TestConversionPoint(t *testing.T) {
	ts := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	p := conversionPoint("mqtt", "katha", "sqmeter", "banka_bihar", false, ts)

	if p.Name() != "conversions" {
		t.Errorf("Name() = %q, want conversions", p.Name())
	}
	if !p.Time().Equal(ts) {
		t.Errorf("Time() = %v, want %v", p.Time(), ts)
	}

	tags := make(map[string]string)
	for _, tag := range p.TagList() {
		tags[tag.Key] = tag.Value
	}
	want := map[string]string{"surface": "mqtt", "from": "katha", "to": "sqmeter", "region": "banka_bihar"}
	for k, v := range want {
		if tags[k] != v {
			t.Errorf("tag %s = %q, want %q", k, tags[k], v)
		}
	}

	fields := make(map[string]interface{})
	for _, f := range p.FieldList() {
		fields[f.Key] = f.Value
	}
	if fields["count"] != int64(1) {
		t.Errorf("count = %v, want 1", fields["count"])
	}
	if fields["valid"] != false {
		t.Errorf("valid = %v, want false", fields["valid"])
	}
}

func TestIntegration_RecordConversion(t *testing.T) {
	client := connectOrSkip(t)

	writeErrs := make(chan error, 1)
	client.SetOnError(func(err error) {
		select {
		case writeErrs <- err:
		default:
		}
	})

	client.RecordConversion("http", "acre", "sqft", "standard", true)
	client.Flush()

	select {
	case err := <-writeErrs:
		t.Errorf("async write error = %v", err)
	default:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}
