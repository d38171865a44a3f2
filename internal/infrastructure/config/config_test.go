package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
service:
  id: "test-instance"
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  enabled: true
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
  encoding: msgpack
api:
  host: "0.0.0.0"
  port: 8080
sessions:
  idle_ttl: 600
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Service.ID != "test-instance" {
		t.Errorf("Service.ID = %q, want %q", cfg.Service.ID, "test-instance")
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}
	if !cfg.MQTT.Enabled || cfg.MQTT.Encoding != EncodingMsgpack {
		t.Errorf("MQTT = %+v, want enabled with msgpack", cfg.MQTT)
	}
	if cfg.GetSessionTTL() != 10*time.Minute {
		t.Errorf("GetSessionTTL() = %v, want 10m", cfg.GetSessionTTL())
	}
	// Unset sections keep their defaults.
	if cfg.Sessions.SweepInterval != 60 {
		t.Errorf("Sessions.SweepInterval = %d, want default 60", cfg.Sessions.SweepInterval)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/config.yaml"); err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "invalid: [yaml: content")

	if _, err := Load(path); err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
service:
  id: ""
`)

	if _, err := Load(path); err == nil {
		t.Error("Load() expected validation error for empty service.id, got nil")
	}
}

func TestDefault(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if cfg.MQTT.Enabled {
		t.Error("MQTT should be disabled by default")
	}
	if !cfg.Catalog.UseDatabase {
		t.Error("Catalog.UseDatabase should default to true")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"missing service ID", func(c *Config) { c.Service.ID = "" }, true},
		{"missing database path", func(c *Config) { c.Database.Path = "" }, true},
		{"invalid QoS", func(c *Config) { c.MQTT.QoS = 3 }, true},
		{"unknown encoding", func(c *Config) { c.MQTT.Encoding = "cbor" }, true},
		{"msgpack encoding", func(c *Config) { c.MQTT.Encoding = EncodingMsgpack }, false},
		{"invalid port low", func(c *Config) { c.API.Port = 0 }, true},
		{"invalid port high", func(c *Config) { c.API.Port = 70000 }, true},
		{"tls without cert", func(c *Config) { c.API.TLS.Enabled = true }, true},
		{"influx without url", func(c *Config) { c.InfluxDB.Enabled = true }, true},
		{
			"influx complete",
			func(c *Config) {
				c.InfluxDB.Enabled = true
				c.InfluxDB.URL = "http://localhost:8086"
				c.InfluxDB.Bucket = "landarea"
			},
			false,
		},
		{"zero ping interval", func(c *Config) { c.WebSocket.PingInterval = 0 }, true},
		{"zero pong timeout", func(c *Config) { c.WebSocket.PongTimeout = 0 }, true},
		{"negative max message size", func(c *Config) { c.WebSocket.MaxMessageSize = -1 }, true},
		{"unlimited message size", func(c *Config) { c.WebSocket.MaxMessageSize = 0 }, false},
		{"zero session ttl", func(c *Config) { c.Sessions.IdleTTL = 0 }, true},
		{"zero sweep interval", func(c *Config) { c.Sessions.SweepInterval = 0 }, true},
		{"negative max sessions", func(c *Config) { c.Sessions.MaxSessions = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Durations(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{PingInterval: 20, PongTimeout: 5},
		Sessions:  SessionsConfig{SweepInterval: 15},
	}

	tests := []struct {
		name string
		got  time.Duration
		want time.Duration
	}{
		{"ReadTimeout", cfg.API.Timeouts.ReadTimeout(), 30 * time.Second},
		{"WriteTimeout", cfg.API.Timeouts.WriteTimeout(), 45 * time.Second},
		{"IdleTimeout", cfg.API.Timeouts.IdleTimeout(), time.Minute},
		{"PingPeriod", cfg.WebSocket.PingPeriod(), 20 * time.Second},
		{"PongWait", cfg.WebSocket.PongWait(), 5 * time.Second},
		{"GetSweepInterval", cfg.GetSweepInterval(), 15 * time.Second},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s() = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestLoad_ZeroPingIntervalRejected(t *testing.T) {
	path := writeConfig(t, `
websocket:
  ping_interval: 0
`)

	if _, err := Load(path); err == nil {
		t.Error("Load() expected validation error for websocket.ping_interval 0, got nil")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("LANDAREA_DATABASE_PATH", "/custom/path.db")
	t.Setenv("LANDAREA_MQTT_ENABLED", "true")
	t.Setenv("LANDAREA_CATALOG_USE_DATABASE", "false")
	t.Setenv("LANDAREA_MQTT_HOST", "mqtt.example.com")
	t.Setenv("LANDAREA_MQTT_PORT", "8883")
	t.Setenv("LANDAREA_MQTT_USERNAME", "testuser")
	t.Setenv("LANDAREA_MQTT_PASSWORD", "testpass")
	t.Setenv("LANDAREA_MQTT_ENCODING", "msgpack")
	t.Setenv("LANDAREA_API_HOST", "192.168.1.1")
	t.Setenv("LANDAREA_API_PORT", "9090")
	t.Setenv("LANDAREA_INFLUXDB_ENABLED", "1")
	t.Setenv("LANDAREA_INFLUXDB_URL", "http://influx:8086")
	t.Setenv("LANDAREA_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("LANDAREA_LOGGING_LEVEL", "debug")

	applyEnvOverrides(cfg)

	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}
	if !cfg.MQTT.Enabled {
		t.Error("MQTT.Enabled = false, want true")
	}
	if cfg.Catalog.UseDatabase {
		t.Error("Catalog.UseDatabase = true, want false")
	}
	if cfg.MQTT.Broker.Host != "mqtt.example.com" || cfg.MQTT.Broker.Port != 8883 {
		t.Errorf("MQTT.Broker = %s:%d, want mqtt.example.com:8883", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port)
	}
	if cfg.MQTT.Auth.Username != "testuser" || cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth = %+v, want testuser/testpass", cfg.MQTT.Auth)
	}
	if cfg.MQTT.Encoding != EncodingMsgpack {
		t.Errorf("MQTT.Encoding = %q, want %q", cfg.MQTT.Encoding, EncodingMsgpack)
	}
	if cfg.API.Host != "192.168.1.1" || cfg.API.Port != 9090 {
		t.Errorf("API = %s:%d, want 192.168.1.1:9090", cfg.API.Host, cfg.API.Port)
	}
	if !cfg.InfluxDB.Enabled || cfg.InfluxDB.URL != "http://influx:8086" || cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB = %+v, want enabled with url and token", cfg.InfluxDB)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestApplyEnvOverrides_IgnoresMalformed(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("LANDAREA_API_PORT", "eighty")
	t.Setenv("LANDAREA_MQTT_ENABLED", "perhaps")

	applyEnvOverrides(cfg)

	if cfg.API.Port != 8080 {
		t.Errorf("API.Port = %d, want unchanged 8080", cfg.API.Port)
	}
	if cfg.MQTT.Enabled {
		t.Error("MQTT.Enabled changed by malformed value")
	}
}
