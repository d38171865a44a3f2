package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is used when neither --config nor LANDAREA_CONFIG is set.
const DefaultPath = "configs/config.yaml"

// Payload encodings accepted by mqtt.encoding.
const (
	EncodingJSON    = "json"
	EncodingMsgpack = "msgpack"
)

// Config is the root configuration structure for Land Area Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Database  DatabaseConfig  `yaml:"database"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Sessions  SessionsConfig  `yaml:"sessions"`
	Logging   LoggingConfig   `yaml:"logging"`
	Panel     PanelConfig     `yaml:"panel"`
}

// ServiceConfig identifies this instance in logs, metrics and MQTT topics.
type ServiceConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// CatalogConfig controls where factor tables come from.
type CatalogConfig struct {
	// UseDatabase loads the tables seeded into SQLite. When false, or when
	// the store is empty, the built-in tables are used.
	UseDatabase bool `yaml:"use_database"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Encoding  string              `yaml:"encoding"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings, in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings, in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// SessionsConfig bounds the in-memory converter sessions.
type SessionsConfig struct {
	// IdleTTL is how long an untouched session survives, in seconds.
	IdleTTL int `yaml:"idle_ttl"`

	// SweepInterval is how often expired sessions are removed, in seconds.
	SweepInterval int `yaml:"sweep_interval"`

	// MaxSessions caps live sessions. 0 means unlimited.
	MaxSessions int `yaml:"max_sessions"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// PanelConfig controls the embedded web panel.
type PanelConfig struct {
	Enabled bool `yaml:"enabled"`

	// Dir serves panel files from disk instead of the embedded copy.
	Dir string `yaml:"dir"`
}

// Load reads the YAML file at path over the defaults, then applies
// LANDAREA_<SECTION>_<KEY> environment overrides and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return finish(cfg)
}

// Default returns the validated defaults with environment overrides
// applied, for running the CLI without a config file.
func Default() (*Config, error) {
	return finish(defaultConfig())
}

func finish(cfg *Config) (*Config, error) {
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			ID:   "landarea-001",
			Name: "Land Area Converter",
		},
		Database: DatabaseConfig{
			Path:        "./data/landarea.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Catalog: CatalogConfig{
			UseDatabase: true,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "landarea-core",
			},
			QoS:      1,
			Encoding: EncodingJSON,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Sessions: SessionsConfig{
			IdleTTL:       1800,
			SweepInterval: 60,
			MaxSessions:   10000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Panel: PanelConfig{
			Enabled: true,
		},
	}
}

// envPrefix namespaces every override variable.
const envPrefix = "LANDAREA_"

// envBinding maps one variable, named LANDAREA_<SECTION>_<KEY>, onto a
// config field.
type envBinding struct {
	key string
	set func(cfg *Config, raw string)
}

func stringVar(field func(*Config) *string) func(*Config, string) {
	return func(cfg *Config, raw string) {
		*field(cfg) = raw
	}
}

func intVar(field func(*Config) *int) func(*Config, string) {
	return func(cfg *Config, raw string) {
		n, err := strconv.Atoi(raw)
		if err == nil {
			*field(cfg) = n
		}
	}
}

func boolVar(field func(*Config) *bool) func(*Config, string) {
	return func(cfg *Config, raw string) {
		b, err := strconv.ParseBool(raw)
		if err == nil {
			*field(cfg) = b
		}
	}
}

var envBindings = []envBinding{
	{"DATABASE_PATH", stringVar(func(c *Config) *string { return &c.Database.Path })},
	{"CATALOG_USE_DATABASE", boolVar(func(c *Config) *bool { return &c.Catalog.UseDatabase })},

	{"MQTT_ENABLED", boolVar(func(c *Config) *bool { return &c.MQTT.Enabled })},
	{"MQTT_HOST", stringVar(func(c *Config) *string { return &c.MQTT.Broker.Host })},
	{"MQTT_PORT", intVar(func(c *Config) *int { return &c.MQTT.Broker.Port })},
	{"MQTT_USERNAME", stringVar(func(c *Config) *string { return &c.MQTT.Auth.Username })},
	{"MQTT_PASSWORD", stringVar(func(c *Config) *string { return &c.MQTT.Auth.Password })},
	{"MQTT_ENCODING", stringVar(func(c *Config) *string { return &c.MQTT.Encoding })},

	{"API_HOST", stringVar(func(c *Config) *string { return &c.API.Host })},
	{"API_PORT", intVar(func(c *Config) *int { return &c.API.Port })},

	{"INFLUXDB_ENABLED", boolVar(func(c *Config) *bool { return &c.InfluxDB.Enabled })},
	{"INFLUXDB_URL", stringVar(func(c *Config) *string { return &c.InfluxDB.URL })},
	{"INFLUXDB_TOKEN", stringVar(func(c *Config) *string { return &c.InfluxDB.Token })},

	{"LOGGING_LEVEL", stringVar(func(c *Config) *string { return &c.Logging.Level })},
}

// applyEnvOverrides copies set environment variables onto cfg. Empty and
// malformed values leave the field unchanged.
func applyEnvOverrides(cfg *Config) {
	for _, b := range envBindings {
		raw := os.Getenv(envPrefix + b.key)
		if raw == "" {
			continue
		}
		b.set(cfg, raw)
	}
}

// Validate checks the configuration for errors. Every problem found is
// reported, joined into one error.
func (c *Config) Validate() error {
	var problems []string
	check := func(ok bool, problem string) {
		if !ok {
			problems = append(problems, problem)
		}
	}

	check(c.Service.ID != "", "service.id is required")
	check(c.Database.Path != "", "database.path is required")

	check(c.MQTT.QoS >= 0 && c.MQTT.QoS <= 2, "mqtt.qos must be 0, 1, or 2")
	check(c.MQTT.Encoding == EncodingJSON || c.MQTT.Encoding == EncodingMsgpack,
		fmt.Sprintf("mqtt.encoding must be %q or %q", EncodingJSON, EncodingMsgpack))

	check(c.API.Port >= 1 && c.API.Port <= 65535, "api.port must be between 1 and 65535")
	check(!c.API.TLS.Enabled || (c.API.TLS.CertFile != "" && c.API.TLS.KeyFile != ""),
		"api.tls requires cert_file and key_file")

	check(!c.InfluxDB.Enabled || (c.InfluxDB.URL != "" && c.InfluxDB.Bucket != ""),
		"influxdb.url and influxdb.bucket are required when influxdb is enabled")

	check(c.WebSocket.PingInterval > 0, "websocket.ping_interval must be positive")
	check(c.WebSocket.PongTimeout > 0, "websocket.pong_timeout must be positive")
	check(c.WebSocket.MaxMessageSize >= 0, "websocket.max_message_size must not be negative")

	check(c.Sessions.IdleTTL > 0, "sessions.idle_ttl must be positive")
	check(c.Sessions.SweepInterval > 0, "sessions.sweep_interval must be positive")
	check(c.Sessions.MaxSessions >= 0, "sessions.max_sessions must not be negative")

	if len(problems) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(problems, "; "))
	}
	return nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// ReadTimeout returns the read timeout as a Duration.
func (t APITimeoutConfig) ReadTimeout() time.Duration { return seconds(t.Read) }

// WriteTimeout returns the write timeout as a Duration.
func (t APITimeoutConfig) WriteTimeout() time.Duration { return seconds(t.Write) }

// IdleTimeout returns the idle timeout as a Duration.
func (t APITimeoutConfig) IdleTimeout() time.Duration { return seconds(t.Idle) }

// PingPeriod returns the WebSocket ping interval as a Duration.
func (w WebSocketConfig) PingPeriod() time.Duration { return seconds(w.PingInterval) }

// PongWait returns the WebSocket pong timeout as a Duration.
func (w WebSocketConfig) PongWait() time.Duration { return seconds(w.PongTimeout) }

// GetSessionTTL returns the session idle lifetime as a Duration.
func (c *Config) GetSessionTTL() time.Duration { return seconds(c.Sessions.IdleTTL) }

// GetSweepInterval returns the session sweep period as a Duration.
func (c *Config) GetSweepInterval() time.Duration { return seconds(c.Sessions.SweepInterval) }
