package main

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/landarea-core/internal/api"
	"github.com/nerrad567/landarea-core/internal/bridge"
	"github.com/nerrad567/landarea-core/internal/conversion"
	"github.com/nerrad567/landarea-core/internal/infrastructure/config"
	"github.com/nerrad567/landarea-core/internal/infrastructure/database"
	"github.com/nerrad567/landarea-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/landarea-core/internal/infrastructure/logging"
	"github.com/nerrad567/landarea-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/landarea-core/internal/session"
)

// healthCheckTimeout bounds the startup connectivity checks.
const healthCheckTimeout = 10 * time.Second

func serveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the converter panel, API and MQTT bridge",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts.configPath)
		},
	}
}

// run wires the service together and blocks until ctx is cancelled.
// Components are closed in reverse order of startup.
func run(ctx context.Context, configPath string) error {
	log := logging.Default()
	log.Info("starting Land Area Core", "version", version, "commit", commit, "build_date", date)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	var stack closeStack
	defer stack.closeAll(log)

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	stack.push("database", db.Close)
	log.Info("database ready", "path", cfg.Database.Path)

	registry, err := loadRegistry(ctx, cfg, db, log)
	if err != nil {
		return err
	}
	log.Info("conversion catalog loaded", "source", registry.Source())

	sessions := session.NewManager(registry, session.Options{
		IdleTTL:     cfg.GetSessionTTL(),
		MaxSessions: cfg.Sessions.MaxSessions,
	})
	sessions.SetLogger(log)
	go sessions.Run(ctx, cfg.GetSweepInterval())

	influxClient, err := connectInflux(cfg.InfluxDB, log)
	if err != nil {
		return err
	}
	if influxClient != nil {
		stack.push("InfluxDB", influxClient.Close)
	}

	mqttClient, err := connectMQTT(cfg.MQTT, log)
	if err != nil {
		return err
	}
	if mqttClient != nil {
		stack.push("MQTT", mqttClient.Close)

		convBridge, err := startBridge(ctx, cfg, mqttClient, registry, influxClient, log)
		if err != nil {
			return fmt.Errorf("starting conversion bridge: %w", err)
		}
		stack.push("conversion bridge", convBridge.Stop)
	}

	deps := api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Panel:    cfg.Panel,
		Logger:   log,
		Registry: registry,
		Sessions: sessions,
		DB:       db,
		Version:  version,
	}
	// A typed nil pointer would make the interfaces non-nil.
	if influxClient != nil {
		deps.Recorder = influxClient
	}
	if mqttClient != nil {
		deps.MQTT = mqttClient
	}

	apiServer, err := api.New(deps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	stack.push("API server", apiServer.Close)

	if err := healthCheck(ctx, db, mqttClient, influxClient, apiServer); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("initialisation complete", "address", apiServer.Addr())

	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")
	return nil
}

// closeStack collects shutdown steps and runs them last-in first-out.
type closeStack []namedClose

type namedClose struct {
	name  string
	close func() error
}

func (s *closeStack) push(name string, fn func() error) {
	*s = append(*s, namedClose{name, fn})
}

func (s *closeStack) closeAll(log *logging.Logger) {
	for i := len(*s) - 1; i >= 0; i-- {
		c := (*s)[i]
		log.Info("closing " + c.name)
		if err := c.close(); err != nil {
			log.Error("error closing "+c.name, "error", err)
		}
	}
	*s = nil
	log.Info("Land Area Core stopped")
}

// connectInflux returns nil when InfluxDB is disabled.
func connectInflux(cfg config.InfluxDBConfig, log *logging.Logger) (*influxdb.Client, error) {
	if !cfg.Enabled {
		log.Info("InfluxDB disabled")
		return nil, nil
	}

	client, err := influxdb.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to InfluxDB: %w", err)
	}
	client.SetOnError(func(err error) {
		log.Error("InfluxDB write error", "error", err)
	})
	log.Info("InfluxDB connected", "url", cfg.URL, "org", cfg.Org, "bucket", cfg.Bucket)
	return client, nil
}

// connectMQTT returns nil when the MQTT bridge is disabled.
func connectMQTT(cfg config.MQTTConfig, log *logging.Logger) (*mqtt.Client, error) {
	if !cfg.Enabled {
		log.Info("MQTT bridge disabled")
		return nil, nil
	}

	client, err := mqtt.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to MQTT: %w", err)
	}
	client.SetLogger(log)
	client.SetOnConnect(func() { log.Info("MQTT (re)connected") })
	client.SetOnDisconnect(func(err error) { log.Warn("MQTT disconnected", "error", err) })

	log.Info("MQTT connected",
		"broker", net.JoinHostPort(cfg.Broker.Host, strconv.Itoa(cfg.Broker.Port)),
		"client_id", cfg.Broker.ClientID,
	)
	return client, nil
}

// openDatabase opens SQLite and applies pending migrations.
func openDatabase(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close() //nolint:errcheck // already returning the migration error
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

// loadRegistry builds the conversion registry. With catalog.use_database
// set the factor tables come from SQLite; otherwise the built-in tables
// are served.
func loadRegistry(ctx context.Context, cfg *config.Config, db *database.DB, log *logging.Logger) (*conversion.Registry, error) {
	var repo conversion.Repository
	if cfg.Catalog.UseDatabase && db != nil {
		repo = conversion.NewSQLiteRepository(db.DB)
	}

	registry := conversion.NewRegistry(repo)
	registry.SetLogger(log)

	if err := registry.RefreshCache(ctx); err != nil {
		return nil, fmt.Errorf("loading conversion catalog: %w", err)
	}
	return registry, nil
}

// startBridge subscribes the conversion bridge to request topics.
// influxClient may be nil.
func startBridge(ctx context.Context, cfg *config.Config, mqttClient *mqtt.Client, registry *conversion.Registry, influxClient *influxdb.Client, log *logging.Logger) (*bridge.Bridge, error) {
	opts := bridge.Options{
		MQTTClient: &mqttBridgeAdapter{client: mqttClient, log: log},
		Converter:  registry,
		Encoding:   cfg.MQTT.Encoding,
		QoS:        mqttClient.QoS(),
		InstanceID: cfg.Service.ID,
		Version:    version,
		Logger:     log,
	}
	if influxClient != nil {
		opts.Recorder = influxClient
	}

	b, err := bridge.New(opts)
	if err != nil {
		return nil, err
	}
	if err := b.Start(ctx); err != nil {
		return nil, err
	}

	log.Info("conversion bridge started",
		"topic", mqtt.Topics{}.AllConvertRequests(),
		"encoding", cfg.MQTT.Encoding,
	)
	return b, nil
}

// mqttBridgeAdapter adapts *mqtt.Client to bridge.MQTTClient.
// The bridge handler does not return an error; the infrastructure client's does.
type mqttBridgeAdapter struct {
	client *mqtt.Client
	log    *logging.Logger
}

func (a *mqttBridgeAdapter) Publish(topic string, payload []byte, qos byte, retained bool) error {
	return a.client.Publish(topic, payload, qos, retained)
}

func (a *mqttBridgeAdapter) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	return a.client.Subscribe(topic, qos, func(t string, p []byte) error {
		handler(t, p)
		return nil
	})
}

func (a *mqttBridgeAdapter) Unsubscribe(topic string) error {
	return a.client.Unsubscribe(topic)
}

func (a *mqttBridgeAdapter) IsConnected() bool {
	return a.client.IsConnected()
}

// healthChecker is satisfied by every infrastructure client checked at startup.
type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

type namedCheck struct {
	name    string
	checker healthChecker
}

// healthCheck runs the startup checks and returns the first failure.
// Disabled (nil) clients are skipped.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client, apiServer *api.Server) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	checks := []namedCheck{
		{"database", db},
		{"api", apiServer},
	}
	if mqttClient != nil {
		checks = append(checks, namedCheck{"mqtt", mqttClient})
	}
	if influxClient != nil {
		checks = append(checks, namedCheck{"influxdb", influxClient})
	}

	for _, c := range checks {
		if err := c.checker.HealthCheck(ctx); err != nil {
			return fmt.Errorf("%s: %w", c.name, err)
		}
	}
	return nil
}
