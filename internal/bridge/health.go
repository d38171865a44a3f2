package bridge

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/nerrad567/landarea-core/internal/infrastructure/mqtt"
)

const defaultHealthInterval = 30 * time.Second

// HealthPublisher publishes health messages. Typically the MQTT client.
type HealthPublisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	IsConnected() bool
}

// HealthReporterConfig holds configuration for the health reporter.
type HealthReporterConfig struct {
	InstanceID string
	Version    string
	Encoding   string

	// Interval is how often to publish. Default: 30 seconds.
	Interval time.Duration

	Publisher HealthPublisher
	QoS       byte

	// Stats and Source are optional providers for the message counters
	// and catalog source.
	Stats  func() (served, rejected uint64)
	Source func() string
}

// HealthReporter publishes retained bridge health on a fixed interval.
// Health messages are always JSON so monitors need no msgpack decoder;
// the Encoding field names the codec used for conversion traffic.
type HealthReporter struct {
	cfg     HealthReporterConfig
	started time.Time

	mu       sync.Mutex
	logger   Logger
	cancel   context.CancelFunc
	finished chan struct{}
	stopped  bool
}

// NewHealthReporter creates a reporter. Call Start to begin reporting.
func NewHealthReporter(cfg HealthReporterConfig) *HealthReporter {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultHealthInterval
	}
	return &HealthReporter{cfg: cfg, started: time.Now(), logger: noopLogger{}}
}

// SetLogger sets the logger for this reporter.
func (h *HealthReporter) SetLogger(logger Logger) {
	h.mu.Lock()
	h.logger = logger
	h.mu.Unlock()
}

func (h *HealthReporter) log() Logger {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.logger
}

// Start publishes immediately and then every interval until ctx is
// cancelled or Stop is called.
func (h *HealthReporter) Start(ctx context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil || h.stopped {
		return
	}

	ctx, h.cancel = context.WithCancel(ctx)
	h.finished = make(chan struct{})
	go h.loop(ctx, h.finished)
}

// Stop ends reporting and publishes a final "stopping" status. Later
// calls do nothing.
func (h *HealthReporter) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	cancel, finished := h.cancel, h.finished
	h.mu.Unlock()

	if cancel != nil {
		cancel()
		<-finished
	}
	h.publish(HealthStopping, "") //nolint:errcheck // best effort during shutdown
}

// PublishNow publishes the current status immediately.
func (h *HealthReporter) PublishNow() error {
	return h.publish(h.determineStatus())
}

func (h *HealthReporter) loop(ctx context.Context, finished chan<- struct{}) {
	defer close(finished)

	ticker := time.NewTicker(h.cfg.Interval)
	defer ticker.Stop()

	for {
		if err := h.PublishNow(); err != nil {
			h.log().Warn("failed to publish health", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (h *HealthReporter) determineStatus() (HealthStatus, string) {
	if h.cfg.Publisher == nil || !h.cfg.Publisher.IsConnected() {
		return HealthDegraded, "MQTT disconnected"
	}
	return HealthHealthy, ""
}

// Message builds the health message for a status.
func (h *HealthReporter) Message(status HealthStatus, reason string) HealthMessage {
	msg := HealthMessage{
		Status:        status,
		Reason:        reason,
		InstanceID:    h.cfg.InstanceID,
		Version:       h.cfg.Version,
		Encoding:      h.cfg.Encoding,
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Timestamp:     time.Now().UTC(),
	}
	if h.cfg.Stats != nil {
		msg.Served, msg.Rejected = h.cfg.Stats()
	}
	if h.cfg.Source != nil {
		msg.CatalogSource = h.cfg.Source()
	}
	return msg
}

func (h *HealthReporter) publish(status HealthStatus, reason string) error {
	if h.cfg.Publisher == nil {
		return nil
	}
	payload, err := json.Marshal(h.Message(status, reason))
	if err != nil {
		return err
	}
	return h.cfg.Publisher.Publish(mqtt.Topics{}.ConverterHealth(), payload, h.cfg.QoS, true)
}
