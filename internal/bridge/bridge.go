package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/landarea-core/internal/conversion"
	"github.com/nerrad567/landarea-core/internal/infrastructure/mqtt"
)

// surfaceMQTT tags conversions served by the bridge in usage metrics.
const surfaceMQTT = "mqtt"

// MQTTClient is the subset of MQTT operations the bridge needs.
// main.go adapts *mqtt.Client to it.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error
	Unsubscribe(topic string) error
	IsConnected() bool
}

// Converter evaluates conversion requests. *conversion.Registry satisfies it.
type Converter interface {
	Evaluate(req conversion.Request) (conversion.Result, error)
}

// CatalogSourcer optionally reports where the factor tables came from.
type CatalogSourcer interface {
	Source() string
}

// Recorder receives one call per served conversion.
type Recorder interface {
	RecordConversion(surface, from, to, region string, valid bool)
}

// Logger defines the logging interface used by the bridge.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options holds everything needed to create a Bridge.
type Options struct {
	MQTTClient MQTTClient
	Converter  Converter

	// Encoding is "json" (default) or "msgpack".
	Encoding string

	// QoS for subscriptions and replies.
	QoS byte

	InstanceID string
	Version    string

	// HealthInterval is how often health is republished. Default: 30s.
	HealthInterval time.Duration

	// Recorder and Logger are optional.
	Recorder Recorder
	Logger   Logger
}

// Bridge answers conversion requests received over MQTT.
//
// All methods are safe for concurrent use.
type Bridge struct {
	mqtt     MQTTClient
	conv     Converter
	codec    Codec
	qos      byte
	recorder Recorder
	logger   Logger
	health   *HealthReporter
	now      func() time.Time

	served   atomic.Uint64
	rejected atomic.Uint64

	startMu sync.Mutex
	started bool
}

// New validates opts and creates a Bridge. Call Start to subscribe.
func New(opts Options) (*Bridge, error) {
	if opts.MQTTClient == nil {
		return nil, errors.New("bridge: MQTT client is required")
	}
	if opts.Converter == nil {
		return nil, errors.New("bridge: converter is required")
	}
	codec, err := CodecFor(opts.Encoding)
	if err != nil {
		return nil, err
	}

	b := &Bridge{
		mqtt:     opts.MQTTClient,
		conv:     opts.Converter,
		codec:    codec,
		qos:      opts.QoS,
		recorder: opts.Recorder,
		logger:   opts.Logger,
		now:      time.Now,
	}
	if b.logger == nil {
		b.logger = noopLogger{}
	}

	b.health = NewHealthReporter(HealthReporterConfig{
		InstanceID: opts.InstanceID,
		Version:    opts.Version,
		Encoding:   codec.Name(),
		Interval:   opts.HealthInterval,
		Publisher:  opts.MQTTClient,
		QoS:        opts.QoS,
		Stats:      b.Stats,
		Source:     catalogSource(opts.Converter),
	})
	b.health.SetLogger(b.logger)

	return b, nil
}

func catalogSource(conv Converter) func() string {
	if s, ok := conv.(CatalogSourcer); ok {
		return s.Source
	}
	return nil
}

// Start subscribes to conversion requests and begins health reporting.
func (b *Bridge) Start(ctx context.Context) error {
	b.startMu.Lock()
	defer b.startMu.Unlock()

	topic := mqtt.Topics{}.AllConvertRequests()
	if err := b.mqtt.Subscribe(topic, b.qos, b.handleRequest); err != nil {
		return fmt.Errorf("subscribing to %s: %w", topic, err)
	}

	b.health.Start(ctx)
	b.started = true

	b.logger.Info("conversion bridge started", "topic", topic, "encoding", b.codec.Name())
	return nil
}

// Stop unsubscribes and publishes a final "stopping" health status.
func (b *Bridge) Stop() error {
	b.startMu.Lock()
	defer b.startMu.Unlock()

	if !b.started {
		return ErrNotStarted
	}
	b.started = false

	if err := b.mqtt.Unsubscribe(mqtt.Topics{}.AllConvertRequests()); err != nil {
		b.logger.Warn("unsubscribing conversion requests", "error", err)
	}
	b.health.Stop()

	b.logger.Info("conversion bridge stopped",
		"served", b.served.Load(),
		"rejected", b.rejected.Load(),
	)
	return nil
}

// Stats returns the number of requests answered and rejected so far.
func (b *Bridge) Stats() (served, rejected uint64) {
	return b.served.Load(), b.rejected.Load()
}

// handleRequest is the MQTT subscription handler.
func (b *Bridge) handleRequest(topic string, payload []byte) {
	id := mqtt.Topics{}.RequestIDFromTopic(topic)
	if id == "" {
		b.rejected.Add(1)
		b.logger.Warn("ignoring conversion request", "topic", topic, "error", ErrInvalidTopic)
		return
	}

	resp := b.process(id, payload)

	data, err := b.codec.Marshal(resp)
	if err != nil {
		b.logger.Error("encoding conversion response", "request_id", id, "error", err)
		return
	}
	if err := b.mqtt.Publish(mqtt.Topics{}.ConvertResponse(id), data, b.qos, false); err != nil {
		b.logger.Error("publishing conversion response", "request_id", id, "error", err)
		return
	}

	b.logger.Debug("conversion request served", "request_id", id, "valid", resp.Valid)
}

// process decodes and evaluates one request. It always returns a response.
func (b *Bridge) process(id string, payload []byte) ConvertResponse {
	resp := ConvertResponse{
		RequestID: id,
		Result:    conversion.InvalidInput,
		Timestamp: b.now().UTC(),
	}

	var req ConvertRequest
	if err := b.codec.Unmarshal(payload, &req); err != nil {
		return b.reject(resp, fmt.Errorf("%w: %w", ErrDecodeFailed, err))
	}

	from, err := conversion.ParseUnit(req.From)
	if err != nil {
		return b.reject(resp, err)
	}
	to, err := conversion.ParseUnit(req.To)
	if err != nil {
		return b.reject(resp, err)
	}
	region, err := conversion.ParseRegion(req.Region)
	if err != nil {
		return b.reject(resp, err)
	}

	res, err := b.conv.Evaluate(conversion.Request{
		Input:  req.Input(),
		From:   from,
		To:     to,
		Region: region,
	})
	switch {
	case err == nil:
		resp.Result = res.Formatted
		resp.Value = &res.Value
		resp.SquareMeters = &res.SquareMeters
		resp.Valid = true
	case errors.Is(err, conversion.ErrEmptyInput):
		resp.Result = ""
	}

	b.served.Add(1)
	if b.recorder != nil {
		b.recorder.RecordConversion(surfaceMQTT, string(from), string(to), string(region), resp.Valid)
	}
	return resp
}

func (b *Bridge) reject(resp ConvertResponse, err error) ConvertResponse {
	b.rejected.Add(1)
	resp.Error = err.Error()
	return resp
}
