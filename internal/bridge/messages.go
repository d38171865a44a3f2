package bridge

import (
	"fmt"
	"strconv"
	"time"
)

// ConvertRequest is published by a client on landarea/request/convert/{id}.
type ConvertRequest struct {
	// Value is the quantity, as a string or a number.
	Value any `json:"value"`

	From   string `json:"from"`
	To     string `json:"to"`
	Region string `json:"region,omitempty"`
}

// Input returns Value as the raw text the engine parses.
// A missing value becomes "". Other types yield text that does not parse.
func (r ConvertRequest) Input() string {
	switch v := r.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case int:
		return strconv.Itoa(v)
	default:
		// Not a number; the engine reports it as invalid input.
		return fmt.Sprintf("%T", v)
	}
}

// ConvertResponse is published on landarea/response/convert/{id}.
type ConvertResponse struct {
	RequestID string `json:"request_id"`

	// Result is exactly what the form would display: a formatted number,
	// "" for empty input, or "Invalid Input".
	Result string `json:"result"`

	Value        *float64 `json:"value,omitempty"`
	SquareMeters *float64 `json:"square_meters,omitempty"`
	Valid        bool     `json:"valid"`

	// Error describes a rejected request (unknown unit, bad payload).
	Error string `json:"error,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// HealthStatus is the state reported on the health topic.
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthDegraded HealthStatus = "degraded"
	HealthStopping HealthStatus = "stopping"
)

// HealthMessage is the retained payload on landarea/health/converter.
// It is always JSON so monitoring tools can read it regardless of encoding.
type HealthMessage struct {
	Status        HealthStatus `json:"status"`
	Reason        string       `json:"reason,omitempty"`
	InstanceID    string       `json:"instance_id"`
	Version       string       `json:"version"`
	Encoding      string       `json:"encoding"`
	CatalogSource string       `json:"catalog_source,omitempty"`
	Served        uint64       `json:"served"`
	Rejected      uint64       `json:"rejected"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	Timestamp     time.Time    `json:"timestamp"`
}
