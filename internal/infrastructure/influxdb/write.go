package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// measurementConversions holds one point per served conversion.
const measurementConversions = "conversions"

// RecordConversion writes one usage point for a served conversion.
// It is non-blocking and a no-op when disconnected.
//
// Parameters:
//   - surface: Where the request came from ("http", "websocket", "mqtt")
//   - from, to: Unit keys
//   - region: Region key used for factor selection
//   - valid: false when the input was rejected as "Invalid Input"
func (c *Client) RecordConversion(surface, from, to, region string, valid bool) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(conversionPoint(surface, from, to, region, valid, time.Now()))
}

// conversionPoint builds the point for one conversion. Units and region are
// low-cardinality enumerations so they are stored as tags.
func conversionPoint(surface, from, to, region string, valid bool, ts time.Time) *write.Point {
	return write.NewPoint(
		measurementConversions,
		map[string]string{
			"surface": surface,
			"from":    from,
			"to":      to,
			"region":  region,
		},
		map[string]interface{}{
			"count": int64(1),
			"valid": valid,
		},
		ts,
	)
}
