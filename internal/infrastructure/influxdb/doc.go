// Package influxdb records conversion usage in InfluxDB.
//
// It wraps influxdb-client-go v2 with connection management, a
// non-blocking batched write API and health checks. Every conversion
// served by the API, the WebSocket channel or the MQTT bridge becomes one
// point in the "conversions" measurement, tagged by surface, units and
// region. The points carry no user input.
//
// Usage:
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.RecordConversion("http", "acre", "sqft", "standard", true)
//
// Writes are batched according to batch_size and flush_interval. Async
// write errors are delivered to the SetOnError callback.
package influxdb
