// Package api implements the HTTP REST API and WebSocket server for the
// land area converter.
//
// This package provides:
//   - One-shot conversion endpoints and the unit/region catalog
//   - Converter sessions that hold form state and recompute on every change
//   - A WebSocket channel that drives one session per connection
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//   - The embedded web panel under /panel
//
// # Invalid input
//
// A value that does not parse is not an HTTP error. Conversions answer 200
// with result "Invalid Input" and valid=false, exactly what the panel shows.
// Unknown unit or region keys are client errors and answer 400.
//
// # Graceful Degradation
//
// MQTT and InfluxDB are optional. Without them the API serves conversions
// from the built-in or database tables and skips usage metrics.
package api
