// Package panel serves the converter web UI as an embedded asset.
//
// The page, script and stylesheet are embedded into the Go binary with
// go:embed. The Handler function returns an http.Handler that serves them
// with SPA fallback routing: a request for a file that does not exist
// gets index.html.
//
// The page holds no conversion logic. It drives a session over the
// WebSocket channel and renders the state the server sends back.
package panel
