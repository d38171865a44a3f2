// Package bridge serves conversions over MQTT.
//
// Other services on the message bus publish a request to
// landarea/request/convert/{request_id} and receive the reply on
// landarea/response/convert/{request_id}. Payloads are JSON or msgpack,
// chosen by mqtt.encoding; request and reply always share the encoding.
//
// Request:
//
//	{"value": "2.5", "from": "bigha", "to": "acre", "region": "banka_bihar"}
//
// value may be a string (parsed like the form input, trailing text ignored)
// or a number.
//
// Reply:
//
//	{"request_id": "r1", "result": "1.56", "value": 1.5624..., "square_meters": 6323,
//	 "valid": true, "timestamp": "2026-10-19T12:00:00Z"}
//
// An unparseable value is not an error: result is "Invalid Input" and valid
// is false. Unknown units or regions, or an undecodable payload, also carry
// an error message.
//
// A HealthReporter publishes retained status on landarea/health/converter.
package bridge
