// Package mqtt provides MQTT client connectivity for Land Area Core.
//
// The conversion bridge uses it to serve conversion requests from other
// services on the message bus. This package manages:
//   - Connection to the broker with auto-reconnect
//   - Publishing with QoS and retained messages
//   - Subscriptions that survive reconnects
//   - Last Will and Testament on landarea/system/status
//
// TLS (cfg.Broker.TLS) should be enabled whenever the broker is not local.
//
// Usage:
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllConvertRequests(), 1, handler)
package mqtt
