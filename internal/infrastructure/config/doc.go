// Package config handles loading and validating Land Area Core configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with LANDAREA_* environment variables
//   - Validation of required fields
//
// Credentials (MQTT password, InfluxDB token) should be supplied through the
// environment rather than committed to the config file.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.API.Port)
package config
