// Package config handles loading and validating Tunnels configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Both processes read the same file: the renderer (tunnelclient) uses the
// transport and receiver sections, the control side (tunnels) uses midi,
// publisher and database. A missing section falls back to defaults.
//
// Usage:
//
//	cfg, err := config.Load("configs/tunnels.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.TransportAddr())
package config
