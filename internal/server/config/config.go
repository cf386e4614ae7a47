// Package config handles configuration for the server component, including
// defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the chirp server.
//
// Fields:
//   - EndpointAddr: bind address for the public WebSocket endpoint.
//   - ReadLimit: maximum inbound frame size in bytes; larger frames fail the
//     read and end the offending session.
//   - WriteTimeout: per-frame write deadline.
//   - LogLevel: minimum level for the operator log (debug/info/warn/error).
type Config struct {
	EndpointAddr string
	ReadLimit    int64
	WriteTimeout time.Duration
	LogLevel     string
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.EndpointAddr = ":8080"
	c.ReadLimit = 8192
	c.WriteTimeout = 10 * time.Second
	c.LogLevel = "info"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
