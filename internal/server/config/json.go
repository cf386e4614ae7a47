package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/chirp/internal/flagx"
)

// JsonConfig is the intermediate DTO for reading JSON configuration files.
// Timeout fields are plain integer seconds; after unmarshalling they are
// copied into the runtime Config which uses time.Duration.
type JsonConfig struct {
	EndpointAddr    string `json:"endpoint_addr"`
	ReadLimit       int64  `json:"read_limit"`
	WriteTimeoutSec int    `json:"write_timeout_s"`
	LogLevel        string `json:"log_level"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config flags; when
// neither is set, no JSON file is loaded. An unreadable or invalid file
// panics: a misconfigured server should not start. Zero/empty fields in the
// file leave the current value alone.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddr != "" {
		config.EndpointAddr = c.EndpointAddr
	}
	if c.ReadLimit != 0 {
		config.ReadLimit = c.ReadLimit
	}
	if c.WriteTimeoutSec != 0 {
		config.WriteTimeout = time.Duration(c.WriteTimeoutSec) * time.Second
	}
	if c.LogLevel != "" {
		config.LogLevel = c.LogLevel
	}
}
