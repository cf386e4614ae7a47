package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/chirp/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line
// flags.
//
// Supported flags (short forms):
//
//	-a string   bind address (e.g., ":8080")
//	-m int      maximum inbound frame size, bytes
//	-w int      write timeout, seconds
//	-l string   log level (debug/info/warn/error)
//
// Args are filtered through flagx.FilterArgs first so the -c/-config flags
// owned by the JSON overlay do not trip this flag set.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-m", "-w", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.Int64Var(&config.ReadLimit, "m", config.ReadLimit, "max inbound frame size (bytes)")
	writeTimeout := fs.Int("w", int(config.WriteTimeout.Seconds()), "write timeout (seconds)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.WriteTimeout = time.Duration(*writeTimeout) * time.Second
}
