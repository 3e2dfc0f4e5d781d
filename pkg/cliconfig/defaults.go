package cliconfig

import (
	"strconv"
	"time"
)

// DefaultAPIServer is the users resource base URL when nothing else is configured.
const DefaultAPIServer = "http://localhost:4300"

// DefaultTimeout is the per-request timeout for the users resource.
const DefaultTimeout = 30 * time.Second

// DefaultPageSize is the list page size.
const DefaultPageSize = 5

// DefaultLogLevel is the default log level.
const DefaultLogLevel = "info"

// DefaultLogFormat is the default log format.
const DefaultLogFormat = "text"

// DefaultServePort is the port `userdesk serve` listens on.
const DefaultServePort = 4300

func itoa(i int) string {
	return strconv.Itoa(i)
}

// NewDefault creates a new Config with default values.
func NewDefault() *Config {
	cfg := &Config{
		APIServer: DefaultAPIServer,
		Timeout:   DefaultTimeout,
		PageSize:  DefaultPageSize,
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
		ServePort: DefaultServePort,
		Sources:   make(map[string]string),
	}

	// Mark all as default source
	for _, key := range Keys() {
		cfg.Sources[key] = SourceDefault
	}

	return cfg
}
