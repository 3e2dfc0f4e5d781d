// Package cliconfig provides configuration types and loading for the userdesk CLI.
package cliconfig

import "time"

// Config represents the complete configuration for the userdesk CLI.
// Configuration values can come from multiple sources with the following precedence:
// 1. Command-line flags (highest priority)
// 2. Environment variables (USERDESK_*)
// 3. .env file in the current directory
// 4. Local config file (.userdeskrc.yaml in current directory)
// 5. Global config file (~/.config/userdesk/config.yaml)
// 6. Default values (lowest priority)
type Config struct {
	// Users resource settings
	APIServer string        `yaml:"api_server" json:"apiServer"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`

	// List settings
	PageSize int `yaml:"page_size" json:"pageSize"`

	// Logging settings
	LogLevel  string `yaml:"log_level" json:"logLevel"`
	LogFormat string `yaml:"log_format" json:"logFormat"`

	// Output settings
	JSON bool `yaml:"json" json:"json"`

	// Local users API settings
	ServePort int `yaml:"serve_port" json:"servePort"`

	// Sources tracks where each value came from, keyed by YAML key.
	Sources map[string]string `yaml:"-" json:"-"`

	// Files lists the config files LoadAll merged, lowest precedence first.
	Files []string `yaml:"-" json:"-"`

	// SetFields records which keys were present in a loaded file, so an
	// explicit false can override an earlier true.
	SetFields map[string]bool `yaml:"-" json:"-"`
}

// ConfigSource identifies where a config value originated.
const (
	SourceDefault = "default"
	SourceGlobal  = "global"
	SourceLocal   = "local"
	SourceDotenv  = "dotenv"
	SourceEnv     = "env"
	SourceFlag    = "flag"
)

// Keys returns the config keys in display order.
func Keys() []string {
	return []string{"api_server", "timeout", "page_size", "log_level", "log_format", "json", "serve_port"}
}

// Value returns the display form of the value stored under key.
func (c *Config) Value(key string) string {
	switch key {
	case "api_server":
		return c.APIServer
	case "timeout":
		return c.Timeout.String()
	case "page_size":
		return itoa(c.PageSize)
	case "log_level":
		return c.LogLevel
	case "log_format":
		return c.LogFormat
	case "json":
		if c.JSON {
			return "true"
		}
		return "false"
	case "serve_port":
		return itoa(c.ServePort)
	}
	return ""
}
