package cliconfig

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every userdesk environment variable.
const EnvPrefix = "USERDESK_"

// Environment variable names
const (
	EnvAPIServer = EnvPrefix + "API_SERVER"
	EnvTimeout   = EnvPrefix + "TIMEOUT"
	EnvPageSize  = EnvPrefix + "PAGE_SIZE"
	EnvLogLevel  = EnvPrefix + "LOG_LEVEL"
	EnvLogFormat = EnvPrefix + "LOG_FORMAT"
	EnvJSON      = EnvPrefix + "JSON"
	EnvServePort = EnvPrefix + "SERVE_PORT"
)

// envConfig mirrors Config for env parsing. Nil pointers are unset variables.
type envConfig struct {
	APIServer *string        `env:"API_SERVER"`
	Timeout   *time.Duration `env:"TIMEOUT"`
	PageSize  *int           `env:"PAGE_SIZE"`
	LogLevel  *string        `env:"LOG_LEVEL"`
	LogFormat *string        `env:"LOG_FORMAT"`
	JSON      *bool          `env:"JSON"`
	ServePort *int           `env:"SERVE_PORT"`
}

// LoadEnvConfig applies USERDESK_* variables from the process environment.
func LoadEnvConfig(cfg *Config) error {
	return loadEnv(cfg, environ(), SourceEnv)
}

// LoadDotenvConfig applies USERDESK_* variables from a dotenv file. A missing
// file is not an error. The file never overrides the process environment,
// which is applied afterwards by LoadEnvConfig.
func LoadDotenvConfig(cfg *Config, path string) error {
	vars, err := godotenv.Read(path)
	if err != nil {
		if isNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := loadEnv(cfg, vars, SourceDotenv); err != nil {
		return err
	}
	cfg.Files = append(cfg.Files, path)
	return nil
}

func loadEnv(cfg *Config, vars map[string]string, sourceType string) error {
	var ec envConfig
	if err := env.ParseWithOptions(&ec, env.Options{
		Prefix:      EnvPrefix,
		Environment: vars,
	}); err != nil {
		return fmt.Errorf("invalid %s configuration: %w", sourceType, err)
	}

	if cfg.Sources == nil {
		cfg.Sources = make(map[string]string)
	}
	set := func(key string) { cfg.Sources[key] = sourceType }

	if ec.APIServer != nil {
		cfg.APIServer = *ec.APIServer
		set("api_server")
	}
	if ec.Timeout != nil {
		cfg.Timeout = *ec.Timeout
		set("timeout")
	}
	if ec.PageSize != nil {
		cfg.PageSize = *ec.PageSize
		set("page_size")
	}
	if ec.LogLevel != nil {
		cfg.LogLevel = *ec.LogLevel
		set("log_level")
	}
	if ec.LogFormat != nil {
		cfg.LogFormat = *ec.LogFormat
		set("log_format")
	}
	if ec.JSON != nil {
		cfg.JSON = *ec.JSON
		set("json")
	}
	if ec.ServePort != nil {
		cfg.ServePort = *ec.ServePort
		set("serve_port")
	}
	return nil
}

func environ() map[string]string {
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(k, EnvPrefix) {
			out[k] = v
		}
	}
	return out
}
