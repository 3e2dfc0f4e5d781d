package cliconfig

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/userdesk/userdesk/pkg/logging"
)

// Validate checks that every value is usable.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIServer)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api_server %q must be an http or https URL", c.APIServer)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout %s must be positive", c.Timeout)
	}
	if c.PageSize != 5 && c.PageSize != 10 {
		return fmt.Errorf("page_size %d must be 5 or 10", c.PageSize)
	}
	if !logging.ValidLevel(c.LogLevel) {
		return fmt.Errorf("log_level %q must be one of debug, info, warn, error", c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", string(logging.FormatText), string(logging.FormatJSON):
	default:
		return fmt.Errorf("log_format %q must be text or json", c.LogFormat)
	}
	if c.ServePort < 0 || c.ServePort > 65535 {
		return fmt.Errorf("serve_port %d is out of range (0-65535)", c.ServePort)
	}
	return nil
}
