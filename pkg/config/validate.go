package config

import (
	"fmt"
	"strings"
)

// Validate checks business rules; Load calls it.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be > 0 (got %d)", c.Server.MaxBodyBytes)
	}
	if c.Match.Workers < 0 {
		return fmt.Errorf("match.workers must be >= 0 (got %d)", c.Match.Workers)
	}
	if c.Match.BatchLimit <= 0 {
		return fmt.Errorf("match.batch_limit must be > 0 (got %d)", c.Match.BatchLimit)
	}
	if c.Sources.CheckInterval < 0 {
		return fmt.Errorf("sources.check_interval must be >= 0 (got %s)", c.Sources.CheckInterval)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error (got %q)", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json (got %q)", c.Log.Format)
	}
	return nil
}
