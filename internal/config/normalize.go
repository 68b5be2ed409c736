package config

import "strings"

// normalizeConfig normalizes configuration values.
func normalizeConfig(c *Config) {
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	if c.Storage.Driver == "postgresql" {
		c.Storage.Driver = "postgres"
	}
}
