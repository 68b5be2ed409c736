package config

import (
	"fmt"
	"net"
	"slices"
	"strconv"
	"strings"
	"time"
)

var (
	validLogLevels      = []string{"debug", "info", "warn", "error", "fatal", "panic"}
	validStorageDrivers = []string{"sqlite", "postgres"}
)

// validateConfig validates the configuration and returns an error if invalid.
func validateConfig(c *Config) error {
	for _, validate := range []func() error{
		func() error { return validateServerConfig(c.Server) },
		func() error { return validateStorageConfig(c.Storage) },
		func() error { return validateSchedulerConfig(c.Scheduler) },
		func() error { return validateChecksConfig(c.Checks) },
		func() error { return validateLogConfig(c.Log) },
	} {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

// validateServerConfig validates server configuration.
func validateServerConfig(s ServerConfig) error {
	if s.Addr == "" {
		return fmt.Errorf("server.addr cannot be empty")
	}

	host, portStr, err := net.SplitHostPort(s.Addr)
	if err != nil {
		return fmt.Errorf("server.addr invalid format: %w", err)
	}

	if portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("server.addr invalid port: %w", err)
		}
		if port < 1 || port > 65535 {
			return fmt.Errorf("server.addr port out of range (1-65535)")
		}
	}

	if host != "" && host != "0.0.0.0" && host != "localhost" {
		if ip := net.ParseIP(host); ip == nil {
			if _, err := net.LookupHost(host); err != nil {
				return fmt.Errorf("server.addr invalid host: %s", host)
			}
		}
	}

	if s.ReadTimeout < time.Second || s.ReadTimeout > 5*time.Minute {
		return fmt.Errorf("server.read_timeout must be between 1s and 5m")
	}
	if s.WriteTimeout < time.Second || s.WriteTimeout > 5*time.Minute {
		return fmt.Errorf("server.write_timeout must be between 1s and 5m")
	}
	if s.IdleTimeout <= 0 || s.IdleTimeout > 30*time.Minute {
		return fmt.Errorf("server.idle_timeout must be between 0 and 30m")
	}

	if err := validateJWTConfig(s.JWT); err != nil {
		return fmt.Errorf("server.jwt: %w", err)
	}

	return nil
}

// validateStorageConfig validates storage configuration.
func validateStorageConfig(s StorageConfig) error {
	if !slices.Contains(validStorageDrivers, s.Driver) {
		return fmt.Errorf("storage.driver must be one of: %s", strings.Join(validStorageDrivers, ", "))
	}
	if s.DSN == "" {
		return fmt.Errorf("storage.dsn cannot be empty")
	}

	if s.MaxOpenConns <= 0 {
		return fmt.Errorf("storage.max_open_conns must be greater than 0")
	}
	if s.MaxOpenConns > 1000 {
		return fmt.Errorf("storage.max_open_conns too large (max 1000)")
	}
	if s.MaxIdleConns < 0 {
		return fmt.Errorf("storage.max_idle_conns cannot be negative")
	}
	if s.MaxIdleConns > s.MaxOpenConns {
		return fmt.Errorf("storage.max_idle_conns cannot be greater than max_open_conns")
	}
	if s.ConnMaxLifetime < time.Minute || s.ConnMaxLifetime > 24*time.Hour {
		return fmt.Errorf("storage.conn_max_lifetime must be between 1m and 24h")
	}

	return nil
}

// validateSchedulerConfig validates scheduler configuration.
func validateSchedulerConfig(s SchedulerConfig) error {
	if s.Interval < time.Second {
		return fmt.Errorf("scheduler.interval too small (min 1s)")
	}
	if s.Interval > 24*time.Hour {
		return fmt.Errorf("scheduler.interval too large (max 24h)")
	}

	if s.WorkerCount <= 0 {
		return fmt.Errorf("scheduler.worker_count must be greater than 0")
	}
	if s.WorkerCount > 1000 {
		return fmt.Errorf("scheduler.worker_count too large (max 1000)")
	}

	if s.QueueSize <= 0 {
		return fmt.Errorf("scheduler.queue_size must be greater than 0")
	}
	if s.BatchSize <= 0 {
		return fmt.Errorf("scheduler.batch_size must be greater than 0")
	}

	return nil
}

// validateChecksConfig validates HTTP check defaults.
func validateChecksConfig(c ChecksConfig) error {
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("checks.http.timeout must be greater than 0")
	}
	if c.HTTP.Timeout > 5*time.Minute {
		return fmt.Errorf("checks.http.timeout too large (max 5m)")
	}
	if strings.TrimSpace(c.HTTP.UserAgent) == "" {
		return fmt.Errorf("checks.http.user_agent cannot be empty")
	}
	return nil
}

// validateLogConfig validates log configuration.
func validateLogConfig(l LogConfig) error {
	if !slices.Contains(validLogLevels, strings.ToLower(l.Level)) {
		return fmt.Errorf("log.level must be one of: debug, info, warn, error, fatal, panic")
	}
	return nil
}

// validateJWTConfig validates JWT configuration.
func validateJWTConfig(j JWTConfig) error {
	if j.Secret == "" {
		return fmt.Errorf("secret cannot be empty")
	}

	if len(j.Secret) < 32 {
		return fmt.Errorf("secret too short (minimum 32 characters for security)")
	}

	if j.TTL < 5*time.Minute {
		return fmt.Errorf("ttl too small (minimum 5 minutes)")
	}

	if j.TTL > 30*24*time.Hour {
		return fmt.Errorf("ttl too large (maximum 30 days)")
	}

	return nil
}
