package config

import "github.com/spf13/viper"

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.jwt.secret", "")
	v.SetDefault("server.jwt.ttl", "24h")

	// Storage defaults
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.dsn", "pagewatch.db")
	v.SetDefault("storage.max_open_conns", 32)
	v.SetDefault("storage.max_idle_conns", 8)
	v.SetDefault("storage.conn_max_lifetime", "1h")

	// Scheduler defaults
	v.SetDefault("scheduler.interval", "30s")
	v.SetDefault("scheduler.worker_count", 8)
	v.SetDefault("scheduler.queue_size", 1000)
	v.SetDefault("scheduler.batch_size", 100)

	// HTTP check defaults
	v.SetDefault("checks.http.timeout", "10s")
	v.SetDefault("checks.http.follow_redirects", true)
	v.SetDefault("checks.http.user_agent", "pagewatch/1.0")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}
