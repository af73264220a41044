package sqlite

import (
	"fmt"
	"time"
)

// Config describes the SQLite database holding plans and reference data.
type Config struct {
	Path string `json:"path"`
	// Timezone is the IANA location plan timestamps are written in.
	Timezone      string `json:"timezone"`
	BusyTimeoutMS int    `json:"busy_timeout_ms"`
	// ConnMaxLifetimeSeconds recycles pooled connections, default 300.
	ConnMaxLifetimeSeconds int `json:"conn_max_lifetime_seconds"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Path == "" {
		c.Path = "ppmsim.db"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.BusyTimeoutMS <= 0 {
		c.BusyTimeoutMS = 5000
	}
	if c.ConnMaxLifetimeSeconds <= 0 {
		c.ConnMaxLifetimeSeconds = 300
	}
}

// Validate checks the timezone can be loaded.
func (c Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("store path is required")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("store timezone: %w", err)
	}
	return nil
}

func (c Config) dsn() string {
	return fmt.Sprintf("file:%s?_txlock=immediate&_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)",
		c.Path, c.BusyTimeoutMS)
}
