package simulation

import (
	"fmt"
	"time"
)

// Config defines the cadences of the simulation loop.
type Config struct {
	// Topic is the MQTT topic telemetry is published to.
	Topic                   string `json:"topic"`
	RefreshIntervalSeconds  int    `json:"refresh_interval_seconds"`
	EmissionIntervalSeconds int    `json:"emission_interval_seconds"`
	RejectCooldownMinutes   int    `json:"reject_cooldown_minutes"`
	ReconnectBackoffSeconds int    `json:"reconnect_backoff_seconds"`
}

// SetDefaults fills unset cadences.
func (c *Config) SetDefaults() {
	if c.RefreshIntervalSeconds <= 0 {
		c.RefreshIntervalSeconds = 60
	}
	if c.EmissionIntervalSeconds <= 0 {
		c.EmissionIntervalSeconds = 5
	}
	if c.RejectCooldownMinutes <= 0 {
		c.RejectCooldownMinutes = 60
	}
	if c.ReconnectBackoffSeconds <= 0 {
		c.ReconnectBackoffSeconds = 2
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Topic == "" {
		return fmt.Errorf("simulation topic is required")
	}
	return nil
}

func (c Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalSeconds) * time.Second
}

func (c Config) EmissionInterval() time.Duration {
	return time.Duration(c.EmissionIntervalSeconds) * time.Second
}

func (c Config) RejectCooldown() time.Duration {
	return time.Duration(c.RejectCooldownMinutes) * time.Minute
}

func (c Config) ReconnectBackoff() time.Duration {
	return time.Duration(c.ReconnectBackoffSeconds) * time.Second
}
