package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/ppmsim/core/metrics"
	"github.com/kilianp07/ppmsim/core/simulation"
	"github.com/kilianp07/ppmsim/infra/guide"
	"github.com/kilianp07/ppmsim/infra/logger"
	"github.com/kilianp07/ppmsim/infra/monitoring"
	"github.com/kilianp07/ppmsim/infra/mqtt"
	"github.com/kilianp07/ppmsim/infra/store/sqlite"
	"github.com/kilianp07/ppmsim/jobs/planimport"
)

// EnvPrefix marks environment variables overriding file values. A double
// underscore separates nested keys, as in PPM_MQTT__BROKER.
const EnvPrefix = "PPM_"

type Config struct {
	MQTT       mqtt.Config       `json:"mqtt"`
	Store      sqlite.Config     `json:"store"`
	Guide      guide.Config      `json:"guide"`
	Simulation simulation.Config `json:"simulation"`
	Import     planimport.Config `json:"import"`
	Metrics    metrics.Config    `json:"metrics"`
	Logging    logger.Config     `json:"logging"`
	Sentry     monitoring.Config `json:"sentry"`
}

// Load reads the file at path, applies environment overrides, defaults and
// validation. An empty path loads the environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		var parser koanf.Parser
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", filepath.Ext(path))
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies the defaults of every section.
func (c *Config) SetDefaults() {
	c.MQTT.SetDefaults()
	c.Store.SetDefaults()
	c.Guide.SetDefaults()
	c.Simulation.SetDefaults()
	c.Import.SetDefaults()
	c.Logging.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	validators := []struct {
		name string
		fn   func() error
	}{
		{"mqtt", c.MQTT.Validate},
		{"store", c.Store.Validate},
		{"guide", c.Guide.Validate},
		{"simulation", c.Simulation.Validate},
		{"logging", c.Logging.Validate},
		{"sentry", c.Sentry.Validate},
	}
	for _, v := range validators {
		if err := v.fn(); err != nil {
			return fmt.Errorf("%s: %w", v.name, err)
		}
	}
	return nil
}
