package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const sampleYAML = `mqtt:
  broker: "tcp://localhost:1883"
  client_id: "sim"
  username: "user"
  password: "pass"
  qos: 1
store:
  path: "/tmp/plans.db"
  timezone: "Europe/Paris"
guide:
  path: "guide.xlsx"
simulation:
  topic: "plant/telemetry"
  refresh_interval_seconds: 30
metrics:
  prometheus_port: ":9100"
  sinks:
    - type: "prometheus"
logging:
  level: "debug"
`

//nolint:gocyclo
func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, "config.yaml", sampleYAML))
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"client_id", cfg.MQTT.ClientID, "sim"},
		{"username", cfg.MQTT.Username, "user"},
		{"qos", cfg.MQTT.QoS, byte(1)},
		{"keep_alive default", cfg.MQTT.KeepAliveSeconds, 60},
		{"store.path", cfg.Store.Path, "/tmp/plans.db"},
		{"store.timezone", cfg.Store.Timezone, "Europe/Paris"},
		{"guide.sheet default", cfg.Guide.GuideSheet, "data_guide"},
		{"guide.tags default", cfg.Guide.TagsSheet, "tags"},
		{"topic", cfg.Simulation.Topic, "plant/telemetry"},
		{"refresh", cfg.Simulation.RefreshIntervalSeconds, 30},
		{"emission default", cfg.Simulation.EmissionIntervalSeconds, 5},
		{"reject cooldown default", cfg.Simulation.RejectCooldownMinutes, 60},
		{"import check default", cfg.Import.CheckIntervalSeconds, 60},
		{"metrics sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "prometheus", true},
		{"prometheus port", cfg.Metrics.PrometheusPort, ":9100"},
		{"logging level", cfg.Logging.Level, "debug"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PPM_MQTT__BROKER", "tcp://broker:1883")
	t.Setenv("PPM_SIMULATION__TOPIC", "line/override")
	cfg, err := Load(writeConfig(t, "config.yaml", sampleYAML))
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.MQTT.Broker != "tcp://broker:1883" {
		t.Errorf("broker not overridden: %s", cfg.MQTT.Broker)
	}
	if cfg.Simulation.Topic != "line/override" {
		t.Errorf("topic not overridden: %s", cfg.Simulation.Topic)
	}
}

func TestLoadJSON(t *testing.T) {
	data := `{"mqtt":{"broker":"tcp://b:1883"},"guide":{"path":"g.xlsx"},"simulation":{"topic":"t"}}`
	cfg, err := Load(writeConfig(t, "config.json", data))
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Store.Path != "ppmsim.db" {
		t.Errorf("store default not applied: %s", cfg.Store.Path)
	}
}

func TestLoadValidation(t *testing.T) {
	if _, err := Load(writeConfig(t, "config.yaml", "mqtt:\n  broker: tcp://b:1883\n")); err == nil {
		t.Fatalf("expected validation error")
	}
	if _, err := Load(writeConfig(t, "config.toml", "")); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}
