package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLoggerMethods(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	l := NewZerologLogger("test")
	if l == nil {
		t.Fatalf("nil logger")
	}
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Warnf("warn")
	l.Errorf("error")
}

func TestNewWithWriterAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter("planner", &buf).Infof("inserted %d", 3)
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "planner", line["component"])
	assert.Equal(t, "inserted 3", line["message"])
	assert.Equal(t, "info", line["level"])
}

func TestConfigureFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ppmsim.log")
	cfg := Config{Level: "warn", File: path}
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	closeFn, err := Configure(cfg)
	require.NoError(t, err)
	defer func() {
		_, _ = Configure(Config{Level: "info"})
	}()

	l := New("test")
	l.Infof("filtered")
	l.Warnf("kept")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "kept")
	assert.NotContains(t, string(data), "filtered")
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
}

func TestConfigValidate(t *testing.T) {
	assert.Error(t, Config{Level: "loud"}.Validate())
	_, err := Configure(Config{Level: "loud"})
	assert.Error(t, err)
}
