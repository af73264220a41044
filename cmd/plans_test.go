package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ppmsim/core/model"
	"github.com/kilianp07/ppmsim/infra/store/sqlite"
)

func TestPlansCommandListsActivePlans(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "plans.db")
	cfgFile := filepath.Join(dir, "config.yaml")
	data := fmt.Sprintf(`mqtt:
  broker: "tcp://localhost:1883"
store:
  path: %q
guide:
  path: "guide.xlsx"
simulation:
  topic: "t"
`, dbPath)
	require.NoError(t, os.WriteFile(cfgFile, []byte(data), 0o644))

	ctx := context.Background()
	store, err := sqlite.Open(ctx, sqlite.Config{Path: dbPath}, nil)
	require.NoError(t, err)
	p, err := store.AddProduct(ctx, "Widget", "project_1")
	require.NoError(t, err)
	require.NoError(t, store.AddProcessOrder(ctx, 1))
	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	now := time.Now().UTC()
	_, err = tx.Insert(ctx, model.PlanWindow{
		EntityID: "site$line1", ProductID: p.ID, ProjectID: p.ProjectID, PlannedQuantity: 40, ProcessOrderID: 1,
		Window: model.Window{Start: now.Add(-time.Hour).Truncate(time.Second), End: now.Add(time.Hour).Truncate(time.Second)},
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	require.NoError(t, store.Close())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"plans", "--config", cfgFile})
	defer rootCmd.SetArgs(nil)
	require.NoError(t, rootCmd.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "HIERARCHY")
	assert.Contains(t, lines[1], "site$line1")
	assert.Contains(t, lines[1], "Widget")
}
