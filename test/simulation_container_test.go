//go:build !no_containers

package test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ppmsim/core/model"
	"github.com/kilianp07/ppmsim/core/planner"
	"github.com/kilianp07/ppmsim/core/simulation"
	"github.com/kilianp07/ppmsim/infra/mqtt"
	"github.com/kilianp07/ppmsim/infra/store/sqlite"
	"github.com/kilianp07/ppmsim/test/util"
)

func TestSimulationPublishesToBroker(t *testing.T) {
	if testing.Short() {
		t.Skip("container test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	broker, cleanup, err := util.StartMosquitto(ctx)
	if err != nil {
		t.Skipf("mosquitto unavailable: %v", err)
	}
	defer cleanup()

	store, err := sqlite.Open(ctx, sqlite.Config{Path: filepath.Join(t.TempDir(), "plans.db")}, nil)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	_, err = store.AddProduct(ctx, "Widget", "project_827")
	require.NoError(t, err)
	require.NoError(t, store.AddProcessOrder(ctx, 1))

	q := 100
	rows := []model.GuideRow{{
		Row: 1, EntityID: "site$line1", ProductName: "Widget", Kind: model.KindDay, DurationHours: "24",
		PlannedQuantity: &q, FrequencyMinutes: 1, TotalUnitsPerCycle: 4, RejectPerHour: 2,
	}}
	sum, err := planner.NewScheduler(store, nil).Run(ctx, rows)
	require.NoError(t, err)
	require.Equal(t, 1, sum.Inserted)

	listener, err := util.Subscribe(broker, "plant/telemetry")
	require.NoError(t, err)
	defer listener.Close()

	client, err := mqtt.NewPahoClient(mqtt.Config{Broker: broker, QoS: 1})
	require.NoError(t, err)
	defer client.Disconnect()

	tags := model.Tags{Produced: "101", Reject: "102"}
	rec := simulation.NewReconciler(store, time.Minute, time.Second, nil, nil)
	emit := simulation.NewEmitter(client, "plant/telemetry", tags, simulation.NewGuideIndex(rows), time.Hour, nil, nil)
	sim := simulation.NewSimulator(rec, emit, time.Second, nil)
	emissions := sim.Step(ctx)
	require.Len(t, emissions, 2)

	payloads, err := listener.WaitFor(ctx, 2)
	require.NoError(t, err)
	var msg simulation.Message
	require.NoError(t, json.Unmarshal(payloads[0], &msg))
	assert.Equal(t, "site", msg.SiteID)
	assert.Equal(t, "project_827", msg.ProjectID)
	assert.EqualValues(t, 4, msg.Data["site$line1$101"])
	assert.Equal(t, "site$line1", msg.Data["site$line1$101_hierarchy"])
}
