package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwillem/armctl/pkg/control"
	"github.com/gwillem/armctl/pkg/preset"
	"github.com/gwillem/armctl/pkg/robot"
	"github.com/gwillem/armctl/pkg/store"
)

func TestActionsExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	records := []store.ActionRecord{
		store.RecordFrom(robot.Uniform(10)),
		store.RecordFrom(robot.Angles{1, 2, 3, 4, 5, 6}),
	}

	c := &ActionsCommand{Export: path, Name: "first", HoldMs: 500}
	require.NoError(t, c.export(records))
	c.Name = "second"
	require.NoError(t, c.export(records[:1]))

	lib, err := preset.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, lib.Names())

	g, _ := lib.Get("first")
	require.Len(t, g.Poses, 2)
	assert.Equal(t, robot.Angles{1, 2, 3, 4, 5, 6}, g.Poses[1].Target())
	assert.Equal(t, 500*time.Millisecond, g.Poses[1].Hold())
}

func TestRenderRecords(t *testing.T) {
	out := renderRecords([]store.ActionRecord{store.RecordFrom(robot.Angles{0, 45, 90, 135, 180, 7})})
	for _, want := range []string{"base", "gripper", "135", "180"} {
		assert.Contains(t, out, want)
	}
}

func TestLineWriter(t *testing.T) {
	w := make(lineWriter, 1)
	n, err := w.Write([]byte("first\n"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	_, err = w.Write([]byte("dropped\n"))
	require.NoError(t, err, "a full view never blocks the logger")
	assert.Equal(t, "first", <-w)
}

func TestTee(t *testing.T) {
	in := make(chan control.Snapshot)
	a := make(chan control.Snapshot, 1)
	b := make(chan control.Snapshot, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tee(ctx, in, a, b)

	in <- control.Snapshot{Mode: "knob"}
	in <- control.Snapshot{Mode: "host"}

	// stale snapshots are replaced, so each output ends on the newest
	for _, out := range []chan control.Snapshot{a, b} {
		timeout := time.After(time.Second)
		for done := false; !done; {
			select {
			case s := <-out:
				require.Contains(t, []string{"knob", "host"}, s.Mode)
				done = s.Mode == "host"
			case <-timeout:
				t.Fatal("newest snapshot never arrived")
			}
		}
	}
}
