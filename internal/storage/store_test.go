package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaxs-ribs/arena-sub001/internal/sim"
)

func sampleResult() *sim.Result {
	return &sim.Result{
		Times: []float64{0.01, 0.02},
		Samples: []sim.Sample{
			{Time: 0.01, Body: 1, Position: mgl64.Vec3{0, 9.5, 0}, Velocity: mgl64.Vec3{0, -0.1, 0}},
			{Time: 0.01, Body: 2, Position: mgl64.Vec3{3, 1, 0}, Force: mgl64.Vec3{0, 2, 0}},
			{Time: 0.02, Body: 1, Position: mgl64.Vec3{0, 9.4, 0}, Velocity: mgl64.Vec3{0, -0.2, 0}},
		},
		Metrics: map[string]float64{"kinetic_energy": 0.25},
	}
}

func TestSaveAndLoad(t *testing.T) {
	store := New(t.TempDir())
	require.NoError(t, store.Init())

	id, err := store.Save(RunMetadata{Scene: "drop", Dt: 0.01, Steps: 2, Bodies: 3}, sampleResult())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "drop_"))

	meta, err := store.Load(id)
	require.NoError(t, err)
	assert.Equal(t, id, meta.ID)
	assert.Equal(t, 3, meta.Samples)
	assert.Equal(t, 0.25, meta.Metrics["kinetic_energy"])
	assert.False(t, meta.Timestamp.IsZero())

	samples, err := store.LoadSamples(id)
	require.NoError(t, err)
	require.Len(t, samples, 3)
	assert.Equal(t, mgl64.Vec3{0, 2, 0}, samples[1].Force)

	traj, err := store.LoadTrajectory(id, 1)
	require.NoError(t, err)
	require.Len(t, traj, 2)
	assert.InDelta(t, 9.4, traj[1].Position.Y(), 1e-9)
	assert.InDelta(t, 0.02, traj[1].Time, 1e-9)
}

func TestRunIDsAreUnique(t *testing.T) {
	store := New(t.TempDir())
	a, err := store.Save(RunMetadata{Scene: "pile"}, sampleResult())
	require.NoError(t, err)
	b, err := store.Save(RunMetadata{Scene: "pile"}, sampleResult())
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	runs, err := store.List()
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestListSkipsJunk(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "not-a-run"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stray.txt"), []byte("x"), 0644))

	runs, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, runs)

	runs, err = New(filepath.Join(dir, "missing")).List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestLoadMissing(t *testing.T) {
	store := New(t.TempDir())
	_, err := store.Load("nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
	_, err = store.LoadSamples("nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestWriteCSVHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "time,body,x,y,z,vx,vy,vz,fx,fy,fz\n", buf.String())
}

func TestExportJSON(t *testing.T) {
	store := New(t.TempDir())
	require.NoError(t, store.Init())
	id, err := store.Save(RunMetadata{Scene: "drop", Dt: 0.01}, sampleResult())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, store.ExportJSON(&buf, id))

	var got ExportData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "drop", got.Scene)
	assert.Len(t, got.Trajectories[1], 2)
	assert.Len(t, got.Trajectories[2], 1)
	assert.InDelta(t, 9.4, got.Trajectories[1][1].Position.Y(), 1e-9)
}

func TestExportJSONMissing(t *testing.T) {
	store := New(t.TempDir())
	err := store.ExportJSON(&bytes.Buffer{}, "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
}
