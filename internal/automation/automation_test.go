package automation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaxs-ribs/arena-sub001/internal/config"
	"github.com/jaxs-ribs/arena-sub001/internal/storage"
)

const scenarioYAML = `
name: smoke
description: two short runs
steps:
  - scene: drop
    preset: low
    steps: 50
    save: true
  - scene: chain
    steps: 20
    repeat: 2
    params:
      count: 3
`

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadAndRunScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, scenarioYAML))
	require.NoError(t, err)
	assert.Equal(t, "smoke", sc.Name)
	require.Len(t, sc.Steps, 2)

	st := storage.New(t.TempDir())
	require.NoError(t, st.Init())
	results, err := RunScenario(context.Background(), sc, st, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.NotEmpty(t, results[0].RunID)
	assert.Empty(t, results[1].RunID)
	assert.Equal(t, 1, results[2].Repeat)
	assert.Contains(t, results[0].Metrics, "kinetic_energy")

	runs, err := st.List()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "low", runs[0].Preset)
	assert.Equal(t, 50, runs[0].Steps)
}

func TestLoadScenarioWithoutSteps(t *testing.T) {
	_, err := LoadScenario(writeScenario(t, "name: empty\n"))
	assert.Error(t, err)
}

func TestStepConfig(t *testing.T) {
	cfg, err := ScenarioStep{Scene: "drop", Preset: "hover", Params: map[string]float64{"kp": 7}}.Config()
	require.NoError(t, err)
	assert.Equal(t, "pid", cfg.Controller.Kind)
	assert.Equal(t, 7.0, cfg.Controller.Kp)

	_, err = ScenarioStep{Scene: "drop", Preset: "nope"}.Config()
	assert.Error(t, err)
	_, err = ScenarioStep{Params: map[string]float64{"warp": 1}}.Config()
	assert.ErrorIs(t, err, config.ErrUnknownParam)
}

func TestRunSweep(t *testing.T) {
	base := config.GetPreset("drop", "low")
	base.Steps = 10
	results, err := RunSweep(context.Background(), &ParameterSweep{
		Base: base, Param: "height", Min: 2, Max: 4, Count: 3,
	}, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []float64{2, 3, 4}, []float64{results[0].ParamValue, results[1].ParamValue, results[2].ParamValue})
	assert.Less(t, results[0].Final.Position.Y(), results[2].Final.Position.Y())
	assert.Equal(t, 2.0, base.Params.Height)
}
