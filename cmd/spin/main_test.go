package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/wheels/internal/game/round"
	"github.com/cory-johannsen/wheels/internal/game/wheel"
)

func decode(t *testing.T, out string) round.State {
	t.Helper()
	end := strings.LastIndex(out, "}")
	require.GreaterOrEqual(t, end, 0, out)
	var st round.State
	require.NoError(t, json.Unmarshal([]byte(out[:end+1]), &st))
	return st
}

func TestRun_SeededIsReproducible(t *testing.T) {
	var a, b bytes.Buffer
	require.NoError(t, run([]string{"-seed", "42"}, &a, &bytes.Buffer{}))
	require.NoError(t, run([]string{"-seed", "42"}, &b, &bytes.Buffer{}))
	assert.Equal(t, a.String(), b.String())

	st := decode(t, a.String())
	assert.True(t, st.ReplacementAvailable)
	assert.False(t, st.Has(wheel.CheatersWheel))
	assert.False(t, st.Has(wheel.WinnersWheel))
	assert.Equal(t, wheel.ColorSelection, st.Results[len(st.Results)-1].Wheel)
}

func TestRun_CheatAndWin(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"-seed", "3", "-cheat", "-win"}, &out, &bytes.Buffer{}))
	st := decode(t, out.String())
	assert.True(t, st.DidCheat)
	assert.True(t, st.DidWin)
	assert.False(t, st.ReplacementAvailable)
	assert.True(t, st.Has(wheel.CheatersWheel))
	assert.True(t, st.Has(wheel.WinnersWheel))

	first, ok := st.Result(wheel.FirstCondition)
	require.True(t, ok)
	assert.Len(t, first.Labels, 2)
}

func TestRun_Replace(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"-seed", "9", "-replace", wheel.StructuralCondition}, &out, &bytes.Buffer{}))
	assert.Contains(t, out.String(), wheel.StructuralCondition+" replaced with: ")
	st := decode(t, out.String())
	assert.True(t, st.ReplacementUsed)
	assert.Equal(t, []string{wheel.StructuralCondition}, st.Replaced)
}

func TestRun_ReplaceIneligible(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"-seed", "9", "-cheat", "-replace", wheel.ManaBase}, &out, &bytes.Buffer{}))
	assert.Contains(t, out.String(), round.MsgCheatersBarred)
	assert.False(t, decode(t, out.String()).ReplacementUsed)
}

func TestRun_WheelsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wheels.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
wheels:
  - name: Mana
    role: mana-base
    outcomes: ["1"]
  - name: Colors
    role: color-selection
    outcomes: [Red]
  - name: Swap
    role: replacement
    outcomes: [Freebie]
`), 0644))

	var out bytes.Buffer
	require.NoError(t, run([]string{"-wheels", path}, &out, &bytes.Buffer{}))
	st := decode(t, out.String())
	assert.Equal(t, []round.Result{
		round.Single("Mana", "1"),
		round.Multi("Colors", []string{"Red"}),
	}, st.Results)
}

func TestRun_DumpWheelsLoadsBack(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"-dump-wheels"}, &out, &bytes.Buffer{}))

	path := filepath.Join(t.TempDir(), "wheels.yaml")
	require.NoError(t, os.WriteFile(path, out.Bytes(), 0644))
	reg, err := wheel.LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, wheel.DefaultRegistry().Len(), reg.Len())

	var spun bytes.Buffer
	require.NoError(t, run([]string{"-seed", "5", "-wheels", path}, &spun, &bytes.Buffer{}))
	var want bytes.Buffer
	require.NoError(t, run([]string{"-seed", "5"}, &want, &bytes.Buffer{}))
	assert.Equal(t, want.String(), spun.String())
}

func TestRun_Errors(t *testing.T) {
	assert.Error(t, run([]string{"-bogus"}, &bytes.Buffer{}, &bytes.Buffer{}))
	assert.Error(t, run([]string{"-wheels", filepath.Join(t.TempDir(), "missing.yaml")}, &bytes.Buffer{}, &bytes.Buffer{}))
}
