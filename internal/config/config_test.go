package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opal-lang/golfc/core/engine"
	"github.com/opal-lang/golfc/internal/config"
)

func TestParseYAML(t *testing.T) {
	f, err := config.Parse([]byte(`
version: "1.0"
languages: [nim, js]
scoring: emit-only
max_sweeps: 20
telemetry: timing
debug: phases
search:
  beam_width: 3
  workers: 4
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"nim", "js"}, f.Languages)

	want := engine.DefaultConfig()
	want.Scoring = engine.ScoreEmitOnly
	want.MaxSweeps = 20
	want.Telemetry = engine.TelemetryTiming
	want.Debug = engine.DebugPhases
	want.Search.BeamWidth = 3
	want.Search.Workers = 4
	if diff := cmp.Diff(want, f.Engine()); diff != "" {
		t.Errorf("engine config mismatch (-want +got):\n%s", diff)
	}
}

func TestParseJSON(t *testing.T) {
	f, err := config.Parse([]byte(`{"version": "v1.0.0", "search": {"max_steps": 10}}`))
	require.NoError(t, err)
	cfg := f.Engine()
	assert.Equal(t, 10, cfg.Search.MaxSteps)
	assert.Equal(t, engine.DefaultSearchBudget().BeamWidth, cfg.Search.BeamWidth)
	assert.Equal(t, engine.ScoreFull, cfg.Scoring)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing version", `languages: [nim]`},
		{"version is a number", `version: 1.0`},
		{"version is not semantic", `version: "one"`},
		{"unsupported major version", `version: "2.0.0"`},
		{"newer minor version", `version: "1.3.0"`},
		{"unknown key", "version: \"1\"\nbeam: 3"},
		{"unknown scoring", "version: \"1\"\nscoring: fastest"},
		{"zero workers", "version: \"1\"\nsearch: {workers: 0}"},
		{"empty document", ``},
		{"malformed", `version: [`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Parse([]byte(tt.doc))
			var ce *config.Error
			assert.True(t, errors.As(err, &ce), "got %v", err)
		})
	}
}

func TestLoadNamesTheFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "golfc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`version: "9"`), 0o644))

	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
