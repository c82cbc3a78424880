package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "freezecompare.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := NewYAMLProvider(filepath.Join(t.TempDir(), "absent.yaml")).LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigMergesDefaults(t *testing.T) {
	path := writeConfig(t, `
inputs:
  freezeframe: ff.csv
  moseq: moseq.csv
experiment:
  total_time_seconds: 300
agreement:
  groups: [fear, control]
pose:
  freeze_syllables: ["12", "31"]
storage:
  sqlite:
    path: runs.db
output:
  format: msgpack
`)

	cfg, err := NewYAMLProvider(path).LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "ff.csv", cfg.Inputs.FreezeFrame)
	assert.Equal(t, 300.0, cfg.Experiment.TotalTimeSeconds)
	assert.Equal(t, []string{"fear", "control"}, cfg.Agreement.Groups)
	assert.Equal(t, []string{"12", "31"}, cfg.Pose.FreezeSyllables)
	require.NotNil(t, cfg.Storage.SQLite)
	assert.Equal(t, "runs.db", cfg.Storage.SQLite.Path)
	assert.Nil(t, cfg.Storage.TimescaleDB)
	assert.Equal(t, FormatMsgpack, cfg.Output.Format)

	// untouched keys keep their defaults
	assert.Equal(t, 5.0, cfg.Alignment.WindowSeconds)
	assert.Equal(t, 30.0, cfg.Alignment.FPS)
	assert.Equal(t, "condition", cfg.Agreement.GroupField)
	assert.Equal(t, "t(sec)", cfg.Inputs.Columns.Time)
	assert.Equal(t, "cohort_id", cfg.Session.CohortField)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed", "inputs: [unclosed"},
		{"zero window", "alignment:\n  window_seconds: 0\n"},
		{"negative total time", "experiment:\n  total_time_seconds: -60\n"},
		{"unknown format", "output:\n  format: xml\n"},
		{"sqlite without path", "storage:\n  sqlite: {}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewYAMLProvider(writeConfig(t, tt.body)).LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}
