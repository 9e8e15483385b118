package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/medlens/pkg/errors"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "model.gob", cfg.Model.Path)
	assert.Equal(t, "Test Results", cfg.Features.Target)
	assert.Equal(t, 0.2, cfg.Split.TestSize)
	assert.EqualValues(t, 42, cfg.Split.Seed)
	assert.Len(t, cfg.Model.ForestOptions(), 6)
}

func TestLoadEmptyViperGivesDefaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestLoadFileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
output:
  dir: out
  format: svg
model:
  n_estimators: 25
  criterion: entropy
split:
  test_size: 0.3
`), 0o644))
	t.Setenv("MEDLENS_MODEL_PATH", "models/forest.gob")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.Equal(t, "svg", cfg.Output.Format)
	assert.Equal(t, 8.0, cfg.Output.Width)
	assert.Equal(t, 25, cfg.Model.NEstimators)
	assert.Equal(t, "entropy", cfg.Model.Criterion)
	assert.Equal(t, "models/forest.gob", cfg.Model.Path)
	assert.Equal(t, 0.3, cfg.Split.TestSize)
	assert.Equal(t, Default().Features, cfg.Features)
}

func TestValidateNamesConfigKey(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		key    string
	}{
		{"test size", func(c *Config) { c.Split.TestSize = 1 }, "split.test_size"},
		{"format", func(c *Config) { c.Output.Format = "bmp" }, "output.format"},
		{"estimators", func(c *Config) { c.Model.NEstimators = 0 }, "model.n_estimators"},
		{"criterion", func(c *Config) { c.Model.Criterion = "log_loss" }, "model.criterion"},
		{"log level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			var validationErr *errors.ValidationError
			require.True(t, errors.As(err, &validationErr), "got %v", err)
			assert.Equal(t, tt.key, validationErr.ParamName)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Model.NEstimators = 7
	cfg.Output.Format = "pdf"
	path := filepath.Join(t.TempDir(), "nested", "medlens.yaml")
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, *loaded)
}

func TestOutputRenderer(t *testing.T) {
	r := Default().Output.Renderer()
	assert.Equal(t, "figures", r.Dir)
	assert.Equal(t, "png", r.Format)
}
