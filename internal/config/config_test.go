package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lsqErrors "github.com/ezoic/lsqlearn/pkg/errors"
)

// isolateHome points the default config lookup at an empty directory.
func isolateHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })
	return dir
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	isolateHome(t)

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, 250, cfg.Lasso.Samples)
	assert.Equal(t, []float64{3, -2, 1.5, 0, 0, 0, 0, 0, 0, 0}, cfg.Lasso.Coefficients)
	assert.Equal(t, "rbf", cfg.SGD.Kernel)
	assert.Equal(t, []float64{0.5, 1, 0}, cfg.SGD.Bandwidths)
	assert.Equal(t, 0.0, cfg.SGD.Eta0)
	assert.NoError(t, cfg.Validate())
}

func TestLoadSources(t *testing.T) {
	home := isolateHome(t)

	t.Run("home file", func(t *testing.T) {
		writeFile(t, home, ".lsqlearn.yaml", "lasso:\n  pathSteps: 4\n")
		defer os.Remove(filepath.Join(home, ".lsqlearn.yaml"))

		cfg, err := Load("", nil)
		require.NoError(t, err)
		assert.Equal(t, 4, cfg.Lasso.PathSteps)
	})

	t.Run("explicit file", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "run.yaml", `
logLevel: debug
lasso:
  coefficients: [1, 2]
  density: 0.3
sgd:
  kernel: fourier
  batchSize: 100
  monitoringFreq: 1000
`)
		cfg, err := Load(path, nil)
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, []float64{1, 2}, cfg.Lasso.Coefficients)
		assert.Equal(t, 0.3, cfg.Lasso.Density)
		assert.Equal(t, "fourier", cfg.SGD.Kernel)
		assert.Equal(t, 100, cfg.SGD.BatchSize)
		assert.Equal(t, 250, cfg.Lasso.Samples, "unset keys keep their defaults")
	})

	t.Run("env beats file", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "run.yaml", "sgd:\n  batchSize: 100\n  monitoringFreq: 1000\n")
		t.Setenv("LSQLEARN_SGD_BATCHSIZE", "25")
		t.Setenv("LSQLEARN_SEED", "7")

		cfg, err := Load(path, nil)
		require.NoError(t, err)
		assert.Equal(t, 25, cfg.SGD.BatchSize)
		assert.Equal(t, int64(7), cfg.Seed)
	})

	t.Run("flag beats env", func(t *testing.T) {
		t.Setenv("LSQLEARN_LOGLEVEL", "warn")
		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.String("log-level", "info", "")
		flags.Int64("seed", 42, "")
		require.NoError(t, flags.Parse([]string{"--log-level", "error"}))

		cfg, err := Load("", flags)
		require.NoError(t, err)
		assert.Equal(t, "error", cfg.LogLevel)
		assert.Equal(t, int64(42), cfg.Seed)
	})
}

func TestLoadErrors(t *testing.T) {
	isolateHome(t)
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"), nil)
	assert.Error(t, err)

	bad := writeFile(t, dir, "bad.yaml", "sgd: [unclosed\n")
	_, err = Load(bad, nil)
	assert.Error(t, err)

	invalid := writeFile(t, dir, "invalid.yaml", "sgd:\n  kernel: poly\n")
	_, err = Load(invalid, nil)
	assert.True(t, lsqErrors.Is(err, lsqErrors.ErrInvalidConfig))
}

func TestValidate(t *testing.T) {
	isolateHome(t)
	base, err := Load("", nil)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   []string
	}{
		{
			name:   "kernel and bandwidth",
			mutate: func(c *Config) { c.SGD.Kernel = "poly"; c.SGD.Bandwidths = []float64{1, -1} },
			want:   []string{"SGD.Kernel", "SGD.Bandwidths[1]", "2 errors occurred"},
		},
		{
			name:   "monitoring frequency",
			mutate: func(c *Config) { c.SGD.BatchSize = 70 },
			want:   []string{"not a multiple of SGD.BatchSize 70"},
		},
		{
			name:   "lasso ranges",
			mutate: func(c *Config) { c.Lasso.PathRatio = 1; c.Lasso.Coefficients = nil; c.LogLevel = "loud" },
			want:   []string{"Lasso.PathRatio", "Lasso.Coefficients", "LogLevel", "3 errors occurred"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *base
			cfg.SGD.Bandwidths = append([]float64(nil), base.SGD.Bandwidths...)
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, lsqErrors.Is(err, lsqErrors.ErrInvalidConfig))
			for _, w := range tt.want {
				assert.Contains(t, err.Error(), w)
			}
		})
	}
}
