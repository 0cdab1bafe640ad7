package config

import (
	"os"
	"path/filepath"
	"testing"

	"bmpconverter/database"
	"bmpconverter/scanner"
	"bmpconverter/types"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(args ...string) (*Config, error) {
	return Load(NewFlagSet("bmpconv"), args)
}

func TestLoadDefaults(t *testing.T) {
	c, err := load("in", "d", "out")
	require.NoError(t, err)
	assert.Equal(t, "in", c.InputRoot)
	assert.Equal(t, types.Digits, c.LabelSet)
	assert.Equal(t, "out", c.StorePath)
	assert.Equal(t, scanner.MaxConcurrency, c.Workers)
	assert.Equal(t, scanner.Waves, c.Schedule)
	assert.Equal(t, database.Bolt, c.Backend)
	assert.Equal(t, DecoderOpenCV, c.Decoder)
	assert.Equal(t, int64(1<<30), c.MapSize)
	assert.Equal(t, int64(3000), c.ProgressEvery)
	assert.Equal(t, 1.4, c.Scale)
	assert.Equal(t, ".bmp", c.Extension)
}

func TestLoadFlags(t *testing.T) {
	c, err := load("--workers=3", "--schedule", "pool", "in", "S", "out",
		"--backend=sqlite", "--map-size=64MiB", "--decoder=native", "--debug")
	require.NoError(t, err)
	assert.Equal(t, 3, c.Workers)
	assert.Equal(t, scanner.Pool, c.Schedule)
	assert.Equal(t, types.Lowercase, c.LabelSet)
	assert.Equal(t, database.SQLite, c.Backend)
	assert.Equal(t, int64(64<<20), c.MapSize)
	assert.Equal(t, DecoderNative, c.Decoder)
	assert.True(t, c.Debug)
}

func TestLoadEnvAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.toml")
	require.NoError(t, os.WriteFile(path, []byte("workers = 7\nscale = 1.5\n"), 0644))
	t.Setenv("BMPCONV_PROGRESS_EVERY", "10")
	t.Setenv("BMPCONV_WORKERS", "5")

	c, err := load("-c", path, "in", "c", "out")
	require.NoError(t, err)
	assert.Equal(t, types.Uppercase, c.LabelSet)
	assert.Equal(t, 5, c.Workers, "environment beats file")
	assert.Equal(t, 1.5, c.Scale)
	assert.Equal(t, int64(10), c.ProgressEvery)

	c, err = load("-c", path, "--workers=2", "in", "c", "out")
	require.NoError(t, err)
	assert.Equal(t, 2, c.Workers, "flag beats environment")
}

func TestLoadUsageErrors(t *testing.T) {
	for _, args := range [][]string{
		{},
		{"in", "d"},
		{"in", "x", "out"},
		{"--help"},
		{"--no-such-flag", "in", "d", "out"},
	} {
		_, err := load(args...)
		assert.Equal(t, ErrUsage, errors.Cause(err), "%v", args)
	}
}

func TestLoadInvalidOptions(t *testing.T) {
	for _, args := range [][]string{
		{"--workers=0", "in", "d", "out"},
		{"--scale=3", "in", "d", "out"},
		{"--schedule=random", "in", "d", "out"},
		{"--backend=lmdb", "in", "d", "out"},
		{"--map-size=10", "in", "d", "out"},
		{"--decoder=magick", "in", "d", "out"},
	} {
		_, err := load(args...)
		require.Error(t, err, "%v", args)
		assert.NotEqual(t, ErrUsage, errors.Cause(err), "%v", args)
	}
}
