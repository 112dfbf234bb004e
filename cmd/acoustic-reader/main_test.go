package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"acoustic-collector/internal/config"
	"acoustic-collector/internal/filewriter"
	"acoustic-collector/internal/render"
)

func constantCapture(t *testing.T, dir string, n int) string {
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = 100
	}
	path := filepath.Join(dir, "1.csv")
	require.NoError(t, filewriter.WriteCaptureCSV(path, samples))
	return path
}

func TestConfiguredWindowReachesFeatures(t *testing.T) {
	dir := t.TempDir()
	capturePath := constantCapture(t, dir, 640)

	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("features:\n  window_ms: 20\n"), 0644))

	v := viper.New()
	require.NoError(t, config.Prepare(v))
	v.SetConfigFile(cfgPath)
	require.NoError(t, v.ReadInConfig())
	cfg, err := config.Load(v)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, displayFile(&out, capturePath, cfg, displayOptions{Features: true, Format: render.FormatCSV}))
	assert.Equal(t, "time_sec,rms,zcr\n0.0000,100,0\n0.0200,100,0\n", out.String())
}

func TestDefaultWindow(t *testing.T) {
	capturePath := constantCapture(t, t.TempDir(), 640)

	var out bytes.Buffer
	require.NoError(t, displayFile(&out, capturePath, config.DefaultConfig(), displayOptions{Features: true, Format: render.FormatCSV}))
	assert.Contains(t, out.String(), "0.0300,100,0\n")
}

func TestDisplayInfoUsesWAVRate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "1.wav")
	require.NoError(t, filewriter.WriteWAV(path, 8000, []int16{-5, 0, 7, 3}))

	var out bytes.Buffer
	require.NoError(t, displayFile(&out, path, config.DefaultConfig(), displayOptions{Stats: true}))
	assert.Contains(t, out.String(), "Sample Rate: 8000 Hz")
	assert.Contains(t, out.String(), "Range: -5 to 7")
	assert.Contains(t, out.String(), "Feature Summary (10 ms windows):")
}

func TestResolveCapture(t *testing.T) {
	dir := filepath.Join("data", "captures")

	assert.Equal(t, filepath.Join(dir, "3.csv"), resolveCapture("3", dir))
	assert.Equal(t, filepath.Join(dir, "12.csv"), resolveCapture("12", dir))
	assert.Equal(t, "other/3.wav", resolveCapture("other/3.wav", dir))
	assert.Equal(t, "0", resolveCapture("0", dir))
	assert.Equal(t, "-1", resolveCapture("-1", dir))
}
