package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"acoustic-collector/internal/features"
)

func TestPlotGrid(t *testing.T) {
	var buf bytes.Buffer
	g := Graph{Width: 20, Height: 5}
	p := Panel{Title: "Ramp", Unit: "u", Time: []float64{0, 0.5, 1}, Value: []float64{0, 5, 10}}

	require.NoError(t, g.Plot(&buf, p, 1))

	lines := strings.Split(buf.String(), "\n")
	assert.Equal(t, "Ramp (u)", lines[0])

	// 5 plot rows, each framed to the same width
	for _, l := range lines[1:6] {
		assert.Equal(t, 10+2+20+1, len(l), l)
	}
	assert.True(t, strings.HasSuffix(lines[1], "                   *|"), lines[1]) // max at the right edge
	assert.Contains(t, lines[5], "|*")                                            // min at the left edge
	assert.Contains(t, lines[6], "+"+strings.Repeat("-", 20)+"+")
	assert.Contains(t, lines[7], "1.000s")
}

func TestPlotEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Graph{}.Plot(&buf, Panel{Title: "ZCR"}, 1))
	assert.Equal(t, "ZCR: no data to display\n\n", buf.String())
}

func TestCaptureWithFeatures(t *testing.T) {
	samples := make([]int16, 480)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = 1000
		} else {
			samples[i] = -1000
		}
	}

	var buf bytes.Buffer
	err := Capture(&buf, samples, 16000, Options{Features: true})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Samples: 480 | Duration: 0.030 s | Sample Rate: 16000 Hz")
	assert.Contains(t, out, "Waveform (amplitude)")
	assert.Contains(t, out, "RMS per 10 ms window (amplitude)")
	assert.Contains(t, out, "ZCR per 10 ms window (crossings)")
}

func TestCaptureInvalidWindow(t *testing.T) {
	var buf bytes.Buffer
	err := Capture(&buf, make([]int16, 10), 16000, Options{Features: true, WindowMs: 0.01})
	assert.ErrorIs(t, err, features.ErrInvalidWindowSize)
}

func TestCaptureInvalidRate(t *testing.T) {
	assert.Error(t, Capture(&bytes.Buffer{}, nil, 0, Options{}))
}
