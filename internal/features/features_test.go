package features

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowLength(t *testing.T) {
	n, err := WindowLength(16000, 10)
	require.NoError(t, err)
	assert.Equal(t, 160, n)

	n, err = WindowLength(44100, 10)
	require.NoError(t, err)
	assert.Equal(t, 441, n)

	// 0.04 ms at 16 kHz is 0.64 samples and rounds up to one
	n, err = WindowLength(16000, 0.04)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	for _, tt := range []struct {
		rate int
		ms   float64
	}{
		{16000, 0.01},
		{16000, 0},
		{16000, -10},
		{16000, math.NaN()},
		{0, 10},
	} {
		_, err := WindowLength(tt.rate, tt.ms)
		assert.ErrorIs(t, err, ErrInvalidWindowSize, "rate=%d ms=%v", tt.rate, tt.ms)
	}
}

func TestExtractInvalidWindow(t *testing.T) {
	_, _, err := Extract(make([]int16, 100), 16000, 0.01)
	assert.ErrorIs(t, err, ErrInvalidWindowSize)
}

func TestExtractZeroSignal(t *testing.T) {
	rms, zcr, err := Extract(make([]int16, 480), 16000, 10)
	require.NoError(t, err)

	require.Equal(t, 3, rms.Len())
	require.Equal(t, 3, zcr.Len())
	for i := 0; i < 3; i++ {
		assert.Equal(t, 0.0, rms.Value[i])
		assert.Equal(t, 0.0, zcr.Value[i])
	}
}

func TestExtractPartialWindows(t *testing.T) {
	tests := []struct {
		samples int
		rms     int
		zcr     int
	}{
		{170, 2, 2}, // 160 + 10
		{161, 2, 1}, // 160 + 1: a single trailing sample has no crossings to count
		{160, 1, 1},
		{1, 1, 0},
		{0, 0, 0},
	}

	for _, tt := range tests {
		rms, zcr, err := Extract(make([]int16, tt.samples), 16000, 10)
		require.NoError(t, err)
		assert.Equal(t, tt.rms, rms.Len(), "rms windows for %d samples", tt.samples)
		assert.Equal(t, tt.zcr, zcr.Len(), "zcr windows for %d samples", tt.samples)
		assert.Len(t, rms.Time, rms.Len())
		assert.Len(t, zcr.Time, zcr.Len())
	}
}

func TestWindowStartTimes(t *testing.T) {
	rms, zcr, err := Extract(make([]int16, 330), 16000, 10)
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 0.01, 0.02}, rms.Time)
	assert.Equal(t, []float64{0, 0.01, 0.02}, zcr.Time)
}

func TestRMSValues(t *testing.T) {
	// window of 4: {3, -4, 3, -4} -> sqrt((9+16+9+16)/4) = sqrt(12.5)
	// trailing window {10} -> 10
	s := RMS([]int16{3, -4, 3, -4, 10}, 4, 4)
	require.Equal(t, 2, s.Len())
	assert.InDelta(t, math.Sqrt(12.5), s.Value[0], 1e-12)
	assert.Equal(t, 10.0, s.Value[1])
	assert.Equal(t, []float64{0, 1}, s.Time)

	// full-scale samples must not overflow
	full := RMS([]int16{math.MinInt16, math.MinInt16}, 2, 2)
	assert.Equal(t, 32768.0, full.Value[0])
}

func TestZCRCounting(t *testing.T) {
	tests := []struct {
		name    string
		samples []int16
		want    float64
	}{
		{"alternating", []int16{1, -1, 1, -1}, 3},
		{"through zero", []int16{-5, 0, 5}, 1},
		{"into zero", []int16{-5, 0}, 0.5},
		{"zero to zero", []int16{0, 0, 0}, 0},
		{"no crossings", []int16{100, 200, 300}, 0},
		{"full swing", []int16{math.MaxInt16, math.MinInt16}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ZCR(tt.samples, 1000, len(tt.samples))
			require.Equal(t, 1, s.Len())
			assert.Equal(t, tt.want, s.Value[0])
		})
	}
}

func TestZCRDoesNotCrossWindows(t *testing.T) {
	// The sign change between samples 1 and 2 straddles the window boundary.
	s := ZCR([]int16{5, 5, -5, -5}, 1000, 2)
	assert.Equal(t, []float64{0, 0}, s.Value)
}

func TestExtractIsIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	samples := make([]int16, 16000+37)
	for i := range samples {
		samples[i] = int16(rng.Intn(65536) - 32768)
	}

	rms1, zcr1, err := Extract(samples, 16000, 10)
	require.NoError(t, err)
	rms2, zcr2, err := Extract(samples, 16000, 10)
	require.NoError(t, err)

	assert.Equal(t, rms1, rms2)
	assert.Equal(t, zcr1, zcr2)
	for i := range rms1.Value {
		assert.Equal(t, math.Float64bits(rms1.Value[i]), math.Float64bits(rms2.Value[i]))
	}
}

func TestSummarize(t *testing.T) {
	rms := Series{Time: []float64{0, 1, 2, 3}, Value: []float64{2, 4, 4, 6}}
	zcr := Series{Time: []float64{0, 1}, Value: []float64{10, 20}}

	s := Summarize(rms, zcr)

	assert.Equal(t, 4.0, s.RMS.Avg)
	assert.InDelta(t, math.Sqrt(2), s.RMS.Stdev, 1e-12)
	assert.Equal(t, 2.0, s.RMS.Min)
	assert.Equal(t, 6.0, s.RMS.Max)
	assert.Equal(t, 4, s.RMS.Count)

	assert.Equal(t, 15.0, s.ZCR.Avg)
	assert.Equal(t, 5.0, s.ZCR.Stdev)
	assert.Equal(t, 2, s.ZCR.Count)

	assert.Equal(t, Aggregate{}, Aggregated(nil))
}
