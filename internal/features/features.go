// Package features derives windowed RMS and zero-crossing series from PCM
// samples. Everything here is pure: the same samples and window always give
// bit-identical output, so a stored capture can be re-analysed offline and
// compared with what the sensor reported live.
package features

import (
	"errors"
	"fmt"
	"math"
)

// DefaultWindowMs is the window used when none is configured.
const DefaultWindowMs = 10.0

// ErrInvalidWindowSize is returned when the window rounds to less than one sample.
var ErrInvalidWindowSize = errors.New("invalid window size")

// Minimum samples a window needs to appear in each series.
const (
	minRMSSamples = 1
	minZCRSamples = 2
)

// Series is a feature value per window. Time holds each window's start in
// seconds; Time and Value always have the same length.
type Series struct {
	Time  []float64
	Value []float64
}

// Len returns the number of windows.
func (s Series) Len() int {
	return len(s.Value)
}

// WindowLength converts a window duration to a sample count:
// round(windowMs / 1000 * sampleRate).
func WindowLength(sampleRate int, windowMs float64) (int, error) {
	if sampleRate <= 0 {
		return 0, fmt.Errorf("%w: sample rate %d Hz", ErrInvalidWindowSize, sampleRate)
	}
	n := math.Round(windowMs / 1000 * float64(sampleRate))
	if math.IsNaN(n) || n < 1 {
		return 0, fmt.Errorf("%w: %g ms at %d Hz is less than one sample", ErrInvalidWindowSize, windowMs, sampleRate)
	}
	if n > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %g ms at %d Hz is too long", ErrInvalidWindowSize, windowMs, sampleRate)
	}
	return int(n), nil
}

// Extract computes the RMS and ZCR series of samples over consecutive,
// non-overlapping windows of windowMs. The trailing partial window is kept in
// the RMS series when it has at least one sample and in the ZCR series when it
// has at least two, so the ZCR series can be one window shorter.
func Extract(samples []int16, sampleRate int, windowMs float64) (rms, zcr Series, err error) {
	windowLen, err := WindowLength(sampleRate, windowMs)
	if err != nil {
		return Series{}, Series{}, err
	}
	return RMS(samples, sampleRate, windowLen), ZCR(samples, sampleRate, windowLen), nil
}

// RMS returns sqrt(mean(s^2)) per window of windowLen samples.
func RMS(samples []int16, sampleRate, windowLen int) Series {
	return perWindow(samples, sampleRate, windowLen, minRMSSamples, rootMeanSquare)
}

// ZCR returns the zero-crossing count per window of windowLen samples.
func ZCR(samples []int16, sampleRate, windowLen int) Series {
	return perWindow(samples, sampleRate, windowLen, minZCRSamples, zeroCrossings)
}

func perWindow(samples []int16, sampleRate, windowLen, minSamples int, f func([]int16) float64) Series {
	if windowLen < 1 || sampleRate <= 0 {
		return Series{}
	}

	count := (len(samples) + windowLen - 1) / windowLen
	s := Series{
		Time:  make([]float64, 0, count),
		Value: make([]float64, 0, count),
	}
	for start := 0; start < len(samples); start += windowLen {
		end := min(start+windowLen, len(samples))
		if end-start < minSamples {
			continue
		}
		s.Time = append(s.Time, float64(start)/float64(sampleRate))
		s.Value = append(s.Value, f(samples[start:end]))
	}
	return s
}

// rootMeanSquare sums squares exactly in int64; 32768^2 * 2^32 still fits.
func rootMeanSquare(w []int16) float64 {
	var sum int64
	for _, v := range w {
		sum += int64(v) * int64(v)
	}
	return math.Sqrt(float64(sum) / float64(len(w)))
}

// zeroCrossings returns sum(|sign(s[i]) - sign(s[i-1])|) / 2 with sign(0) = 0.
// A pass through an exact zero counts as two half crossings, so a window that
// stops on or starts from zero yields a half-integer.
func zeroCrossings(w []int16) float64 {
	var steps int
	prev := sign(w[0])
	for _, v := range w[1:] {
		cur := sign(v)
		d := cur - prev
		if d < 0 {
			d = -d
		}
		steps += d
		prev = cur
	}
	return float64(steps) / 2
}

func sign(v int16) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
