// Package render draws captures and their feature series as ASCII plots.
package render

import (
	"fmt"
	"io"
	"math"
	"strings"

	"acoustic-collector/internal/features"
)

// Default plot size in characters.
const (
	DefaultWidth  = 80
	DefaultHeight = 20
)

// Panel is one plotted series against time in seconds.
type Panel struct {
	Title string
	Unit  string
	Time  []float64
	Value []float64
}

// Graph draws panels on a character grid.
type Graph struct {
	Width  int
	Height int
}

func (g Graph) size() (int, int) {
	w, h := g.Width, g.Height
	if w < 10 {
		w = DefaultWidth
	}
	if h < 2 {
		h = DefaultHeight
	}
	return w, h
}

// Plot writes p scaled to a time axis from 0 to duration seconds.
func (g Graph) Plot(out io.Writer, p Panel, duration float64) error {
	var b strings.Builder
	if len(p.Value) == 0 {
		fmt.Fprintf(&b, "%s: no data to display\n\n", p.Title)
		_, err := io.WriteString(out, b.String())
		return err
	}

	width, height := g.size()

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range p.Value {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}
	if duration <= 0 {
		duration = p.Time[len(p.Time)-1]
	}
	if duration <= 0 {
		duration = 1
	}

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}

	for i, v := range p.Value {
		x := int(p.Time[i] / duration * float64(width-1))
		x = max(0, min(x, width-1))

		// row 0 is the top of the plot
		y := int(math.Round(float64(height-1) * (1 - (v-lo)/(hi-lo))))
		y = max(0, min(y, height-1))

		if grid[y][x] == ' ' {
			grid[y][x] = '*'
		} else {
			grid[y][x] = '#'
		}
	}

	fmt.Fprintf(&b, "%s (%s)\n", p.Title, p.Unit)
	for i, row := range grid {
		label := lo + float64(height-1-i)/float64(height-1)*(hi-lo)
		fmt.Fprintf(&b, "%10.1f |%s|\n", label, string(row))
	}
	fmt.Fprintf(&b, "%10s +%s+\n", "", strings.Repeat("-", width))

	start, mid, end := "0s", fmt.Sprintf("%.3fs", duration/2), fmt.Sprintf("%.3fs", duration)
	axis := []rune(strings.Repeat(" ", width+2))
	copy(axis[1:], []rune(start))
	copy(axis[max(0, (width+2)/2-len(mid)/2):], []rune(mid))
	copy(axis[max(0, width+2-len(end)):], []rune(end))
	fmt.Fprintf(&b, "%10s %s\n\n", "", strings.TrimRight(string(axis), " "))

	_, err := io.WriteString(out, b.String())
	return err
}

// Options selects what Capture draws.
type Options struct {
	Graph
	// WindowMs is the feature window; 0 means features.DefaultWindowMs.
	WindowMs float64
	// Features adds the RMS and ZCR panels below the waveform.
	Features bool
}

// Capture plots a capture's waveform and, optionally, its RMS and ZCR series.
func Capture(out io.Writer, samples []int16, sampleRate int, opts Options) error {
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", sampleRate)
	}

	duration := float64(len(samples)) / float64(sampleRate)
	if _, err := fmt.Fprintf(out, "Samples: %d | Duration: %.3f s | Sample Rate: %d Hz\n\n",
		len(samples), duration, sampleRate); err != nil {
		return err
	}

	wave := Panel{
		Title: "Waveform",
		Unit:  "amplitude",
		Time:  make([]float64, len(samples)),
		Value: make([]float64, len(samples)),
	}
	for i, s := range samples {
		wave.Time[i] = float64(i) / float64(sampleRate)
		wave.Value[i] = float64(s)
	}
	if err := opts.Plot(out, wave, duration); err != nil {
		return err
	}

	if !opts.Features {
		return nil
	}

	windowMs := opts.WindowMs
	if windowMs == 0 {
		windowMs = features.DefaultWindowMs
	}
	rms, zcr, err := features.Extract(samples, sampleRate, windowMs)
	if err != nil {
		return err
	}

	title := fmt.Sprintf("RMS per %g ms window", windowMs)
	if err := opts.Plot(out, Panel{Title: title, Unit: "amplitude", Time: rms.Time, Value: rms.Value}, duration); err != nil {
		return err
	}
	title = fmt.Sprintf("ZCR per %g ms window", windowMs)
	return opts.Plot(out, Panel{Title: title, Unit: "crossings", Time: zcr.Time, Value: zcr.Value}, duration)
}
