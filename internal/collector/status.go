package collector

import (
	"fmt"
	"io"
	"strings"
	"time"

	"acoustic-collector/internal/capture"
	"acoustic-collector/internal/telemetry"
)

// statusPrinter writes the live console view. STATS lines overwrite each other
// with a carriage return; claps and patterns get lines of their own.
type statusPrinter struct {
	out     io.Writer
	enabled bool
}

func newStatusPrinter(out io.Writer, enabled bool) *statusPrinter {
	return &statusPrinter{out: out, enabled: enabled}
}

func (p *statusPrinter) record(rec telemetry.Record) {
	if !p.enabled {
		return
	}

	switch r := rec.(type) {
	case *telemetry.Stats:
		fmt.Fprintf(p.out, "\rRMS: %7.1f±%6.1f [%6.1f-%6.1f]  ZCR: %5.1f±%5.1f [%3d-%3d]  Threshold: %6.1f",
			r.RMSAvg, r.RMSStdev, r.RMSMin, r.RMSMax,
			r.ZCRAvg, r.ZCRStdev, r.ZCRMin, r.ZCRMax,
			r.DynamicThreshold)

	case *telemetry.Data:
		if !r.Triggered() {
			return
		}
		fmt.Fprintf(p.out, "\n[CLAP] t=%.3fs  RMS=%.1f  ZCR=%d  ts=%dms\n",
			r.Elapsed().Seconds(), r.RMS, r.ZCR, r.DeviceTimestampMs)

	case *telemetry.Pattern:
		fmt.Fprintf(p.out, "\n[%s - %s] t=%.3fs  Duration=%dms  Gaps=[%s]  RMS=%.1f [%.1f-%.1f]  ZCR=%d\n",
			r.ClapName(), r.Type, r.Elapsed().Seconds(), r.DurationMs,
			formatGaps(r), r.RMSAvg, r.RMSMin, r.RMSMax, r.ZCRAvg)
	}
}

// formatGaps renders the gaps as "40ms, 60ms". Gaps that are not whole
// milliseconds are shown as sent.
func formatGaps(r *telemetry.Pattern) string {
	durations, err := r.GapDurations()
	gaps := make([]string, len(r.Gaps))
	for i, g := range r.Gaps {
		if err != nil {
			gaps[i] = g + "ms"
		} else {
			gaps[i] = fmt.Sprintf("%dms", durations[i].Milliseconds())
		}
	}
	return strings.Join(gaps, ", ")
}

func (p *statusPrinter) capture(c *capture.Capture, sampleRate int) {
	if !p.enabled {
		return
	}
	fmt.Fprintf(p.out, "[%s] Received capture: %d samples (%.3f s)\n",
		c.ReceivedAt.Format(time.TimeOnly), len(c.Samples), c.Duration(sampleRate).Seconds())
}

func (p *statusPrinter) saved(filename string) {
	if !p.enabled {
		return
	}
	fmt.Fprintf(p.out, "[%s] Saved %s\n", time.Now().Format(time.TimeOnly), filename)
}
