package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"acoustic-collector/internal/features"
)

// Export formats
const (
	FormatTable = "table"
	FormatCSV   = "csv"
	FormatJSON  = "json"
)

// FeatureRow is one window of a feature table. ZCR is nil for a trailing window
// too short to count crossings in.
type FeatureRow struct {
	TimeSec float64  `json:"time_sec"`
	RMS     float64  `json:"rms"`
	ZCR     *float64 `json:"zcr"`
}

// FeatureRows aligns the RMS and ZCR series window by window. The ZCR series is
// never longer than the RMS series.
func FeatureRows(rms, zcr features.Series) []FeatureRow {
	rows := make([]FeatureRow, rms.Len())
	for i := range rows {
		rows[i] = FeatureRow{TimeSec: rms.Time[i], RMS: rms.Value[i]}
		if i < zcr.Len() {
			v := zcr.Value[i]
			rows[i].ZCR = &v
		}
	}
	return rows
}

// WriteFeatures writes the per-window features in the given format.
func WriteFeatures(w io.Writer, rms, zcr features.Series, format string) error {
	rows := FeatureRows(rms, zcr)

	switch format {
	case FormatTable:
		if _, err := fmt.Fprintf(w, "%10s %12s %8s\n", "time_sec", "rms", "zcr"); err != nil {
			return err
		}
		for _, r := range rows {
			zcr := "-"
			if r.ZCR != nil {
				zcr = strconv.FormatFloat(*r.ZCR, 'f', 1, 64)
			}
			if _, err := fmt.Fprintf(w, "%10.4f %12.3f %8s\n", r.TimeSec, r.RMS, zcr); err != nil {
				return err
			}
		}
		return nil

	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"time_sec", "rms", "zcr"}); err != nil {
			return err
		}
		for _, r := range rows {
			zcr := ""
			if r.ZCR != nil {
				zcr = strconv.FormatFloat(*r.ZCR, 'f', -1, 64)
			}
			record := []string{
				strconv.FormatFloat(r.TimeSec, 'f', 4, 64),
				strconv.FormatFloat(r.RMS, 'f', -1, 64),
				zcr,
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()

	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)

	default:
		return fmt.Errorf("unknown format %q (must be table, csv or json)", format)
	}
}

// WriteSummary prints a feature summary in the shape of the sensor's STATS line.
func WriteSummary(w io.Writer, s features.Summary, windowMs float64) error {
	_, err := fmt.Fprintf(w, `Feature Summary (%g ms windows):
  RMS: %8.1f ± %6.1f  [%.1f - %.1f]  over %d windows
  ZCR: %8.1f ± %6.1f  [%.1f - %.1f]  over %d windows

`,
		windowMs,
		s.RMS.Avg, s.RMS.Stdev, s.RMS.Min, s.RMS.Max, s.RMS.Count,
		s.ZCR.Avg, s.ZCR.Stdev, s.ZCR.Min, s.ZCR.Max, s.ZCR.Count)
	return err
}
