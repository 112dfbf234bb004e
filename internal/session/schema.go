package session

import (
	"strconv"
	"strings"

	"acoustic-collector/internal/telemetry"
)

// Columns is the session log header. Every record kind writes a full row and
// leaves the columns of the other kinds empty.
var Columns = []string{
	"type",
	"time_sec",
	"rms",
	"zcr",
	"noise_floor",
	"trigger",
	"device_timestamp_ms",
	"rms_avg",
	"rms_stdev",
	"rms_min",
	"rms_max",
	"zcr_avg",
	"zcr_stdev",
	"zcr_min",
	"zcr_max",
	"dynamic_threshold",
	"clap_count",
	"pattern_type",
	"duration_ms",
	"gaps",
}

var columnIndex = func() map[string]int {
	m := make(map[string]int, len(Columns))
	for i, c := range Columns {
		m[c] = i
	}
	return m
}()

type row []string

func (r row) set(column, value string) {
	r[columnIndex[column]] = value
}

func (r row) float(column string, v float64) {
	r.set(column, strconv.FormatFloat(v, 'f', -1, 64))
}

func (r row) integer(column string, v int) {
	r.set(column, strconv.Itoa(v))
}

// Row renders rec as a session log row.
func Row(rec telemetry.Record) []string {
	r := make(row, len(Columns))
	r.set("type", rec.Kind().String())
	r.set("time_sec", strconv.FormatFloat(rec.Elapsed().Seconds(), 'f', 4, 64))

	switch v := rec.(type) {
	case *telemetry.Stats:
		r.float("noise_floor", v.NoiseFloor)
		r.float("rms_avg", v.RMSAvg)
		r.float("rms_stdev", v.RMSStdev)
		r.float("rms_min", v.RMSMin)
		r.float("rms_max", v.RMSMax)
		r.float("zcr_avg", v.ZCRAvg)
		r.float("zcr_stdev", v.ZCRStdev)
		r.integer("zcr_min", v.ZCRMin)
		r.integer("zcr_max", v.ZCRMax)
		r.float("dynamic_threshold", v.DynamicThreshold)
	case *telemetry.Data:
		r.float("rms", v.RMS)
		r.integer("zcr", v.ZCR)
		r.float("noise_floor", v.NoiseFloor)
		r.integer("trigger", v.Trigger)
		r.set("device_timestamp_ms", strconv.FormatInt(v.DeviceTimestampMs, 10))
	case *telemetry.Pattern:
		r.float("rms_avg", v.RMSAvg)
		r.float("rms_min", v.RMSMin)
		r.float("rms_max", v.RMSMax)
		r.integer("zcr_avg", v.ZCRAvg)
		r.integer("clap_count", v.ClapCount)
		r.set("pattern_type", string(v.Type))
		r.integer("duration_ms", v.DurationMs)
		r.set("gaps", strings.Join(v.Gaps, ":"))
	}
	return r
}
