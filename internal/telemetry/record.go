// Package telemetry decodes the sensor's ASCII telemetry lines into typed records.
//
// Three line shapes are recognised, checked in this order:
//
//	STATS,rms_avg,rms_stdev,rms_min,rms_max,zcr_avg,zcr_stdev,zcr_min,zcr_max,noise_floor,dynamic_threshold
//	PATTERN,clap_count,pattern_type,duration_ms,rms_avg,rms_min,rms_max,zcr_avg[,gaps]
//	rms,zcr,noise_floor,trigger[,device_timestamp_ms]
//
// The untagged rolling sample is only tried when neither keyword shape matched,
// since a truncated STATS or PATTERN line can otherwise look like one.
package telemetry

import (
	"fmt"
	"strconv"
	"time"
)

// Kind identifies a record variant.
type Kind int

const (
	KindStats Kind = iota + 1
	KindData
	KindPattern
)

func (k Kind) String() string {
	switch k {
	case KindStats:
		return "STATS"
	case KindData:
		return "DATA"
	case KindPattern:
		return "PATTERN"
	default:
		return "UNKNOWN"
	}
}

// PatternType classifies the claps of a PATTERN event.
type PatternType string

const (
	PatternShort PatternType = "SHORT"
	PatternLong  PatternType = "LONG"
	PatternMixed PatternType = "MIXED"
)

// Record is one decoded telemetry line.
type Record interface {
	Kind() Kind
	// Elapsed is the host time since the session started, assigned at decode time.
	Elapsed() time.Duration
}

// Stamp carries the host-side relative timestamp of a record.
type Stamp struct {
	At time.Duration
}

func (s Stamp) Elapsed() time.Duration { return s.At }

func (s *Stamp) setElapsed(d time.Duration) { s.At = d }

// Stats is the device's rolling statistics snapshot.
type Stats struct {
	Stamp
	RMSAvg           float64
	RMSStdev         float64
	RMSMin           float64
	RMSMax           float64
	ZCRAvg           float64
	ZCRStdev         float64
	ZCRMin           int
	ZCRMax           int
	NoiseFloor       float64
	DynamicThreshold float64
}

func (*Stats) Kind() Kind { return KindStats }

// Data is one rolling RMS/ZCR sample. Trigger is reported as-is; whether it is
// an edge or a level is device firmware behaviour.
type Data struct {
	Stamp
	RMS               float64
	ZCR               int
	NoiseFloor        float64
	Trigger           int
	DeviceTimestampMs int64
}

func (*Data) Kind() Kind { return KindData }

// Triggered reports whether the device flagged this sample.
func (d *Data) Triggered() bool { return d.Trigger != 0 }

// Pattern is a discrete clap-pattern event.
type Pattern struct {
	Stamp
	ClapCount  int
	Type       PatternType
	DurationMs int
	RMSAvg     float64
	RMSMin     float64
	RMSMax     float64
	ZCRAvg     int
	Gaps       []string // inter-clap gaps in milliseconds, as sent
}

func (*Pattern) Kind() Kind { return KindPattern }

// GapDurations converts Gaps to durations.
func (p *Pattern) GapDurations() ([]time.Duration, error) {
	out := make([]time.Duration, 0, len(p.Gaps))
	for _, g := range p.Gaps {
		ms, err := strconv.ParseInt(g, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid gap %q: %w", g, err)
		}
		out = append(out, time.Duration(ms)*time.Millisecond)
	}
	return out, nil
}

// ClapName returns DOUBLE, TRIPLE or N-CLAP for the clap count.
func (p *Pattern) ClapName() string {
	switch p.ClapCount {
	case 2:
		return "DOUBLE"
	case 3:
		return "TRIPLE"
	default:
		return fmt.Sprintf("%d-CLAP", p.ClapCount)
	}
}
