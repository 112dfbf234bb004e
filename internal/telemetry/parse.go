package telemetry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/adrianmo/go-nmea"
)

// Line shapes
const (
	TagStats   = "STATS"
	TagPattern = "PATTERN"

	statsFieldCount  = 11
	patternMinFields = 8
	patternGapsField = 8
	dataMinFields    = 4
	dataMaxFields    = 5
)

// ErrMalformedLine is matched by every line the decoder discards.
var ErrMalformedLine = errors.New("malformed telemetry line")

// Discard reasons reported by LineError.
const (
	ReasonShape   = "shape"
	ReasonStats   = "stats"
	ReasonPattern = "pattern"
	ReasonData    = "data"
)

// LineError describes a discarded line.
type LineError struct {
	Reason string // one of the Reason* constants
	Line   string
	Err    error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("malformed telemetry line %q: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() []error {
	return []error{ErrMalformedLine, e.Err}
}

// Parse decodes one line without its terminator. It does not assign a timestamp.
func Parse(line string) (Record, error) {
	fields := strings.Split(line, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	var (
		rec    Record
		err    error
		reason string
	)
	switch {
	case fields[0] == TagStats && len(fields) == statsFieldCount:
		rec, err = parseStats(fields[1:])
		reason = ReasonStats
	case fields[0] == TagPattern && len(fields) >= patternMinFields:
		rec, err = parsePattern(fields[1:])
		reason = ReasonPattern
	case len(fields) >= dataMinFields && len(fields) <= dataMaxFields:
		rec, err = parseData(fields)
		reason = ReasonData
	default:
		return nil, &LineError{
			Reason: ReasonShape,
			Line:   line,
			Err:    fmt.Errorf("unrecognized shape: first field %q with %d fields", fields[0], len(fields)),
		}
	}

	if err != nil {
		return nil, &LineError{Reason: reason, Line: line, Err: err}
	}
	return rec, nil
}

// fieldParser adds required-field checks on top of nmea.Parser, which reads an
// empty field as zero.
type fieldParser struct {
	*nmea.Parser
}

func newFieldParser(typ string, fields []string) fieldParser {
	return fieldParser{nmea.NewParser(nmea.BaseSentence{
		Type:   typ,
		Fields: fields,
		Raw:    strings.Join(fields, ","),
	})}
}

func (p fieldParser) require(i int, name string) {
	if p.Err() == nil && i < len(p.Fields) && p.Fields[i] == "" {
		p.SetErr(name, "empty field")
	}
}

func (p fieldParser) float(i int, name string) float64 {
	p.require(i, name)
	return p.Float64(i, name)
}

func (p fieldParser) integer(i int, name string) int {
	p.require(i, name)
	return int(p.Int64(i, name))
}

func parseStats(fields []string) (*Stats, error) {
	p := newFieldParser(TagStats, fields)
	s := &Stats{
		RMSAvg:           p.float(0, "rms_avg"),
		RMSStdev:         p.float(1, "rms_stdev"),
		RMSMin:           p.float(2, "rms_min"),
		RMSMax:           p.float(3, "rms_max"),
		ZCRAvg:           p.float(4, "zcr_avg"),
		ZCRStdev:         p.float(5, "zcr_stdev"),
		ZCRMin:           p.integer(6, "zcr_min"),
		ZCRMax:           p.integer(7, "zcr_max"),
		NoiseFloor:       p.float(8, "noise_floor"),
		DynamicThreshold: p.float(9, "dynamic_threshold"),
	}
	if err := p.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

func parsePattern(fields []string) (*Pattern, error) {
	p := newFieldParser(TagPattern, fields)
	clapCount := p.integer(0, "clap_count")
	p.require(1, "pattern_type")
	patternType := p.EnumString(1, "pattern_type", string(PatternShort), string(PatternLong), string(PatternMixed))
	pat := &Pattern{
		ClapCount:  clapCount,
		Type:       PatternType(patternType),
		DurationMs: p.integer(2, "duration_ms"),
		RMSAvg:     p.float(3, "rms_avg"),
		RMSMin:     p.float(4, "rms_min"),
		RMSMax:     p.float(5, "rms_max"),
		ZCRAvg:     p.integer(6, "zcr_avg"),
	}
	if err := p.Err(); err != nil {
		return nil, err
	}

	// fields is shifted by one relative to the line
	if gi := patternGapsField - 1; gi < len(fields) && fields[gi] != "" {
		pat.Gaps = strings.Split(fields[gi], ":")
		for i := range pat.Gaps {
			pat.Gaps[i] = strings.TrimSpace(pat.Gaps[i])
		}
	}
	return pat, nil
}

func parseData(fields []string) (*Data, error) {
	p := newFieldParser(KindData.String(), fields)
	d := &Data{
		RMS:        p.float(0, "rms"),
		ZCR:        p.integer(1, "zcr"),
		NoiseFloor: p.float(2, "noise_floor"),
		Trigger:    p.integer(3, "trigger"),
	}
	if len(fields) == dataMaxFields {
		p.require(4, "device_timestamp_ms")
		d.DeviceTimestampMs = p.Int64(4, "device_timestamp_ms")
	}
	if err := p.Err(); err != nil {
		return nil, err
	}
	return d, nil
}
