package telemetry

import (
	"strings"
	"time"
)

// Counters tallies decoder outcomes for one session.
type Counters struct {
	Stats     int
	Data      int
	Pattern   int
	Malformed int
	Empty     int
}

// Decoded returns the number of records produced.
func (c Counters) Decoded() int {
	return c.Stats + c.Data + c.Pattern
}

// Decoder parses lines and stamps each record with the elapsed host time since
// the session started.
type Decoder struct {
	start  time.Time
	now    func() time.Time
	last   time.Duration
	counts Counters
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(d *Decoder) { d.now = now }
}

// NewDecoder creates a decoder whose timestamps are relative to start.
func NewDecoder(start time.Time, opts ...Option) *Decoder {
	d := &Decoder{start: start, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode parses one raw line as read from the transport. Invalid UTF-8 and
// surrounding whitespace are dropped first. A blank line yields no record and no
// error; a line that matches no shape, or fails to parse, returns an error
// matching ErrMalformedLine and the stream can simply continue.
func (d *Decoder) Decode(raw []byte) (Record, error) {
	line := strings.TrimSpace(strings.ToValidUTF8(string(raw), ""))
	if line == "" {
		d.counts.Empty++
		return nil, nil
	}

	rec, err := Parse(line)
	if err != nil {
		d.counts.Malformed++
		return nil, err
	}

	elapsed := d.now().Sub(d.start)
	if elapsed < d.last {
		elapsed = d.last
	}
	d.last = elapsed

	switch r := rec.(type) {
	case *Stats:
		r.setElapsed(elapsed)
		d.counts.Stats++
	case *Data:
		r.setElapsed(elapsed)
		d.counts.Data++
	case *Pattern:
		r.setElapsed(elapsed)
		d.counts.Pattern++
	}
	return rec, nil
}

// Counters returns the tallies so far.
func (d *Decoder) Counters() Counters {
	return d.counts
}
