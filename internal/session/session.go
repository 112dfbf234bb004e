// Package session holds the per-run state of a telemetry session: its identity,
// start time, decoder counters and the sink decoded records are appended to.
package session

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"acoustic-collector/internal/telemetry"
)

// ErrPersist wraps sink failures. The session cannot continue after one.
var ErrPersist = errors.New("session log write failed")

// Sink receives session log rows.
type Sink interface {
	AppendRow(row []string) error
	Flush() error
}

// Summary is a snapshot of a session's counters.
type Summary struct {
	telemetry.Counters
	Rows int
}

// Session is created when a run starts, handed to every loop iteration and
// closed exactly once when the run ends.
type Session struct {
	ID    string
	Start time.Time

	decoder *telemetry.Decoder
	sink    Sink
	rows    int

	closeOnce sync.Once
	closeErr  error
}

type options struct {
	now func() time.Time
}

// Option configures a Session.
type Option func(*options)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New starts a session. sink may be nil, in which case records are decoded and
// counted but not persisted. If sink also implements io.Closer it is closed by Close.
func New(sink Sink, opts ...Option) *Session {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	start := o.now()
	return &Session{
		ID:      uuid.NewString(),
		Start:   start,
		decoder: telemetry.NewDecoder(start, telemetry.WithClock(o.now)),
		sink:    sink,
	}
}

// Handle decodes one raw line and records the result. A blank line returns a nil
// record and nil error. Malformed lines return an error matching
// telemetry.ErrMalformedLine; sink failures return an error matching ErrPersist.
func (s *Session) Handle(raw []byte) (telemetry.Record, error) {
	rec, err := s.decoder.Decode(raw)
	if err != nil || rec == nil {
		return nil, err
	}
	if err := s.Record(rec); err != nil {
		return rec, err
	}
	return rec, nil
}

// Record appends rec to the sink. PATTERN rows are flushed immediately since
// they are rare and are the events worth keeping after a crash.
func (s *Session) Record(rec telemetry.Record) error {
	if s.sink == nil {
		return nil
	}
	if err := s.sink.AppendRow(Row(rec)); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	s.rows++
	if rec.Kind() == telemetry.KindPattern {
		if err := s.sink.Flush(); err != nil {
			return fmt.Errorf("%w: %w", ErrPersist, err)
		}
	}
	return nil
}

// Summary returns the counters so far.
func (s *Session) Summary() Summary {
	return Summary{Counters: s.decoder.Counters(), Rows: s.rows}
}

// Close flushes and releases the sink. Later calls return the first result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.sink == nil {
			return
		}
		if c, ok := s.sink.(io.Closer); ok {
			s.closeErr = c.Close()
		} else {
			s.closeErr = s.sink.Flush()
		}
		if s.closeErr != nil {
			s.closeErr = fmt.Errorf("%w: %w", ErrPersist, s.closeErr)
		}
	})
	return s.closeErr
}
