package transport

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

const defaultBufferSize = 64 * 1024

// Stream buffers a Port and turns its timeout convention (a read returning zero
// bytes and no error) into ErrTimeout. bufio.Reader is not usable here: it gives
// up with io.ErrNoProgress after 100 empty reads, which on a serial port with a
// one second timeout is a silent 100 second stall.
type Stream struct {
	r    io.Reader
	buf  []byte
	head int   // next unread byte
	tail int   // end of buffered bytes
	err  error // sticky, wraps ErrClosed
}

// NewStream wraps r with a 64 KiB buffer.
func NewStream(r io.Reader) *Stream {
	return NewStreamSize(r, defaultBufferSize)
}

// NewStreamSize wraps r with a buffer of the given size. The size also bounds the
// longest line ReadLine returns in one piece.
func NewStreamSize(r io.Reader, size int) *Stream {
	if size < 16 {
		size = 16
	}
	return &Stream{r: r, buf: make([]byte, size)}
}

// fill compacts the buffer and performs exactly one read of the underlying port.
func (s *Stream) fill() error {
	if s.head > 0 {
		copy(s.buf, s.buf[s.head:s.tail])
		s.tail -= s.head
		s.head = 0
	}
	if s.err != nil {
		return s.err
	}

	n, err := s.r.Read(s.buf[s.tail:])
	if n > 0 {
		s.tail += n
	}
	if err != nil {
		s.err = fmt.Errorf("%w: %w", ErrClosed, err)
	}

	switch {
	case n > 0:
		return nil
	case s.err != nil:
		return s.err
	default:
		return ErrTimeout
	}
}

// ReadByte returns the next byte, ErrTimeout if none arrived within the port's
// read timeout, or ErrClosed.
func (s *Stream) ReadByte() (byte, error) {
	if s.head == s.tail {
		if err := s.fill(); err != nil {
			return 0, err
		}
	}
	b := s.buf[s.head]
	s.head++
	return b, nil
}

// ReadFull fills p completely. On ErrTimeout or ErrClosed the bytes consumed so
// far are lost; callers resynchronise rather than resume.
func (s *Stream) ReadFull(p []byte) error {
	for len(p) > 0 {
		if s.head == s.tail {
			if err := s.fill(); err != nil {
				return err
			}
		}
		n := copy(p, s.buf[s.head:s.tail])
		s.head += n
		p = p[n:]
	}
	return nil
}

// ReadLine returns the next line without its '\n'. A partial line stays buffered
// across timeouts. A line that does not fit in the buffer is returned in
// buffer-sized pieces, and a trailing unterminated line is returned once the port
// closes.
func (s *Stream) ReadLine() ([]byte, error) {
	scanned := 0
	for {
		if i := bytes.IndexByte(s.buf[s.head+scanned:s.tail], '\n'); i >= 0 {
			end := s.head + scanned + i
			line := bytes.Clone(s.buf[s.head:end])
			s.head = end + 1
			return line, nil
		}
		scanned = s.tail - s.head

		if scanned == len(s.buf) {
			line := bytes.Clone(s.buf[s.head:s.tail])
			s.head = s.tail
			return line, nil
		}

		if err := s.fill(); err != nil {
			if errors.Is(err, ErrClosed) && s.tail > s.head {
				line := bytes.Clone(s.buf[s.head:s.tail])
				s.head = s.tail
				return line, nil
			}
			return nil, err
		}
	}
}
