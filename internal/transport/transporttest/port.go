// Package transporttest provides a scripted Port for exercising read loops
// without a serial device.
package transporttest

import (
	"io"
	"sync"
)

// step is one scripted Read result.
type step struct {
	data    []byte
	timeout bool
	err     error
}

// Port replays a script of reads. Each Data step is delivered in reads of at most
// ChunkSize bytes; each Timeout step yields one (0, nil) read the way go.bug.st/serial
// reports an expired read timeout. When the script is exhausted Read returns io.EOF.
type Port struct {
	ChunkSize int

	mu     sync.Mutex
	steps  []step
	closed bool
	closes int
}

// NewPort creates an empty script. A ChunkSize of 0 delivers each Data step whole.
func NewPort() *Port {
	return &Port{}
}

// Data appends bytes to the script.
func (p *Port) Data(b []byte) *Port {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.steps = append(p.steps, step{data: append([]byte(nil), b...)})
	return p
}

// String appends a string to the script.
func (p *Port) String(s string) *Port {
	return p.Data([]byte(s))
}

// Timeout appends one expired read.
func (p *Port) Timeout() *Port {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.steps = append(p.steps, step{timeout: true})
	return p
}

// Fail appends a read error.
func (p *Port) Fail(err error) *Port {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.steps = append(p.steps, step{err: err})
	return p
}

// Read implements io.Reader.
func (p *Port) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, io.ErrClosedPipe
	}
	if len(p.steps) == 0 {
		return 0, io.EOF
	}

	s := &p.steps[0]
	switch {
	case s.timeout:
		p.steps = p.steps[1:]
		return 0, nil
	case s.err != nil:
		err := s.err
		p.steps = p.steps[1:]
		return 0, err
	}

	limit := len(b)
	if p.ChunkSize > 0 && p.ChunkSize < limit {
		limit = p.ChunkSize
	}
	n := copy(b[:limit], s.data)
	s.data = s.data[n:]
	if len(s.data) == 0 {
		p.steps = p.steps[1:]
	}
	return n, nil
}

// Close implements io.Closer and records how often it was called.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.closes++
	return nil
}

// Closes reports how many times Close was called.
func (p *Port) Closes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closes
}
