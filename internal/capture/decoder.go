package capture

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"acoustic-collector/internal/transport"
)

var (
	// ErrFrameTimeout means a frame was started but its bytes stopped arriving.
	// The partial frame is discarded and the decoder is scanning again.
	ErrFrameTimeout = errors.New("capture frame timeout")

	// ErrFrameTooLarge means the declared sample count exceeds the configured limit,
	// usually because "DUMP" appeared inside unrelated bytes.
	ErrFrameTooLarge = errors.New("capture frame too large")
)

// State is the decoder position within the frame grammar.
type State int

const (
	ScanningForMarker State = iota
	ReadingLengthAndPayload
)

func (s State) String() string {
	switch s {
	case ScanningForMarker:
		return "scanning"
	case ReadingLengthAndPayload:
		return "reading"
	default:
		return "unknown"
	}
}

// Decoder extracts capture frames from a byte stream.
type Decoder struct {
	stream     *transport.Stream
	maxSamples uint32
	now        func() time.Time

	state  State
	window [len(Marker)]byte
	filled int
}

// NewDecoder creates a decoder reading from stream. A maxSamples of 0 disables
// the frame size limit.
func NewDecoder(stream *transport.Stream, maxSamples uint32) *Decoder {
	return &Decoder{
		stream:     stream,
		maxSamples: maxSamples,
		now:        time.Now,
	}
}

// State reports where the decoder is in the frame grammar.
func (d *Decoder) State() State {
	return d.state
}

// Next returns the next complete capture.
//
// While scanning, an expired read returns transport.ErrTimeout and the partially
// matched marker is kept for the next call. Once the marker matched, an expired
// read returns ErrFrameTimeout and the frame is dropped. transport.ErrClosed is
// returned unchanged.
func (d *Decoder) Next() (*Capture, error) {
	if d.state == ScanningForMarker {
		if err := d.scan(); err != nil {
			return nil, err
		}
		d.state = ReadingLengthAndPayload
	}

	c, err := d.readFrame()
	d.state = ScanningForMarker
	d.filled = 0
	return c, err
}

// scan slides a marker-sized window over the stream until it holds the marker.
func (d *Decoder) scan() error {
	for {
		b, err := d.stream.ReadByte()
		if err != nil {
			return err
		}

		if d.filled < len(d.window) {
			d.window[d.filled] = b
			d.filled++
		} else {
			copy(d.window[:], d.window[1:])
			d.window[len(d.window)-1] = b
		}

		if d.filled == len(d.window) && d.window == Marker {
			return nil
		}
	}
}

func (d *Decoder) readFrame() (*Capture, error) {
	var header [4]byte
	if err := d.stream.ReadFull(header[:]); err != nil {
		return nil, frameError(err, "sample count")
	}

	count := binary.LittleEndian.Uint32(header[:])
	if d.maxSamples > 0 && count > d.maxSamples {
		return nil, fmt.Errorf("%w: %d samples exceeds limit of %d", ErrFrameTooLarge, count, d.maxSamples)
	}

	payload := make([]byte, 2*int(count))
	if err := d.stream.ReadFull(payload); err != nil {
		return nil, frameError(err, fmt.Sprintf("%d samples", count))
	}

	samples := make([]int16, count)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(payload[2*i:]))
	}

	return &Capture{Samples: samples, ReceivedAt: d.now()}, nil
}

func frameError(err error, part string) error {
	if errors.Is(err, transport.ErrTimeout) {
		return fmt.Errorf("%w: while reading %s", ErrFrameTimeout, part)
	}
	return err
}
