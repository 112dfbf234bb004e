// Package capture decodes raw PCM captures sent by the sensor as length-prefixed
// binary frames:
//
//	offset 0..3        "DUMP"            literal marker
//	offset 4..7        sample count N    uint32, little-endian
//	offset 8..8+2N-1   N samples         int16, little-endian
package capture

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

// Marker opens every capture frame.
var Marker = [4]byte{'D', 'U', 'M', 'P'}

// HeaderSize is the number of bytes before the first sample.
const HeaderSize = len(Marker) + 4

// Capture is one decoded PCM frame. Samples are in wire order and are never
// modified after decode.
type Capture struct {
	Samples    []int16
	ReceivedAt time.Time
}

// Duration returns the capture length at the given sample rate.
func (c *Capture) Duration(sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(len(c.Samples)) * time.Second / time.Duration(sampleRate)
}

// Encode returns the wire representation of samples.
func Encode(samples []int16) []byte {
	buf := make([]byte, HeaderSize+2*len(samples))
	copy(buf, Marker[:])
	binary.LittleEndian.PutUint32(buf[len(Marker):], uint32(len(samples)))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[HeaderSize+2*i:], uint16(s))
	}
	return buf
}

// WriteFrame writes one encoded frame to w.
func WriteFrame(w io.Writer, samples []int16) error {
	if _, err := w.Write(Encode(samples)); err != nil {
		return fmt.Errorf("failed to write capture frame: %w", err)
	}
	return nil
}
