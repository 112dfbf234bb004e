package capture

import (
	"bytes"
	"encoding/binary"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"acoustic-collector/internal/transport"
	"acoustic-collector/internal/transport/transporttest"
)

func newTestDecoder(port *transporttest.Port, maxSamples uint32) *Decoder {
	return NewDecoder(transport.NewStream(port), maxSamples)
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for _, n := range []int{0, 1, 2, 17, 160, 4096} {
		samples := make([]int16, n)
		for i := range samples {
			samples[i] = int16(rng.Intn(math.MaxUint16) - math.MaxInt16 - 1)
		}
		if n > 1 {
			samples[0] = math.MinInt16
			samples[1] = math.MaxInt16
		}

		port := transporttest.NewPort().Data(Encode(samples))
		port.ChunkSize = 7
		dec := newTestDecoder(port, 0)

		c, err := dec.Next()
		require.NoError(t, err, "n=%d", n)
		assert.Equal(t, samples, c.Samples, "n=%d", n)
		assert.Equal(t, ScanningForMarker, dec.State())
	}
}

func TestEncodeLayout(t *testing.T) {
	frame := Encode([]int16{1, -2})

	assert.Equal(t, []byte("DUMP"), frame[:4])
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(frame[4:8]))
	assert.Equal(t, []byte{0x01, 0x00, 0xFE, 0xFF}, frame[8:])
}

func TestResyncOnGarbage(t *testing.T) {
	var stream bytes.Buffer
	stream.WriteString("boot log line\nDUMD")
	require.NoError(t, WriteFrame(&stream, []int16{10, 20, 30}))
	stream.WriteString("x")
	require.NoError(t, WriteFrame(&stream, []int16{-5}))

	port := transporttest.NewPort().Data(stream.Bytes())
	port.ChunkSize = 3
	dec := newTestDecoder(port, 0)

	c, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, []int16{10, 20, 30}, c.Samples)

	c, err = dec.Next()
	require.NoError(t, err)
	assert.Equal(t, []int16{-5}, c.Samples)

	_, err = dec.Next()
	assert.ErrorIs(t, err, transport.ErrClosed)
}

func TestMarkerSplitAcrossIdleTimeout(t *testing.T) {
	frame := Encode([]int16{7, 8})
	port := transporttest.NewPort().
		Data(frame[:2]).
		Timeout().
		Data(frame[2:])
	dec := newTestDecoder(port, 0)

	_, err := dec.Next()
	assert.ErrorIs(t, err, transport.ErrTimeout)
	assert.NotErrorIs(t, err, ErrFrameTimeout)
	assert.Equal(t, ScanningForMarker, dec.State())

	c, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, []int16{7, 8}, c.Samples)
}

func TestTimeoutMidFrameDiscardsPartialFrame(t *testing.T) {
	first := Encode([]int16{1, 2, 3, 4})
	second := Encode([]int16{9})

	port := transporttest.NewPort().
		Data(first[:HeaderSize+3]).
		Timeout().
		Data(first[HeaderSize+3:]).
		Data(second)
	dec := newTestDecoder(port, 0)

	_, err := dec.Next()
	require.ErrorIs(t, err, ErrFrameTimeout)
	assert.Equal(t, ScanningForMarker, dec.State())

	// The tail of the broken frame is skipped while scanning for the next marker.
	c, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, []int16{9}, c.Samples)
}

func TestTimeoutInLengthField(t *testing.T) {
	frame := Encode([]int16{1})
	port := transporttest.NewPort().Data(frame[:6]).Timeout().Data(Encode([]int16{2}))
	dec := newTestDecoder(port, 0)

	_, err := dec.Next()
	require.ErrorIs(t, err, ErrFrameTimeout)

	c, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, []int16{2}, c.Samples)
}

func TestFrameTooLarge(t *testing.T) {
	var stream bytes.Buffer
	stream.WriteString("DUMP")
	binary.Write(&stream, binary.LittleEndian, uint32(1_000_000))
	require.NoError(t, WriteFrame(&stream, []int16{3, 4}))

	dec := newTestDecoder(transporttest.NewPort().Data(stream.Bytes()), 1000)

	_, err := dec.Next()
	require.ErrorIs(t, err, ErrFrameTooLarge)

	c, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, []int16{3, 4}, c.Samples)
}

func TestClosedMidFrame(t *testing.T) {
	frame := Encode([]int16{1, 2, 3})
	dec := newTestDecoder(transporttest.NewPort().Data(frame[:len(frame)-1]), 0)

	_, err := dec.Next()
	assert.ErrorIs(t, err, transport.ErrClosed)
	assert.NotErrorIs(t, err, ErrFrameTimeout)
}

func TestCaptureDuration(t *testing.T) {
	c := &Capture{Samples: make([]int16, 8000)}
	assert.Equal(t, 500*time.Millisecond, c.Duration(16000))
	assert.Equal(t, time.Duration(0), c.Duration(0))
}
