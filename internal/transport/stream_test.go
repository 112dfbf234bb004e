package transport_test

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"acoustic-collector/internal/transport"
	"acoustic-collector/internal/transport/transporttest"
)

func TestReadLineAcrossTimeouts(t *testing.T) {
	port := transporttest.NewPort().
		String("0.5,3,").
		Timeout().
		String("1.0,0\nSTATS").
		Timeout().
		String(",1\n")
	s := transport.NewStream(port)

	_, err := s.ReadLine()
	assert.ErrorIs(t, err, transport.ErrTimeout)

	line, err := s.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "0.5,3,1.0,0", string(line))

	_, err = s.ReadLine()
	assert.ErrorIs(t, err, transport.ErrTimeout)

	line, err = s.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "STATS,1", string(line))

	_, err = s.ReadLine()
	assert.ErrorIs(t, err, transport.ErrClosed)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadLineReturnsTrailingFragmentOnClose(t *testing.T) {
	s := transport.NewStream(transporttest.NewPort().String("a\nb"))

	line, err := s.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "a", string(line))

	line, err = s.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "b", string(line))

	_, err = s.ReadLine()
	assert.ErrorIs(t, err, transport.ErrClosed)
}

func TestReadLineSplitsOverlongLines(t *testing.T) {
	s := transport.NewStreamSize(transporttest.NewPort().String("0123456789abcdefXYZ\n"), 16)

	line, err := s.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "0123456789abcdef", string(line))

	line, err = s.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "XYZ", string(line))
}

func TestReadFullAndReadByte(t *testing.T) {
	port := transporttest.NewPort().Data([]byte{1, 2, 3}).Data([]byte{4, 5})
	port.ChunkSize = 1
	s := transport.NewStream(port)

	b, err := s.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte(1), b)

	buf := make([]byte, 4)
	require.NoError(t, s.ReadFull(buf))
	assert.Equal(t, []byte{2, 3, 4, 5}, buf)

	_, err = s.ReadByte()
	assert.ErrorIs(t, err, transport.ErrClosed)
}

func TestReadFullTimeout(t *testing.T) {
	s := transport.NewStream(transporttest.NewPort().Data([]byte{1, 2}).Timeout().Data([]byte{3}))

	err := s.ReadFull(make([]byte, 3))
	assert.ErrorIs(t, err, transport.ErrTimeout)

	b, err := s.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte(3), b)
}

func TestReadErrorIsSticky(t *testing.T) {
	boom := errors.New("device unplugged")
	s := transport.NewStream(transporttest.NewPort().Fail(boom).String("late"))

	_, err := s.ReadByte()
	assert.ErrorIs(t, err, transport.ErrClosed)
	assert.ErrorIs(t, err, boom)

	_, err = s.ReadByte()
	assert.ErrorIs(t, err, boom)
}
