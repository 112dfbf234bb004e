package filewriter

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

const wavHeaderSize = 44

// ErrUnsupportedWAV is returned for WAV files that are not 16-bit mono PCM.
var ErrUnsupportedWAV = errors.New("unsupported WAV format")

// WriteWAV writes samples as a 16-bit mono PCM WAV file.
func WriteWAV(filename string, sampleRate int, samples []int16) error {
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", sampleRate)
	}
	dataSize := len(samples) * 2
	if dataSize > math.MaxUint32-36 {
		return fmt.Errorf("capture too large for WAV: %d samples", len(samples))
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	bw := bufio.NewWriter(file)
	if _, err := bw.Write(wavHeader(sampleRate, uint32(dataSize))); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, samples); err != nil {
		return fmt.Errorf("failed to write samples: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write samples: %w", err)
	}
	return file.Close()
}

func wavHeader(sampleRate int, dataSize uint32) []byte {
	h := make([]byte, wavHeaderSize)
	copy(h[0:], "RIFF")
	binary.LittleEndian.PutUint32(h[4:], 36+dataSize)
	copy(h[8:], "WAVE")
	copy(h[12:], "fmt ")
	binary.LittleEndian.PutUint32(h[16:], 16)                   // PCM fmt chunk size
	binary.LittleEndian.PutUint16(h[20:], 1)                    // PCM
	binary.LittleEndian.PutUint16(h[22:], 1)                    // mono
	binary.LittleEndian.PutUint32(h[24:], uint32(sampleRate))   // sample rate
	binary.LittleEndian.PutUint32(h[28:], uint32(sampleRate*2)) // byte rate
	binary.LittleEndian.PutUint16(h[32:], 2)                    // block align
	binary.LittleEndian.PutUint16(h[34:], 16)                   // bits per sample
	copy(h[36:], "data")
	binary.LittleEndian.PutUint32(h[40:], dataSize)
	return h
}

// ReadWAV reads a 16-bit mono PCM WAV file and returns its samples and sample rate.
func ReadWAV(filename string) ([]int16, int, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	samples, rate, err := readWAV(bufio.NewReader(file))
	if err != nil {
		return nil, 0, fmt.Errorf("invalid WAV file %s: %w", filename, err)
	}
	return samples, rate, nil
}

func readWAV(r io.Reader) ([]int16, int, error) {
	riff := make([]byte, 12)
	if _, err := io.ReadFull(r, riff); err != nil {
		return nil, 0, err
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("missing RIFF/WAVE header")
	}

	sampleRate := 0
	chunk := make([]byte, 8)
	for {
		if _, err := io.ReadFull(r, chunk); err != nil {
			return nil, 0, fmt.Errorf("no data chunk: %w", err)
		}
		id := string(chunk[0:4])
		size := binary.LittleEndian.Uint32(chunk[4:8])

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, fmt.Errorf("short fmt chunk: %d bytes", size)
			}
			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return nil, 0, err
			}
			format := binary.LittleEndian.Uint16(body[0:2])
			channels := binary.LittleEndian.Uint16(body[2:4])
			bits := binary.LittleEndian.Uint16(body[14:16])
			if format != 1 || channels != 1 || bits != 16 {
				return nil, 0, fmt.Errorf("%w: format %d, %d channels, %d bits", ErrUnsupportedWAV, format, channels, bits)
			}
			sampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
		case "data":
			if sampleRate == 0 {
				return nil, 0, fmt.Errorf("data chunk before fmt chunk")
			}
			samples := make([]int16, size/2)
			if err := binary.Read(r, binary.LittleEndian, samples); err != nil {
				return nil, 0, fmt.Errorf("failed to read samples: %w", err)
			}
			return samples, sampleRate, nil
		default:
			// chunks are word aligned
			if _, err := io.CopyN(io.Discard, r, int64(size)+int64(size&1)); err != nil {
				return nil, 0, err
			}
		}
	}
}
