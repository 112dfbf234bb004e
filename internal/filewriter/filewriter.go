// Package filewriter persists captures and session logs: numbered CSV files,
// optional 16-bit PCM WAV copies, and the readers used for offline analysis.
package filewriter

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// NextPath returns dir/<n><ext> for the smallest n >= 1 that does not exist yet.
func NextPath(dir, ext string) (string, error) {
	for n := 1; ; n++ {
		path := filepath.Join(dir, strconv.Itoa(n)+ext)
		_, err := os.Stat(path)
		if errors.Is(err, os.ErrNotExist) {
			return path, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to stat %s: %w", path, err)
		}
	}
}

// Writer stores decoded captures in a directory.
type Writer struct {
	dir        string
	sampleRate int
	writeWAV   bool
}

// NewWriter creates a writer for dir, creating the directory if needed.
func NewWriter(dir string, sampleRate int, writeWAV bool) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Writer{dir: dir, sampleRate: sampleRate, writeWAV: writeWAV}, nil
}

// WriteCapture saves samples as the next <n>.csv (rows "index,sample") and, when
// enabled, <n>.wav. It returns the CSV path.
func (w *Writer) WriteCapture(samples []int16) (string, error) {
	filename, err := NextPath(w.dir, ".csv")
	if err != nil {
		return "", err
	}

	if err := WriteCaptureCSV(filename, samples); err != nil {
		return "", err
	}

	if w.writeWAV {
		wavName := strings.TrimSuffix(filename, ".csv") + ".wav"
		if err := WriteWAV(wavName, w.sampleRate, samples); err != nil {
			return filename, err
		}
	}

	return filename, nil
}

// WriteCaptureCSV writes one "index,sample" row per sample.
func WriteCaptureCSV(filename string, samples []int16) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	bw := bufio.NewWriter(file)
	cw := csv.NewWriter(bw)
	for i, s := range samples {
		if err := cw.Write([]string{strconv.Itoa(i), strconv.Itoa(int(s))}); err != nil {
			return fmt.Errorf("failed to write sample %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to write samples: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write samples: %w", err)
	}
	return file.Close()
}

// ReadCaptureCSV reads the sample column of a capture CSV. Rows with fewer than
// two fields are skipped.
func ReadCaptureCSV(filename string) ([]int16, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(bufio.NewReader(file))
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	var samples []int16
	for line := 1; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", filename, err)
		}
		if len(row) < 2 {
			continue
		}
		v, err := strconv.ParseInt(strings.TrimSpace(row[1]), 10, 16)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: invalid sample %q: %w", filename, line, row[1], err)
		}
		samples = append(samples, int16(v))
	}
	return samples, nil
}

// ReadCapture loads samples from a .csv or .wav capture. For CSV files the
// returned sample rate is 0, since the format does not carry one.
func ReadCapture(filename string) ([]int16, int, error) {
	if strings.EqualFold(filepath.Ext(filename), ".wav") {
		return ReadWAV(filename)
	}
	samples, err := ReadCaptureCSV(filename)
	return samples, 0, err
}
