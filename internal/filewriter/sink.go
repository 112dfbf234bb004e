package filewriter

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
)

// CSVSink appends rows to a CSV file. Rows are buffered until Flush or Close.
type CSVSink struct {
	file *os.File
	buf  *bufio.Writer
	csv  *csv.Writer
}

// CreateCSVSink creates filename and writes header as its first row.
func CreateCSVSink(filename string, header []string) (*CSVSink, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	buf := bufio.NewWriter(file)
	s := &CSVSink{file: file, buf: buf, csv: csv.NewWriter(buf)}
	if err := s.csv.Write(header); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	return s, nil
}

// Name returns the file path.
func (s *CSVSink) Name() string {
	return s.file.Name()
}

// AppendRow buffers one row.
func (s *CSVSink) AppendRow(row []string) error {
	if err := s.csv.Write(row); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}
	return nil
}

// Flush pushes buffered rows to the operating system.
func (s *CSVSink) Flush() error {
	s.csv.Flush()
	if err := s.csv.Error(); err != nil {
		return fmt.Errorf("failed to flush rows: %w", err)
	}
	if err := s.buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush rows: %w", err)
	}
	return nil
}

// Close flushes and closes the file.
func (s *CSVSink) Close() error {
	flushErr := s.Flush()
	closeErr := s.file.Close()
	if flushErr != nil {
		return flushErr
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close file: %w", closeErr)
	}
	return nil
}
