// Package transport provides the byte stream between the acoustic sensor and the host:
// a serial port opened with a read timeout, or a replayed byte dump.
package transport

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"go.bug.st/serial"

	"acoustic-collector/internal/config"
)

var (
	// ErrClosed is returned once the underlying port or file can deliver no more bytes.
	ErrClosed = errors.New("transport closed")

	// ErrTimeout is returned when a read timed out without completing the requested unit.
	ErrTimeout = errors.New("transport read timeout")
)

// Port is the raw byte source. serial.Port and *os.File both satisfy it.
type Port interface {
	io.Reader
	io.Closer
}

// OpenSerial opens the configured serial device with 8N1 framing and a per-read
// timeout. A timed-out read returns zero bytes and a nil error.
func OpenSerial(cfg config.SerialConfig, logger *logrus.Logger) (serial.Port, error) {
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Port, err)
	}

	if err := port.SetReadTimeout(cfg.ReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", cfg.Port, err)
	}

	logger.WithFields(logrus.Fields{
		"port":      cfg.Port,
		"baud_rate": cfg.BaudRate,
		"timeout":   cfg.ReadTimeout,
	}).Info("Serial port opened")

	// The board resets when DTR toggles on open; give it time to boot and drop
	// whatever it printed while booting.
	if cfg.StartupDelay > 0 {
		time.Sleep(cfg.StartupDelay)
	}
	if err := port.ResetInputBuffer(); err != nil {
		logger.WithError(err).Warn("Failed to reset serial input buffer")
	}

	return port, nil
}

// OpenReplay opens a raw byte dump recorded from the device. Reaching the end of
// the file surfaces as ErrClosed wrapping io.EOF.
func OpenReplay(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open replay file %s: %w", path, err)
	}
	return f, nil
}

// Open returns the replay file when one is configured, the serial port otherwise.
func Open(cfg config.SerialConfig, logger *logrus.Logger) (Port, error) {
	if cfg.ReplayFile != "" {
		logger.WithField("file", cfg.ReplayFile).Info("Replaying recorded byte stream")
		return OpenReplay(cfg.ReplayFile)
	}
	return OpenSerial(cfg, logger)
}
