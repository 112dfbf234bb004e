// Package collector runs the single read loop that turns the sensor's byte
// stream into stored captures or a telemetry session log.
package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"acoustic-collector/internal/capture"
	"acoustic-collector/internal/config"
	"acoustic-collector/internal/filewriter"
	"acoustic-collector/internal/metrics"
	"acoustic-collector/internal/session"
	"acoustic-collector/internal/telemetry"
	"acoustic-collector/internal/transport"
)

// Collector owns the transport and whatever the active mode persists to.
type Collector struct {
	config  *config.Config
	logger  *logrus.Logger
	metrics *metrics.Metrics
	out     io.Writer

	port    transport.Port
	stream  *transport.Stream
	writer  *filewriter.Writer
	session *session.Session
	status  *statusPrinter

	closeOnce sync.Once
	closeErr  error
}

// Option configures a Collector.
type Option func(*Collector)

// WithPort uses p instead of opening the configured serial port or replay file.
func WithPort(p transport.Port) Option {
	return func(c *Collector) { c.port = p }
}

// WithMetrics records counters on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Collector) { c.metrics = m }
}

// WithOutput sends console status lines to w instead of stdout.
func WithOutput(w io.Writer) Option {
	return func(c *Collector) { c.out = w }
}

func NewCollector(cfg *config.Config, logger *logrus.Logger, opts ...Option) *Collector {
	c := &Collector{
		config: cfg,
		logger: logger,
		out:    os.Stdout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Initialize opens the transport and prepares the output of the configured mode.
func (c *Collector) Initialize() error {
	if c.port == nil {
		port, err := transport.Open(c.config.Serial, c.logger)
		if err != nil {
			return err
		}
		c.port = port
	}
	c.stream = transport.NewStream(c.port)
	c.status = newStatusPrinter(c.out, c.config.Telemetry.PrintStatus)

	switch c.config.Mode {
	case config.ModeCapture:
		writer, err := filewriter.NewWriter(c.config.Capture.OutputDir, c.config.Capture.SampleRate, c.config.Capture.WriteWAV)
		if err != nil {
			return err
		}
		c.writer = writer
		// Captures are always printed; print_status only governs telemetry output.
		c.status.enabled = true

	case config.ModeTelemetry:
		var sink session.Sink
		if c.config.Telemetry.LogToFile {
			if err := os.MkdirAll(c.config.Telemetry.OutputDir, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
			path, err := filewriter.NextPath(c.config.Telemetry.OutputDir, ".csv")
			if err != nil {
				return err
			}
			csvSink, err := filewriter.CreateCSVSink(path, session.Columns)
			if err != nil {
				return fmt.Errorf("failed to create session log: %w", err)
			}
			fmt.Fprintf(c.out, "Logging to %s\n", csvSink.Name())
			sink = csvSink
		}
		c.session = session.New(sink)
		c.logger.WithField("session_id", c.session.ID).Info("Telemetry session started")

	default:
		return fmt.Errorf("invalid mode: %s", c.config.Mode)
	}

	return nil
}

// Run reads until ctx is cancelled or the transport closes. Cancellation and the
// end of a replay file are a normal finish and return nil.
func (c *Collector) Run(ctx context.Context) error {
	if c.stream == nil {
		return fmt.Errorf("collector not initialized")
	}

	var err error
	if c.config.Mode == config.ModeCapture {
		err = c.runCapture(ctx)
	} else {
		err = c.runTelemetry(ctx)
	}

	if errors.Is(err, transport.ErrClosed) {
		if c.config.Serial.ReplayFile != "" && errors.Is(err, io.EOF) {
			c.logger.Info("Replay finished")
			err = nil
		} else {
			err = fmt.Errorf("serial link lost: %w", err)
		}
	}
	c.logSummary()
	return err
}

func (c *Collector) runCapture(ctx context.Context) error {
	dec := capture.NewDecoder(c.stream, c.config.Capture.MaxSamples)
	rate := c.config.Capture.SampleRate

	fmt.Fprintf(c.out, "Waiting for captures on %s...\n", c.source())

	for ctx.Err() == nil {
		capt, err := dec.Next()
		switch {
		case err == nil:
		case errors.Is(err, transport.ErrTimeout):
			continue
		case errors.Is(err, capture.ErrFrameTimeout):
			c.metrics.ObserveFrameError("timeout")
			c.logger.WithError(err).Warn("Incomplete capture discarded")
			continue
		case errors.Is(err, capture.ErrFrameTooLarge):
			c.metrics.ObserveFrameError("too_large")
			c.logger.WithError(err).Warn("Oversized capture discarded")
			continue
		default:
			return err
		}

		c.metrics.ObserveFrame(len(capt.Samples))
		c.status.capture(capt, rate)

		filename, err := c.writer.WriteCapture(capt.Samples)
		if err != nil {
			return fmt.Errorf("failed to save capture: %w", err)
		}
		c.status.saved(filename)
		c.logger.WithFields(logrus.Fields{
			"file":    filename,
			"samples": len(capt.Samples),
		}).Debug("Capture saved")
	}
	return nil
}

func (c *Collector) runTelemetry(ctx context.Context) error {
	logging := c.config.Telemetry.LogToFile

	for ctx.Err() == nil {
		line, err := c.stream.ReadLine()
		if errors.Is(err, transport.ErrTimeout) {
			continue
		}
		if err != nil {
			return err
		}

		rec, err := c.session.Handle(line)
		var lineErr *telemetry.LineError
		switch {
		case errors.As(err, &lineErr):
			c.metrics.ObserveDiscard(lineErr.Reason)
			entry := c.logger.WithFields(logrus.Fields{
				"reason": lineErr.Reason,
				"line":   lineErr.Line,
			}).WithError(lineErr.Err)
			// Only PATTERN failures surface at the default level.
			if lineErr.Reason == telemetry.ReasonPattern {
				entry.Warn("Error parsing pattern")
			} else {
				entry.Debug("Discarded telemetry line")
			}
			continue
		case err != nil:
			return err
		case rec == nil:
			continue
		}

		c.metrics.ObserveRecord(rec.Kind().String())
		if logging {
			c.metrics.ObserveRow()
		}
		c.status.record(rec)
	}
	return nil
}

func (c *Collector) source() string {
	if c.config.Serial.ReplayFile != "" {
		return c.config.Serial.ReplayFile
	}
	return c.config.Serial.Port
}

func (c *Collector) logSummary() {
	if c.session == nil {
		return
	}
	sum := c.session.Summary()
	c.logger.WithFields(logrus.Fields{
		"session_id": c.session.ID,
		"stats":      sum.Stats,
		"data":       sum.Data,
		"patterns":   sum.Pattern,
		"malformed":  sum.Malformed,
		"rows":       sum.Rows,
	}).Info("Telemetry session finished")
}

// Close releases the session log and the transport. It is safe to call more
// than once; later calls return the first result.
func (c *Collector) Close() error {
	c.closeOnce.Do(func() {
		var errs []error

		if c.session != nil {
			if err := c.session.Close(); err != nil {
				errs = append(errs, fmt.Errorf("session log close error: %w", err))
			}
		}

		if c.port != nil {
			if err := c.port.Close(); err != nil {
				errs = append(errs, fmt.Errorf("transport close error: %w", err))
			}
		}

		if len(errs) > 0 {
			c.closeErr = fmt.Errorf("cleanup errors: %w", errors.Join(errs...))
		}
	})
	return c.closeErr
}
