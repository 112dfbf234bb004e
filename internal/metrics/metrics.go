// Package metrics exposes decoder and recorder counters in Prometheus format.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const (
	namespace   = "acoustic"
	metricsPath = "/metrics"
)

// Metrics holds the collector's counters on a private registry. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	FramesDecoded    prometheus.Counter
	FrameErrors      *prometheus.CounterVec
	SamplesDecoded   prometheus.Counter
	TelemetryRecords *prometheus.CounterVec
	DiscardedLines   *prometheus.CounterVec
	RowsWritten      prometheus.Counter
}

// New creates and registers all counters.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FramesDecoded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_frames_decoded_total",
			Help:      "Total number of PCM capture frames decoded",
		}),
		FrameErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_frame_errors_total",
			Help:      "Total number of capture frames abandoned, by reason",
		}, []string{"reason"}),
		SamplesDecoded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_samples_decoded_total",
			Help:      "Total number of PCM samples decoded",
		}),
		TelemetryRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telemetry_records_total",
			Help:      "Total number of telemetry records decoded, by kind",
		}, []string{"kind"}),
		DiscardedLines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telemetry_discarded_lines_total",
			Help:      "Total number of telemetry lines discarded, by reason",
		}, []string{"reason"}),
		RowsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_rows_written_total",
			Help:      "Total number of rows appended to session logs",
		}),
	}

	m.registry.MustRegister(
		m.FramesDecoded,
		m.FrameErrors,
		m.SamplesDecoded,
		m.TelemetryRecords,
		m.DiscardedLines,
		m.RowsWritten,
	)
	return m
}

// ObserveFrame counts a decoded frame of n samples.
func (m *Metrics) ObserveFrame(n int) {
	if m == nil {
		return
	}
	m.FramesDecoded.Inc()
	m.SamplesDecoded.Add(float64(n))
}

// ObserveFrameError counts an abandoned frame.
func (m *Metrics) ObserveFrameError(reason string) {
	if m == nil {
		return
	}
	m.FrameErrors.WithLabelValues(reason).Inc()
}

// ObserveRecord counts a decoded telemetry record of the given kind.
func (m *Metrics) ObserveRecord(kind string) {
	if m == nil {
		return
	}
	m.TelemetryRecords.WithLabelValues(kind).Inc()
}

// ObserveDiscard counts a discarded telemetry line.
func (m *Metrics) ObserveDiscard(reason string) {
	if m == nil {
		return
	}
	m.DiscardedLines.WithLabelValues(reason).Inc()
}

// ObserveRow counts a row appended to a session log.
func (m *Metrics) ObserveRow() {
	if m == nil {
		return
	}
	m.RowsWritten.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		Registry:          m.registry,
	})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *logrus.Logger) error {
	mux := http.NewServeMux()
	mux.Handle(metricsPath, m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("Metrics server shutdown failed")
		}
	}()

	logger.WithFields(logrus.Fields{
		"addr": addr,
		"path": metricsPath,
	}).Info("Metrics endpoint listening")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
