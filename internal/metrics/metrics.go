// Package metrics provides the Prometheus collectors updated by parse sessions.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace is the metric namespace shared by every collector.
const Namespace = "mailparse"

// Results recorded on SessionsTotal.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics holds the collectors for one registry.
type Metrics struct {
	// SessionsTotal counts finished sessions by result
	SessionsTotal *prometheus.CounterVec

	// SessionDuration measures the time from the first event to the last
	SessionDuration prometheus.Histogram

	// PartsTotal counts MIME parts placed in a tree
	PartsTotal prometheus.Counter

	// AttachmentsTotal counts attachments handed to consumers
	AttachmentsTotal prometheus.Counter

	// AttachmentBytes measures the decoded size of attachments
	AttachmentBytes prometheus.Histogram

	// WarningsTotal counts non-fatal problems by kind
	WarningsTotal *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. Collectors already
// registered with reg by an earlier call are reused, so any number of parsers
// may share one registry. A nil reg leaves the collectors unregistered.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		SessionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "session",
				Name:      "total",
				Help:      "Total number of parse sessions by result",
			},
			[]string{"result"},
		),
		SessionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "session",
				Name:      "duration_seconds",
				Help:      "Parse session duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
		),
		PartsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "tree",
				Name:      "parts_total",
				Help:      "Total number of MIME parts parsed",
			},
		),
		AttachmentsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "attachment",
				Name:      "total",
				Help:      "Total number of attachments emitted",
			},
		),
		AttachmentBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "attachment",
				Name:      "size_bytes",
				Help:      "Decoded attachment size in bytes",
				Buckets:   []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
		),
		WarningsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "session",
				Name:      "warnings_total",
				Help:      "Total number of non-fatal problems by kind",
			},
			[]string{"kind"},
		),
	}

	if reg == nil {
		return m, nil
	}

	var err error
	m.SessionsTotal, err = register(reg, m.SessionsTotal)
	if err != nil {
		return nil, err
	}
	m.SessionDuration, err = register(reg, m.SessionDuration)
	if err != nil {
		return nil, err
	}
	m.PartsTotal, err = register(reg, m.PartsTotal)
	if err != nil {
		return nil, err
	}
	m.AttachmentsTotal, err = register(reg, m.AttachmentsTotal)
	if err != nil {
		return nil, err
	}
	m.AttachmentBytes, err = register(reg, m.AttachmentBytes)
	if err != nil {
		return nil, err
	}
	m.WarningsTotal, err = register(reg, m.WarningsTotal)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// register adds c to reg or returns the equivalent collector registered
// before.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}

	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, isSame := are.ExistingCollector.(C); isSame {
			return existing, nil
		}
	}

	return c, err
}

// ObserveSession records a finished session. A nil receiver does nothing.
func (m *Metrics) ObserveSession(start time.Time, err error) {
	if m == nil {
		return
	}

	result := ResultOK
	if err != nil {
		result = ResultError
	}

	m.SessionsTotal.WithLabelValues(result).Inc()
	m.SessionDuration.Observe(time.Since(start).Seconds())
}

// ObservePart records a placed part.
func (m *Metrics) ObservePart() {
	if m == nil {
		return
	}
	m.PartsTotal.Inc()
}

// ObserveAttachment records an attachment of the given decoded size.
func (m *Metrics) ObserveAttachment(size int64) {
	if m == nil {
		return
	}
	m.AttachmentsTotal.Inc()
	m.AttachmentBytes.Observe(float64(size))
}

// ObserveWarning records a non-fatal problem.
func (m *Metrics) ObserveWarning(kind string) {
	if m == nil {
		return
	}
	m.WarningsTotal.WithLabelValues(kind).Inc()
}
