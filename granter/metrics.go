package granter

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// OutcomeSuccess labels granted requests; failures are labelled with their RFC 6749 error code.
const OutcomeSuccess = "success"

// Metrics counts grants by type and outcome.
type Metrics struct {
	grants   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the grant collectors with reg (the default registerer when nil).
// Registering twice with the same registerer reuses the existing collectors.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	grants := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "oauth_token_grants_total",
		Help: "Token requests by grant type and outcome",
	}, []string{"grant_type", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "oauth_token_grant_duration_seconds",
		Help:    "Time spent granting tokens",
		Buckets: prometheus.DefBuckets,
	}, []string{"grant_type"})

	var err error
	if grants, err = register(reg, grants); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	return &Metrics{grants: grants, duration: duration}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, errors.Wrap(err, "register grant metrics")
	}
	return c, nil
}

// GrantsCounter exposes the counter vector, mainly for tests.
func (m *Metrics) GrantsCounter() *prometheus.CounterVec {
	return m.grants
}

func (m *Metrics) observe(grantType, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.grants.WithLabelValues(grantType, outcome).Inc()
	m.duration.WithLabelValues(grantType).Observe(elapsed.Seconds())
}
