// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/scylla/scylla/internal/auth"
	"github.com/scylla/scylla/internal/notify"
	"github.com/scylla/scylla/pkg/errutil"
)

const namespace = "scylla"

// Metrics holds the Scylla collectors. It implements auth.Metrics and
// notify.Observer so the service and the dispatcher report into it.
type Metrics struct {
	AuthOperations   *prometheus.CounterVec
	AuthDuration     *prometheus.HistogramVec
	TokenEvents      *prometheus.CounterVec
	Dispatches       *prometheus.CounterVec
	DispatchDuration *prometheus.HistogramVec
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

var (
	_ auth.Metrics    = (*Metrics)(nil)
	_ notify.Observer = (*Metrics)(nil)
)

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AuthOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_operations_total",
			Help:      "Auth service operations by operation and outcome code",
		}, []string{"operation", "outcome"}),
		AuthDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "auth_operation_duration_seconds",
			Help:      "Auth service operation latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		TokenEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_total",
			Help:      "Verification and reset tokens by kind and lifecycle event",
		}, []string{"kind", "event"}),
		Dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification dispatches by transport and outcome",
		}, []string{"transport", "outcome"}),
		DispatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "notification_duration_seconds",
			Help:      "Notification dispatch latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"transport"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "API requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "API request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		m.AuthOperations, m.AuthDuration,
		m.TokenEvents,
		m.Dispatches, m.DispatchDuration,
		m.HTTPRequests, m.HTTPDuration,
	)
	return m
}

// RecordOperation implements auth.Metrics.
func (m *Metrics) RecordOperation(op, outcome string, elapsed time.Duration) {
	m.AuthOperations.WithLabelValues(op, outcome).Inc()
	m.AuthDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// RecordToken implements auth.Metrics.
func (m *Metrics) RecordToken(kind auth.TokenKind, event string) {
	m.TokenEvents.WithLabelValues(string(kind), event).Inc()
}

// ObserveDispatch implements notify.Observer. Failures are labelled with
// their error code, or "error" when uncoded.
func (m *Metrics) ObserveDispatch(transport string, err error, elapsed time.Duration) {
	outcome := auth.OutcomeOK
	if err != nil {
		outcome = errutil.Code(err)
		if outcome == "" {
			outcome = "error"
		}
	}
	m.Dispatches.WithLabelValues(transport, outcome).Inc()
	m.DispatchDuration.WithLabelValues(transport).Observe(elapsed.Seconds())
}

// RecordHTTP counts one API request. route is the matched route pattern,
// never the raw path.
func (m *Metrics) RecordHTTP(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
