package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. It satisfies the
// metrics interfaces of the auth service and the audit recorder.
type Metrics struct {
	loginsSucceeded  prometheus.Counter
	loginsFailed     prometheus.Counter
	authRejected     prometheus.Counter
	sessionsRevoked  prometheus.Counter
	auditRecorded    prometheus.Counter
	auditDropped     prometheus.Counter
	requestsInFlight prometheus.Gauge
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		loginsSucceeded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatehouse_logins_succeeded_total",
			Help: "Total number of successful logins",
		}),
		loginsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatehouse_logins_failed_total",
			Help: "Total number of rejected login attempts",
		}),
		authRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatehouse_auth_rejected_total",
			Help: "Total number of requests rejected by the session gate",
		}),
		sessionsRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatehouse_sessions_revoked_total",
			Help: "Total number of sessions revoked",
		}),
		auditRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatehouse_audit_entries_recorded_total",
			Help: "Total number of audit entries accepted for persistence",
		}),
		auditDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatehouse_audit_entries_dropped_total",
			Help: "Total number of audit entries dropped due to a full queue",
		}),
		requestsInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "gatehouse_http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		}),
	}
}

func (m *Metrics) LoginSucceeded()     { m.loginsSucceeded.Inc() }
func (m *Metrics) LoginFailed()        { m.loginsFailed.Inc() }
func (m *Metrics) AuthRejected()       { m.authRejected.Inc() }
func (m *Metrics) SessionRevoked()     { m.sessionsRevoked.Inc() }
func (m *Metrics) AuditEntryRecorded() { m.auditRecorded.Inc() }
func (m *Metrics) AuditEntryDropped()  { m.auditDropped.Inc() }

func (m *Metrics) RequestStarted()  { m.requestsInFlight.Inc() }
func (m *Metrics) RequestFinished() { m.requestsInFlight.Dec() }
