package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics groups the service's Prometheus collectors. Each App owns its own
// registry so several apps can coexist in one process.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequestsTotal          *prometheus.CounterVec
	HTTPRequestDurationSeconds *prometheus.HistogramVec
	RegistrationsTotal         *prometheus.CounterVec
	LoginsTotal                *prometheus.CounterVec
	ContactsCreatedTotal       prometheus.Counter
	AvatarUploadsTotal         *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		RegistrationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_registrations_total",
				Help: "Total number of registration attempts.",
			},
			[]string{"result"},
		),
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_logins_total",
				Help: "Total number of login attempts.",
			},
			[]string{"result"},
		),
		ContactsCreatedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "contacts_created_total",
				Help: "Total number of contacts created.",
			},
		),
		AvatarUploadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "avatar_uploads_total",
				Help: "Total number of avatar uploads.",
			},
			[]string{"result"},
		),
	}

	m.Registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDurationSeconds,
		m.RegistrationsTotal,
		m.LoginsTotal,
		m.ContactsCreatedTotal,
		m.AvatarUploadsTotal,
	)
	return m
}

// Result turns an error into the "result" label value.
func Result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
