// Package metrics exposes Prometheus counters for the auth endpoints and an
// echo handler serving them.
package metrics

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "portfolio"

// Auth holds the auth counters. A nil *Auth is valid and records nothing.
type Auth struct {
	logins          *prometheus.CounterVec
	verifications   *prometheus.CounterVec
	passwordChanges *prometheus.CounterVec
	seeds           *prometheus.CounterVec
}

// NewAuth registers the auth counters on reg.
func NewAuth(reg prometheus.Registerer) *Auth {
	factory := promauto.With(reg)
	return &Auth{
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Login attempts by result",
		}, []string{"result"}),
		verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "token_verifications_total",
			Help:      "Session token verifications by result",
		}, []string{"result"}),
		passwordChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "password_changes_total",
			Help:      "Password change attempts by result",
		}, []string{"result"}),
		seeds: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "seed_runs_total",
			Help:      "Seed invocations by outcome",
		}, []string{"result"}),
	}
}

func (a *Auth) Login(result string) {
	if a != nil {
		a.logins.WithLabelValues(result).Inc()
	}
}

func (a *Auth) Verification(result string) {
	if a != nil {
		a.verifications.WithLabelValues(result).Inc()
	}
}

func (a *Auth) PasswordChange(result string) {
	if a != nil {
		a.passwordChanges.WithLabelValues(result).Inc()
	}
}

func (a *Auth) Seed(result string) {
	if a != nil {
		a.seeds.WithLabelValues(result).Inc()
	}
}

// Handler serves the metrics of g in the Prometheus text format.
func Handler(g prometheus.Gatherer) echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}
