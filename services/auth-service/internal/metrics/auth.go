package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Auth counts registrations and login attempts. It satisfies account.Recorder.
type Auth struct {
	registrations *prometheus.CounterVec
	logins        *prometheus.CounterVec
}

func NewAuth(reg prometheus.Registerer) *Auth {
	factory := promauto.With(reg)
	return &Auth{
		registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "barberbook",
			Name:      "account_registrations_total",
			Help:      "Accounts registered by role.",
		}, []string{"role"}),
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "barberbook",
			Name:      "login_attempts_total",
			Help:      "Login attempts by role and outcome.",
		}, []string{"role", "outcome"}),
	}
}

func (a *Auth) Registered(role string) {
	a.registrations.WithLabelValues(role).Inc()
}

func (a *Auth) Login(role string, ok bool) {
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	a.logins.WithLabelValues(role, outcome).Inc()
}
