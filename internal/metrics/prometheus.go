package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// Results recorded in the result label.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultError    = "error"
	ResultGranted  = "granted"
	ResultDenied   = "denied"
)

// Metrics holds the model counters.
type Metrics struct {
	TokensSaved    prometheus.Counter
	CodesSaved     prometheus.Counter
	Revocations    *prometheus.CounterVec // kind, result
	UserLookups    *prometheus.CounterVec // result
	ScopeDecisions *prometheus.CounterVec // op, result
}

// New creates the counters and registers them with reg. A nil reg leaves
// them unregistered, which tests use.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TokensSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authmodel_tokens_saved_total",
			Help: "Total number of token pairs saved.",
		}),
		CodesSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authmodel_codes_saved_total",
			Help: "Total number of authorization codes saved.",
		}),
		Revocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authmodel_revocations_total",
			Help: "Revocation attempts by record kind and result.",
		}, []string{"kind", "result"}),
		UserLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authmodel_user_lookups_total",
			Help: "User lookups by result.",
		}, []string{"result"}),
		ScopeDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authmodel_scope_decisions_total",
			Help: "Scope validations and verifications by result.",
		}, []string{"op", "result"}),
	}

	if reg == nil {
		return m
	}
	for _, c := range []prometheus.Collector{m.TokensSaved, m.CodesSaved, m.Revocations, m.UserLookups, m.ScopeDecisions} {
		if err := reg.Register(c); err != nil {
			log.Warn().Err(err).Msg("Failed to register metric")
		}
	}
	log.Info().Msg("Model Prometheus metrics registered.")
	return m
}

// Revoked records the outcome of a revocation.
func (m *Metrics) Revoked(kind string, revoked bool, err error) {
	result := ResultOK
	switch {
	case err != nil:
		result = ResultError
	case !revoked:
		result = ResultNotFound
	}
	m.Revocations.WithLabelValues(kind, result).Inc()
}
