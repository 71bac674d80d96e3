// Package metrics exposes the vault's prometheus collectors and the /metrics
// handler. Collectors are registered on a private registry so tests can build
// as many sets as they need.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Set struct {
	registry *prometheus.Registry

	Deposits               prometheus.Counter
	TransactionsExecuted   prometheus.Counter
	TransactionFailures    prometheus.Counter
	SubscriptionsExecuted  prometheus.Counter
	SubscriptionFailures   prometheus.Counter
	SubscriptionsSubmitted prometheus.Counter
	RPCRequests            *prometheus.CounterVec
	RPCLatency             prometheus.Histogram
}

func New() *Set {
	reg := prometheus.NewRegistry()
	s := &Set{
		registry: reg,
		Deposits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "covault_deposits_total",
			Help: "Incoming value deposits recorded by the vault.",
		}),
		TransactionsExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "covault_transactions_executed_total",
			Help: "One-off transactions executed successfully.",
		}),
		TransactionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "covault_transaction_failures_total",
			Help: "Transaction executions rolled back on outbound call failure.",
		}),
		SubscriptionsExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "covault_subscription_cycles_total",
			Help: "Subscription withdrawal cycles executed successfully.",
		}),
		SubscriptionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "covault_subscription_failures_total",
			Help: "Subscription executions that failed settlement.",
		}),
		SubscriptionsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "covault_subscriptions_submitted_total",
			Help: "Subscriptions registered.",
		}),
		RPCRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "covault_rpc_requests_total",
			Help: "JSON-RPC requests by method and outcome.",
		}, []string{"method", "outcome"}),
		RPCLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "covault_rpc_latency_seconds",
			Help:    "JSON-RPC request latency.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(
		s.Deposits,
		s.TransactionsExecuted,
		s.TransactionFailures,
		s.SubscriptionsExecuted,
		s.SubscriptionFailures,
		s.SubscriptionsSubmitted,
		s.RPCRequests,
		s.RPCLatency,
	)
	return s
}

// Handler serves the set's registry in prometheus exposition format.
func (s *Set) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}
