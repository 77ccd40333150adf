// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SignupsTotal counts registration attempts by outcome.
	SignupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ideasplace_signups_total",
		Help: "Total number of signup attempts by outcome",
	}, []string{"outcome"})

	// ActivationsTotal counts activation attempts by outcome.
	ActivationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ideasplace_activations_total",
		Help: "Total number of account activation attempts by outcome",
	}, []string{"outcome"})

	// ActivationMailsTotal counts activation mails by delivery result.
	ActivationMailsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ideasplace_activation_mails_total",
		Help: "Total number of activation mails by delivery result",
	}, []string{"result"})

	// IdeaOperationsTotal counts successful idea mutations by operation.
	IdeaOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ideasplace_idea_operations_total",
		Help: "Total number of idea mutations by operation",
	}, []string{"operation"})

	// LikeUpdatesTotal counts like status writes.
	LikeUpdatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ideasplace_like_updates_total",
		Help: "Total number of like status updates",
	})
)

// Outcome labels shared by the counters above.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
