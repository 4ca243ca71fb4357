package checker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	statesGeneratedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "modelcheck_states_generated_total",
		Help: "Total states emitted by successor generation, duplicates included.",
	})
	statesUniqueTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "modelcheck_states_unique_total",
		Help: "Total states admitted into the seen set.",
	})
	seenStates = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "modelcheck_seen_states",
		Help: "Current size of the seen set.",
	})
)
