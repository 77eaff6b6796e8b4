package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var completionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "medchat_completions_total",
		Help: "Completed assistant turns by model.",
	},
	[]string{"model"},
)
