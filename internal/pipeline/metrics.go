package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// attachmentsProcessed counts extraction outcomes by format and result.
var attachmentsProcessed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "medchat_attachments_processed_total",
		Help: "Total number of file attachments processed by the ingestion pipeline",
	},
	[]string{"format", "outcome"},
)
