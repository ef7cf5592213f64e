package pagination

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// pagesTotal tracks settled pages by status (success, stop, failure)
	pagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvest_pages_total",
			Help: "Total number of settled page tasks by status",
		},
		[]string{"status"},
	)

	// rowsMerged tracks data rows appended to the result buffer
	rowsMerged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "harvest_rows_merged_total",
			Help: "Total number of rows merged into the result buffer",
		},
	)

	// pagesInFlight tracks page tasks currently executing
	pagesInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "harvest_pages_in_flight",
			Help: "Number of page tasks currently executing",
		},
	)

	// stopSignals tracks stop signal transitions by reason
	stopSignals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvest_stop_signals_total",
			Help: "Total number of harvest stop signals by reason",
		},
		[]string{"reason"}, // "end_of_data", "failure", "cancelled"
	)
)
