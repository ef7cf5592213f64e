// Package metrics provides the Prometheus registry used by the harvester and
// helpers to export it at the end of a batch run.
// Collectors are defined in their respective packages (client, pagination)
// to maintain modularity and avoid circular dependencies.
package metrics

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Registry is the default Prometheus registry used by the harvester.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer matching Registry.
var Gatherer = prometheus.DefaultGatherer

// DefaultJob is the Pushgateway job name for harvest runs.
const DefaultJob = "rulings_harvest"

// Push replaces the metrics of job on the Pushgateway at url with the
// current contents of Gatherer. A harvest is a short batch run, so metrics
// are pushed once when it ends instead of being scraped.
func Push(ctx context.Context, url, job string) error {
	if job == "" {
		job = DefaultJob
	}

	grouping := push.New(url, job).Gatherer(Gatherer)
	if host, err := os.Hostname(); err == nil && host != "" {
		grouping = grouping.Grouping("instance", host)
	}

	if err := grouping.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}

// WriteTextfile writes the current metrics in text exposition format to path,
// for pickup by a node_exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, Gatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - rulings_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status or error class
//   - rulings_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - rulings_errors_total{class} (Counter): Errors by class (client, server, unexpected, network, timeout)
//
// Harvest Metrics (pkg/pagination):
//   - harvest_pages_total{status} (Counter): Settled page tasks by status (success, stop, failure)
//   - harvest_rows_merged_total (Counter): Rows merged into the result buffer
//   - harvest_pages_in_flight (Gauge): Page tasks currently executing
//   - harvest_stop_signals_total{reason} (Counter): Stop signals by reason (end_of_data, failure, cancelled)
//
// Example Prometheus Queries:
//
//   # Failed page ratio of the last run
//   harvest_pages_total{status="failure"} / ignoring(status) sum(harvest_pages_total)
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(rulings_request_duration_seconds_bucket[5m]))
//
//   # Runs that ended on an error instead of end of data
//   harvest_stop_signals_total{reason="failure"} > 0
