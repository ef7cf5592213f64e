package pagination

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Sternrassler/rulings-harvester/pkg/logging"
	"github.com/Sternrassler/rulings-harvester/pkg/ruling"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrNoDataCollected is returned when a harvest ends without any data row.
var ErrNoDataCollected = errors.New("no data collected")

// Defaults applied by NewHarvester to zero Config fields.
const (
	DefaultMaxConcurrency = 15
	DefaultPageCeiling    = 2162 // 216170 hits / 100 per page, rounded up
	DefaultPageSize       = 100
	DefaultTimeout        = 30 * time.Second

	// progressInterval is how many settled pages pass between progress logs.
	progressInterval = 50

	// maxLoggedBody caps how much of a malformed body is logged.
	maxLoggedBody = 2048
)

// Config holds harvester configuration
type Config struct {
	// MaxConcurrency is the number of page workers
	MaxConcurrency int
	// PageCeiling is the highest page number that will be submitted
	PageCeiling int
	// PageSize is substituted for {pageSize} in the URL template
	PageSize int
	// Timeout per page fetch
	Timeout time.Duration
	// BufferSize of the page queue (default: PageCeiling, so dispatch never waits on workers)
	BufferSize int
}

// DefaultConfig returns the configuration used for a full rulings harvest
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: DefaultMaxConcurrency,
		PageCeiling:    DefaultPageCeiling,
		PageSize:       DefaultPageSize,
		Timeout:        DefaultTimeout,
	}
}

// PageFetcher is the transport used for single-page fetching
type PageFetcher interface {
	// Fetch performs a GET on url and returns the raw body.
	// Any failure, including a non-2xx status, is returned as an error.
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Status is the outcome of one page task.
type Status int

const (
	// StatusSuccess means rows were merged.
	StatusSuccess Status = iota
	// StatusStop means the page signalled end of data.
	StatusStop
	// StatusFailure means the fetch failed or the page was malformed.
	StatusFailure
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusStop:
		return "stop"
	case StatusFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// State is the harvester lifecycle state.
type State int32

const (
	// StateIdle is the state before Harvest is called.
	StateIdle State = iota
	// StateDispatching means page tasks are being submitted.
	StateDispatching
	// StateDraining means submission ended and submitted tasks are settling.
	StateDraining
	// StateDone means every submitted task has settled.
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDispatching:
		return "dispatching"
	case StateDraining:
		return "draining"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// PageResult represents the outcome of fetching a single page
type PageResult struct {
	PageNumber int
	Status     Status
	Rows       int
	Err        error
}

// Result is the outcome of a harvest run.
type Result struct {
	// Records is the header followed by all rows in merge order, or empty.
	Records [][]string

	Dispatched int
	Succeeded  int
	Stopped    int
	Failed     int

	StopReason StopReason
	Duration   time.Duration
}

// RowCount returns the number of data rows in Records.
func (r *Result) RowCount() int {
	if len(r.Records) == 0 {
		return 0
	}
	return len(r.Records) - 1
}

// Harvester fetches pages concurrently until the ceiling or a stop signal.
type Harvester struct {
	fetcher     PageFetcher
	urlTemplate string
	config      Config
	logger      zerolog.Logger
	state       atomic.Int32
}

// NewHarvester creates a new harvester. Zero config fields take defaults.
func NewHarvester(fetcher PageFetcher, urlTemplate string, config Config) *Harvester {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = DefaultMaxConcurrency
	}
	if config.PageCeiling <= 0 {
		config.PageCeiling = DefaultPageCeiling
	}
	if config.PageSize <= 0 {
		config.PageSize = DefaultPageSize
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.BufferSize <= 0 {
		config.BufferSize = config.PageCeiling
	}

	return &Harvester{
		fetcher:     fetcher,
		urlTemplate: urlTemplate,
		config:      config,
		logger:      logging.NewLogger("harvester"),
	}
}

// State returns the current lifecycle state.
func (h *Harvester) State() State {
	return State(h.state.Load())
}

func (h *Harvester) setState(s State) {
	h.state.Store(int32(s))
	h.logger.Debug().Str("state", s.String()).Msg("Harvester state changed")
}

// run holds the shared state of one Harvest call.
type run struct {
	buffer   *ResultBuffer
	hitsOnce sync.Once
}

// Harvest fetches pages 1..PageCeiling using the worker pool and returns the
// merged records.
//
// It returns ErrNoDataCollected together with an empty result when no data
// row was merged, and a wrapped context error with the partial result when ctx
// is cancelled. Page failures are logged and counted, never returned.
func (h *Harvester) Harvest(ctx context.Context) (*Result, error) {
	start := time.Now()
	r := &run{buffer: NewResultBuffer()}

	h.logger.Info().
		Int("page_ceiling", h.config.PageCeiling).
		Int("workers", h.config.MaxConcurrency).
		Msg("Starting harvest")

	h.setState(StateDispatching)

	pageQueue := make(chan PageRequest, h.config.BufferSize)
	pageResults := make(chan PageResult, h.config.MaxConcurrency)

	// Start worker pool
	var g errgroup.Group
	for i := 0; i < h.config.MaxConcurrency; i++ {
		workerID := i
		g.Go(func() error {
			h.worker(ctx, r, pageQueue, pageResults, workerID)
			return nil
		})
	}

	// Close results channel when all workers done
	go func() {
		_ = g.Wait()
		close(pageResults)
	}()

	// Collect results
	result := &Result{}
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		h.collect(pageResults, result)
	}()

	result.Dispatched = h.dispatch(ctx, r.buffer, pageQueue)
	close(pageQueue)

	h.setState(StateDraining)
	h.logger.Info().
		Int("dispatched", result.Dispatched).
		Bool("stopped", r.buffer.Stopped()).
		Msg("Dispatch finished, waiting for in-flight pages")

	<-collected
	h.setState(StateDone)

	result.Records = r.buffer.Records()
	result.StopReason = r.buffer.StopReason()
	result.Duration = time.Since(start)

	h.logger.Info().
		Int("dispatched", result.Dispatched).
		Int("succeeded", result.Succeeded).
		Int("stopped", result.Stopped).
		Int("failed", result.Failed).
		Int("rows", result.RowCount()).
		Str("stop_reason", string(result.StopReason)).
		Dur("duration", result.Duration).
		Msg("Harvest complete")

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("harvest interrupted (partial data: %d rows): %w", result.RowCount(), err)
	}
	if result.RowCount() == 0 {
		return result, ErrNoDataCollected
	}
	return result, nil
}

// dispatch submits page requests until the ceiling is reached or the stop
// signal is raised. The stop signal is checked before every submission.
func (h *Harvester) dispatch(ctx context.Context, buffer *ResultBuffer, pageQueue chan<- PageRequest) int {
	dispatched := 0

	for page := 1; page <= h.config.PageCeiling; page++ {
		if buffer.Stopped() {
			h.logger.Info().
				Int("next_page", page).
				Str("reason", string(buffer.StopReason())).
				Msg("Stop signal set, no further pages will be dispatched")
			return dispatched
		}
		if ctx.Err() != nil {
			h.stop(buffer, StopReasonCancelled, page)
			return dispatched
		}

		req := PageRequest{
			PageNumber:  page,
			PageSize:    h.config.PageSize,
			URLTemplate: h.urlTemplate,
		}

		select {
		case pageQueue <- req:
			dispatched++
		case <-buffer.StopChan():
			h.logger.Info().
				Int("next_page", page).
				Str("reason", string(buffer.StopReason())).
				Msg("Stop signal set while waiting for queue space")
			return dispatched
		case <-ctx.Done():
			h.stop(buffer, StopReasonCancelled, page)
			return dispatched
		}
	}

	return dispatched
}

// worker processes pages from the queue. Every dequeued page runs to
// completion, even after the stop signal.
func (h *Harvester) worker(ctx context.Context, r *run, pageQueue <-chan PageRequest, results chan<- PageResult, workerID int) {
	pagesProcessed := 0

	for req := range pageQueue {
		results <- h.fetchPage(ctx, r, req)
		pagesProcessed++
	}

	if pagesProcessed > 0 {
		h.logger.Debug().
			Int("worker_id", workerID).
			Int("pages_processed", pagesProcessed).
			Msg("Worker completed")
	}
}

// fetchPage runs one page task: fetch, normalize, merge.
// The buffer lock is never held during the fetch.
func (h *Harvester) fetchPage(ctx context.Context, r *run, req PageRequest) PageResult {
	pagesInFlight.Inc()
	defer pagesInFlight.Dec()

	if ctx.Err() != nil {
		h.logger.Debug().
			Int("page", req.PageNumber).
			Msg("Harvest cancelled, skipping page")
		h.stop(r.buffer, StopReasonCancelled, req.PageNumber)
		return PageResult{PageNumber: req.PageNumber, Status: StatusFailure, Err: ctx.Err()}
	}

	url := req.URL()
	h.logger.Debug().
		Int("page", req.PageNumber).
		Str("url", url).
		Msg("Fetching page")

	// Fetch page with timeout
	pageCtx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	body, err := h.fetcher.Fetch(pageCtx, url)
	cancel()

	if err != nil && ctx.Err() != nil {
		h.logger.Debug().
			Err(err).
			Int("page", req.PageNumber).
			Msg("Page fetch interrupted by cancellation")
		h.stop(r.buffer, StopReasonCancelled, req.PageNumber)
		return PageResult{PageNumber: req.PageNumber, Status: StatusFailure, Err: err}
	}
	if err != nil {
		h.logger.Warn().
			Err(err).
			Int("page", req.PageNumber).
			Msg("Page fetch failed")
		h.stop(r.buffer, StopReasonFailure, req.PageNumber)
		return PageResult{PageNumber: req.PageNumber, Status: StatusFailure, Err: err}
	}

	page, err := ruling.NormalizePage(body)
	if errors.Is(err, ruling.ErrEndOfData) {
		h.logger.Info().
			Int("page", req.PageNumber).
			Msg("Page is empty, stopping page fetching")
		h.stop(r.buffer, StopReasonEndOfData, req.PageNumber)
		return PageResult{PageNumber: req.PageNumber, Status: StatusStop}
	}
	if err != nil {
		var malformed *ruling.MalformedPageError
		event := h.logger.Error().Err(err).Int("page", req.PageNumber)
		if errors.As(err, &malformed) {
			event = event.Str("body", truncate(malformed.Body, maxLoggedBody))
		}
		event.Msg("Error decoding page")

		h.stop(r.buffer, StopReasonFailure, req.PageNumber)
		return PageResult{PageNumber: req.PageNumber, Status: StatusFailure, Err: err}
	}

	if page.TotalHits > 0 {
		r.hitsOnce.Do(func() {
			h.logger.Info().
				Int("total_hits", page.TotalHits).
				Int("pages_needed", (page.TotalHits+req.PageSize-1)/req.PageSize).
				Int("page_ceiling", h.config.PageCeiling).
				Msg("Search reported total hits")
		})
	}

	merged, headerWritten := r.buffer.Merge(page.Header, page.Rows)
	rowsMerged.Add(float64(merged))

	h.logger.Info().
		Int("page", req.PageNumber).
		Int("rulings", merged).
		Bool("header_written", headerWritten).
		Msg("Page fetched and rulings added")

	return PageResult{PageNumber: req.PageNumber, Status: StatusSuccess, Rows: merged}
}

// stop raises the stop signal and records the transition once.
func (h *Harvester) stop(buffer *ResultBuffer, reason StopReason, page int) {
	if !buffer.Stop(reason) {
		return
	}
	stopSignals.WithLabelValues(string(reason)).Inc()
	h.logger.Info().
		Int("page", page).
		Str("reason", string(reason)).
		Msg("Stop signal raised")
}

// collect tallies page outcomes until the results channel is closed.
func (h *Harvester) collect(results <-chan PageResult, result *Result) {
	settled := 0

	for pr := range results {
		settled++
		pagesTotal.WithLabelValues(pr.Status.String()).Inc()

		switch pr.Status {
		case StatusSuccess:
			result.Succeeded++
		case StatusStop:
			result.Stopped++
		case StatusFailure:
			result.Failed++
		}

		// Progress logging every 50 pages
		if settled%progressInterval == 0 {
			h.logger.Info().
				Int("settled", settled).
				Int("ceiling", h.config.PageCeiling).
				Float64("progress_pct", float64(settled)/float64(h.config.PageCeiling)*100).
				Msg("Harvest progress")
		}
	}
}

func truncate(body []byte, limit int) string {
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + "..."
}
