// Package pagination harvests every page of a paginated search endpoint whose
// length is not known up front.
//
// The harvester submits page numbers 1..PageCeiling to a fixed-size worker
// pool, checking a shared stop signal before each submission. Each worker
// fetches its page, flattens the rulings with ruling.NormalizePage and merges
// the rows into a ResultBuffer under a single mutex. The first page that comes
// back empty, malformed or failed raises the stop signal; pages that were
// already submitted still run to completion and may still merge rows.
//
// Example usage:
//
//	cfg := pagination.DefaultConfig()
//	harvester := pagination.NewHarvester(apiClient, urlTemplate, cfg)
//	result, err := harvester.Harvest(ctx)
//	if errors.Is(err, pagination.ErrNoDataCollected) {
//		// nothing to write
//	}
//
// The harvester:
//   - Dispatches pages until the ceiling or the stop signal (Dispatching)
//   - Waits for every submitted page to settle (Draining)
//   - Returns Header + Rows in merge order (Done)
//
// Row order across pages follows lock acquisition, not page number.
package pagination
