//go:build integration

package pagination

import (
	"context"
	"testing"
	"time"

	"github.com/Sternrassler/rulings-harvester/pkg/client"
	"github.com/Sternrassler/rulings-harvester/pkg/ruling"
)

const liveTemplate = "https://rulings.cbp.gov/api/search?term=a*&collection=ALL&pageSize={pageSize}&page={page}&sortBy=DATE_DESC&format=json"

// TestHarvest_LiveAPI harvests the first pages of the public rulings search.
func TestHarvest_LiveAPI(t *testing.T) {
	httpClient, err := client.New(client.DefaultConfig("rulings-harvester-integration/1.0"))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	h := NewHarvester(httpClient, liveTemplate, Config{
		MaxConcurrency: 2,
		PageCeiling:    2,
		PageSize:       10,
		Timeout:        30 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result, err := h.Harvest(ctx)
	if err != nil {
		t.Fatalf("Harvest failed: %v", err)
	}

	if result.RowCount() != 20 {
		t.Errorf("RowCount = %d, want 20", result.RowCount())
	}
	for i, rec := range result.Records {
		if len(rec) != len(ruling.Columns) {
			t.Errorf("Records[%d] has %d columns, want %d", i, len(rec), len(ruling.Columns))
		}
	}
	if result.Records[0][0] != "id" {
		t.Errorf("Records[0] = %v, want header", result.Records[0])
	}
}
