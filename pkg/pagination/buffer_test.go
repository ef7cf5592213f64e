package pagination

import (
	"fmt"
	"sync"
	"testing"
)

var testHeader = []string{"id", "name"}

func TestResultBuffer_HeaderWrittenOnce(t *testing.T) {
	buffer := NewResultBuffer()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rows := [][]string{
				{fmt.Sprintf("%d-a", i), "x"},
				{fmt.Sprintf("%d-b", i), "y"},
			}
			buffer.Merge(testHeader, rows)
		}(i)
	}
	wg.Wait()

	records := buffer.Records()
	if len(records) != 101 {
		t.Fatalf("Records = %d, want 101", len(records))
	}
	if records[0][0] != "id" {
		t.Errorf("Records[0] = %v, want header", records[0])
	}

	headers := 0
	for _, rec := range records {
		if rec[0] == "id" {
			headers++
		}
	}
	if headers != 1 {
		t.Errorf("Header rows = %d, want 1", headers)
	}
	if buffer.RowCount() != 100 {
		t.Errorf("RowCount = %d, want 100", buffer.RowCount())
	}
}

func TestResultBuffer_MergeKeepsPageOrder(t *testing.T) {
	buffer := NewResultBuffer()

	n, headerWritten := buffer.Merge(testHeader, [][]string{{"1", "a"}, {"2", "b"}})
	if n != 2 || !headerWritten {
		t.Errorf("first Merge = (%d, %v), want (2, true)", n, headerWritten)
	}

	n, headerWritten = buffer.Merge(testHeader, [][]string{{"3", "c"}})
	if n != 1 || headerWritten {
		t.Errorf("second Merge = (%d, %v), want (1, false)", n, headerWritten)
	}

	records := buffer.Records()
	want := []string{"id", "1", "2", "3"}
	for i, id := range want {
		if records[i][0] != id {
			t.Errorf("Records[%d][0] = %q, want %q", i, records[i][0], id)
		}
	}
}

func TestResultBuffer_MergeEmpty(t *testing.T) {
	buffer := NewResultBuffer()

	if n, headerWritten := buffer.Merge(testHeader, nil); n != 0 || headerWritten {
		t.Errorf("Merge(nil rows) = (%d, %v), want (0, false)", n, headerWritten)
	}
	if n, _ := buffer.Merge(nil, [][]string{{"1", "a"}}); n != 0 {
		t.Errorf("Merge without header on empty buffer = %d, want 0", n)
	}
	if len(buffer.Records()) != 0 {
		t.Errorf("Records = %v, want empty", buffer.Records())
	}
}

func TestResultBuffer_StopOnce(t *testing.T) {
	buffer := NewResultBuffer()

	if buffer.Stopped() {
		t.Fatal("new buffer should not be stopped")
	}

	select {
	case <-buffer.StopChan():
		t.Fatal("StopChan closed before Stop")
	default:
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	transitions := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if buffer.Stop(StopReasonEndOfData) {
				mu.Lock()
				transitions++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if transitions != 1 {
		t.Errorf("Stop transitions = %d, want 1", transitions)
	}
	if !buffer.Stopped() {
		t.Error("buffer should be stopped")
	}

	select {
	case <-buffer.StopChan():
	default:
		t.Error("StopChan should be closed after Stop")
	}

	if buffer.Stop(StopReasonFailure) {
		t.Error("second Stop should not transition")
	}
	if buffer.StopReason() != StopReasonEndOfData {
		t.Errorf("StopReason = %q, want %q", buffer.StopReason(), StopReasonEndOfData)
	}
}

func TestResultBuffer_RecordsIsCopy(t *testing.T) {
	buffer := NewResultBuffer()
	buffer.Merge(testHeader, [][]string{{"1", "a"}})

	records := buffer.Records()
	records[0] = []string{"tampered"}

	if buffer.Records()[0][0] != "id" {
		t.Error("Records must return a copy of the outer slice")
	}
}

func TestPageRequest_URL(t *testing.T) {
	tests := []struct {
		name     string
		req      PageRequest
		expected string
	}{
		{
			name: "page and size",
			req: PageRequest{
				PageNumber:  7,
				PageSize:    100,
				URLTemplate: "https://rulings.cbp.gov/api/search?term=a*&pageSize={pageSize}&page={page}&format=json",
			},
			expected: "https://rulings.cbp.gov/api/search?term=a*&pageSize=100&page=7&format=json",
		},
		{
			name: "page only",
			req: PageRequest{
				PageNumber:  12,
				URLTemplate: "https://example.test/search?page={page}",
			},
			expected: "https://example.test/search?page=12",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.req.URL(); got != tt.expected {
				t.Errorf("URL() = %q, want %q", got, tt.expected)
			}
		})
	}
}
