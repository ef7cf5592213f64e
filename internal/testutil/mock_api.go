// Package testutil provides testing utilities for the rulings harvester.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// SearchPath is the path served by MockAPI.
const SearchPath = "/api/search"

// MockPage defines the behavior for one mock search page.
type MockPage struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockAPI is a configurable mock of the rulings search API. Responses are
// selected by the "page" query parameter.
type MockAPI struct {
	server   *httptest.Server
	mu       sync.RWMutex
	pages    map[int]MockPage
	fallback MockPage

	requested         []int
	lastRequestHeader http.Header
}

// NewMockAPI creates a new mock API server. Pages without a configured
// response return an empty rulings list.
func NewMockAPI() *MockAPI {
	mock := &MockAPI{
		pages:    make(map[int]MockPage),
		fallback: NewEmptyPage(),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != SearchPath {
			http.NotFound(w, r)
			return
		}

		pageNum, err := strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil {
			http.Error(w, "invalid page", http.StatusBadRequest)
			return
		}

		mock.mu.Lock()
		mock.requested = append(mock.requested, pageNum)
		mock.lastRequestHeader = r.Header.Clone()
		resp, ok := mock.pages[pageNum]
		if !ok {
			resp = mock.fallback
		}
		mock.mu.Unlock()

		writePage(w, resp)
	}))

	return mock
}

// URL returns the mock server base URL.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// URLTemplate returns a search URL template pointing at the mock server.
func (m *MockAPI) URLTemplate() string {
	return m.server.URL + SearchPath + "?term=a*&pageSize={pageSize}&page={page}&format=json"
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// SetPage configures the response for one page number.
func (m *MockAPI) SetPage(pageNum int, resp MockPage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[pageNum] = resp
}

// SetFallback configures the response for pages without an explicit entry.
func (m *MockAPI) SetFallback(resp MockPage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = resp
}

// RequestedPages returns the page numbers requested so far, sorted.
func (m *MockAPI) RequestedPages() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pages := make([]int, len(m.requested))
	copy(pages, m.requested)
	sort.Ints(pages)
	return pages
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockAPI) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requested)
}

// LastRequestHeader returns the headers of the most recent request.
func (m *MockAPI) LastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRequestHeader
}

func writePage(w http.ResponseWriter, resp MockPage) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}

	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
	}

	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		_, _ = w.Write([]byte(resp.Body))
	}
}

// Ruling builds one ruling object. relatedRulings is always present, even when empty.
func Ruling(id int, relatedRulings ...string) map[string]any {
	if relatedRulings == nil {
		relatedRulings = []string{}
	}
	return map[string]any{
		"id":             id,
		"rulingNumber":   fmt.Sprintf("N%06d", id),
		"subject":        fmt.Sprintf("The tariff classification of item %d", id),
		"categories":     "Classification",
		"rulingDate":     "2024-01-02T00:00:00",
		"isUsmca":        false,
		"isNafta":        false,
		"collection":     "NY",
		"relatedRulings": relatedRulings,
		"tariffs":        []string{"9503.00.0073"},
	}
}

// PageBody renders a search response body holding the given rulings.
func PageBody(rulings ...map[string]any) string {
	if rulings == nil {
		rulings = []map[string]any{}
	}
	data, err := json.Marshal(map[string]any{
		"totalHits": len(rulings),
		"rulings":   rulings,
	})
	if err != nil {
		panic(err)
	}
	return string(data)
}

// RulingsPage returns a 200 response with one ruling per id.
func RulingsPage(ids ...int) MockPage {
	rulings := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		rulings = append(rulings, Ruling(id))
	}
	return NewPage(PageBody(rulings...))
}

// NewPage creates a 200 OK response with the given body.
func NewPage(body string) MockPage {
	return MockPage{
		StatusCode: http.StatusOK,
		Body:       body,
	}
}

// NewEmptyPage creates a 200 OK response with no rulings.
func NewEmptyPage() MockPage {
	return NewPage(`{"totalHits": 0, "rulings": []}`)
}

// NewServerErrorPage creates a 500 Internal Server Error response.
func NewServerErrorPage() MockPage {
	return MockPage{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
	}
}

// NewMalformedPage creates a 200 response whose body is not JSON.
func NewMalformedPage() MockPage {
	return MockPage{
		StatusCode: http.StatusOK,
		Body:       strings.Repeat("<html>maintenance</html>", 2),
		Headers:    map[string]string{"Content-Type": "text/html"},
	}
}
