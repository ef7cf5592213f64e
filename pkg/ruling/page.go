package ruling

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Page is the flattened form of one search response.
type Page struct {
	// Header is the column order of Rows.
	Header []string

	// Rows holds one row per ruling, in response order.
	Rows [][]string

	// TotalHits is the total number of matches reported by the API, 0 if absent.
	TotalHits int
}

// searchResponse is the top-level shape of a rulings search response.
type searchResponse struct {
	TotalHits Field              `json:"totalHits"`
	Rulings   *[]json.RawMessage `json:"rulings"`
}

// NormalizePage decodes a search response body and flattens its rulings.
//
// It returns ErrEndOfData when the rulings list is absent, null or empty, and a
// *MalformedPageError when the body is not a JSON object of the expected shape
// or any rulings element is not an object.
// Missing optional fields never cause an error.
func NormalizePage(body []byte) (Page, error) {
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Page{}, &MalformedPageError{Body: body, Err: err}
	}

	if resp.Rulings == nil || len(*resp.Rulings) == 0 {
		return Page{}, ErrEndOfData
	}

	rulings := *resp.Rulings
	page := Page{
		Header: Header(),
		Rows:   make([][]string, 0, len(rulings)),
	}
	for i, raw := range rulings {
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || raw[0] != '{' {
			return Page{}, &MalformedPageError{
				Body: body,
				Err:  fmt.Errorf("rulings[%d] is not an object: %.32s", i, raw),
			}
		}

		var r Ruling
		if err := json.Unmarshal(raw, &r); err != nil {
			return Page{}, &MalformedPageError{Body: body, Err: fmt.Errorf("rulings[%d]: %w", i, err)}
		}
		page.Rows = append(page.Rows, r.Row())
	}

	if resp.TotalHits.Valid() {
		if n, err := strconv.Atoi(resp.TotalHits.String()); err == nil {
			page.TotalHits = n
		}
	}

	return page, nil
}
