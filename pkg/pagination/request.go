package pagination

import (
	"strconv"
	"strings"
)

// Placeholders substituted into the URL template.
const (
	PagePlaceholder     = "{page}"
	PageSizePlaceholder = "{pageSize}"
)

// PageRequest identifies one page to fetch.
type PageRequest struct {
	PageNumber  int
	PageSize    int
	URLTemplate string
}

// URL returns the template with the page number and page size substituted.
func (r PageRequest) URL() string {
	return strings.NewReplacer(
		PagePlaceholder, strconv.Itoa(r.PageNumber),
		PageSizePlaceholder, strconv.Itoa(r.PageSize),
	).Replace(r.URLTemplate)
}
