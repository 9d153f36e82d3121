package pagination

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

const (
	// DefaultPage is used when the request does not name a page.
	DefaultPage = 1
	// DefaultPageSize is the catalog window when none is configured.
	DefaultPageSize = 2
)

var ErrInvalidPage = errors.New("page must be a positive integer")

// Page describes one window over a counted collection.
type Page struct {
	Skip        int  `json:"-"`
	Take        int  `json:"-"`
	CurrentPage int  `json:"current_page"`
	HasNext     bool `json:"has_next_page"`
	HasPrev     bool `json:"has_prev_page"`
	NextPage    int  `json:"next_page"`
	PrevPage    int  `json:"prev_page"`
	LastPage    int  `json:"last_page"`
}

// Paginate computes the window for page over totalCount items.
//
// Pages past the end are not clamped: they produce an empty window with
// HasNext false and HasPrev true. LastPage is 0 for an empty collection.
// Skip saturates at math.MaxInt instead of overflowing for huge pages.
func Paginate(totalCount, page, pageSize int) Page {
	if page < 1 {
		page = DefaultPage
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if totalCount < 0 {
		totalCount = 0
	}

	lastPage := totalCount / pageSize
	if totalCount%pageSize != 0 {
		lastPage++
	}

	skip := math.MaxInt
	if page-1 <= math.MaxInt/pageSize {
		skip = (page - 1) * pageSize
	}

	nextPage := page
	if page < math.MaxInt {
		nextPage = page + 1
	}

	// page < lastPage is page*pageSize < totalCount without the multiplication
	return Page{
		Skip:        skip,
		Take:        pageSize,
		CurrentPage: page,
		HasNext:     page < lastPage,
		HasPrev:     page > 1,
		NextPage:    nextPage,
		PrevPage:    page - 1,
		LastPage:    lastPage,
	}
}

// ParsePage reads the page query parameter. An empty value means DefaultPage.
func ParsePage(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultPage, nil
	}

	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, ErrInvalidPage
	}

	return page, nil
}
