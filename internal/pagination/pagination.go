// Package pagination splits ordered lists into numbered pages. A page is a
// view.Bounded window over the caller's slice, so paging a list of sites or
// pages fetched from the back-end never copies the records.
package pagination

import (
	"net/url"
	"strconv"

	"github.com/conneroisu/sitepanel/internal/errors"
	"github.com/conneroisu/sitepanel/internal/view"
)

// Page is one numbered window over a list.
type Page[T any] struct {
	Items  *view.Bounded[T]
	Number int
	Size   int
	Total  int
}

// New returns page number (1-based) of items split into pages of size.
// A number past the last page yields an empty page.
func New[T any](items []T, number, size int) (*Page[T], error) {
	if size <= 0 {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidArgument, "page size must be positive").
			WithComponent("pagination").
			WithContext("size", size)
	}
	if number < 1 {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidArgument, "page number must be at least 1").
			WithComponent("pagination").
			WithContext("page", number)
	}

	// Compared by page count first so huge page numbers cannot overflow.
	pages := len(items) / size
	if len(items)%size != 0 {
		pages++
	}
	origin, length := len(items), 0
	if number-1 < pages {
		origin, length = (number-1)*size, size
	}

	window, err := view.New(items, origin, length)
	if err != nil {
		return nil, err
	}

	return &Page[T]{
		Items:  window,
		Number: number,
		Size:   size,
		Total:  len(items),
	}, nil
}

// TotalPages returns the number of pages; an empty list has one empty page.
func (p *Page[T]) TotalPages() int {
	if p.Total == 0 {
		return 1
	}
	return (p.Total + p.Size - 1) / p.Size
}

// HasPrev reports whether a previous page exists.
func (p *Page[T]) HasPrev() bool {
	return p.Number > 1
}

// HasNext reports whether a following page exists.
func (p *Page[T]) HasNext() bool {
	return p.Number < p.TotalPages()
}

// PrevNumber returns the previous page number, clamped to the last page.
func (p *Page[T]) PrevNumber() int {
	return max(1, min(p.Number-1, p.TotalPages()))
}

// NextNumber returns the next page number.
func (p *Page[T]) NextNumber() int {
	return p.Number + 1
}

// FirstIndex returns the 1-based position of the first item on the page, or
// zero for an empty page.
func (p *Page[T]) FirstIndex() int {
	if p.Items.Len() == 0 {
		return 0
	}
	return p.Items.Origin() + 1
}

// LastIndex returns the 1-based position of the last item on the page.
func (p *Page[T]) LastIndex() int {
	if p.Items.Len() == 0 {
		return 0
	}
	return p.Items.Origin() + p.Items.Len()
}

// ParseParams reads the page and size query parameters. Missing or invalid
// values fall back to page 1 and defaultSize; size is capped at maxSize.
func ParseParams(values url.Values, defaultSize, maxSize int) (page, size int) {
	page, _ = strconv.Atoi(values.Get("page"))
	size, _ = strconv.Atoi(values.Get("size"))
	return Normalize(page, size, defaultSize, maxSize)
}

// Normalize replaces a page number below 1 with 1 and a size below 1 with
// defaultSize, then caps size at maxSize when maxSize is positive.
func Normalize(page, size, defaultSize, maxSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultSize
	}
	if maxSize > 0 && size > maxSize {
		size = maxSize
	}
	return page, size
}
