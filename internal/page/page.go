// Package page provides the generic pagination envelope shared by every
// listing endpoint.
package page

// Page wraps one page of results together with the zero-based page index,
// the requested page size and the total number of matching elements
// (independent of page size).
type Page[T any] struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	Items       []T   `json:"items"`
}

// New builds a page envelope. Items may be nil for an empty page; it is
// normalized to an empty slice so the JSON projection is always an array.
func New[T any](currentPage, perPage int, total int64, items []T) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		CurrentPage: currentPage,
		PerPage:     perPage,
		Total:       total,
		Items:       items,
	}
}

// Map converts every item of p to a different representation, preserving
// page index, size and total. Used to project internal entities to their
// external shape without re-querying storage.
func Map[T, U any](p Page[T], fn func(T) U) Page[U] {
	items := make([]U, len(p.Items))
	for i, it := range p.Items {
		items[i] = fn(it)
	}
	return Page[U]{
		CurrentPage: p.CurrentPage,
		PerPage:     p.PerPage,
		Total:       p.Total,
		Items:       items,
	}
}
