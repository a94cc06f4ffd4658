package linq

import (
	"context"
	"iter"
)

// Cursorable is a list query that can be re-issued from a cursor position.
// WithCursor returns a copy of the query with only the cursor replaced.
type Cursorable[Q any] interface {
	WithCursor(cursor string) Q
}

// CursorIterator walks every item of a cursor-paginated collection, fetching
// one page at a time and only when the previous page has been consumed.
// It is forward-only and not safe for concurrent use.
//
//	it := client.Chats.ListAll(&linq.ListChatsParams{From: "+12223334444"})
//	for it.Next(ctx) {
//	    chat := it.Item()
//	}
//	if err := it.Err(); err != nil {
//	    // handle err
//	}
type CursorIterator[Q Cursorable[Q], P, T any] struct {
	query      Q
	fetch      func(ctx context.Context, query Q) (P, error)
	items      func(page P) []T
	nextCursor func(page P) string

	buf     []T
	cur     T
	pending bool // a page remains to be fetched with query
	err     error
}

// NewCursorIterator builds an iterator starting at initial. fetch loads one
// page, items extracts its items in order and nextCursor returns the cursor
// of the following page, or "" on the last page.
func NewCursorIterator[Q Cursorable[Q], P, T any](
	initial Q,
	fetch func(ctx context.Context, query Q) (P, error),
	items func(page P) []T,
	nextCursor func(page P) string,
) *CursorIterator[Q, P, T] {
	return &CursorIterator[Q, P, T]{
		query:      initial,
		fetch:      fetch,
		items:      items,
		nextCursor: nextCursor,
		pending:    true,
	}
}

// Next advances to the next item, fetching a page when the buffered one is
// exhausted. It returns false at the end of the collection or after a fetch
// failure; check Err to tell them apart.
func (it *CursorIterator[Q, P, T]) Next(ctx context.Context) bool {
	for len(it.buf) == 0 {
		if !it.pending || it.err != nil {
			return false
		}

		page, err := it.fetch(ctx, it.query)
		if err != nil {
			it.err = err
			it.pending = false
			return false
		}

		it.buf = it.items(page)
		if cursor := it.nextCursor(page); cursor != "" {
			it.query = it.query.WithCursor(cursor)
		} else {
			it.pending = false
		}
	}

	it.cur = it.buf[0]
	it.buf = it.buf[1:]
	return true
}

// Item returns the item produced by the last successful call to Next.
func (it *CursorIterator[Q, P, T]) Item() T {
	return it.cur
}

// Err returns the fetch error that ended the iteration, if any.
func (it *CursorIterator[Q, P, T]) Err() error {
	return it.err
}

// All adapts the iterator to a range-over-func sequence. A fetch failure is
// yielded once, with the zero item, as the final element.
func (it *CursorIterator[Q, P, T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for it.Next(ctx) {
			if !yield(it.Item(), nil) {
				return
			}
		}
		if err := it.Err(); err != nil {
			var zero T
			yield(zero, err)
		}
	}
}

// Collect drains the iterator into a slice. On failure it returns the items
// gathered so far together with the error.
func (it *CursorIterator[Q, P, T]) Collect(ctx context.Context) ([]T, error) {
	var out []T
	for it.Next(ctx) {
		out = append(out, it.Item())
	}
	return out, it.Err()
}
