// Package view provides Bounded, a read-only window over a contiguous range of
// an existing slice. Every list the admin UI and CLI paginate is displayed
// through a Bounded view, so the window never copies or mutates the records
// fetched from the back-end.
//
// The backing slice must not be mutated for the lifetime of a view. Views are
// immutable, so concurrent readers are safe under that precondition.
package view

import (
	"iter"
	"reflect"

	"github.com/conneroisu/sitepanel/internal/errors"
)

// Sentinels for errors.Is matching.
var (
	ErrInvalidArgument = errors.NewValidationError(errors.ErrCodeInvalidArgument, "invalid argument")
	ErrIndexOutOfRange = errors.NewBoundsError(errors.ErrCodeIndexOutOfRange, "index out of range")
)

// Bounded is a fixed-length window starting at origin in backing.
type Bounded[T any] struct {
	backing []T
	origin  int
	length  int
}

// New returns a view of at most length elements of backing starting at origin.
//
// A length that runs past the end of backing is clamped to the elements that
// remain. A zero length is accepted at any origin, including one outside
// backing, and yields an empty view.
func New[T any](backing []T, origin, length int) (*Bounded[T], error) {
	if length < 0 {
		return nil, invalidArgument("negative length", origin, length)
	}
	if length != 0 && (origin < 0 || origin >= len(backing)) {
		return nil, invalidArgument("origin out of bounds", origin, length)
	}

	return &Bounded[T]{
		backing: backing,
		origin:  origin,
		length:  max(0, min(length, len(backing)-origin)),
	}, nil
}

// FromAny builds a view over a dynamically typed value, which must be a slice
// or an array. It is meant for decoded payloads whose element type is not
// known statically.
func FromAny(backing any, origin, length int) (*Bounded[any], error) {
	rv := reflect.ValueOf(backing)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, invalidArgument("not a sequence", origin, length).
			WithContext("type", reflect.TypeOf(backing))
	}

	// Validation runs before boxing so argument errors surface in the same
	// order as New.
	if length < 0 {
		return nil, invalidArgument("negative length", origin, length)
	}
	if length != 0 && (origin < 0 || origin >= rv.Len()) {
		return nil, invalidArgument("origin out of bounds", origin, length)
	}

	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}

	return New(items, origin, length)
}

// Len returns the effective number of visible elements.
func (b *Bounded[T]) Len() int {
	return b.length
}

// Origin returns the offset of the first visible element in the backing slice.
func (b *Bounded[T]) Origin() int {
	return b.origin
}

// Get returns the i-th visible element.
func (b *Bounded[T]) Get(i int) (T, error) {
	if i < 0 || i >= b.length {
		var zero T
		return zero, errors.NewBoundsError(errors.ErrCodeIndexOutOfRange, "index out of bounds").
			WithComponent("view").
			WithContext("index", i).
			WithContext("length", b.length)
	}
	return b.backing[b.origin+i], nil
}

// All returns a sequence over the visible elements. Each call starts over at
// the first element.
func (b *Bounded[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for k := 0; k < b.length; k++ {
			if !yield(b.backing[b.origin+k]) {
				return
			}
		}
	}
}

// Slice copies the visible elements into a new slice.
func (b *Bounded[T]) Slice() []T {
	out := make([]T, 0, b.length)
	for v := range b.All() {
		out = append(out, v)
	}
	return out
}

// Iterator returns a cursor positioned before the first visible element.
func (b *Bounded[T]) Iterator() *Iterator[T] {
	return &Iterator[T]{
		view:   b,
		cursor: b.origin - 1,
		last:   b.origin + b.length - 1,
	}
}

// Iterator walks a view once, front to back.
type Iterator[T any] struct {
	view   *Bounded[T]
	cursor int
	last   int
}

// Next advances the cursor and returns the element under it. Once the cursor
// passes the last visible element Next keeps returning false.
func (it *Iterator[T]) Next() (T, bool) {
	var zero T
	if it.cursor >= it.last {
		return zero, false
	}
	it.cursor++
	return it.view.backing[it.cursor], true
}

func invalidArgument(msg string, origin, length int) *errors.PanelError {
	return errors.NewValidationError(errors.ErrCodeInvalidArgument, msg).
		WithComponent("view").
		WithContext("origin", origin).
		WithContext("length", length)
}
