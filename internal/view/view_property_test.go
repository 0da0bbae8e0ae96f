//go:build property

package view

import (
	"errors"
	"slices"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestBoundedProperties validates the window arithmetic over random inputs
func TestBoundedProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1357)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	// Property: effective length is min(requested, remaining) for valid origins
	properties.Property("effective length is clamped to the remaining elements", prop.ForAll(
		func(backing []int, origin int, length int) bool {
			if len(backing) == 0 {
				return true
			}
			origin %= len(backing)
			v, err := New(backing, origin, length)
			if err != nil {
				return false
			}
			return v.Len() == min(length, len(backing)-origin)
		},
		gen.SliceOf(gen.Int()),
		gen.IntRange(0, 1000),
		gen.IntRange(0, 1000),
	))

	// Property: a negative length is always rejected
	properties.Property("negative length is rejected regardless of origin", prop.ForAll(
		func(backing []int, origin int, length int) bool {
			_, err := New(backing, origin, length)
			return errors.Is(err, ErrInvalidArgument)
		},
		gen.SliceOf(gen.Int()),
		gen.IntRange(-1000, 1000),
		gen.IntRange(-1000, -1),
	))

	// Property: a zero length never fails and is never negative
	properties.Property("zero length is accepted at any origin", prop.ForAll(
		func(backing []int, origin int) bool {
			v, err := New(backing, origin, 0)
			return err == nil && v.Len() == 0 && len(slices.Collect(v.All())) == 0
		},
		gen.SliceOf(gen.Int()),
		gen.IntRange(-1000, 1000),
	))

	// Property: iteration yields exactly Len elements matching Get, twice
	properties.Property("iteration matches indexed lookup", prop.ForAll(
		func(backing []int, origin int, length int) bool {
			if len(backing) == 0 {
				return true
			}
			origin %= len(backing)
			v, err := New(backing, origin, length)
			if err != nil {
				return false
			}

			first := slices.Collect(v.All())
			second := slices.Collect(v.All())
			if len(first) != v.Len() || !slices.Equal(first, second) {
				return false
			}

			it := v.Iterator()
			for i := 0; i < v.Len(); i++ {
				got, err := v.Get(i)
				if err != nil || got != first[i] {
					return false
				}
				x, ok := it.Next()
				if !ok || x != got {
					return false
				}
			}
			_, ok := it.Next()
			return !ok
		},
		gen.SliceOf(gen.Int()),
		gen.IntRange(0, 1000),
		gen.IntRange(0, 1000),
	))

	// Property: lookups outside [0, Len) fail with IndexOutOfRange
	properties.Property("out of range lookups fail", prop.ForAll(
		func(backing []int, origin int, length int, offset int) bool {
			if len(backing) == 0 {
				return true
			}
			origin %= len(backing)
			v, err := New(backing, origin, length)
			if err != nil {
				return false
			}
			_, errHigh := v.Get(v.Len() + offset)
			_, errLow := v.Get(-1 - offset)
			return errors.Is(errHigh, ErrIndexOutOfRange) && errors.Is(errLow, ErrIndexOutOfRange)
		},
		gen.SliceOf(gen.Int()),
		gen.IntRange(0, 1000),
		gen.IntRange(0, 1000),
		gen.IntRange(0, 1000),
	))

	// Property: no operation modifies the backing slice
	properties.Property("backing slice is never modified", prop.ForAll(
		func(backing []int, origin int, length int) bool {
			if len(backing) == 0 {
				return true
			}
			origin %= len(backing)
			snapshot := slices.Clone(backing)
			v, err := New(backing, origin, length)
			if err != nil {
				return false
			}
			_ = v.Slice()
			_, _ = v.Get(0)
			it := v.Iterator()
			for _, ok := it.Next(); ok; _, ok = it.Next() {
			}
			return slices.Equal(snapshot, backing)
		},
		gen.SliceOf(gen.Int()),
		gen.IntRange(0, 1000),
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t)
}
