package pagination

import (
	"math"
	"net/url"
	"slices"
	"strconv"
	"testing"

	"github.com/conneroisu/sitepanel/internal/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e", "f", "g"}

	tests := []struct {
		name      string
		number    int
		size      int
		want      []string
		wantPrev  bool
		wantNext  bool
		wantPages int
	}{
		{name: "first page", number: 1, size: 3, want: []string{"a", "b", "c"}, wantNext: true, wantPages: 3},
		{name: "middle page", number: 2, size: 3, want: []string{"d", "e", "f"}, wantPrev: true, wantNext: true, wantPages: 3},
		{name: "short last page", number: 3, size: 3, want: []string{"g"}, wantPrev: true, wantPages: 3},
		{name: "past the end", number: 9, size: 3, want: nil, wantPrev: true, wantPages: 3},
		{name: "single page", number: 1, size: 10, want: items, wantPages: 1},
		{name: "max page number", number: math.MaxInt, size: 3, want: nil, wantPrev: true, wantPages: 3},
		{name: "origin would wrap negative", number: math.MaxInt/16 + 2, size: 16, want: nil, wantPrev: true, wantPages: 1},
		{name: "origin would wrap", number: math.MaxInt/20 + 1, size: 20, want: nil, wantPrev: true, wantPages: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(items, tt.number, tt.size)
			require.NoError(t, err)

			assert.Equal(t, tt.want, slices.Collect(p.Items.All()))
			assert.Equal(t, tt.wantPrev, p.HasPrev())
			assert.Equal(t, tt.wantNext, p.HasNext())
			assert.Equal(t, tt.wantPages, p.TotalPages())
			assert.Equal(t, len(items), p.Total)
		})
	}
}

func TestNew_Empty(t *testing.T) {
	p, err := New[int](nil, 1, 5)
	require.NoError(t, err)

	assert.Equal(t, 0, p.Items.Len())
	assert.Equal(t, 1, p.TotalPages())
	assert.False(t, p.HasNext())
	assert.False(t, p.HasPrev())
	assert.Equal(t, 0, p.FirstIndex())
	assert.Equal(t, 0, p.LastIndex())
}

func TestNew_InvalidArguments(t *testing.T) {
	_, err := New([]int{1, 2}, 1, 0)
	assert.ErrorIs(t, err, view.ErrInvalidArgument)

	_, err = New([]int{1, 2}, 0, 5)
	assert.ErrorIs(t, err, view.ErrInvalidArgument)
}

func TestIndices(t *testing.T) {
	p, err := New([]int{1, 2, 3, 4, 5}, 2, 2)
	require.NoError(t, err)

	assert.Equal(t, 3, p.FirstIndex())
	assert.Equal(t, 4, p.LastIndex())
	assert.Equal(t, 1, p.PrevNumber())
	assert.Equal(t, 3, p.NextNumber())
}

func TestPrevNumber_PastTheEnd(t *testing.T) {
	p, err := New([]int{1, 2, 3}, 10, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, p.PrevNumber())
}

func TestParseParams(t *testing.T) {
	tests := []struct {
		query    string
		wantPage int
		wantSize int
	}{
		{query: "", wantPage: 1, wantSize: 20},
		{query: "page=3", wantPage: 3, wantSize: 20},
		{query: "page=3&size=5", wantPage: 3, wantSize: 5},
		{query: "page=0&size=-1", wantPage: 1, wantSize: 20},
		{query: "page=abc&size=xyz", wantPage: 1, wantSize: 20},
		{query: "size=1000", wantPage: 1, wantSize: 100},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			page, size := ParseParams(values, 20, 100)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantSize, size)
		})
	}
}

func TestParseParams_HugePage(t *testing.T) {
	values := url.Values{"page": {strconv.Itoa(math.MaxInt/16 + 2)}, "size": {"16"}}
	number, size := ParseParams(values, 20, 100)

	p, err := New([]int{1, 2, 3, 4, 5}, number, size)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Items.Len())
	assert.Equal(t, 0, p.FirstIndex())
}

func TestNormalize(t *testing.T) {
	page, size := Normalize(0, 0, 20, 100)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, size)

	page, size = Normalize(4, 500, 20, 100)
	assert.Equal(t, 4, page)
	assert.Equal(t, 100, size)

	_, size = Normalize(1, 500, 20, 0)
	assert.Equal(t, 500, size, "a non-positive max leaves size uncapped")
}
