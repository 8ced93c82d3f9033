package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridPlaceShiftsDownOnCollision(t *testing.T) {
	g := NewGrid(DefaultGridOptions())
	first := g.Place(1, Rect{Col: 0, Row: 0, Width: 3, Height: 3})
	second := g.Place(2, Rect{Col: 1, Row: 1, Width: 3, Height: 2})

	assert.Equal(t, Rect{Col: 0, Row: 0, Width: 3, Height: 3}, first)
	assert.Equal(t, Rect{Col: 1, Row: 3, Width: 3, Height: 2}, second)
	_, _, overlap := g.Overlaps()
	assert.False(t, overlap)
}

func TestGridClampNormalizesRequests(t *testing.T) {
	g := NewGrid(DefaultGridOptions())
	cases := map[string]struct {
		in   Rect
		want Rect
	}{
		"oversized width":   {in: Rect{Col: 2, Width: 9, Height: 2}, want: Rect{Col: 0, Width: 6, Height: 2}},
		"overflowing col":   {in: Rect{Col: 5, Width: 3, Height: 2}, want: Rect{Col: 3, Width: 3, Height: 2}},
		"negative origin":   {in: Rect{Col: -2, Row: -4, Width: 2, Height: 1}, want: Rect{Col: 0, Row: 0, Width: 2, Height: 1}},
		"zero size":         {in: Rect{Row: 3}, want: Rect{Row: 3, Width: 3, Height: 1}},
		"already in bounds": {in: Rect{Col: 1, Row: 2, Width: 2, Height: 2}, want: Rect{Col: 1, Row: 2, Width: 2, Height: 2}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, g.Clamp(tc.in))
		})
	}
}

func TestGridPlaceNeverOverlaps(t *testing.T) {
	g := NewGrid(DefaultGridOptions())
	requests := []Rect{
		{Col: 0, Row: 0, Width: 6, Height: 2},
		{Col: 0, Row: 0, Width: 2, Height: 2},
		{Col: 4, Row: 1, Width: 4, Height: 3},
		{Col: 2, Row: 0, Width: 2, Height: 5},
		{Col: 3, Row: 2, Width: 1, Height: 1},
		{Col: 0, Row: 0, Width: 12, Height: 1},
	}
	for i, r := range requests {
		placed := g.Place(int64(i+1), r)
		assert.LessOrEqual(t, placed.Col+placed.Width, g.Options().Columns)
	}
	a, b, overlap := g.Overlaps()
	assert.False(t, overlap, "widgets %d and %d overlap", a, b)
	assert.Equal(t, len(requests), g.Len())
}

func TestGridResolveDoesNotMutate(t *testing.T) {
	g := NewGrid(DefaultGridOptions())
	g.Place(1, Rect{Width: 3, Height: 3})
	r := g.Resolve(2, Rect{Width: 3, Height: 3})
	assert.Equal(t, 3, r.Row)
	assert.Equal(t, 1, g.Len())
	_, ok := g.Rect(2)
	assert.False(t, ok)
}

func TestGridRemoveLeavesHole(t *testing.T) {
	g := NewGrid(DefaultGridOptions())
	g.Place(1, Rect{Width: 3, Height: 2})
	g.Place(2, Rect{Width: 3, Height: 2})
	require.Equal(t, 2, g.Rects()[2].Row)

	assert.True(t, g.Remove(1))
	assert.False(t, g.Remove(1))
	assert.Equal(t, 2, g.Rects()[2].Row, "no compaction after removal")
	assert.Equal(t, 4, g.Bottom())
}

func TestGridResizeKeepsOrigin(t *testing.T) {
	g := NewGrid(DefaultGridOptions())
	g.Place(1, Rect{Col: 0, Row: 0, Width: 3, Height: 2})
	g.Place(2, Rect{Col: 3, Row: 0, Width: 3, Height: 2})

	r, err := g.Resize(1, 3, 6)
	require.NoError(t, err)
	assert.Equal(t, Rect{Col: 0, Row: 0, Width: 3, Height: 6}, r)

	r, err = g.Resize(2, 4, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Col, "width growth clamps the column")
	assert.Equal(t, 6, r.Row, "collision shifts the resized widget down")

	_, err = g.Resize(99, 1, 1)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGridCloneIsIndependent(t *testing.T) {
	g := NewGrid(DefaultGridOptions())
	g.Place(1, Rect{Width: 3, Height: 2})
	clone := g.Clone()
	clone.Place(2, Rect{Width: 3, Height: 2})
	clone.Remove(1)

	assert.Equal(t, 1, g.Len())
	_, ok := g.Rect(1)
	assert.True(t, ok)
}

func TestGridPixelMath(t *testing.T) {
	opts := DefaultGridOptions()
	assert.Equal(t, 235, opts.PixelHeight(5))
	assert.Equal(t, 335, opts.PixelHeight(7))
	assert.Equal(t, 5, opts.RowsForPixels(202))
	assert.Equal(t, 5, opts.RowsForPixels(235))
	assert.Equal(t, 6, opts.RowsForPixels(236))
	for rows := 1; rows < 20; rows++ {
		assert.Equal(t, rows, opts.RowsForPixels(opts.PixelHeight(rows)))
	}
}
