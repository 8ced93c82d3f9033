package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeAutoHeightMatchesRenderedPixels(t *testing.T) {
	calc := NewAutoHeightCalculator(DefaultAutoHeightOptions(), DefaultGridOptions())
	assert.Equal(t, 136, DefaultAutoHeightOptions().ChromePixels())

	assert.Equal(t, 4, calc.ComputeAutoHeight(0))
	assert.Equal(t, 5, calc.ComputeAutoHeight(2))
	assert.Equal(t, 7, calc.ComputeAutoHeight(5))
	assert.Equal(t, 235, calc.PixelHeight(2))
	assert.Equal(t, 335, calc.PixelHeight(5))
}

func TestComputeAutoHeightIsMonotonic(t *testing.T) {
	calc := NewAutoHeightCalculator(DefaultAutoHeightOptions(), DefaultGridOptions())
	prev := calc.ComputeAutoHeight(0)
	assert.Equal(t, calc.MinRows(), prev)
	for rows := 1; rows <= 500; rows++ {
		h := calc.ComputeAutoHeight(rows)
		if h < prev {
			t.Fatalf("height decreased at %d rows: %d < %d", rows, h, prev)
		}
		if calc.PixelHeight(rows) < calc.ContentPixels(rows) {
			t.Fatalf("widget too short for %d rows", rows)
		}
		prev = h
	}
}

func TestComputeAutoHeightClampsInput(t *testing.T) {
	calc := NewAutoHeightCalculator(DefaultAutoHeightOptions(), DefaultGridOptions())
	assert.Equal(t, calc.ComputeAutoHeight(0), calc.ComputeAutoHeight(-10))

	capped := DefaultAutoHeightOptions()
	capped.MaxRows = 6
	calc = NewAutoHeightCalculator(capped, DefaultGridOptions())
	assert.Equal(t, 6, calc.ComputeAutoHeight(1000))
	assert.Equal(t, 5, calc.ComputeAutoHeight(2))

	tiny := DefaultAutoHeightOptions()
	tiny.MaxRows = 1
	calc = NewAutoHeightCalculator(tiny, DefaultGridOptions())
	assert.Equal(t, calc.MinRows(), calc.ComputeAutoHeight(1000), "the floor wins over a cap below it")
}
