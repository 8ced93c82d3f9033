package dashboard

import (
	"sort"
)

// Rect is a widget rectangle measured in grid units.
type Rect struct {
	Col    int `json:"col" yaml:"col"`
	Row    int `json:"row" yaml:"row"`
	Width  int `json:"sizeX" yaml:"width"`
	Height int `json:"sizeY" yaml:"height"`
}

// Overlaps reports whether r and other share at least one cell.
func (r Rect) Overlaps(other Rect) bool {
	return r.Col < other.Col+other.Width &&
		other.Col < r.Col+r.Width &&
		r.Row < other.Row+other.Height &&
		other.Row < r.Row+r.Height
}

// Bottom is the first row below the rectangle.
func (r Rect) Bottom() int { return r.Row + r.Height }

// GridOptions configures the fixed-column grid. Zero fields take the default.
type GridOptions struct {
	Columns       int `json:"columns" yaml:"columns"`
	RowHeight     int `json:"row_height" yaml:"row_height"`
	Margin        int `json:"margin" yaml:"margin"`
	DefaultWidth  int `json:"default_width" yaml:"default_width"`
	DefaultHeight int `json:"default_height" yaml:"default_height"`
	TextboxWidth  int `json:"textbox_width" yaml:"textbox_width"`
	TextboxHeight int `json:"textbox_height" yaml:"textbox_height"`
}

// DefaultGridOptions mirrors the conventional six column dashboard grid.
func DefaultGridOptions() GridOptions {
	return GridOptions{
		Columns:       6,
		RowHeight:     35,
		Margin:        15,
		DefaultWidth:  3,
		DefaultHeight: 3,
		TextboxWidth:  3,
		TextboxHeight: 2,
	}
}

func (o GridOptions) normalized() GridOptions {
	def := DefaultGridOptions()
	if o.Columns <= 0 {
		o.Columns = def.Columns
	}
	if o.RowHeight <= 0 {
		o.RowHeight = def.RowHeight
	}
	if o.Margin <= 0 {
		o.Margin = def.Margin
	}
	if o.DefaultWidth <= 0 {
		o.DefaultWidth = min(def.DefaultWidth, o.Columns)
	}
	if o.DefaultHeight <= 0 {
		o.DefaultHeight = def.DefaultHeight
	}
	if o.TextboxWidth <= 0 {
		o.TextboxWidth = min(def.TextboxWidth, o.Columns)
	}
	if o.TextboxHeight <= 0 {
		o.TextboxHeight = def.TextboxHeight
	}
	return o
}

// PixelHeight converts a height in grid rows into rendered pixels.
func (o GridOptions) PixelHeight(rows int) int {
	if rows <= 0 {
		return 0
	}
	return rows*o.RowHeight + (rows-1)*o.Margin
}

// RowsForPixels returns the smallest row count whose rendered height fits px.
func (o GridOptions) RowsForPixels(px int) int {
	if px <= 0 {
		return 1
	}
	step := o.RowHeight + o.Margin
	rows := (px + o.Margin + step - 1) / step
	if rows < 1 {
		rows = 1
	}
	return rows
}

// Grid tracks widget rectangles on a fixed-column grid. It performs no I/O and
// is not safe for concurrent use; the owning Dashboard serializes access.
type Grid struct {
	opts  GridOptions
	cells map[int64]Rect
}

// NewGrid builds an empty grid.
func NewGrid(opts GridOptions) *Grid {
	return &Grid{
		opts:  opts.normalized(),
		cells: make(map[int64]Rect),
	}
}

// Options returns the normalized grid options.
func (g *Grid) Options() GridOptions { return g.opts }

// Clamp normalizes a requested rectangle so it fits horizontally.
// Oversized widths are clamped to the column count instead of rejected.
func (g *Grid) Clamp(r Rect) Rect {
	if r.Width <= 0 {
		r.Width = g.opts.DefaultWidth
	}
	if r.Width > g.opts.Columns {
		r.Width = g.opts.Columns
	}
	if r.Height <= 0 {
		r.Height = 1
	}
	if r.Col < 0 {
		r.Col = 0
	}
	if r.Col+r.Width > g.opts.Columns {
		r.Col = g.opts.Columns - r.Width
	}
	if r.Row < 0 {
		r.Row = 0
	}
	return r
}

// Resolve computes where id would land for the requested rectangle without
// mutating the grid. The requested row is preferred; on collision the
// rectangle shifts down one row at a time until it is free. The search always
// terminates because every row past the current bottom is empty.
func (g *Grid) Resolve(id int64, requested Rect) Rect {
	r := g.Clamp(requested)
	for g.collides(id, r) {
		r.Row++
	}
	return r
}

// Place resolves and stores the rectangle for id.
func (g *Grid) Place(id int64, requested Rect) Rect {
	r := g.Resolve(id, requested)
	g.cells[id] = r
	return r
}

// Remove deletes the rectangle for id and leaves a hole; other widgets are not compacted.
func (g *Grid) Remove(id int64) bool {
	if _, ok := g.cells[id]; !ok {
		return false
	}
	delete(g.cells, id)
	return true
}

// Resize keeps the widget origin and re-resolves the new size like Place does.
func (g *Grid) Resize(id int64, width, height int) (Rect, error) {
	current, ok := g.cells[id]
	if !ok {
		return Rect{}, validationError("resize", "widget %d is not on the grid", id)
	}
	current.Width = width
	current.Height = height
	return g.Place(id, current), nil
}

// Rect returns the stored rectangle for id.
func (g *Grid) Rect(id int64) (Rect, bool) {
	r, ok := g.cells[id]
	return r, ok
}

// Len returns the number of placed rectangles.
func (g *Grid) Len() int { return len(g.cells) }

// Bottom returns the first free row below every placed rectangle.
func (g *Grid) Bottom() int {
	bottom := 0
	for _, r := range g.cells {
		if b := r.Bottom(); b > bottom {
			bottom = b
		}
	}
	return bottom
}

// Rects returns a copy of the stored rectangles keyed by widget id.
func (g *Grid) Rects() map[int64]Rect {
	out := make(map[int64]Rect, len(g.cells))
	for id, r := range g.cells {
		out[id] = r
	}
	return out
}

// Clone returns an independent copy, used to stage batch changes.
func (g *Grid) Clone() *Grid {
	return &Grid{opts: g.opts, cells: g.Rects()}
}

// Overlaps returns the first pair of overlapping widget ids, if any.
func (g *Grid) Overlaps() (int64, int64, bool) {
	ids := g.sortedIDs()
	for i, a := range ids {
		for _, b := range ids[i+1:] {
			if g.cells[a].Overlaps(g.cells[b]) {
				return a, b, true
			}
		}
	}
	return 0, 0, false
}

func (g *Grid) collides(id int64, r Rect) bool {
	for other, placed := range g.cells {
		if other == id {
			continue
		}
		if placed.Overlaps(r) {
			return true
		}
	}
	return false
}

func (g *Grid) sortedIDs() []int64 {
	ids := make([]int64, 0, len(g.cells))
	for id := range g.cells {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
