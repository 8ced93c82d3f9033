package dashboard

// AutoHeightOptions holds the pixel constants used to size table widgets.
// Zero pixel fields take the default, so a widget is never shorter than its chrome.
type AutoHeightOptions struct {
	RowPixels         int `json:"row_pixels" yaml:"row_pixels"`
	HeaderPixels      int `json:"header_pixels" yaml:"header_pixels"`
	TableHeaderPixels int `json:"table_header_pixels" yaml:"table_header_pixels"`
	FooterPixels      int `json:"footer_pixels" yaml:"footer_pixels"`
	// MaxRows caps the computed height in grid rows. Zero leaves it unbounded.
	MaxRows int `json:"max_rows" yaml:"max_rows"`
}

// DefaultAutoHeightOptions returns the table sizing constants.
func DefaultAutoHeightOptions() AutoHeightOptions {
	return AutoHeightOptions{
		RowPixels:         33,
		HeaderPixels:      56,
		TableHeaderPixels: 33,
		FooterPixels:      47,
	}
}

func (o AutoHeightOptions) normalized() AutoHeightOptions {
	def := DefaultAutoHeightOptions()
	if o.RowPixels <= 0 {
		o.RowPixels = def.RowPixels
	}
	if o.HeaderPixels <= 0 {
		o.HeaderPixels = def.HeaderPixels
	}
	if o.TableHeaderPixels <= 0 {
		o.TableHeaderPixels = def.TableHeaderPixels
	}
	if o.FooterPixels <= 0 {
		o.FooterPixels = def.FooterPixels
	}
	if o.MaxRows < 0 {
		o.MaxRows = 0
	}
	return o
}

// ChromePixels is the fixed height of everything around the table body.
func (o AutoHeightOptions) ChromePixels() int {
	return o.HeaderPixels + o.TableHeaderPixels + o.FooterPixels
}

// AutoHeightCalculator derives widget heights from result row counts. It never
// looks at grid occupancy; the Grid places whatever height it returns.
type AutoHeightCalculator struct {
	opts AutoHeightOptions
	grid GridOptions
}

// NewAutoHeightCalculator builds a calculator for the given grid metrics.
func NewAutoHeightCalculator(opts AutoHeightOptions, grid GridOptions) AutoHeightCalculator {
	return AutoHeightCalculator{
		opts: opts.normalized(),
		grid: grid.normalized(),
	}
}

// ContentPixels is the natural pixel height of a table with rowCount rows.
func (c AutoHeightCalculator) ContentPixels(rowCount int) int {
	if rowCount < 0 {
		rowCount = 0
	}
	return c.opts.ChromePixels() + rowCount*c.opts.RowPixels
}

// MinRows is the floor: the chrome alone, with no table rows.
func (c AutoHeightCalculator) MinRows() int {
	return c.grid.RowsForPixels(c.opts.ChromePixels())
}

// ComputeAutoHeight returns the widget height in grid rows for rowCount rows.
// It is monotonically non-decreasing and never below MinRows.
func (c AutoHeightCalculator) ComputeAutoHeight(rowCount int) int {
	rows := c.grid.RowsForPixels(c.ContentPixels(rowCount))
	if c.opts.MaxRows > 0 && rows > c.opts.MaxRows {
		rows = c.opts.MaxRows
	}
	if floor := c.MinRows(); rows < floor {
		rows = floor
	}
	return rows
}

// PixelHeight is the rendered height of an auto-sized widget for rowCount rows.
func (c AutoHeightCalculator) PixelHeight(rowCount int) int {
	return c.grid.PixelHeight(c.ComputeAutoHeight(rowCount))
}
