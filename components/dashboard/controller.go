package dashboard

import "context"

// DashboardView is the read model transports serialize for a dashboard.
type DashboardView struct {
	DashboardSummary
	Columns   int          `json:"columns"`
	RowHeight int          `json:"row_height"`
	Margin    int          `json:"margin"`
	Widgets   []WidgetView `json:"widgets"`
}

// WidgetView is a widget in reading order with its rendered pixel height.
type WidgetView struct {
	PersistableWidget
	Kind        ContentKind `json:"kind"`
	PixelHeight int         `json:"pixel_height"`
}

// Controller builds read models for HTTP handlers and routes.
type Controller struct {
	service *Service
}

// NewController wires the service into a controller.
func NewController(service *Service) *Controller {
	return &Controller{service: service}
}

// View opens the dashboard by slug and returns its read model.
func (c *Controller) View(ctx context.Context, slug string) (DashboardView, error) {
	if c.service == nil {
		return DashboardView{}, errMissingGateway
	}
	d, err := c.service.OpenDashboard(ctx, slug)
	if err != nil {
		return DashboardView{}, err
	}
	return c.Render(d)
}

// Render converts an aggregate into its read model.
func (c *Controller) Render(d *Dashboard) (DashboardView, error) {
	grid := c.service.GridOptions()
	view := DashboardView{
		DashboardSummary: d.Summary(),
		Columns:          grid.Columns,
		RowHeight:        grid.RowHeight,
		Margin:           grid.Margin,
		Widgets:          []WidgetView{},
	}
	for _, w := range ReadingOrder(d.Widgets()) {
		p, err := w.ToPersistable()
		if err != nil {
			return DashboardView{}, err
		}
		view.Widgets = append(view.Widgets, WidgetView{
			PersistableWidget: p,
			Kind:              w.Content.Kind(),
			PixelHeight:       w.PixelHeight(grid),
		})
	}
	return view, nil
}
