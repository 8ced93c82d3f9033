package dashboard

import (
	"context"
	"strconv"

	"github.com/goliatone/go-dashgrid/pkg/activity"
)

// Options configures the dashboard Service. Every collaborator is provided via
// interface so applications can swap implementations without importing internal
// go-dashgrid packages.
type Options struct {
	Gateway        PersistenceGateway
	Executor       QueryExecutor
	Visualizations VisualizationRegistry
	Validator      OptionsValidator
	RefreshHook    RefreshHook
	Telemetry      Telemetry
	Sessions       SessionStore
	ActivityHooks  activity.Hooks
	ActivityConfig activity.Config
	Config         Config
}

// Service is the lifecycle controller: it creates, opens, lists, publishes and
// archives dashboards and hands out Dashboard aggregates for widget mutations.
type Service struct {
	opts     Options
	grid     GridOptions
	heights  AutoHeightCalculator
	activity *activity.Emitter
}

// NewService builds a Service instance with safe defaults.
func NewService(opts Options) *Service {
	if opts.RefreshHook == nil {
		opts.RefreshHook = noopRefreshHook{}
	}
	if opts.Visualizations == nil {
		opts.Visualizations = NewRegistry()
	}
	if opts.Validator == nil {
		opts.Validator = NewJSONSchemaValidator()
	}
	if opts.Sessions == nil {
		opts.Sessions = NewInMemorySessionStore()
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	opts.Config = opts.Config.normalized()
	if opts.Executor != nil && opts.Config.ResultCacheTTL > 0 {
		if _, cached := opts.Executor.(*CachedExecutor); !cached {
			opts.Executor = &CachedExecutor{
				Executor: opts.Executor,
				Cache:    NewResultCache(opts.Config.ResultCacheTTL),
			}
		}
	}
	return &Service{
		opts:     opts,
		grid:     opts.Config.Grid,
		heights:  NewAutoHeightCalculator(opts.Config.AutoHeight, opts.Config.Grid),
		activity: activity.NewEmitter(opts.ActivityHooks, opts.ActivityConfig),
	}
}

// GridOptions returns the grid metrics dashboards are laid out with.
func (s *Service) GridOptions() GridOptions { return s.grid }

// AutoHeight returns the calculator used for auto-sized widgets.
func (s *Service) AutoHeight() AutoHeightCalculator { return s.heights }

// Visualizations exposes the visualization registry.
func (s *Service) Visualizations() VisualizationRegistry { return s.opts.Visualizations }

func (s *Service) gateway() (PersistenceGateway, error) {
	if s.opts.Gateway == nil {
		return nil, errMissingGateway
	}
	return s.opts.Gateway, nil
}

func (s *Service) recordTelemetry(ctx context.Context, event string, payload map[string]any) {
	s.opts.Telemetry.Record(ctx, event, payload)
}

func (s *Service) notify(ctx context.Context, event DashboardEvent) error {
	return s.opts.RefreshHook.DashboardUpdated(ctx, event)
}

// emitActivity reports failures to telemetry only; activity never fails an operation.
func (s *Service) emitActivity(ctx context.Context, verb, objectType string, objectID any, metadata map[string]any) {
	if !s.activity.Enabled() {
		return
	}
	meta := activityContextFrom(ctx)
	var id string
	switch v := objectID.(type) {
	case int64:
		id = strconv.FormatInt(v, 10)
	case string:
		id = v
	}
	err := s.activity.Emit(ctx, activity.Event{
		Verb:       verb,
		ActorID:    meta.ActorID,
		UserID:     meta.UserID,
		TenantID:   meta.TenantID,
		ObjectType: objectType,
		ObjectID:   id,
		Metadata:   metadata,
	})
	if err != nil {
		s.recordTelemetry(ctx, "dashboard.activity.error", map[string]any{
			"verb":  verb,
			"error": err.Error(),
		})
	}
}

type noopRefreshHook struct{}

func (noopRefreshHook) DashboardUpdated(context.Context, DashboardEvent) error {
	return nil
}
