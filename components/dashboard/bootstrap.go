package dashboard

import (
	"context"
	"errors"
	"fmt"
)

// Seed imports the manifest at path when no dashboards exist yet, so starter
// content is created once per store. It returns the dashboards it created.
func Seed(ctx context.Context, service *Service, path string) ([]*Dashboard, error) {
	if service == nil {
		return nil, errors.New("dashboard: service is required to seed dashboards")
	}
	existing, err := service.ListDashboards(ctx, ListOptions{IncludeArchived: true})
	if err != nil {
		return nil, fmt.Errorf("dashboard: seed: %w", err)
	}
	if len(existing) > 0 {
		return nil, nil
	}
	doc, err := ReadManifest(path)
	if err != nil {
		return nil, err
	}
	created, err := service.ImportManifest(ctx, doc)
	if err != nil {
		return created, fmt.Errorf("dashboard: seed from %s: %w", doc.Source, err)
	}
	service.recordTelemetry(ctx, "dashboard.seed", map[string]any{
		"source":     doc.Source,
		"dashboards": len(created),
	})
	return created, nil
}
