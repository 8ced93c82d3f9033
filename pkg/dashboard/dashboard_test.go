package dashboard

import (
	"context"
	"testing"

	core "github.com/goliatone/go-dashgrid/components/dashboard"
)

func TestNewMemoryService(t *testing.T) {
	svc := NewMemoryService(nil, Config{})
	d, err := svc.CreateDashboard(context.Background(), "Ops")
	if err != nil {
		t.Fatalf("CreateDashboard returned error: %v", err)
	}
	if d.Slug() != "ops" || d.State() != core.StateDraft {
		t.Fatalf("unexpected dashboard %s %s", d.Slug(), d.State())
	}
}
