package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-dashgrid/pkg/activity"
)

func TestCreateDashboardEmitsActivity(t *testing.T) {
	capture := &activity.CaptureHook{}
	service := NewService(Options{
		Gateway:        NewMemoryGateway(),
		ActivityHooks:  activity.Hooks{capture},
		ActivityConfig: activity.Config{Enabled: true, Channel: "dashboard"},
	})
	ctx := ContextWithActivity(context.Background(), ActivityContext{
		ActorID:  "actor-1",
		UserID:   "user-1",
		TenantID: "tenant-1",
	})

	if _, err := service.CreateDashboard(ctx, "Foo Bar"); err != nil {
		t.Fatalf("CreateDashboard returned error: %v", err)
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected 1 activity event, got %d", len(capture.Events))
	}
	event := capture.Events[0]
	if event.Verb != "dashboard.create" || event.ObjectType != "dashboard" || event.ObjectID != "foo-bar" {
		t.Fatalf("unexpected event payload: %+v", event)
	}
	if event.ActorID != "actor-1" || event.UserID != "user-1" || event.TenantID != "tenant-1" {
		t.Fatalf("unexpected actor context: %+v", event)
	}
	if event.Metadata["name"] != "Foo Bar" {
		t.Fatalf("expected name metadata, got %+v", event.Metadata)
	}
}

func TestWidgetChangesEmitActivity(t *testing.T) {
	capture := &activity.CaptureHook{}
	service := NewService(Options{
		Gateway:        NewMemoryGateway(),
		ActivityHooks:  activity.Hooks{capture},
		ActivityConfig: activity.Config{Enabled: true},
	})
	ctx := context.Background()
	d, err := service.CreateDashboard(ctx, "Notes")
	if err != nil {
		t.Fatalf("CreateDashboard returned error: %v", err)
	}
	w, err := d.AddTextbox(ctx, "hello")
	if err != nil {
		t.Fatalf("AddTextbox returned error: %v", err)
	}
	if err := d.RemoveWidget(ctx, w.ID); err != nil {
		t.Fatalf("RemoveWidget returned error: %v", err)
	}

	var verbs []string
	for _, e := range capture.Events {
		verbs = append(verbs, e.Verb)
	}
	want := []string{"dashboard.create", "dashboard.publish", "dashboard.widget_added", "dashboard.widget_removed"}
	if len(verbs) != len(want) {
		t.Fatalf("expected verbs %v, got %v", want, verbs)
	}
	for i := range want {
		if verbs[i] != want[i] {
			t.Fatalf("expected verbs %v, got %v", want, verbs)
		}
	}
	last := capture.Events[len(capture.Events)-1]
	if last.Metadata["widget_id"] != w.ID {
		t.Fatalf("expected widget_id metadata, got %+v", last.Metadata)
	}
}

func TestActivityFailureDoesNotFailOperation(t *testing.T) {
	telemetry := &recordingTelemetry{}
	service := NewService(Options{
		Gateway:   NewMemoryGateway(),
		Telemetry: telemetry,
		ActivityHooks: activity.Hooks{activity.HookFunc(func(context.Context, activity.Event) error {
			return errors.New("sink down")
		})},
		ActivityConfig: activity.Config{Enabled: true},
	})
	if _, err := service.CreateDashboard(context.Background(), "Ops"); err != nil {
		t.Fatalf("CreateDashboard returned error: %v", err)
	}
	if !telemetry.has("dashboard.activity.error") {
		t.Fatalf("expected activity error to be recorded, got %v", telemetry.events)
	}
}
