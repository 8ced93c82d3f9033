package dashboard

import (
	"context"
	"errors"
	"slices"
)

// NotificationsClient publishes dashboard events to an external channel.
type NotificationsClient interface {
	PublishDashboardEvent(ctx context.Context, channel string, event DashboardEvent) error
}

// NotificationsHook forwards dashboard events to an external notifications client.
type NotificationsHook struct {
	Client  NotificationsClient
	Channel string
	// Reasons limits forwarding to the listed event reasons. Empty forwards everything.
	Reasons []string
}

// DashboardUpdated publishes events to the configured notifications client.
func (h *NotificationsHook) DashboardUpdated(ctx context.Context, event DashboardEvent) error {
	if h == nil || h.Client == nil {
		return nil
	}
	if len(h.Reasons) > 0 && !slices.Contains(h.Reasons, event.Reason) {
		return nil
	}
	channel := h.Channel
	if channel == "" {
		channel = "dashboard"
	}
	return h.Client.PublishDashboardEvent(ctx, channel, event)
}

// RefreshHooks fans an event out to several hooks and joins their errors.
type RefreshHooks []RefreshHook

func (hs RefreshHooks) DashboardUpdated(ctx context.Context, event DashboardEvent) error {
	var errs error
	for _, h := range hs {
		if h == nil {
			continue
		}
		if err := h.DashboardUpdated(ctx, event); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	return errs
}
