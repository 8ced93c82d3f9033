package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-dashgrid/components/dashboard"
)

// CreateQueryInput saves a new draft query.
type CreateQueryInput struct {
	Name         string           `json:"name"`
	SQL          string           `json:"query"`
	DataSourceID int64            `json:"data_source_id,omitempty"`
	Publish      bool             `json:"publish,omitempty"`
	Result       *dashboard.Query `json:"-"`
}

// CreateQueryCommand wraps Service.CreateQuery and optionally publishes.
type CreateQueryCommand struct {
	service   service
	telemetry Telemetry
}

// NewCreateQueryCommand creates the command.
func NewCreateQueryCommand(service service, telemetry Telemetry) *CreateQueryCommand {
	return &CreateQueryCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[CreateQueryInput] = (*CreateQueryCommand)(nil)

// Execute creates the query.
func (c *CreateQueryCommand) Execute(ctx context.Context, msg CreateQueryInput) error {
	if c.service == nil {
		return errors.New("create query command requires service")
	}
	q, err := c.service.CreateQuery(ctx, dashboard.CreateQueryInput{
		Name:         msg.Name,
		SQL:          msg.SQL,
		DataSourceID: msg.DataSourceID,
	})
	if err != nil {
		return err
	}
	if msg.Publish {
		if err := c.service.PublishQuery(ctx, q.ID); err != nil {
			return err
		}
		q.IsDraft = false
	}
	if msg.Result != nil {
		*msg.Result = q
	}
	c.telemetry.Record(ctx, "dashboard.command.create_query", map[string]any{
		"query_id":  q.ID,
		"published": msg.Publish,
	})
	return nil
}

// PublishQueryInput identifies the query to publish.
type PublishQueryInput struct {
	QueryID int64 `json:"query_id"`
}

// PublishQueryCommand clears a query's draft flag.
type PublishQueryCommand struct {
	service   service
	telemetry Telemetry
}

// NewPublishQueryCommand creates the command.
func NewPublishQueryCommand(service service, telemetry Telemetry) *PublishQueryCommand {
	return &PublishQueryCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[PublishQueryInput] = (*PublishQueryCommand)(nil)

// Execute publishes the query.
func (c *PublishQueryCommand) Execute(ctx context.Context, msg PublishQueryInput) error {
	if c.service == nil {
		return errors.New("publish query command requires service")
	}
	if msg.QueryID == 0 {
		return errors.New("query id is required")
	}
	if err := c.service.PublishQuery(ctx, msg.QueryID); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.publish_query", map[string]any{"query_id": msg.QueryID})
	return nil
}
