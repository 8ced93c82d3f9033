// Package pgstore is a Postgres-backed dashboard persistence gateway built on
// database/sql with the pgx driver.
package pgstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	dashboard "github.com/goliatone/go-dashgrid/components/dashboard"
)

const uniqueViolation = "23505"

// Store persists dashboards, widgets and saved queries.
type Store struct {
	db *sql.DB
}

var _ dashboard.PersistenceGateway = (*Store)(nil)

// Open connects using the pgx stdlib driver.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("pgstore: open: %w", err)
	}
	return db, nil
}

// New wraps an open database handle.
func New(db *sql.DB) *Store { return &Store{db: db} }

// Migrate creates the tables when missing.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *Store) CreateDashboard(ctx context.Context, input dashboard.CreateDashboardInput) (dashboard.DashboardRecord, error) {
	rec := dashboard.DashboardRecord{Slug: input.Slug, Name: input.Name, State: dashboard.StateDraft}
	err := s.db.QueryRowContext(ctx,
		`insert into dashboards(slug, name) values($1,$2) returning id, created_at, updated_at`,
		input.Slug, input.Name).
		Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return dashboard.DashboardRecord{}, dashboard.ErrSlugTaken
		}
		return dashboard.DashboardRecord{}, err
	}
	return rec, nil
}

func (s *Store) GetDashboard(ctx context.Context, slug string) (dashboard.DashboardRecord, error) {
	var rec dashboard.DashboardRecord
	var draft bool
	err := s.db.QueryRowContext(ctx,
		`select id, slug, name, is_draft, is_archived, created_at, updated_at from dashboards where slug=$1`, slug).
		Scan(&rec.ID, &rec.Slug, &rec.Name, &draft, &rec.Archived, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return dashboard.DashboardRecord{}, notFound("get", "dashboard "+slug)
	}
	if err != nil {
		return dashboard.DashboardRecord{}, err
	}
	rec.State = stateOf(draft)
	rec.Widgets, err = s.widgetsFor(ctx, rec.ID)
	if err != nil {
		return dashboard.DashboardRecord{}, err
	}
	return rec, nil
}

func (s *Store) ListDashboards(ctx context.Context, opts dashboard.ListOptions) ([]dashboard.DashboardRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, slug, name, is_draft, is_archived, created_at, updated_at
		   from dashboards where $1 or not is_archived order by id`, opts.IncludeArchived)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []dashboard.DashboardRecord
	for rows.Next() {
		var rec dashboard.DashboardRecord
		var draft bool
		if err := rows.Scan(&rec.ID, &rec.Slug, &rec.Name, &draft, &rec.Archived, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		rec.State = stateOf(draft)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) PublishDashboard(ctx context.Context, id int64) error {
	return s.updateDashboard(ctx, "publish", `update dashboards set is_draft=false, updated_at=now() where id=$1`, id)
}

func (s *Store) ArchiveDashboard(ctx context.Context, id int64) error {
	return s.updateDashboard(ctx, "archive", `update dashboards set is_archived=true, updated_at=now() where id=$1`, id)
}

func (s *Store) UnarchiveDashboard(ctx context.Context, id int64) error {
	return s.updateDashboard(ctx, "unarchive", `update dashboards set is_archived=false, updated_at=now() where id=$1`, id)
}

// UpdateDashboardLayout writes every delta in one transaction.
func (s *Store) UpdateDashboardLayout(ctx context.Context, id int64, deltas []dashboard.LayoutDelta) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, d := range deltas {
		res, err := tx.ExecContext(ctx,
			`update dashboard_widgets
			    set col=$1, row_index=$2, size_x=$3, size_y=$4, auto_height=coalesce($5, auto_height)
			  where id=$6 and dashboard_id=$7`,
			d.Position.Col, d.Position.Row, d.Position.Width, d.Position.Height, nullBool(d.AutoHeight), d.WidgetID, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return notFound("update_layout", fmt.Sprintf("widget %d on dashboard %d", d.WidgetID, id))
		}
	}
	if _, err := tx.ExecContext(ctx, `update dashboards set updated_at=now() where id=$1`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) CreateWidget(ctx context.Context, w dashboard.PersistableWidget) (int64, error) {
	opts, err := json.Marshal(w.Options.Visualization)
	if err != nil {
		return 0, fmt.Errorf("pgstore: encode options: %w", err)
	}
	pos := w.Options.Position
	var id int64
	err = s.db.QueryRowContext(ctx,
		`insert into dashboard_widgets(dashboard_id, query_id, visualization, text, col, row_index, size_x, size_y, auto_height, options)
		 values($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) returning id`,
		w.DashboardID, nullID(w.QueryID), w.Visualization, w.Text, pos.Col, pos.Row, pos.SizeX, pos.SizeY, pos.AutoHeight, string(opts)).
		Scan(&id)
	return id, err
}

func (s *Store) UpdateWidget(ctx context.Context, w dashboard.PersistableWidget) error {
	opts, err := json.Marshal(w.Options.Visualization)
	if err != nil {
		return fmt.Errorf("pgstore: encode options: %w", err)
	}
	pos := w.Options.Position
	res, err := s.db.ExecContext(ctx,
		`update dashboard_widgets
		    set visualization=$1, text=$2, col=$3, row_index=$4, size_x=$5, size_y=$6, auto_height=$7, options=$8
		  where id=$9`,
		w.Visualization, w.Text, pos.Col, pos.Row, pos.SizeX, pos.SizeY, pos.AutoHeight, string(opts), w.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("update_widget", fmt.Sprintf("widget %d", w.ID))
	}
	return nil
}

func (s *Store) DeleteWidget(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `delete from dashboard_widgets where id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("delete_widget", fmt.Sprintf("widget %d", id))
	}
	return nil
}

func (s *Store) CreateQuery(ctx context.Context, input dashboard.CreateQueryInput) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`insert into dashboard_queries(name, query, data_source_id) values($1,$2,$3) returning id`,
		input.Name, input.SQL, input.DataSourceID).Scan(&id)
	return id, err
}

func (s *Store) PublishQuery(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `update dashboard_queries set is_draft=false where id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("publish_query", fmt.Sprintf("query %d", id))
	}
	return nil
}

func (s *Store) GetQuery(ctx context.Context, id int64) (dashboard.Query, error) {
	var q dashboard.Query
	err := s.db.QueryRowContext(ctx,
		`select id, name, query, data_source_id, is_draft from dashboard_queries where id=$1`, id).
		Scan(&q.ID, &q.Name, &q.SQL, &q.DataSourceID, &q.IsDraft)
	if errors.Is(err, sql.ErrNoRows) {
		return dashboard.Query{}, notFound("get_query", fmt.Sprintf("query %d", id))
	}
	return q, err
}

func (s *Store) widgetsFor(ctx context.Context, dashboardID int64) ([]dashboard.PersistableWidget, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, dashboard_id, coalesce(query_id, 0), visualization, text, col, row_index, size_x, size_y, auto_height, options
		   from dashboard_widgets where dashboard_id=$1 order by id`, dashboardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []dashboard.PersistableWidget
	for rows.Next() {
		var w dashboard.PersistableWidget
		var opts []byte
		pos := &w.Options.Position
		if err := rows.Scan(&w.ID, &w.DashboardID, &w.QueryID, &w.Visualization, &w.Text,
			&pos.Col, &pos.Row, &pos.SizeX, &pos.SizeY, &pos.AutoHeight, &opts); err != nil {
			return nil, err
		}
		if len(opts) > 0 {
			if err := json.Unmarshal(opts, &w.Options.Visualization); err != nil {
				return nil, fmt.Errorf("pgstore: decode options for widget %d: %w", w.ID, err)
			}
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *Store) updateDashboard(ctx context.Context, op, stmt string, id int64) error {
	res, err := s.db.ExecContext(ctx, stmt, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(op, fmt.Sprintf("dashboard %d", id))
	}
	return nil
}

func stateOf(draft bool) dashboard.LifecycleState {
	if draft {
		return dashboard.StateDraft
	}
	return dashboard.StatePublished
}

func notFound(op, what string) error {
	return &dashboard.Error{Kind: dashboard.KindNotFound, Op: op, Message: what + " not found"}
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}
