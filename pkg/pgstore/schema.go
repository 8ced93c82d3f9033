package pgstore

const schema = `
create table if not exists dashboard_queries (
	id             bigserial primary key,
	name           text not null default '',
	query          text not null,
	data_source_id bigint not null default 0,
	is_draft       boolean not null default true,
	created_at     timestamptz not null default now()
);

create table if not exists dashboards (
	id          bigserial primary key,
	slug        text not null unique,
	name        text not null,
	is_draft    boolean not null default true,
	is_archived boolean not null default false,
	created_at  timestamptz not null default now(),
	updated_at  timestamptz not null default now()
);

create table if not exists dashboard_widgets (
	id            bigserial primary key,
	dashboard_id  bigint not null references dashboards(id) on delete cascade,
	query_id      bigint references dashboard_queries(id),
	visualization text not null default '',
	text          text not null default '',
	col           integer not null,
	row_index     integer not null,
	size_x        integer not null,
	size_y        integer not null,
	auto_height   boolean not null default false,
	options       jsonb not null default '{}'::jsonb
);

create index if not exists dashboard_widgets_dashboard_idx on dashboard_widgets(dashboard_id);
`
