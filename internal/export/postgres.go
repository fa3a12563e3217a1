package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/reqtrace/internal/core"
)

// DefaultPostgresTable receives the records when no table is configured.
const DefaultPostgresTable = "requirements"

// CopyDB is the subset of a pgx pool or connection the Postgres writer uses.
type CopyDB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// postgresColumns is the COPY column order. Every row carries the run ID so
// repeated runs can share one table.
var postgresColumns = []string{
	"run_id",
	"req_id",
	"aliases",
	"doc_name",
	"doc_type",
	"level",
	"parent_req_ids",
	"child_req_ids",
	"section_title",
	"section_number",
	"section_type",
	"section_inferred",
	"is_section_header",
	"combined_text",
	"object_number",
	"requirement_text",
}

const postgresDDL = `CREATE TABLE IF NOT EXISTS %s (
	run_id uuid NOT NULL,
	req_id text NOT NULL,
	aliases text[],
	doc_name text NOT NULL,
	doc_type text NOT NULL,
	level text,
	parent_req_ids text[],
	child_req_ids text[],
	section_title text,
	section_number text,
	section_type text,
	section_inferred boolean NOT NULL,
	is_section_header boolean NOT NULL,
	combined_text text,
	object_number text,
	requirement_text text
)`

// PostgresWriter bulk loads records with COPY.
type PostgresWriter struct {
	db    CopyDB
	table pgx.Identifier
}

// NewPostgresWriter returns a writer into table, which may be schema
// qualified ("reqs.records").
func NewPostgresWriter(db CopyDB, table string) *PostgresWriter {
	if strings.TrimSpace(table) == "" {
		table = DefaultPostgresTable
	}
	return &PostgresWriter{db: db, table: pgx.Identifier(strings.Split(table, "."))}
}

// OpenPostgres connects a pool for the writer.
func OpenPostgres(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return pool, nil
}

func (w *PostgresWriter) Target() string { return "postgres" }

func (w *PostgresWriter) Write(ctx context.Context, res *core.Result) error {
	if _, err := w.db.Exec(ctx, fmt.Sprintf(postgresDDL, w.table.Sanitize())); err != nil {
		return fmt.Errorf("postgres: create table: %w", err)
	}

	runID := toPgUUID(res.RunID)
	rows := pgx.CopyFromSlice(len(res.Records), func(i int) ([]any, error) {
		r := res.Records[i]
		return []any{
			runID,
			r.ReqID,
			r.Aliases,
			r.DocName,
			r.DocType,
			toPgText(r.Level),
			r.ParentReqIDs,
			r.ChildReqIDs,
			toPgText(r.SectionTitle),
			toPgText(r.SectionNumber),
			toPgText(r.SectionType),
			r.SectionInferred,
			r.IsSectionHeader,
			toPgText(r.CombinedText),
			toPgText(r.ObjectNumber),
			toPgText(r.RequirementText),
		}, nil
	})

	n, err := w.db.CopyFrom(ctx, w.table, postgresColumns, rows)
	if err != nil {
		return fmt.Errorf("postgres: copy into %s: %w", w.table.Sanitize(), err)
	}
	if n != int64(len(res.Records)) {
		return fmt.Errorf("postgres: copied %d of %d records", n, len(res.Records))
	}
	return nil
}

// toPgText converts a string to pgtype.Text.
// Returns invalid (NULL) if the string is empty or only whitespace.
func toPgText(s string) pgtype.Text {
	if strings.TrimSpace(s) == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// toPgUUID converts a run ID to pgtype.UUID. The nil UUID maps to NULL.
func toPgUUID(id uuid.UUID) pgtype.UUID {
	if id == uuid.Nil {
		return pgtype.UUID{Valid: false}
	}
	return pgtype.UUID{Bytes: id, Valid: true}
}
