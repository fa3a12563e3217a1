package export

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/squirrel"
	// Register modernc SQLite driver with database/sql.
	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/reqtrace/internal/core"
	"github.com/JonMunkholm/reqtrace/internal/record"
	"github.com/JonMunkholm/reqtrace/internal/trace"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		doc_name TEXT NOT NULL UNIQUE,
		doc_type TEXT NOT NULL,
		level TEXT,
		schema_version TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS requirements (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		req_id TEXT NOT NULL,
		doc_id INTEGER NOT NULL REFERENCES documents(id),
		aliases TEXT,
		section_title TEXT,
		section_number TEXT,
		section_type TEXT,
		section_inferred INTEGER NOT NULL DEFAULT 0,
		is_section_header INTEGER NOT NULL DEFAULT 0,
		object_number TEXT,
		requirement_text TEXT,
		combined_text TEXT,
		UNIQUE(req_id, doc_id)
	)`,
	`CREATE TABLE IF NOT EXISTS traces (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_req_id TEXT NOT NULL,
		target_req_id TEXT NOT NULL,
		trace_type TEXT NOT NULL,
		doc_name TEXT,
		UNIQUE(source_req_id, target_req_id, trace_type)
	)`,
}

// SQLiteWriter writes documents, requirements and parent traces into a
// SQLite database. Re-running into the same file keeps the first copy of
// every row.
type SQLiteWriter struct {
	Path string
}

// NewSQLiteWriter returns a SQLiteWriter for the database at path.
func NewSQLiteWriter(path string) *SQLiteWriter {
	return &SQLiteWriter{Path: path}
}

func (w *SQLiteWriter) Target() string { return "sqlite" }

func (w *SQLiteWriter) Write(ctx context.Context, res *core.Result) error {
	if err := os.MkdirAll(filepath.Dir(w.Path), 0o755); err != nil {
		return fmt.Errorf("sqlite: create output dir: %w", err)
	}

	db, err := sql.Open("sqlite", buildDSN(w.Path))
	if err != nil {
		return fmt.Errorf("sqlite: open database: %w", err)
	}
	defer db.Close()

	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: create schema: %w", err)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	docIDs, err := insertDocuments(ctx, tx, res)
	if err != nil {
		return err
	}
	if err := insertRequirements(ctx, tx, res.Records, docIDs); err != nil {
		return err
	}
	if err := insertTraces(ctx, tx, trace.Edges(res.Records)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// buildDSN sets connection pragmas in the DSN so every pooled connection
// gets them.
func buildDSN(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)"
}

type sqliteDocument struct {
	name, docType, level string
}

// documentsOf lists the documents of a run in input order. Records are
// consulted too so a table assembled by hand still exports.
func documentsOf(res *core.Result) []sqliteDocument {
	seen := make(map[string]bool)
	var docs []sqliteDocument
	add := func(d sqliteDocument) {
		if d.name == "" || seen[d.name] {
			return
		}
		seen[d.name] = true
		docs = append(docs, d)
	}

	for _, d := range res.Documents {
		add(sqliteDocument{name: d.DocName, docType: d.DocType, level: d.Input.Level})
	}
	for _, r := range res.Records {
		add(sqliteDocument{name: r.DocName, docType: r.DocType, level: r.Level})
	}
	return docs
}

func insertDocuments(ctx context.Context, tx *sql.Tx, res *core.Result) (map[string]int64, error) {
	ids := make(map[string]int64)
	for _, d := range documentsOf(res) {
		q, args, err := squirrel.
			Insert("documents").
			Options("OR IGNORE").
			Columns("doc_name", "doc_type", "level", "schema_version").
			Values(d.name, d.docType, d.level, res.SchemaVersion).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("sqlite: build document insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return nil, fmt.Errorf("sqlite: insert document %s: %w", d.name, err)
		}

		q, args, err = squirrel.
			Select("id").
			From("documents").
			Where(squirrel.Eq{"doc_name": d.name}).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("sqlite: build document lookup: %w", err)
		}
		var id int64
		if err := tx.QueryRowContext(ctx, q, args...).Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: lookup document %s: %w", d.name, err)
		}
		ids[d.name] = id
	}
	return ids, nil
}

func insertRequirements(ctx context.Context, tx *sql.Tx, records []record.Record, docIDs map[string]int64) error {
	for i, r := range records {
		if i%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		q, args, err := squirrel.
			Insert("requirements").
			Options("OR IGNORE").
			Columns(
				"req_id",
				"doc_id",
				"aliases",
				"section_title",
				"section_number",
				"section_type",
				"section_inferred",
				"is_section_header",
				"object_number",
				"requirement_text",
				"combined_text",
			).
			Values(
				r.ReqID,
				docIDs[r.DocName],
				nullable(joinIDs(r.Aliases)),
				nullable(r.SectionTitle),
				nullable(r.SectionNumber),
				nullable(r.SectionType),
				r.SectionInferred,
				r.IsSectionHeader,
				nullable(r.ObjectNumber),
				nullable(r.RequirementText),
				r.CombinedText,
			).
			ToSql()
		if err != nil {
			return fmt.Errorf("sqlite: build requirement insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("sqlite: insert requirement %s: %w", r.ReqID, err)
		}
	}
	return nil
}

func insertTraces(ctx context.Context, tx *sql.Tx, edges []trace.Edge) error {
	for _, e := range edges {
		q, args, err := squirrel.
			Insert("traces").
			Options("OR IGNORE").
			Columns("source_req_id", "target_req_id", "trace_type", "doc_name").
			Values(e.Child, e.Parent, string(trace.Parent), e.DocName).
			ToSql()
		if err != nil {
			return fmt.Errorf("sqlite: build trace insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("sqlite: insert trace %s -> %s: %w", e.Child, e.Parent, err)
		}
	}
	return nil
}

// nullable maps blank strings to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
