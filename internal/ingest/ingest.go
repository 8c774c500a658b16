// Package ingest is the duplicate finder's ingestion collaborator: it
// reads (content, id) pairs for one domain value out of a SQLite table,
// guarding every identifier that gets interpolated into SQL text against
// structural injection before it ever reaches the database.
//
// Document ingestion lives outside the duplicate-finding core: the
// core never reads from a database, it only ever receives documents
// already in hand.
package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"regexp"

	_ "modernc.org/sqlite"

	"github.com/mtreilly/dupfind/internal/dferr"
)

// validNamePattern guards table and column identifiers: they must look
// like a normal SQL bare identifier, never a value that could break out
// of the statement they're interpolated into.
var validNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateIdentifier rejects any name that is not of the form
// [A-Za-z_][A-Za-z0-9_]*.
func ValidateIdentifier(name string) error {
	if !validNamePattern.MatchString(name) {
		return &dferr.InvalidNameError{Name: name}
	}
	return nil
}

// Config names the table and columns a Source reads from. Table,
// FilterColumn, and ContentColumn are validated with ValidateIdentifier
// before every query that interpolates them; the row identifier is
// always SQLite's own rowid, which needs no validation since it is
// never a caller-supplied name.
type Config struct {
	Table         string
	FilterColumn  string
	ContentColumn string
}

// Validate checks every identifier in cfg.
func (cfg Config) Validate() error {
	if err := ValidateIdentifier(cfg.Table); err != nil {
		return err
	}
	if err := ValidateIdentifier(cfg.FilterColumn); err != nil {
		return err
	}
	if err := ValidateIdentifier(cfg.ContentColumn); err != nil {
		return err
	}
	return nil
}

// Document is one row of ingested content.
type Document struct {
	ID      int64
	Content []byte
}

// Source reads documents out of a SQLite database.
type Source struct {
	db *sql.DB
}

// Open opens the SQLite database at path using the pure-Go
// modernc.org/sqlite driver.
func Open(path string) (*Source, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &dferr.SourceFailureError{Op: "open database", Err: err}
	}
	return &Source{db: db}, nil
}

// Close releases the underlying database connection.
func (s *Source) Close() error {
	return s.db.Close()
}

// ValidateSchema confirms cfg.Table exists and has both cfg.FilterColumn
// and cfg.ContentColumn, via PRAGMA table_info, before any query that
// might otherwise fail deep inside row scanning.
func (s *Source) ValidateSchema(ctx context.Context, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", cfg.Table))
	if err != nil {
		return &dferr.SourceFailureError{Op: "read table schema", Err: err}
	}
	defer rows.Close()

	existing := make(map[string]bool)
	for rows.Next() {
		var (
			cid        int
			name       string
			colType    string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultVal, &pk); err != nil {
			return &dferr.SourceFailureError{Op: "read table schema", Err: err}
		}
		existing[name] = true
	}
	if err := rows.Err(); err != nil {
		return &dferr.SourceFailureError{Op: "read table schema", Err: err}
	}

	if len(existing) == 0 {
		return &dferr.SourceFailureError{Op: "read table schema", Err: fmt.Errorf("table %q does not exist", cfg.Table)}
	}
	for _, col := range []string{cfg.FilterColumn, cfg.ContentColumn} {
		if !existing[col] {
			return &dferr.SourceFailureError{Op: "read table schema", Err: fmt.Errorf("column %q does not exist in table %q", col, cfg.Table)}
		}
	}
	return nil
}

// EstimateSize reports the document count and total content byte size
// matching domain, for use as a pre-reservation hint when building the
// document store.
func (s *Source) EstimateSize(ctx context.Context, cfg Config, domain string) (count int64, totalBytes int64, err error) {
	if err := cfg.Validate(); err != nil {
		return 0, 0, err
	}
	query := fmt.Sprintf(
		"SELECT COUNT(*), COALESCE(SUM(LENGTH(%s)), 0) FROM %s WHERE %s = ?",
		cfg.ContentColumn, cfg.Table, cfg.FilterColumn,
	)
	row := s.db.QueryRowContext(ctx, query, domain)
	if err := row.Scan(&count, &totalBytes); err != nil {
		return 0, 0, &dferr.SourceFailureError{Op: "estimate document size", Err: err}
	}
	return count, totalBytes, nil
}

// Documents streams every (content, rowid) pair in cfg.Table whose
// cfg.FilterColumn equals domain. domain is always passed as a bound
// parameter; only identifiers are interpolated, and only after
// ValidateIdentifier accepts them.
func (s *Source) Documents(ctx context.Context, cfg Config, domain string) iter.Seq2[Document, error] {
	return func(yield func(Document, error) bool) {
		if err := cfg.Validate(); err != nil {
			yield(Document{}, err)
			return
		}

		query := fmt.Sprintf(
			"SELECT %s, rowid FROM %s WHERE %s = ?",
			cfg.ContentColumn, cfg.Table, cfg.FilterColumn,
		)
		rows, err := s.db.QueryContext(ctx, query, domain)
		if err != nil {
			yield(Document{}, &dferr.SourceFailureError{Op: "query documents", Err: err})
			return
		}
		defer rows.Close()

		for rows.Next() {
			var doc Document
			if err := rows.Scan(&doc.Content, &doc.ID); err != nil {
				yield(Document{}, &dferr.SourceFailureError{Op: "scan document row", Err: err})
				return
			}
			if !yield(doc, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(Document{}, &dferr.SourceFailureError{Op: "iterate document rows", Err: err})
		}
	}
}
