package ingest

import (
	"context"
	"testing"
)

func TestValidateIdentifier(t *testing.T) {
	valid := []string{"data_table", "domains", "_private", "col1"}
	for _, name := range valid {
		if err := ValidateIdentifier(name); err != nil {
			t.Errorf("ValidateIdentifier(%q): unexpected error %v", name, err)
		}
	}

	invalid := []string{"", "1table", "table;drop", "col name", "tbl'--", "a.b"}
	for _, name := range invalid {
		if err := ValidateIdentifier(name); err == nil {
			t.Errorf("ValidateIdentifier(%q): want error, got nil", name)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	good := Config{Table: "data_table", FilterColumn: "domains", ContentColumn: "doc_content"}
	if err := good.Validate(); err != nil {
		t.Fatalf("Validate: unexpected error %v", err)
	}

	bad := Config{Table: "data_table; drop table x", FilterColumn: "domains", ContentColumn: "doc_content"}
	if err := bad.Validate(); err == nil {
		t.Fatal("Validate: want error for malicious table name")
	}
}

func setupSource(t *testing.T) *Source {
	t.Helper()
	source, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { source.Close() })

	ctx := context.Background()
	_, err = source.db.ExecContext(ctx, `
		CREATE TABLE data_table (
			doc_content BLOB,
			domains TEXT
		)
	`)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	rows := []struct {
		content string
		domain  string
	}{
		{"hello world", "example.com"},
		{"Say hello world", "example.com"},
		{"unrelated", "other.com"},
	}
	for _, r := range rows {
		if _, err := source.db.ExecContext(ctx, `INSERT INTO data_table (doc_content, domains) VALUES (?, ?)`, r.content, r.domain); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	return source
}

func testConfig() Config {
	return Config{Table: "data_table", FilterColumn: "domains", ContentColumn: "doc_content"}
}

func TestValidateSchema(t *testing.T) {
	source := setupSource(t)
	ctx := context.Background()

	if err := source.ValidateSchema(ctx, testConfig()); err != nil {
		t.Fatalf("ValidateSchema: unexpected error %v", err)
	}

	missing := Config{Table: "data_table", FilterColumn: "nope", ContentColumn: "doc_content"}
	if err := source.ValidateSchema(ctx, missing); err == nil {
		t.Fatal("ValidateSchema: want error for missing column")
	}

	missingTable := Config{Table: "no_such_table", FilterColumn: "domains", ContentColumn: "doc_content"}
	if err := source.ValidateSchema(ctx, missingTable); err == nil {
		t.Fatal("ValidateSchema: want error for missing table")
	}
}

func TestEstimateSize(t *testing.T) {
	source := setupSource(t)
	ctx := context.Background()

	count, total, err := source.EstimateSize(ctx, testConfig(), "example.com")
	if err != nil {
		t.Fatalf("EstimateSize: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
	if total != int64(len("hello world")+len("Say hello world")) {
		t.Fatalf("total = %d, want %d", total, len("hello world")+len("Say hello world"))
	}

	count, _, err = source.EstimateSize(ctx, testConfig(), "nowhere.com")
	if err != nil {
		t.Fatalf("EstimateSize: %v", err)
	}
	if count != 0 {
		t.Fatalf("count = %d, want 0", count)
	}
}

func TestDocumentsStreamsMatchingDomain(t *testing.T) {
	source := setupSource(t)
	ctx := context.Background()

	var got []string
	for doc, err := range source.Documents(ctx, testConfig(), "example.com") {
		if err != nil {
			t.Fatalf("Documents: %v", err)
		}
		got = append(got, string(doc.Content))
	}
	if len(got) != 2 {
		t.Fatalf("got %d documents, want 2", len(got))
	}
}

func TestDocumentsRejectsInvalidConfig(t *testing.T) {
	source := setupSource(t)
	ctx := context.Background()

	bad := Config{Table: "data_table; drop", FilterColumn: "domains", ContentColumn: "doc_content"}
	for _, err := range source.Documents(ctx, bad, "example.com") {
		if err == nil {
			t.Fatal("Documents with invalid config: want error")
		}
		return
	}
	t.Fatal("Documents with invalid config: want at least one yielded error")
}
