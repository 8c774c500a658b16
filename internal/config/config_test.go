package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Separator != DefaultSeparator {
		t.Errorf("Separator = %q, want %q", cfg.Separator, DefaultSeparator)
	}
	if cfg.Table != "data_table" {
		t.Errorf("Table = %q, want %q", cfg.Table, "data_table")
	}
	if cfg.FilterColumn != "domains" {
		t.Errorf("FilterColumn = %q, want %q", cfg.FilterColumn, "domains")
	}
	if cfg.ContentColumn != "doc_content" {
		t.Errorf("ContentColumn = %q, want %q", cfg.ContentColumn, "doc_content")
	}
	if cfg.Builder != "doubling" {
		t.Errorf("Builder = %q, want %q", cfg.Builder, "doubling")
	}
	if cfg.BatchLogInterval != 100 {
		t.Errorf("BatchLogInterval = %d, want 100", cfg.BatchLogInterval)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DUPFIND_TABLE", "scraped_pages")
	t.Setenv("DUPFIND_BATCH_LOG_INTERVAL", "500")

	cfg, err := NewLoader().Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Table != "scraped_pages" {
		t.Errorf("Table = %q, want %q", cfg.Table, "scraped_pages")
	}
	if cfg.BatchLogInterval != 500 {
		t.Errorf("BatchLogInterval = %d, want 500", cfg.BatchLogInterval)
	}
}

func TestDefaultSeparatorIsPrivateUseArea(t *testing.T) {
	cp := []rune(DefaultSeparator)
	if len(cp) != 1 {
		t.Fatalf("DefaultSeparator has %d runes, want 1", len(cp))
	}
	r := cp[0]
	if r < 0xE000 || r > 0xF8FF {
		t.Fatalf("DefaultSeparator rune U+%04X is not in the Private Use Area", r)
	}
}

func TestWatchNoOpWithoutConfigFile(t *testing.T) {
	loader := NewLoader()
	called := false
	loader.Watch(func(*Config) { called = true })
	if called {
		t.Fatal("Watch should not invoke the callback synchronously")
	}
}
