package database

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		filename    string
		wantVersion int
		wantName    string
		wantErr     bool
	}{
		{filename: "001_initial_schema.sql", wantVersion: 1, wantName: "initial_schema"},
		{filename: "012_add_effect_index.sql", wantVersion: 12, wantName: "add_effect_index"},
		{filename: "2_two_part_name.sql", wantVersion: 2, wantName: "two_part_name"},
		{filename: "schema.sql", wantErr: true},
		{filename: "abc_schema.sql", wantErr: true},
		{filename: "001_.sql", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, err := parseMigrationFilename(tt.filename)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseMigrationFilename(%q) expected error, got %d %q", tt.filename, version, name)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseMigrationFilename(%q) unexpected error: %v", tt.filename, err)
			}
			if version != tt.wantVersion || name != tt.wantName {
				t.Errorf("parseMigrationFilename(%q) = %d, %q, want %d, %q",
					tt.filename, version, name, tt.wantVersion, tt.wantName)
			}
		})
	}
}

func TestLoadMigrationsSortsByVersion(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"010_side_effect_lease.sql": "ALTER TABLE side_effects ADD COLUMN lease TEXT;",
		"001_initial_schema.sql":    "CREATE TABLE workflow_entities (id INTEGER PRIMARY KEY);",
		"002_history_index.sql":     "CREATE INDEX idx_history_entity ON transition_history(entity_id);",
		"README.md":                 "not a migration",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	migrations, err := loadMigrations(dir)
	if err != nil {
		t.Fatalf("loadMigrations() unexpected error: %v", err)
	}

	if len(migrations) != 3 {
		t.Fatalf("loaded %d migrations, want 3", len(migrations))
	}
	wantOrder := []int{1, 2, 10}
	for i, want := range wantOrder {
		if migrations[i].Version != want {
			t.Errorf("migrations[%d].Version = %d, want %d", i, migrations[i].Version, want)
		}
	}
	if migrations[0].SQL != files["001_initial_schema.sql"] {
		t.Errorf("migrations[0].SQL = %q, want file content", migrations[0].SQL)
	}
}

func TestLoadMigrationsRejectsBadFilename(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "schema.sql"), []byte("SELECT 1;"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := loadMigrations(dir); err == nil {
		t.Error("an unversioned .sql file should fail loading")
	}
}
