package migrations

import (
	"context"
	"database/sql"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	vmauth "github.com/goliatone/go-vmauth"
	_ "github.com/mattn/go-sqlite3"
)

func TestFilesystems_ReturnsPostgresAndSQLite(t *testing.T) {
	filesystems, err := Filesystems()
	if err != nil {
		t.Fatalf("filesystems: %v", err)
	}
	if len(filesystems) != 2 {
		t.Fatalf("expected 2 filesystems, got %d", len(filesystems))
	}

	var postgresFound bool
	var sqliteFound bool
	for _, entry := range filesystems {
		matches, globErr := fs.Glob(entry.FS, "*.up.sql")
		if globErr != nil {
			t.Fatalf("glob %s: %v", entry.Dialect, globErr)
		}
		if len(matches) == 0 {
			t.Fatalf("expected %s migration files, got none", entry.Dialect)
		}
		switch entry.Dialect {
		case DialectPostgres:
			postgresFound = true
		case DialectSQLite:
			sqliteFound = true
		}
	}

	if !postgresFound {
		t.Fatalf("expected postgres filesystem")
	}
	if !sqliteFound {
		t.Fatalf("expected sqlite filesystem")
	}
}

func TestRegister_UsesValidationTargets(t *testing.T) {
	var calls []string
	_, err := Register(context.Background(), func(_ context.Context, dialect string, _ string, _ fs.FS) error {
		calls = append(calls, dialect)
		return nil
	}, WithValidationTargets(DialectSQLite))
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if len(calls) != 1 {
		t.Fatalf("expected 1 registration call, got %d", len(calls))
	}
	if calls[0] != DialectSQLite {
		t.Fatalf("expected sqlite registration, got %q", calls[0])
	}
}

func TestRegister_DefaultsSourceLabel(t *testing.T) {
	var labels []string
	_, err := Register(context.Background(), func(_ context.Context, _ string, sourceLabel string, _ fs.FS) error {
		labels = append(labels, sourceLabel)
		return nil
	}, WithValidationTargets(DialectSQLite))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(labels) != 1 || labels[0] != "go-vmauth" {
		t.Fatalf("expected default source label, got %v", labels)
	}
}

func TestRegister_RequiresRegisterFunc(t *testing.T) {
	if _, err := Register(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil register function")
	}
}

func TestVoicemailDirectoryMigrationPairs_ExistForBothDialects(t *testing.T) {
	root := vmauth.GetCoreMigrationsFS()
	paths := []string{
		"data/sql/migrations/20250810000000_create_voicemail_contexts.up.sql",
		"data/sql/migrations/20250810000000_create_voicemail_contexts.down.sql",
		"data/sql/migrations/20250810000001_create_voicemail_mailboxes.up.sql",
		"data/sql/migrations/20250810000001_create_voicemail_mailboxes.down.sql",
		"data/sql/migrations/sqlite/20250810000000_create_voicemail_contexts.up.sql",
		"data/sql/migrations/sqlite/20250810000000_create_voicemail_contexts.down.sql",
		"data/sql/migrations/sqlite/20250810000001_create_voicemail_mailboxes.up.sql",
		"data/sql/migrations/sqlite/20250810000001_create_voicemail_mailboxes.down.sql",
	}
	for _, migrationPath := range paths {
		content, err := fs.ReadFile(root, migrationPath)
		if err != nil {
			t.Fatalf("read migration %s: %v", migrationPath, err)
		}
		if strings.TrimSpace(string(content)) == "" {
			t.Fatalf("expected migration %s to have SQL content", migrationPath)
		}
	}
}

func TestSQLiteMigrations_ApplyAndRollback(t *testing.T) {
	db, err := sql.Open("sqlite3", "file:migrations-voicemail-directory?mode=memory&cache=shared&_foreign_keys=on")
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	defer func() { _ = db.Close() }()
	db.SetMaxOpenConns(1)

	root := vmauth.GetCoreMigrationsFS()
	base := "data/sql/migrations/sqlite"
	entries, err := fs.ReadDir(root, base)
	if err != nil {
		t.Fatalf("read sqlite migrations dir: %v", err)
	}

	var ups []string
	var downs []string
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups = append(ups, name)
		case strings.HasSuffix(name, ".down.sql"):
			downs = append(downs, name)
		}
	}
	sort.Strings(ups)
	sort.Sort(sort.Reverse(sort.StringSlice(downs)))

	applyAll := func(names []string) {
		t.Helper()
		for _, name := range names {
			content, readErr := fs.ReadFile(root, filepath.ToSlash(base+"/"+name))
			if readErr != nil {
				t.Fatalf("read migration %s: %v", name, readErr)
			}
			if _, execErr := db.Exec(string(content)); execErr != nil {
				t.Fatalf("apply migration %s: %v", name, execErr)
			}
		}
	}

	applyAll(ups)

	var tableName string
	if err := db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'voicemail_mailboxes'",
	).Scan(&tableName); err != nil {
		t.Fatalf("expected voicemail_mailboxes after up migrations: %v", err)
	}

	applyAll(downs)

	if err := db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'voicemail_mailboxes'",
	).Scan(&tableName); err == nil {
		t.Fatalf("expected voicemail_mailboxes to be dropped after down migrations")
	}
}
