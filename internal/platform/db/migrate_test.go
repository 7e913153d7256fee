package db

import (
	"context"
	"testing"
	"testing/fstest"
)

func TestLoadMigrations(t *testing.T) {
	files := fstest.MapFS{
		"001_core.sql":     {Data: []byte("CREATE TABLE users (id INTEGER PRIMARY KEY);")},
		"002_booking.sql":  {Data: []byte("CREATE TABLE appointments (id INTEGER PRIMARY KEY);")},
		"010_indexes.sql":  {Data: []byte("SELECT 1;")},
		"README.md":        {Data: []byte("not a migration")},
		"notes.sql":        {Data: []byte("no version prefix")},
		"abc_invalid.sql":  {Data: []byte("non-numeric prefix")},
		"nested/003_x.sql": {Data: []byte("inside a directory")},
	}

	migrations, err := NewSQLiteMigrator(nil, files).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}
	if len(migrations) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migrations))
	}
	want := []int{1, 2, 10}
	for i, v := range want {
		if migrations[i].Version != v {
			t.Errorf("migration %d: expected version %d, got %d", i, v, migrations[i].Version)
		}
	}
	if migrations[0].Name != "001_core.sql" {
		t.Errorf("expected name 001_core.sql, got %s", migrations[0].Name)
	}
	if migrations[0].SQL != "CREATE TABLE users (id INTEGER PRIMARY KEY);" {
		t.Errorf("unexpected SQL content: %s", migrations[0].SQL)
	}
}

func TestLoadMigrations_Empty(t *testing.T) {
	migrations, err := NewSQLiteMigrator(nil, fstest.MapFS{}).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}
	if len(migrations) != 0 {
		t.Errorf("expected 0 migrations, got %d", len(migrations))
	}
}

func TestSQLiteMigrator_UpAndStatus(t *testing.T) {
	ctx := context.Background()
	conn, err := OpenSQLite(ctx, ":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer conn.Close()

	files := fstest.MapFS{
		"001_items.sql": {Data: []byte("CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT NOT NULL);")},
		"002_seed.sql":  {Data: []byte("INSERT INTO items (name) VALUES ('a');\nINSERT INTO items (name) VALUES ('b');")},
	}
	m := NewSQLiteMigrator(conn, files)

	n, err := m.Up(ctx)
	if err != nil {
		t.Fatalf("Up: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 applied, got %d", n)
	}

	var count int
	if err := conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM items").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 seeded rows, got %d", count)
	}

	n, err = m.Up(ctx)
	if err != nil {
		t.Fatalf("second Up: %v", err)
	}
	if n != 0 {
		t.Errorf("expected no pending migrations, got %d", n)
	}

	statuses, err := m.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	for _, s := range statuses {
		if !s.Applied || s.AppliedAt == nil {
			t.Errorf("expected %s applied, got %+v", s.Name, s)
		}
	}
}

func TestSQLiteMigrator_FailedMigrationRollsBack(t *testing.T) {
	ctx := context.Background()
	conn, err := OpenSQLite(ctx, ":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer conn.Close()

	files := fstest.MapFS{
		"001_ok.sql":  {Data: []byte("CREATE TABLE ok (id INTEGER PRIMARY KEY);")},
		"002_bad.sql": {Data: []byte("CREATE TABLE half (id INTEGER PRIMARY KEY);\nNOT VALID SQL;")},
	}
	m := NewSQLiteMigrator(conn, files)

	n, err := m.Up(ctx)
	if err == nil {
		t.Fatal("expected error from invalid migration")
	}
	if n != 1 {
		t.Errorf("expected 1 applied before failure, got %d", n)
	}

	statuses, err := m.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if statuses[1].Applied {
		t.Error("failed migration must not be recorded")
	}
}
