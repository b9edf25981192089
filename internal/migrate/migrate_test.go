package migrate_test

import (
	"testing"

	"northtrade/internal/db"
	"northtrade/internal/migrate"
)

func TestMigrateIsIdempotent(t *testing.T) {
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer conn.Close()

	for i := 0; i < 2; i++ {
		if err := migrate.Migrate(conn.DB); err != nil {
			t.Fatalf("migrate run %d: %v", i+1, err)
		}
	}

	// One ledger row per applied migration, not per run.
	var rows, version int
	if err := conn.QueryRow(`SELECT COUNT(*), MAX(version) FROM schema_version`).Scan(&rows, &version); err != nil {
		t.Fatalf("read schema_version: %v", err)
	}
	if rows != 1 || version != 1 {
		t.Fatalf("schema_version has %d rows at version %d, want 1 row at version 1", rows, version)
	}

	// The schema is usable after the second run.
	if _, err := conn.Exec(`INSERT INTO categories(category_id, category_name) VALUES (1, 'Beverages')`); err != nil {
		t.Fatalf("insert into migrated schema: %v", err)
	}
}
