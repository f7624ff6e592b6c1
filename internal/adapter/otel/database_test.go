package otel_test

import (
	"context"
	"testing"

	adapter "github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/adapter/otel"

	_ "modernc.org/sqlite"
)

func TestOpenDB_AppliesPragmas(t *testing.T) {
	db, err := adapter.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	var foreignKeys int
	if err := db.QueryRowContext(context.Background(), "PRAGMA foreign_keys").Scan(&foreignKeys); err != nil {
		t.Fatalf("reading foreign_keys: %v", err)
	}
	if foreignKeys != 1 {
		t.Errorf("foreign_keys = %d, want 1", foreignKeys)
	}

	if stats := db.Stats(); stats.MaxOpenConnections != 1 {
		t.Errorf("MaxOpenConnections = %d, want 1", stats.MaxOpenConnections)
	}
}
