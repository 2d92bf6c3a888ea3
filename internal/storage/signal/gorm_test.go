// internal/storage/signal/gorm_test.go
package signal

import (
	"context"
	"os"
	"testing"
)

// Set POLYEDGE_TEST_DSN to a disposable PostgreSQL database to run these.
func openTestGorm(t *testing.T) *GormStore {
	t.Helper()
	dsn := os.Getenv("POLYEDGE_TEST_DSN")
	if dsn == "" {
		t.Skip("POLYEDGE_TEST_DSN not set")
	}
	store, err := OpenGorm(GormOptions{DSN: dsn, CreateDatabase: true}, nil)
	if err != nil {
		t.Fatalf("OpenGorm failed: %v", err)
	}
	t.Cleanup(func() {
		store.db.Exec("DROP TABLE IF EXISTS signals, markets")
		store.Close()
	})
	store.db.WithContext(context.Background()).Exec("TRUNCATE signals, markets")
	return store
}

func TestGormStore_Contract(t *testing.T) {
	repositoryContract(t, openTestGorm(t))
}

func TestIsMissingDatabase(t *testing.T) {
	cases := map[string]bool{
		`FATAL: database "polyedge" does not exist (SQLSTATE 3D000)`: true,
		"connection refused": false,
	}
	for msg, want := range cases {
		if got := isMissingDatabase(errString(msg)); got != want {
			t.Errorf("isMissingDatabase(%q) = %v, want %v", msg, got, want)
		}
	}
}

type errString string

func (e errString) Error() string { return string(e) }

func TestEnsureDatabase_SkipsDefault(t *testing.T) {
	if err := EnsureDatabase("postgres://u:p@localhost:1/postgres"); err != nil {
		t.Errorf("expected no-op for default database, got %v", err)
	}
	if err := EnsureDatabase("postgres://u:p@localhost:1/"); err != nil {
		t.Errorf("expected no-op for empty database name, got %v", err)
	}
}
