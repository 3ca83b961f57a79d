//go:build integration

package mssql

import (
	"context"
	"os"
	"reflect"
	"testing"
	"time"
)

// getTestDSN reads the MSSQL_TEST_DSN environment variable.
// If it is empty, the caller should skip the test.
func getTestDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("MSSQL_TEST_DSN")
	if dsn == "" {
		t.Skip("MSSQL_TEST_DSN not set; skipping MSSQL integration tests")
	}
	return dsn
}

// TestRepositoryIntegration creates a table, bulk-copies rows into it, and
// reads them back through Columns and Select.
func TestRepositoryIntegration(t *testing.T) {
	dsn := getTestDSN(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, closeFn, err := NewRepository(ctx, Config{DSN: dsn})
	if err != nil {
		t.Fatalf("NewRepository() error = %v, want nil", err)
	}
	defer closeFn()

	const table = "retailhub_copy_test"
	if err := repo.ExecTx(ctx, []string{
		"DROP TABLE IF EXISTS [" + table + "];",
		"CREATE TABLE [" + table + "] ([id] BIGINT NOT NULL, [name] NVARCHAR(100) NULL);",
	}); err != nil {
		t.Fatalf("ExecTx(CREATE TABLE) error = %v", err)
	}
	defer func() { _ = repo.Exec(ctx, "DROP TABLE IF EXISTS ["+table+"];") }()

	cols, err := repo.Columns(ctx, table)
	if err != nil || !reflect.DeepEqual(cols, []string{"id", "name"}) {
		t.Fatalf("Columns() = %v, %v", cols, err)
	}

	rows := [][]any{{int64(1), "alice"}, {int64(2), "bob"}, {int64(3), nil}}
	n, err := repo.CopyFrom(ctx, table, cols, rows)
	if err != nil {
		t.Fatalf("CopyFrom() error = %v, want nil", err)
	}
	if n != int64(len(rows)) {
		t.Fatalf("CopyFrom() inserted = %d, want %d", n, len(rows))
	}
	got, err := repo.Select(ctx, table, cols)
	if err != nil || len(got) != len(rows) {
		t.Fatalf("Select() = %v, %v", got, err)
	}
}
