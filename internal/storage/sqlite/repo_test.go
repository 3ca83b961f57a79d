package sqlite

import (
	"context"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func newRepo(tb testing.TB) *Repository {
	tb.Helper()
	r, closeFn, err := NewRepository(context.Background(), Config{DSN: filepath.Join(tb.TempDir(), "w.db")})
	if err != nil {
		tb.Fatalf("NewRepository: %v", err)
	}
	tb.Cleanup(closeFn)
	return r
}

func mustExec(tb testing.TB, r *Repository, stmt string) {
	tb.Helper()
	if err := r.Exec(context.Background(), stmt); err != nil {
		tb.Fatalf("exec %q: %v", stmt, err)
	}
}

func TestNewRepository_EmptyDSN(t *testing.T) {
	t.Parallel()

	if _, _, err := NewRepository(context.Background(), Config{}); err == nil {
		t.Fatalf("NewRepository(empty DSN) error = nil")
	}
}

func TestColumnsAndCopyFromSelect(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	ctx := context.Background()
	mustExec(t, r, `CREATE TABLE "Dim_Store" ("store_key" TEXT NOT NULL, "city" TEXT NOT NULL, "region" TEXT NOT NULL, PRIMARY KEY ("store_key"));`)

	cols, err := r.Columns(ctx, "Dim_Store")
	if err != nil {
		t.Fatalf("Columns: %v", err)
	}
	if want := []string{"store_key", "city", "region"}; !reflect.DeepEqual(cols, want) {
		t.Fatalf("Columns = %v, want %v", cols, want)
	}

	n, err := r.CopyFrom(ctx, "Dim_Store", cols, [][]any{
		{"BOS", "Boston", "Global"},
		{"CHI", "Chicago", "Global"},
	})
	if err != nil || n != 2 {
		t.Fatalf("CopyFrom = %d, %v; want 2, nil", n, err)
	}

	rows, err := r.Select(ctx, "Dim_Store", []string{"store_key", "city"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(rows) != 2 || rows[0][0] != "BOS" || rows[1][1] != "Chicago" {
		t.Fatalf("Select rows = %#v", rows)
	}
}

func TestColumns_MissingTable(t *testing.T) {
	t.Parallel()

	cols, err := newRepo(t).Columns(context.Background(), "Nope")
	if err != nil || len(cols) != 0 {
		t.Fatalf("Columns(missing) = %v, %v; want empty, nil", cols, err)
	}
}

func TestCopyFrom_AllOrNothing(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	ctx := context.Background()
	mustExec(t, r, `CREATE TABLE "t" ("id" TEXT NOT NULL PRIMARY KEY);`)

	_, err := r.CopyFrom(ctx, "t", []string{"id"}, [][]any{{"a"}, {"b"}, {"a"}})
	if err == nil {
		t.Fatalf("CopyFrom(duplicate key) error = nil")
	}
	rows, err := r.Select(ctx, "t", []string{"id"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("rows after failed copy = %d, want 0", len(rows))
	}

	if _, err := r.CopyFrom(ctx, "t", []string{"id"}, [][]any{{"a", "extra"}}); err == nil ||
		!strings.Contains(err.Error(), "columns length") {
		t.Fatalf("CopyFrom(ragged) error = %v", err)
	}
}

func TestExecTx_RollsBackOnFailure(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	ctx := context.Background()
	mustExec(t, r, `CREATE TABLE "keep" ("a" TEXT);`)

	err := r.ExecTx(ctx, []string{
		`DROP TABLE IF EXISTS "keep";`,
		`CREATE TABLE "fresh" ("a" TEXT);`,
		`THIS IS NOT SQL;`,
	})
	if err == nil {
		t.Fatalf("ExecTx error = nil, want failure")
	}
	if cols, _ := r.Columns(ctx, "keep"); len(cols) != 1 {
		t.Fatalf("keep columns = %v, want table restored", cols)
	}
	if cols, _ := r.Columns(ctx, "fresh"); len(cols) != 0 {
		t.Fatalf("fresh columns = %v, want rolled back", cols)
	}

	if err := r.ExecTx(ctx, []string{`CREATE TABLE "fresh" ("a" TEXT);`, ""}); err != nil {
		t.Fatalf("ExecTx: %v", err)
	}
	if cols, _ := r.Columns(ctx, "fresh"); len(cols) != 1 {
		t.Fatalf("fresh columns = %v after commit", cols)
	}
}

func TestMemoryDSN_SharesOneConnection(t *testing.T) {
	t.Parallel()

	r, closeFn, err := NewRepository(context.Background(), Config{DSN: ":memory:"})
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	defer closeFn()

	ctx := context.Background()
	mustExec(t, r, `CREATE TABLE "m" ("a" INTEGER);`)
	if n, err := r.CopyFrom(ctx, "m", []string{"a"}, [][]any{{1}, {2}}); err != nil || n != 2 {
		t.Fatalf("CopyFrom = %d, %v", n, err)
	}
	rows, err := r.Select(ctx, "m", []string{"a"})
	if err != nil || len(rows) != 2 {
		t.Fatalf("Select = %v, %v", rows, err)
	}
}
