package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"retailhub/internal/config"
	"retailhub/internal/etl"
	"retailhub/internal/storage"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "retailhub.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

const validConfig = `
job: nightly
sources:
  - name: pos
    kind: csv
    file: { path: pos.csv }
storage:
  kind: sqlite
  db: { dsn: w.db }
`

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestValidate_PrintResolvesFlags(t *testing.T) {
	path := writeConfig(t, validConfig)

	out, _, err := execute(t, "validate", "--config", path, "--print", "--as-of", "2024-03-01")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	for _, want := range []string{"job: nightly", "2024-03-01", "kind: sqlite"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestValidate_Invalid(t *testing.T) {
	path := writeConfig(t, "job: x\nsources: []\nstorage: { kind: mysql, db: { dsn: x } }\n")

	_, errOut, err := execute(t, "validate", "--config", path)
	if err == nil {
		t.Fatalf("validate(invalid) error = nil")
	}
	if !strings.Contains(errOut, "storage.kind") || !strings.Contains(errOut, "sources") {
		t.Fatalf("issues not printed: %s", errOut)
	}
}

func TestRun_FailedTablesExitNonZero(t *testing.T) {
	path := writeConfig(t, validConfig)
	prev := runPipeline
	t.Cleanup(func() { runPipeline = prev })

	var got config.Pipeline
	runPipeline = func(_ context.Context, p config.Pipeline) (*etl.Summary, error) {
		got = p
		return &etl.Summary{
			State:  etl.StateDone,
			Tables: []storage.TableResult{{Table: "Fact_Sales", Err: storage.ErrLoad}},
		}, nil
	}

	_, _, err := execute(t, "run", "--config", path, "--metrics-backend", "none", "--as-of", "2024-02-29")
	if err == nil || !strings.Contains(err.Error(), "Fact_Sales") {
		t.Fatalf("run error = %v, want failed table reported", err)
	}
	if got.Runtime.AsOf != "2024-02-29" || got.Job != "nightly" {
		t.Fatalf("pipeline passed to run = %+v", got.Runtime)
	}
}

func TestRun_PropagatesRunFailure(t *testing.T) {
	path := writeConfig(t, validConfig)
	prev := runPipeline
	t.Cleanup(func() { runPipeline = prev })

	runPipeline = func(context.Context, config.Pipeline) (*etl.Summary, error) {
		return &etl.Summary{State: etl.StateFailed}, etl.ErrRunFailed
	}
	if _, _, err := execute(t, "run", "--config", path); !errors.Is(err, etl.ErrRunFailed) {
		t.Fatalf("run error = %v, want ErrRunFailed", err)
	}
}

func TestSchemaRebuild(t *testing.T) {
	path := writeConfig(t, validConfig)
	prev := rebuildSchema
	t.Cleanup(func() { rebuildSchema = prev })

	called := false
	rebuildSchema = func(_ context.Context, p config.Pipeline) error {
		called = p.Storage.DB.DSN == "w.db"
		return nil
	}
	if _, _, err := execute(t, "schema", "rebuild", "--config", path); err != nil {
		t.Fatalf("schema rebuild: %v", err)
	}
	if !called {
		t.Fatalf("rebuild not invoked with the configured store")
	}
}
