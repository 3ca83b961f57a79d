// Package storage defines the relational store contract used by the schema
// manager and the loader, a registry of backend factories, and the
// per-table loader.
//
// Backends register themselves from init (see storage/all); callers open a
// Store with New and stay backend-agnostic from then on.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"retailhub/internal/ddl"
)

// ErrLoad marks a failed table write. The table is left empty; other tables
// are unaffected.
var ErrLoad = errors.New("storage: load failed")

// Store is the minimal surface a relational backend must offer.
type Store interface {
	// Kind returns the registered backend name, e.g. "sqlite".
	Kind() string
	// Dialect renders DDL and DML for this backend.
	Dialect() ddl.Dialect
	// Exec runs a single statement outside any explicit transaction.
	Exec(ctx context.Context, stmt string) error
	// ExecTx runs stmts in order inside one transaction.
	ExecTx(ctx context.Context, stmts []string) error
	// Columns lists the live columns of table in ordinal order. A missing
	// table yields an empty slice.
	Columns(ctx context.Context, table string) ([]string, error)
	// CopyFrom inserts rows (aligned to columns) inside one transaction and
	// returns the number of rows committed.
	CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)
	// Select returns every row of table projected onto columns.
	Select(ctx context.Context, table string, columns []string) ([][]any, error)
	// Close releases the underlying connections.
	Close()
}

// Config is the backend-neutral connection config.
type Config struct {
	Kind string
	DSN  string
}

// Factory opens a Store for cfg.
type Factory func(ctx context.Context, cfg Config) (Store, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a backend available under kind. Registering the same kind
// twice replaces the earlier factory.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[strings.ToLower(kind)] = f
}

// ListKinds returns the registered backend kinds, sorted.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// New opens a Store using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Store, error) {
	mu.RLock()
	f, ok := factories[strings.ToLower(cfg.Kind)]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unknown kind %q (registered: %s)", cfg.Kind, strings.Join(ListKinds(), ", "))
	}
	s, err := f(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", cfg.Kind, err)
	}
	return s, nil
}
