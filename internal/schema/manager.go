package schema

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"retailhub/internal/ddl"
	"retailhub/internal/logging"
	"retailhub/internal/storage"
)

// ErrSchemaMutation marks a failed rebuild or evolution. A failed rebuild
// leaves the previous schema in place.
var ErrSchemaMutation = errors.New("schema mutation failed")

// Manager creates and evolves the warehouse tables in one store. It and the
// loader are the only writers.
type Manager struct {
	store storage.Store
	defs  []Definition
}

// NewManager returns a Manager over every warehouse table.
func NewManager(store storage.Store) *Manager {
	return &Manager{store: store, defs: Definitions()}
}

// RebuildStatements renders the drop, create and metadata statements of a
// rebuild, in execution order.
func (m *Manager) RebuildStatements() ([]string, error) {
	d := m.store.Dialect()
	stmts := make([]string, 0, 3*len(m.defs))

	for i := len(m.defs) - 1; i >= 0; i-- {
		stmts = append(stmts, d.DropTable(m.defs[i].FQN))
	}
	for _, def := range m.defs {
		create, err := d.CreateTable(def.TableDef)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrSchemaMutation, def.FQN, err)
		}
		stmts = append(stmts, create)
	}

	meta := []string{"table_name", "provenance", "description"}
	quoted := make([]string, len(meta))
	for i, c := range meta {
		quoted[i] = d.QuoteIdent(c)
	}
	for _, def := range m.defs {
		stmts = append(stmts, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s, %s, %s);",
			d.QuoteFQN(TableMetadata), strings.Join(quoted, ", "),
			literal(def.FQN), literal(def.Provenance), literal(def.Description)))
	}
	return stmts, nil
}

// Rebuild drops and recreates every table and records their provenance,
// inside one transaction.
func (m *Manager) Rebuild(ctx context.Context) error {
	stmts, err := m.RebuildStatements()
	if err != nil {
		return err
	}
	if err := m.store.ExecTx(ctx, stmts); err != nil {
		return fmt.Errorf("%w: rebuild: %w", ErrSchemaMutation, err)
	}
	logging.Info().Str("store", m.store.Kind()).Int("tables", len(m.defs)).Msg("schema: rebuilt")
	return nil
}

// Evolve adds every observed column table lacks and returns the names it
// added. Column names compare case-insensitively. Calling it again with the
// same columns is a no-op.
func (m *Manager) Evolve(ctx context.Context, table string, observed []ddl.ColumnDef) ([]string, error) {
	if len(observed) == 0 {
		return nil, nil
	}
	live, err := m.store.Columns(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("%w: introspect %s: %w", ErrSchemaMutation, table, err)
	}
	if len(live) == 0 {
		return nil, fmt.Errorf("%w: table %s does not exist", ErrSchemaMutation, table)
	}
	have := make(map[string]bool, len(live))
	for _, c := range live {
		have[strings.ToLower(c)] = true
	}

	d := m.store.Dialect()
	var (
		stmts []string
		added []string
	)
	for _, c := range observed {
		name := strings.ToLower(c.Name)
		if have[name] {
			continue
		}
		have[name] = true
		alter, err := d.AddColumn(table, c)
		if err != nil {
			return nil, fmt.Errorf("%w: %s.%s: %w", ErrSchemaMutation, table, c.Name, err)
		}
		stmts = append(stmts, alter)
		added = append(added, c.Name)
	}
	if len(stmts) == 0 {
		return nil, nil
	}
	if err := m.store.ExecTx(ctx, stmts); err != nil {
		return nil, fmt.Errorf("%w: evolve %s: %w", ErrSchemaMutation, table, err)
	}
	logging.Info().Str("table", table).Strs("added", added).Msg("schema: evolved")
	return added, nil
}

// Metadata reads the provenance rows back as table -> provenance.
func (m *Manager) Metadata(ctx context.Context) (map[string]string, error) {
	rows, err := m.store.Select(ctx, TableMetadata, []string{"table_name", "provenance"})
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[storage.AsString(r[0])] = storage.AsString(r[1])
	}
	return out, nil
}

// TableNames lists the managed tables in creation order.
func (m *Manager) TableNames() []string {
	out := make([]string, len(m.defs))
	for i, d := range m.defs {
		out[i] = d.FQN
	}
	return out
}

func literal(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
