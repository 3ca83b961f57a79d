package etl

import (
	"context"
	"errors"
	"fmt"

	"retailhub/internal/cleaning"
	"retailhub/internal/dimension"
	"retailhub/internal/export"
	"retailhub/internal/facts"
	"retailhub/internal/logging"
	"retailhub/internal/metrics"
	"retailhub/internal/schema"
	"retailhub/internal/storage"
	"retailhub/internal/synth"
)

func (r *run) rebuild(ctx context.Context) error {
	if r.p.Runtime.PreserveCustomerHistory {
		history, err := readCustomerHistory(ctx, r.store)
		if err != nil {
			// Rebuilding now would drop the history for good.
			return fmt.Errorf("%w: read customer history: %w", ErrRunFailed, err)
		}
		r.history = history
		r.sum.HistoryRows = len(history)
	}
	if err := schema.NewManager(r.store).Rebuild(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrRunFailed, err)
	}
	return nil
}

func (r *run) read(ctx context.Context) error {
	for _, src := range r.p.Sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := readSourceFn(ctx, src)
		ss := SourceSummary{
			Name:      src.Name,
			Tag:       src.Tag(),
			Records:   len(res.Records),
			Skipped:   res.Skipped,
			Malformed: res.Malformed,
			BadTotals: res.BadTotals,
		}
		if err != nil {
			ss.Records = 0
			ss.Err = err
			logging.Warn().Str("source", src.Name).Err(err).Msg("read: source skipped")
		} else {
			r.batches = append(r.batches, res)
		}
		r.sum.Sources = append(r.sum.Sources, ss)
		metrics.RecordRow(r.p.Job, "read", int64(ss.Records))
		metrics.RecordRow(r.p.Job, "malformed", int64(ss.Malformed))
	}
	if len(r.batches) == 0 && len(r.p.Sources) > 0 {
		logging.Warn().Int("sources", len(r.p.Sources)).Msg("read: no source available; loading empty tables")
	}

	if r.p.ProductMaster.Path == "" {
		return nil
	}
	master, err := readProductsFn(ctx, r.p.ProductMaster)
	if err != nil {
		logging.Warn().Str("path", r.p.ProductMaster.Path).Err(err).Msg("read: product master skipped; using defaults")
		return nil
	}
	r.master = make(map[string]dimension.Product, len(master))
	for k, p := range master {
		r.master[k] = dimension.Product{Key: p.Key, Name: p.Name, Category: p.Category}
	}
	r.sum.Products = len(master)
	return nil
}

func (r *run) clean(context.Context) error {
	opt := cleaning.Options{
		DedupKey:    r.p.Cleaning.DedupKey,
		Sentinel:    r.p.Cleaning.Sentinel,
		DedupPolicy: r.p.Cleaning.DedupPolicy,
	}
	for _, b := range r.batches {
		out, rep := cleaning.Clean(b.Records, opt)
		if err := rep.Err(); err != nil {
			logging.Warn().Str("source", b.Source).Err(err).Msg("clean: rows dropped")
		}
		r.sum.Cleaning.Merge(rep)
		r.cleaned = append(r.cleaned, out...)
	}
	if r.sum.Cleaning.CellsRepaired == nil {
		r.sum.Cleaning.CellsRepaired = map[string]int{}
	}
	metrics.RecordRow(r.p.Job, "duplicates_removed", int64(r.sum.Cleaning.DuplicatesRemoved))
	metrics.RecordRow(r.p.Job, "negative_dropped", int64(r.sum.Cleaning.NegativeDropped))
	return nil
}

func (r *run) transform(ctx context.Context) error {
	r.sales, r.sum.Flatten = facts.Flatten(r.cleaned)
	r.cleaned = nil
	metrics.RecordRow(r.p.Job, "facts", int64(len(r.sales)))

	r.attrCols, r.numeric = facts.AttributeColumns(r.sales)
	added, err := schema.NewManager(r.store).Evolve(ctx, schema.TableSales, schema.ObservedColumns(r.attrCols, r.numeric))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		// Base columns still load; the attributes are lost for this run.
		logging.Error().Strs("columns", r.attrCols).Err(err).Msg("transform: schema evolution failed; attributes dropped")
		r.attrCols = nil
		return nil
	}
	r.sum.EvolvedColumns = added
	if len(added) > 0 {
		logging.Info().Strs("columns", added).Msg("transform: fact columns added")
	}
	return nil
}

func (r *run) buildDimensions(context.Context) error {
	r.products = dimension.Products(r.sales, r.master)

	cb := dimension.NewCustomerBuilder(r.asOf, r.p.Cleaning.Sentinel, r.history)
	cb.ObserveSales(r.sales)
	r.customers = cb.Rows()
	r.sum.Customers = cb.Stats()

	r.stores, r.sum.StoreCollisions = dimension.Stores(r.sales)
	if r.sum.StoreCollisions > 0 {
		logging.Warn().Int("collisions", r.sum.StoreCollisions).Msg("dimension: store key collisions; first city kept")
	}
	return nil
}

func (r *run) generate(context.Context) error {
	g := synth.New(synth.Options{
		Seed:           r.p.Generator.Seed,
		ShipmentSample: r.p.Generator.ShipmentSample,
		DelayCutoff:    r.p.Generator.DelayCutoff,
	})
	keys := make([]string, len(r.products))
	for i, p := range r.products {
		keys[i] = p.Key
	}
	r.inventory = g.Inventory(keys)
	r.shipments = g.Shipments(r.sales)
	return nil
}

// load writes every table, exports the sales fact and finally writes the
// run summary, so the summary accounts for both.
func (r *run) load(ctx context.Context) error {
	tables := []storage.Table{
		productTable(r.products),
		customerTable(r.customers),
		storeTable(r.stores),
		salesTable(r.sales, r.attrCols, r.numeric),
		inventoryTable(r.inventory),
		shipmentTable(r.shipments),
	}
	for _, t := range tables {
		r.sum.Rows[t.Name] = len(t.Rows)
	}

	results, err := storage.LoadTables(ctx, r.p.Job, tables, r.store.CopyFrom)
	r.sum.Tables = results
	if err != nil {
		return err
	}

	r.exportSales(ctx)

	results, err = storage.LoadTables(ctx, r.p.Job, []storage.Table{r.sum.summaryTable(schema.TableRunSummary)}, r.store.CopyFrom)
	r.sum.Tables = append(r.sum.Tables, results...)
	return err
}

func (r *run) exportSales(ctx context.Context) {
	e := r.p.Export
	if !e.Enabled {
		return
	}
	bucket, err := openBucketFn(ctx, e.URL)
	if err != nil {
		r.sum.ExportErr = fmt.Errorf("%w: %w", export.ErrExport, err)
		logging.Error().Str("url", e.URL).Err(err).Msg("export: bucket unavailable")
		return
	}
	defer bucket.Close()

	m, err := export.New(bucket, export.Options{Prefix: e.Prefix, Concurrency: e.Concurrency, Job: r.p.Job, RunID: r.sum.RunID}).ExportSales(ctx, r.sales)
	if err != nil {
		r.sum.ExportErr = err
		return
	}
	r.sum.Export = m
}

// readCustomerHistory returns the Dim_Customer rows of the previous run, or
// nothing when the table does not exist yet.
func readCustomerHistory(ctx context.Context, store storage.Store) ([]dimension.Customer, error) {
	live, err := store.Columns(ctx, schema.TableCustomer)
	if err != nil {
		return nil, err
	}
	if len(live) == 0 {
		return nil, nil
	}
	rows, err := store.Select(ctx, schema.TableCustomer, customerColumns)
	if err != nil {
		return nil, err
	}
	out := make([]dimension.Customer, 0, len(rows))
	for i, row := range rows {
		c, err := scanCustomer(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func scanCustomer(row []any) (dimension.Customer, error) {
	if len(row) != len(customerColumns) {
		return dimension.Customer{}, errors.New("unexpected column count")
	}
	key, err := storage.AsInt64(row[0])
	if err != nil {
		return dimension.Customer{}, fmt.Errorf("customer_key: %w", err)
	}
	current, err := storage.AsInt64(row[5])
	if err != nil {
		return dimension.Customer{}, fmt.Errorf("is_current: %w", err)
	}
	return dimension.Customer{
		Key:       key,
		Name:      storage.AsString(row[1]),
		City:      storage.AsString(row[2]),
		ValidFrom: storage.AsString(row[3]),
		ValidTo:   storage.AsString(row[4]),
		IsCurrent: current != 0,
	}, nil
}
