// Package etl runs one warehouse build: rebuild the schema, read every
// source, clean and flatten the records, build the dimensions, generate the
// synthetic facts, load every table and export the sales fact.
package etl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"retailhub/internal/config"
	"retailhub/internal/dimension"
	"retailhub/internal/export"
	"retailhub/internal/facts"
	"retailhub/internal/logging"
	"retailhub/internal/metrics"
	"retailhub/internal/reader"
	"retailhub/internal/schema"
	"retailhub/internal/storage"
	"retailhub/internal/synth"
	"retailhub/pkg/records"
)

// Test seams.
var (
	readSourceFn   = reader.Read
	readProductsFn = reader.ReadProducts
	openStoreFn    = storage.New
	openBucketFn   = export.OpenBucket
	nowFn          = time.Now
)

// ErrRunFailed marks a run that stopped before loading: the store was
// unreachable or the schema could not be rebuilt.
var ErrRunFailed = errors.New("etl: run failed")

// Run executes p end to end. The returned Summary is never nil. A non-nil
// error means the run ended in StateFailed or was canceled; tables that
// failed to load individually are reported through Summary.FailedTables.
func Run(ctx context.Context, p config.Pipeline) (*Summary, error) {
	asOf, err := p.Runtime.ResolveAsOf(nowFn())
	if err != nil {
		sum := newSummary(p.Job, p.Runtime.AsOf, nowFn())
		return sum, fail(sum, fmt.Errorf("%w: %w", ErrRunFailed, err))
	}
	sum := newSummary(p.Job, asOf.Format(config.AsOfLayout), nowFn())
	logging.Info().
		Str("job", p.Job).
		Str("run_id", sum.RunID).
		Str("as_of", sum.AsOf).
		Int("sources", len(p.Sources)).
		Str("storage", p.Storage.Kind).
		Msg("run: starting")

	store, err := openStore(ctx, p)
	if err != nil {
		return sum, fail(sum, err)
	}
	defer store.Close()

	r := &run{p: p, store: store, sum: sum, asOf: asOf}
	if err := r.execute(ctx); err != nil {
		return sum, fail(sum, err)
	}
	sum.State = StateDone
	sum.Finished = nowFn()
	return sum, nil
}

// RebuildSchema drops and recreates every warehouse table without loading
// anything.
func RebuildSchema(ctx context.Context, p config.Pipeline) error {
	store, err := openStore(ctx, p)
	if err != nil {
		return err
	}
	defer store.Close()
	return schema.NewManager(store).Rebuild(ctx)
}

func openStore(ctx context.Context, p config.Pipeline) (storage.Store, error) {
	store, err := openStoreFn(ctx, storage.Config{Kind: p.Storage.Kind, DSN: p.Storage.DB.DSN})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s store: %w", ErrRunFailed, p.Storage.Kind, err)
	}
	return store, nil
}

func fail(sum *Summary, err error) error {
	logging.Error().Str("state", sum.State.String()).Err(err).Msg("run: failed")
	sum.State = StateFailed
	sum.Finished = nowFn()
	return err
}

// run carries the intermediate results from one stage to the next.
type run struct {
	p     config.Pipeline
	store storage.Store
	sum   *Summary
	asOf  time.Time

	history  []dimension.Customer
	batches  []reader.Result
	master   map[string]dimension.Product
	cleaned  []records.Record
	sales    []facts.Sale
	attrCols []string
	numeric  map[string]bool

	products  []dimension.Product
	customers []dimension.Customer
	stores    []dimension.Store
	inventory []synth.Inventory
	shipments []synth.Shipment
}

// stage moves the run into st, runs fn and records its latency.
func (r *run) stage(ctx context.Context, st State, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.sum.State = st
	logging.Debug().Str("state", st.String()).Msg("run: stage")
	began := time.Now()
	err := fn(ctx)
	metrics.RecordStep(r.p.Job, st.String(), err, time.Since(began))
	return err
}

func (r *run) execute(ctx context.Context) error {
	steps := []struct {
		st State
		fn func(context.Context) error
	}{
		{StateSchemaRebuilding, r.rebuild},
		{StateReading, r.read},
		{StateCleaning, r.clean},
		{StateTransforming, r.transform},
		{StateDimensionBuilding, r.buildDimensions},
		{StateMetricsGenerating, r.generate},
		{StateLoading, r.load},
	}
	for _, s := range steps {
		if err := r.stage(ctx, s.st, s.fn); err != nil {
			return err
		}
	}
	return nil
}
