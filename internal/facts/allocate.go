package facts

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/cockroachdb/apd/v3"

	"retailhub/pkg/records"
)

// amountExponent is the scale every allocated share is cut to (cents).
const amountExponent = -2

// Allocate splits total across items. When every item carries a positive
// line amount the split is proportional to those amounts, otherwise it is
// even. Exact shares are cut down to cents and the residual cents go one
// each to the items with the largest remainders (earlier items first on
// ties), so shares sum exactly to total and even shares differ by at most
// one cent. Any sub-cent residual lands on the next item in that order.
func Allocate(total float64, items []records.Item) ([]float64, error) {
	n := len(items)
	if n == 0 {
		return nil, nil
	}

	ctx := apd.BaseContext.WithPrecision(34)
	ctx.Rounding = apd.RoundDown

	var tot apd.Decimal
	if _, _, err := tot.SetString(strconv.FormatFloat(total, 'f', -1, 64)); err != nil {
		return nil, fmt.Errorf("allocate: total %v: %w", total, err)
	}
	negative := tot.Negative
	tot.Abs(&tot)

	weights, sum, err := lineWeights(ctx, items)
	if err != nil {
		return nil, err
	}

	shares := make([]apd.Decimal, n)
	rems := make([]apd.Decimal, n)
	var allocated apd.Decimal
	for i := range shares {
		var exact apd.Decimal
		if weights != nil {
			var num apd.Decimal
			if _, err := ctx.Mul(&num, &tot, &weights[i]); err != nil {
				return nil, fmt.Errorf("allocate: %w", err)
			}
			if _, err := ctx.Quo(&exact, &num, sum); err != nil {
				return nil, fmt.Errorf("allocate: %w", err)
			}
		} else {
			var cnt apd.Decimal
			cnt.SetInt64(int64(n))
			if _, err := ctx.Quo(&exact, &tot, &cnt); err != nil {
				return nil, fmt.Errorf("allocate: %w", err)
			}
		}
		if _, err := ctx.Quantize(&shares[i], &exact, amountExponent); err != nil {
			return nil, fmt.Errorf("allocate: %w", err)
		}
		if _, err := ctx.Sub(&rems[i], &exact, &shares[i]); err != nil {
			return nil, fmt.Errorf("allocate: %w", err)
		}
		if _, err := ctx.Add(&allocated, &allocated, &shares[i]); err != nil {
			return nil, fmt.Errorf("allocate: %w", err)
		}
	}

	var residual apd.Decimal
	if _, err := ctx.Sub(&residual, &tot, &allocated); err != nil {
		return nil, fmt.Errorf("allocate: %w", err)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return rems[order[a]].Cmp(&rems[order[b]]) > 0
	})

	cent := apd.New(1, amountExponent)
	for k := 0; residual.Sign() > 0; k++ {
		i := order[k%n]
		step := cent
		if residual.Cmp(cent) < 0 {
			step = &residual
		}
		if _, err := ctx.Add(&shares[i], &shares[i], step); err != nil {
			return nil, fmt.Errorf("allocate: %w", err)
		}
		if _, err := ctx.Sub(&residual, &residual, step); err != nil {
			return nil, fmt.Errorf("allocate: %w", err)
		}
	}

	out := make([]float64, n)
	for i := range shares {
		if negative {
			shares[i].Neg(&shares[i])
		}
		out[i], _ = shares[i].Float64()
	}
	return out, nil
}

// lineWeights returns per-item weights and their sum, or nil weights when
// any item lacks a positive line amount.
func lineWeights(ctx *apd.Context, items []records.Item) ([]apd.Decimal, *apd.Decimal, error) {
	for _, it := range items {
		if !(it.LineAmount > 0) {
			return nil, nil, nil
		}
	}
	w := make([]apd.Decimal, len(items))
	sum := new(apd.Decimal)
	for i, it := range items {
		if _, _, err := w[i].SetString(strconv.FormatFloat(it.LineAmount, 'f', -1, 64)); err != nil {
			return nil, nil, fmt.Errorf("allocate: line amount %v: %w", it.LineAmount, err)
		}
		if _, err := ctx.Add(sum, sum, &w[i]); err != nil {
			return nil, nil, fmt.Errorf("allocate: %w", err)
		}
	}
	return w, sum, nil
}
