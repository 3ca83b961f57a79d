// Package transformer defines batch transforms over records and a Chain that
// runs them in order.
package transformer

import "retailhub/pkg/records"

// Transformer rewrites a batch. Implementations may mutate records in place
// and may return a shorter slice sharing the input's backing array.
type Transformer interface {
	Apply([]records.Record) []records.Record
}

// Chain is an ordered list of transformers.
type Chain []Transformer

// Apply runs every transformer in order, feeding each the previous output.
func (c Chain) Apply(in []records.Record) []records.Record {
	out := in
	for _, t := range c {
		out = t.Apply(out)
	}
	return out
}
