package builtin

import "retailhub/pkg/records"

// NonNegative drops every record whose Field is numeric and below zero.
// Negative values are treated as tainted rows, never sign-flipped.
type NonNegative struct {
	Field string

	// Dropped is set by Apply.
	Dropped int
}

// Apply filters in place by reslicing the input.
func (n *NonNegative) Apply(in []records.Record) []records.Record {
	n.Dropped = 0
	out := in[:0]
	for _, r := range in {
		if v, ok := r.Float(n.Field); ok && v < 0 {
			n.Dropped++
			continue
		}
		out = append(out, r)
	}
	return out
}
