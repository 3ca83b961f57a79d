// Package builtin contains the reusable transforms behind the cleaning
// rules.
//
// DeDup collapses duplicate records by a configured key and chooses a
// winner according to a policy:
//
//   - "keep-first"   : keep the earliest occurrence in the batch (default)
//   - "keep-last"    : keep the latest occurrence in the batch
//   - "most-complete": keep the record with the most non-empty fields;
//     ties break by keep-first
//
// Keys are the concatenation of the configured fields rendered as trimmed
// strings. With MissingAsEmpty, an absent or blank key field counts as the
// empty string so key-less rows collapse into one; otherwise they pass
// through untouched.
package builtin

import (
	"sort"
	"strings"

	"retailhub/pkg/records"
)

// DeDup implements a configurable, in-memory de-duplication policy.
type DeDup struct {
	Keys           []string
	Policy         string
	MissingAsEmpty bool

	// Removed is set by Apply to the number of records dropped.
	Removed int
}

// Apply returns the winning record for each key. Output keeps the input
// order of the winners, followed by pass-through records.
func (d *DeDup) Apply(in []records.Record) []records.Record {
	d.Removed = 0
	if len(in) == 0 || len(d.Keys) == 0 {
		return in
	}

	policy := strings.ToLower(strings.TrimSpace(d.Policy))
	if policy == "" {
		policy = "keep-first"
	}

	type slot struct {
		index int
		score int
	}
	winners := make(map[string]slot, len(in))
	keys := make([]string, len(in))
	keyed := make([]bool, len(in))

	for i, r := range in {
		key, ok := d.keyOf(r)
		if !ok {
			continue
		}
		keys[i], keyed[i] = key, true

		prev, exists := winners[key]
		switch policy {
		case "keep-last":
			winners[key] = slot{index: i}
		case "most-complete":
			s := slot{index: i, score: completeness(r)}
			if !exists || s.score > prev.score {
				winners[key] = s
			}
		default:
			if !exists {
				winners[key] = slot{index: i}
			}
		}
	}

	idx := make([]int, 0, len(winners))
	for _, s := range winners {
		idx = append(idx, s.index)
	}
	sort.Ints(idx)

	out := make([]records.Record, 0, len(in))
	for _, i := range idx {
		out = append(out, in[i])
	}
	for i, r := range in {
		if !keyed[i] {
			out = append(out, r)
		}
	}
	d.Removed = len(in) - len(out)
	return out
}

func (d *DeDup) keyOf(r records.Record) (string, bool) {
	var b strings.Builder
	for i, k := range d.Keys {
		if r.IsMissing(k) && !d.MissingAsEmpty {
			return "", false
		}
		if i > 0 {
			b.WriteByte('\x1f')
		}
		b.WriteString(r.String(k))
	}
	return b.String(), true
}

func completeness(r records.Record) int {
	n := 0
	for k := range r {
		if !r.IsMissing(k) {
			n++
		}
	}
	return n
}
