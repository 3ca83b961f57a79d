package builtin

import (
	"strings"

	"retailhub/internal/textutil"
	"retailhub/pkg/records"
)

// DefaultNullTokens are the spellings extracts use for "no value".
var DefaultNullTokens = []string{"nan", "null", "none", "n/a", "na", "nil"}

// Normalize collapses whitespace in every string value and turns null
// tokens (matched case-insensitively) into nil. Fields listed in Skip are
// left alone.
type Normalize struct {
	NullTokens []string
	Skip       []string
}

// Apply normalizes every record in place.
func (n Normalize) Apply(in []records.Record) []records.Record {
	nulls := make(map[string]struct{}, len(n.NullTokens))
	for _, t := range n.NullTokens {
		nulls[strings.ToLower(t)] = struct{}{}
	}
	skip := make(map[string]struct{}, len(n.Skip))
	for _, f := range n.Skip {
		skip[f] = struct{}{}
	}

	for _, r := range in {
		for k, v := range r {
			s, ok := v.(string)
			if !ok {
				continue
			}
			if _, ok := skip[k]; ok {
				continue
			}
			s = textutil.CollapseWhitespace(s)
			if _, isNull := nulls[strings.ToLower(s)]; isNull || s == "" {
				r[k] = nil
				continue
			}
			r[k] = s
		}
	}
	return in
}
