package dimension

import (
	"time"

	"retailhub/internal/facts"
)

// Customer is a Dim_Customer row. ValidTo is empty while the row is open.
type Customer struct {
	Key       int64
	Name      string
	City      string
	ValidFrom string
	ValidTo   string
	IsCurrent bool
}

// CustomerStats counts SCD outcomes.
type CustomerStats struct {
	Inserted  int
	Versioned int
	Unchanged int
	Skipped   int
}

// CustomerBuilder applies SCD Type 2 versioning keyed on customer name,
// tracking city.
type CustomerBuilder struct {
	asOf     string
	sentinel string
	rows     []Customer
	current  map[string]int // name -> index into rows
	nextKey  int64
	stats    CustomerStats
}

// NewCustomerBuilder starts from history (possibly empty). Rows opened or
// closed during this run use asOf. Names equal to sentinel are not
// dimensionalized, and a sentinel city never counts as a change.
func NewCustomerBuilder(asOf time.Time, sentinel string, history []Customer) *CustomerBuilder {
	b := &CustomerBuilder{
		asOf:     asOf.Format(facts.DateKeyLayout),
		sentinel: sentinel,
		current:  map[string]int{},
		nextKey:  1,
	}
	for _, h := range history {
		b.rows = append(b.rows, h)
		if h.Key >= b.nextKey {
			b.nextKey = h.Key + 1
		}
	}
	// If history carries several current rows for a name, the last wins
	// and the others are closed.
	for i, h := range b.rows {
		if !h.IsCurrent {
			continue
		}
		if prev, ok := b.current[h.Name]; ok {
			b.rows[prev].IsCurrent = false
			if b.rows[prev].ValidTo == "" {
				b.rows[prev].ValidTo = b.asOf
			}
		}
		b.current[h.Name] = i
	}
	return b
}

// Observe records one sighting of a customer in city.
func (b *CustomerBuilder) Observe(name, city string) {
	if name == "" || name == b.sentinel {
		b.stats.Skipped++
		return
	}

	idx, ok := b.current[name]
	if !ok {
		b.open(name, city)
		b.stats.Inserted++
		return
	}
	cur := b.rows[idx]
	if cur.City == city || city == "" || city == b.sentinel {
		b.stats.Unchanged++
		return
	}

	b.rows[idx].ValidTo = b.asOf
	b.rows[idx].IsCurrent = false
	b.open(name, city)
	b.stats.Versioned++
}

// ObserveSales feeds every sale in order.
func (b *CustomerBuilder) ObserveSales(sales []facts.Sale) {
	for _, s := range sales {
		b.Observe(s.CustomerName, s.City)
	}
}

func (b *CustomerBuilder) open(name, city string) {
	b.rows = append(b.rows, Customer{
		Key:       b.nextKey,
		Name:      name,
		City:      city,
		ValidFrom: b.asOf,
		IsCurrent: true,
	})
	b.nextKey++
	b.current[name] = len(b.rows) - 1
}

// Rows returns every version, history first, in creation order.
func (b *CustomerBuilder) Rows() []Customer {
	out := make([]Customer, len(b.rows))
	copy(out, b.rows)
	return out
}

// Stats returns the counts so far.
func (b *CustomerBuilder) Stats() CustomerStats { return b.stats }
