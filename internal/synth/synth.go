// Package synth fabricates the operational facts the sources lack:
// per-product inventory and per-transaction shipments. Values are random
// placeholders from a seeded faker, so a given seed always yields the same
// rows. None of it is derived from a real signal.
package synth

import (
	"math"

	"github.com/brianvoe/gofakeit/v7"

	"retailhub/internal/facts"
)

// Shipment statuses.
const (
	StatusOnTime  = "On Time"
	StatusDelayed = "Delayed"
)

// Bounds of the generated values.
const (
	MinStock, MaxStock       = 0, 100
	MinTurnover, MaxTurnover = 1.0, 10.0
	MinDelivery, MaxDelivery = 1, 7
)

// Inventory is a Fact_Inventory row.
type Inventory struct {
	ProductKey    string
	StockLevel    int
	TurnoverRatio float64
}

// Shipment is a Fact_Shipments row.
type Shipment struct {
	TransactionID string
	DeliveryDays  int
	Status        string
}

// Options configures Generate.
type Options struct {
	Seed uint64
	// ShipmentSample caps how many distinct transactions get a shipment.
	ShipmentSample int
	// DelayCutoff is the first delivery duration reported as delayed.
	DelayCutoff int
}

// DefaultOptions returns seed 42, 5000 shipments and a cutoff of 5 days.
func DefaultOptions() Options {
	return Options{Seed: 42, ShipmentSample: 5000, DelayCutoff: 5}
}

// Generator produces synthetic facts from one seeded faker.
type Generator struct {
	opt   Options
	faker *gofakeit.Faker
}

// New returns a Generator seeded from opt.Seed.
func New(opt Options) *Generator {
	return &Generator{opt: opt, faker: gofakeit.New(opt.Seed)}
}

// Inventory returns one row per product key, in the given order.
func (g *Generator) Inventory(productKeys []string) []Inventory {
	out := make([]Inventory, 0, len(productKeys))
	for _, k := range productKeys {
		turnover := math.Round(g.faker.Float64Range(MinTurnover, MaxTurnover)*100) / 100
		out = append(out, Inventory{
			ProductKey:    k,
			StockLevel:    g.faker.IntRange(MinStock, MaxStock),
			TurnoverRatio: math.Min(MaxTurnover, math.Max(MinTurnover, turnover)),
		})
	}
	return out
}

// Shipments returns one row for each of the first ShipmentSample distinct
// transaction ids in sales.
func (g *Generator) Shipments(sales []facts.Sale) []Shipment {
	limit := g.opt.ShipmentSample
	if limit <= 0 {
		return nil
	}

	seen := make(map[string]bool)
	var out []Shipment
	for _, s := range sales {
		if len(out) >= limit {
			break
		}
		id := s.TransactionID
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		days := g.faker.IntRange(MinDelivery, MaxDelivery)
		out = append(out, Shipment{
			TransactionID: id,
			DeliveryDays:  days,
			Status:        StatusFor(days, g.opt.DelayCutoff),
		})
	}
	return out
}

// StatusFor thresholds a delivery duration: below cutoff is on time.
func StatusFor(days, cutoff int) string {
	if days < cutoff {
		return StatusOnTime
	}
	return StatusDelayed
}
