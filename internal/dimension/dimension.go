// Package dimension derives the Product, Store and Customer dimensions from
// sale facts.
package dimension

import (
	"retailhub/internal/facts"
	"retailhub/internal/logging"
	"retailhub/internal/textutil"
)

// Defaults for attributes sources do not carry.
const (
	DefaultCategory = "General"
	DefaultRegion   = "Global"
)

// Product is a Dim_Product row.
type Product struct {
	Key      string
	Name     string
	Category string
}

// Products returns one row per distinct product key in first-seen order.
// Entries in master override the default name and category.
func Products(sales []facts.Sale, master map[string]Product) []Product {
	seen := make(map[string]bool)
	var out []Product
	for _, s := range sales {
		k := s.ProductKey
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true

		p := Product{Key: k, Name: k, Category: DefaultCategory}
		if m, ok := master[k]; ok {
			if m.Name != "" {
				p.Name = m.Name
			}
			if m.Category != "" {
				p.Category = m.Category
			}
		}
		out = append(out, p)
	}
	return out
}

// Store is a Dim_Store row.
type Store struct {
	Key    string
	City   string
	Region string
}

// StoreKey derives the store code of a city: the first three letters of its
// accent-folded, letters-only, upper-cased name. "Boston" -> "BOS".
func StoreKey(city string) string {
	l := []rune(textutil.LettersUpper(city))
	if len(l) > 3 {
		l = l[:3]
	}
	return string(l)
}

// Stores returns one row per distinct store key in first-seen order. When two
// cities map to the same key the first keeps it; later cities get no row and
// are logged and counted in collisions, never renamed.
func Stores(sales []facts.Sale) (stores []Store, collisions int) {
	seenCity := make(map[string]bool)
	owner := make(map[string]string)
	for _, s := range sales {
		city := s.City
		if city == "" || seenCity[city] {
			continue
		}
		seenCity[city] = true

		key := StoreKey(city)
		if key == "" {
			logging.Warn().Str("city", city).Msg("dimension: city has no letters; no store key")
			collisions++
			continue
		}
		if prev, taken := owner[key]; taken {
			logging.Warn().Str("store_key", key).Str("city", city).Str("kept", prev).Msg("dimension: store key collision")
			collisions++
			continue
		}
		owner[key] = city
		stores = append(stores, Store{Key: key, City: city, Region: DefaultRegion})
	}
	return stores, collisions
}
