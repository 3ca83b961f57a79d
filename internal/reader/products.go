package reader

import (
	"context"
	"fmt"

	"retailhub/internal/config"
	"retailhub/internal/datasource/file"
	pcsv "retailhub/internal/parser/csv"
)

// Product is one row of the optional product master.
type Product struct {
	Key      string
	Name     string
	Category string
}

// ReadProducts loads a product master CSV with product_id (or id, sku),
// name and category columns. Rows without a key are skipped. The result maps
// key to Product.
func ReadProducts(ctx context.Context, f config.SourceFile) (map[string]Product, error) {
	rc, err := file.NewLocal(f.Path).Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: product master: %w", ErrSourceUnavailable, err)
	}
	defer rc.Close()

	p := pcsv.NewParser(pcsv.Options{
		HasHeader: true,
		TrimSpace: true,
		HeaderMap: map[string]string{"id": "product_id", "sku": "product_id", "product_name": "name"},
	})
	rows, _, err := p.Parse(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: product master: %w", ErrSourceUnavailable, err)
	}

	out := make(map[string]Product, len(rows))
	for _, r := range rows {
		key := r.String("product_id")
		if key == "" {
			continue
		}
		if _, dup := out[key]; dup {
			continue
		}
		out[key] = Product{Key: key, Name: r.String("name"), Category: r.String("category")}
	}
	return out, nil
}
