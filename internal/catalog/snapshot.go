package catalog

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/stockdesk/stockdesk/internal/shared"
)

// Snapshot is a read-only view of the catalog as returned by one fetch.
// Products keep the backend's ordering.
type Snapshot struct {
	products []Product
	index    map[int64]int
}

// NewSnapshot copies products into an immutable snapshot.
func NewSnapshot(products []Product) *Snapshot {
	s := &Snapshot{
		products: make([]Product, len(products)),
		index:    make(map[int64]int, len(products)),
	}
	copy(s.products, products)
	for i, p := range s.products {
		if _, dup := s.index[p.ID]; !dup {
			s.index[p.ID] = i
		}
	}
	return s
}

// Len returns the number of products.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.products)
}

// Lookup finds a product by id.
func (s *Snapshot) Lookup(id int64) (Product, bool) {
	if s == nil {
		return Product{}, false
	}
	i, ok := s.index[id]
	if !ok {
		return Product{}, false
	}
	return s.products[i], true
}

// Products returns a copy of all products in catalog order.
func (s *Snapshot) Products() []Product {
	if s == nil {
		return nil
	}
	out := make([]Product, len(s.products))
	copy(out, s.products)
	return out
}

// TotalStock sums stock across the catalog.
func (s *Snapshot) TotalStock() decimal.Decimal {
	total := decimal.Zero
	if s == nil {
		return total
	}
	for _, p := range s.products {
		total = total.Add(p.Stock)
	}
	return total
}

// Sellable lists products with stock on hand, the set a sale form offers.
func (s *Snapshot) Sellable() []Product {
	return s.filter(func(p Product) bool { return p.Stock.IsPositive() })
}

// Critical lists products at or below the critical threshold.
func (s *Snapshot) Critical() []Product {
	return s.filter(Product.IsCritical)
}

// Search matches term case-insensitively against product names. An empty term
// matches everything.
func (s *Snapshot) Search(term string) []Product {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return s.Products()
	}
	return s.filter(func(p Product) bool {
		return strings.Contains(strings.ToLower(p.Name), term)
	})
}

func (s *Snapshot) filter(keep func(Product) bool) []Product {
	out := []Product{}
	if s == nil {
		return out
	}
	for _, p := range s.products {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// Page slices products for table display.
func Page(products []Product, page, perPage int) ([]Product, shared.Pagination) {
	pg := shared.NewPagination(page, perPage, len(products))
	start, end := pg.Bounds()
	return products[start:end], pg
}
