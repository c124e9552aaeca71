package catalog

import "github.com/shopspring/decimal"

// StockLevel is the display band of a product's stock relative to its
// configured minimum.
type StockLevel string

const (
	StockHealthy  StockLevel = "Healthy"
	StockNearMin  StockLevel = "Near Min"
	StockLow      StockLevel = "Low"
	StockCritical StockLevel = "Critical"
	StockNoMin    StockLevel = "No Min Set"
)

// CriticalThreshold is the stock percentage at or below which a product is
// listed in the dashboard's critical stock alert.
const CriticalThreshold = 10.0

var hundred = decimal.NewFromInt(100)

// StockPercentage returns stock/min_stock*100. ok is false when no minimum is
// configured.
func (p Product) StockPercentage() (pct float64, ok bool) {
	if !p.MinStock.IsPositive() {
		return 0, false
	}
	return p.Stock.Div(p.MinStock).Mul(hundred).InexactFloat64(), true
}

// StockLevel bands the product: >=70% healthy, >=50% near min, >20% low,
// everything else critical.
func (p Product) StockLevel() StockLevel {
	pct, ok := p.StockPercentage()
	if !ok {
		return StockNoMin
	}
	switch {
	case pct >= 70:
		return StockHealthy
	case pct >= 50:
		return StockNearMin
	case pct > 20:
		return StockLow
	default:
		return StockCritical
	}
}

// IsCritical reports whether stock is at or below CriticalThreshold percent
// of the minimum. Products without a minimum are never critical.
func (p Product) IsCritical() bool {
	pct, ok := p.StockPercentage()
	return ok && pct <= CriticalThreshold
}
