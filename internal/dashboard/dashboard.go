// Package dashboard aggregates the catalog and day reports into the overview
// statistics.
package dashboard

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stockdesk/stockdesk/internal/catalog"
	"github.com/stockdesk/stockdesk/internal/reports"
)

// Metric names a dashboard statistic.
type Metric string

const (
	MetricTotalProducts  Metric = "totalProducts"
	MetricTotalStock     Metric = "totalStock"
	MetricTodaySales     Metric = "todaySales"
	MetricTodayPurchases Metric = "todayPurchases"
)

// Stats is recomputed wholesale on every refresh.
type Stats struct {
	TotalProducts    int                `json:"totalProducts"`
	TotalStock       float64            `json:"totalStock"`
	TodaySales       float64            `json:"todaySales"`
	TodayPurchases   float64            `json:"todayPurchases"`
	Trends           map[Metric]float64 `json:"trends"`
	CriticalProducts []CriticalRow      `json:"criticalProducts"`
	GeneratedAt      time.Time          `json:"generatedAt"`
}

// CriticalRow is a product in the critical stock alert.
type CriticalRow struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Stock      decimal.Decimal `json:"stock"`
	MinStock   decimal.Decimal `json:"min_stock"`
	Percentage float64         `json:"percentage"`
}

// Compute derives the dashboard from the catalog and today's and yesterday's
// day reports. Catalog totals have no history, so their trends compare the
// snapshot with itself and are always 0.
func Compute(products []catalog.Product, today, yesterday reports.Report) Stats {
	snapshot := catalog.NewSnapshot(products)
	totalProducts := float64(snapshot.Len())
	totalStock := snapshot.TotalStock().InexactFloat64()

	return Stats{
		TotalProducts:  snapshot.Len(),
		TotalStock:     totalStock,
		TodaySales:     today.Sales,
		TodayPurchases: today.Purchases,
		Trends: map[Metric]float64{
			MetricTotalProducts:  Trend(totalProducts, totalProducts),
			MetricTotalStock:     Trend(totalStock, totalStock),
			MetricTodaySales:     Trend(today.Sales, yesterday.Sales),
			MetricTodayPurchases: Trend(today.Purchases, yesterday.Purchases),
		},
		CriticalProducts: CriticalProducts(products),
	}
}

// Trend is the percentage change from yesterday to today rounded to one
// decimal. A zero yesterday yields 0.
func Trend(today, yesterday float64) float64 {
	if yesterday == 0 {
		return 0
	}
	return math.Round((today-yesterday)/yesterday*1000) / 10
}

// CriticalProducts lists products at or below the critical threshold in
// catalog order.
func CriticalProducts(products []catalog.Product) []CriticalRow {
	rows := make([]CriticalRow, 0)
	for _, p := range catalog.NewSnapshot(products).Critical() {
		rows = append(rows, NewCriticalRow(p))
	}
	return rows
}

// NewCriticalRow builds the alert row with the percentage rounded to a whole
// number.
func NewCriticalRow(p catalog.Product) CriticalRow {
	pct, _ := p.StockPercentage()
	return CriticalRow{
		ID:         p.ID,
		Name:       p.Name,
		Stock:      p.Stock,
		MinStock:   p.MinStock,
		Percentage: math.Round(pct),
	}
}

// Card is one headline tile.
type Card struct {
	Metric Metric  `json:"metric"`
	Title  string  `json:"title"`
	Value  string  `json:"value"`
	Trend  float64 `json:"trend"`
}

// Cards renders the four headline tiles.
func Cards(stats Stats, money reports.Money) []Card {
	return []Card{
		{Metric: MetricTotalProducts, Title: "Total Products", Value: money.Count(float64(stats.TotalProducts)), Trend: stats.Trends[MetricTotalProducts]},
		{Metric: MetricTotalStock, Title: "Total Stock", Value: money.Count(stats.TotalStock), Trend: stats.Trends[MetricTotalStock]},
		{Metric: MetricTodaySales, Title: "Today's Sales", Value: money.Compact(stats.TodaySales), Trend: stats.Trends[MetricTodaySales]},
		{Metric: MetricTodayPurchases, Title: "Today's Purchases", Value: money.Compact(stats.TodayPurchases), Trend: stats.Trends[MetricTodayPurchases]},
	}
}
