package dashboard

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/stockdesk/stockdesk/internal/catalog"
	"github.com/stockdesk/stockdesk/internal/reports"
)

func product(id int64, name string, stock, minStock int64) catalog.Product {
	return catalog.Product{
		ID:       id,
		Name:     name,
		Unit:     catalog.UnitPieces,
		Stock:    decimal.NewFromInt(stock),
		MinStock: decimal.NewFromInt(minStock),
	}
}

func TestTrend(t *testing.T) {
	assert.Equal(t, 20.0, Trend(120, 100))
	assert.Equal(t, 0.0, Trend(100, 0))
	assert.Equal(t, -50.0, Trend(50, 100))
	assert.Equal(t, 33.3, Trend(4, 3))
	assert.Equal(t, 0.0, Trend(0, 0))
}

func TestCompute(t *testing.T) {
	products := []catalog.Product{
		product(1, "Rice", 5, 100),
		product(2, "Oil", 80, 100),
		product(3, "Salt", 0, 0),
		product(4, "Tea", 10, 100),
	}
	today := reports.Report{Kind: reports.KindDay, Sales: 120, Purchases: 30}
	yesterday := reports.Report{Kind: reports.KindDay, Sales: 100}

	stats := Compute(products, today, yesterday)
	assert.Equal(t, 4, stats.TotalProducts)
	assert.Equal(t, 95.0, stats.TotalStock)
	assert.Equal(t, 120.0, stats.TodaySales)
	assert.Equal(t, 30.0, stats.TodayPurchases)
	assert.Equal(t, map[Metric]float64{
		MetricTotalProducts:  0,
		MetricTotalStock:     0,
		MetricTodaySales:     20,
		MetricTodayPurchases: 0,
	}, stats.Trends)

	require.Len(t, stats.CriticalProducts, 2)
	assert.Equal(t, "Rice", stats.CriticalProducts[0].Name)
	assert.Equal(t, 5.0, stats.CriticalProducts[0].Percentage)
	assert.Equal(t, "Tea", stats.CriticalProducts[1].Name)
	assert.Equal(t, 10.0, stats.CriticalProducts[1].Percentage)
}

func TestCriticalProductsEmpty(t *testing.T) {
	rows := CriticalProducts([]catalog.Product{product(1, "Oil", 50, 100), product(2, "Salt", 0, 0)})
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestCards(t *testing.T) {
	stats := Stats{
		TotalProducts:  1200,
		TotalStock:     3456.5,
		TodaySales:     1234,
		TodayPurchases: 0,
		Trends:         map[Metric]float64{MetricTodaySales: 12.5},
	}

	cards := Cards(stats, reports.NewMoney(language.English))
	require.Len(t, cards, 4)
	assert.Equal(t, "Total Products", cards[0].Title)
	assert.Equal(t, "1,200", cards[0].Value)
	assert.Equal(t, "3,456.5", cards[1].Value)
	assert.Equal(t, "Today's Sales", cards[2].Title)
	assert.Equal(t, "Rs. 1,234", cards[2].Value)
	assert.Equal(t, 12.5, cards[2].Trend)
	assert.Equal(t, "Rs. 0", cards[3].Value)
}
