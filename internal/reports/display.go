package reports

import (
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// CurrencyPrefix precedes every displayed amount.
const CurrencyPrefix = "Rs. "

// Money renders amounts with locale digit grouping.
type Money struct {
	printer *message.Printer
}

// NewMoney returns a formatter for tag.
func NewMoney(tag language.Tag) Money {
	return Money{printer: message.NewPrinter(tag)}
}

// Format renders v with two decimals, e.g. "Rs. 1,234.50".
func (m Money) Format(v float64) string {
	return CurrencyPrefix + m.printer.Sprint(number.Decimal(v, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

// Compact renders v without trailing zero decimals, e.g. "Rs. 1,234".
func (m Money) Compact(v float64) string {
	return CurrencyPrefix + m.printer.Sprint(number.Decimal(v, number.MaxFractionDigits(2)))
}

// Percent renders v with digits decimals and a percent sign.
func Percent(v float64, digits int) string {
	return strconv.FormatFloat(v, 'f', digits, 64) + "%"
}

// Display is a report rendered for people.
type Display struct {
	Title         string `json:"title"`
	Days          int    `json:"days"`
	Sales         string `json:"sales"`
	Purchases     string `json:"purchases"`
	Profit        string `json:"profit"`
	COGS          string `json:"cogs"`
	ProfitMargin  string `json:"profit_margin"`
	PurchaseRatio string `json:"purchase_ratio"`
	Status        string `json:"status"`
}

// Describe renders r for display.
func Describe(r Report, m Money) Display {
	d := Display{
		Days:          r.Days(),
		Sales:         m.Format(r.Sales),
		Purchases:     m.Format(r.Purchases),
		Profit:        m.Format(r.Profit),
		COGS:          m.Format(r.COGS),
		ProfitMargin:  Percent(r.ProfitMargin(), 2),
		PurchaseRatio: Percent(r.PurchaseRatio(), 2),
		Status:        "Operating at a loss",
	}
	switch r.Kind {
	case KindDay:
		d.Title = "Day Report"
	case KindPeriod:
		d.Title = "Period Report"
	case KindSummary:
		d.Title = r.Type.Title()
	}
	if r.Profitable() {
		d.Status = "Profitable period with " + Percent(r.ProfitMargin(), 1) + " margin"
	}
	return d
}

// Count renders a plain quantity with digit grouping, e.g. "1,234.5".
func (m Money) Count(v float64) string {
	return m.printer.Sprint(number.Decimal(v, number.MaxFractionDigits(2)))
}
