package reports

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockdesk/stockdesk/internal/shared"
)

func TestNormalizeDay(t *testing.T) {
	raw := []byte(`{"sales_total":100,"purchases_total":40,"gross_profit_approx":60,"cogs_approx":40,"date":"2024-01-01"}`)

	report, err := Normalize(KindDay, raw)
	require.NoError(t, err)
	assert.Equal(t, Report{Kind: KindDay, Sales: 100, Purchases: 40, Profit: 60, COGS: 40, Date: "2024-01-01"}, report)
}

func TestNormalizePeriodAndSummary(t *testing.T) {
	period, err := Normalize(KindPeriod, []byte(`{"sales_total":"12.50","start":"2024-01-01","end":"2024-01-31"}`))
	require.NoError(t, err)
	assert.Equal(t, 12.5, period.Sales)
	assert.Equal(t, "2024-01-01", period.Start)
	assert.Equal(t, "2024-01-31", period.End)
	assert.Empty(t, period.Date)

	summary, err := Normalize(KindSummary, []byte(`{"type":"week","start":"2024-01-01","end":"2024-01-07","cogs_approx":3}`))
	require.NoError(t, err)
	assert.Equal(t, SummaryWeek, summary.Type)
	assert.Equal(t, 3.0, summary.COGS)
	assert.Equal(t, 7, summary.Days())
}

func TestNormalizeDefaultsMissingNumbers(t *testing.T) {
	report, err := Normalize(KindDay, []byte(`{"date":"2024-01-01","sales_total":null,"purchases_total":"n/a"}`))
	require.NoError(t, err)
	assert.Zero(t, report.Sales)
	assert.Zero(t, report.Purchases)
	assert.Zero(t, report.Profit)
	assert.Zero(t, report.COGS)
}

func TestNormalizeRejectsNonObject(t *testing.T) {
	for _, raw := range []string{`[1,2]`, `"text"`, `null`, ``, `{`} {
		_, err := Normalize(KindDay, []byte(raw))
		assert.ErrorIs(t, err, ErrMalformed, raw)
	}
}

func TestNormalizeUnknownKind(t *testing.T) {
	_, err := Normalize(Kind("weekly"), []byte(`{}`))
	require.Error(t, err)
}

func TestParseSummaryType(t *testing.T) {
	typ, err := ParseSummaryType(" Month ")
	require.NoError(t, err)
	assert.Equal(t, SummaryMonth, typ)

	_, err = ParseSummaryType("decade")
	assert.True(t, shared.IsValidationCode(err, shared.CodeInvalidSummaryType))
}

func TestSummaryTitles(t *testing.T) {
	assert.Equal(t, "Daily Summary", SummaryDay.Title())
	assert.Equal(t, "Weekly Summary", SummaryWeek.Title())
	assert.Equal(t, "Monthly Summary", SummaryMonth.Title())
	assert.Equal(t, "Yearly Summary", SummaryYear.Title())
	assert.Equal(t, "Summary Report", SummaryType("").Title())
}

func TestSummaryBounds(t *testing.T) {
	ref := time.Date(2024, time.February, 14, 15, 30, 0, 0, time.UTC)
	cases := []struct {
		typ        SummaryType
		start, end string
	}{
		{SummaryDay, "2024-02-14", "2024-02-14"},
		{SummaryWeek, "2024-02-08", "2024-02-14"},
		{SummaryMonth, "2024-02-01", "2024-02-29"},
		{SummaryYear, "2024-01-01", "2024-12-31"},
	}
	for _, tc := range cases {
		start, end := SummaryBounds(tc.typ, ref)
		assert.Equal(t, tc.start, start.Format(DateLayout), tc.typ)
		assert.Equal(t, tc.end, end.Format(DateLayout), tc.typ)
	}

	start, end := SummaryBounds(SummaryMonth, time.Date(2023, time.December, 5, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "2023-12-01", start.Format(DateLayout))
	assert.Equal(t, "2023-12-31", end.Format(DateLayout))
}

func TestValidatePeriod(t *testing.T) {
	start, end, err := ValidatePeriod("2024-01-01", "2024-01-01")
	require.NoError(t, err)
	assert.True(t, start.Equal(end))

	_, _, err = ValidatePeriod("2024-02-01", "2024-01-01")
	assert.True(t, shared.IsValidationCode(err, shared.CodeInvalidRange))
	assert.True(t, errors.Is(err, shared.ErrValidation))

	_, _, err = ValidatePeriod("01/02/2024", "2024-01-01")
	assert.True(t, shared.IsValidationCode(err, shared.CodeInvalidDate))
}

func TestReportDays(t *testing.T) {
	assert.Equal(t, 1, Report{Kind: KindDay}.Days())
	assert.Equal(t, 31, Report{Kind: KindPeriod, Start: "2024-01-01", End: "2024-01-31"}.Days())
	assert.Equal(t, 1, Report{Kind: KindPeriod, Start: "2024-01-01", End: "2024-01-01"}.Days())
	assert.Equal(t, 0, Report{Kind: KindPeriod, Start: "2024-01-02", End: "2024-01-01"}.Days())
	assert.Equal(t, 0, Report{Kind: KindSummary}.Days())
}

func TestRatios(t *testing.T) {
	r := Report{Sales: 200, Purchases: 50, Profit: 25}
	assert.InDelta(t, 12.5, r.ProfitMargin(), 1e-9)
	assert.InDelta(t, 25.0, r.PurchaseRatio(), 1e-9)
	assert.True(t, r.Profitable())

	empty := Report{Profit: -5}
	assert.Zero(t, empty.ProfitMargin())
	assert.Zero(t, empty.PurchaseRatio())
	assert.False(t, empty.Profitable())
}
