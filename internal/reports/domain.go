// Package reports turns the backend's day, period and summary report payloads
// into one canonical shape.
package reports

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/stockdesk/stockdesk/internal/shared"
)

// DateLayout is the ISO date format used by the backend.
const DateLayout = "2006-01-02"

// ErrMalformed is returned when a raw report is not a JSON object.
var ErrMalformed = errors.New("reports: response is not a JSON object")

// Kind selects the raw report shape.
type Kind string

const (
	KindDay     Kind = "day"
	KindPeriod  Kind = "period"
	KindSummary Kind = "summary"
)

// SummaryType is the window of a quick summary.
type SummaryType string

const (
	SummaryDay   SummaryType = "day"
	SummaryWeek  SummaryType = "week"
	SummaryMonth SummaryType = "month"
	SummaryYear  SummaryType = "year"
)

// ParseSummaryType accepts day, week, month or year in any case.
func ParseSummaryType(value string) (SummaryType, error) {
	t := SummaryType(strings.ToLower(strings.TrimSpace(value)))
	switch t {
	case SummaryDay, SummaryWeek, SummaryMonth, SummaryYear:
		return t, nil
	}
	return "", &shared.ValidationError{
		Code:   shared.CodeInvalidSummaryType,
		Fields: map[string]string{"type": value},
	}
}

// Title is the heading shown above a summary.
func (t SummaryType) Title() string {
	switch t {
	case SummaryDay:
		return "Daily Summary"
	case SummaryWeek:
		return "Weekly Summary"
	case SummaryMonth:
		return "Monthly Summary"
	case SummaryYear:
		return "Yearly Summary"
	}
	return "Summary Report"
}

// SummaryBounds returns the inclusive window the backend aggregates for t
// around ref: the day itself, the 7 days ending at ref, the calendar month or
// the calendar year.
func SummaryBounds(t SummaryType, ref time.Time) (time.Time, time.Time) {
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
	switch t {
	case SummaryWeek:
		return day.AddDate(0, 0, -6), day
	case SummaryMonth:
		start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		return start, start.AddDate(0, 1, -1)
	case SummaryYear:
		return time.Date(day.Year(), time.January, 1, 0, 0, 0, 0, day.Location()),
			time.Date(day.Year(), time.December, 31, 0, 0, 0, 0, day.Location())
	}
	return day, day
}

// ParseDate parses an ISO date or fails with invalid-date for field.
func ParseDate(field, value string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, &shared.ValidationError{
			Code:   shared.CodeInvalidDate,
			Fields: map[string]string{field: value},
		}
	}
	return d, nil
}

// ValidatePeriod parses start and end and checks start <= end.
func ValidatePeriod(start, end string) (time.Time, time.Time, error) {
	from, err := ParseDate("start", start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := ParseDate("end", end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, &shared.ValidationError{
			Code:   shared.CodeInvalidRange,
			Fields: map[string]string{"start": start, "end": end},
		}
	}
	return from, to, nil
}

// Report is the canonical report every display surface consumes.
type Report struct {
	Kind      Kind        `json:"kind"`
	Sales     float64     `json:"sales"`
	Purchases float64     `json:"purchases"`
	Profit    float64     `json:"profit"`
	COGS      float64     `json:"cogs"`
	Date      string      `json:"date,omitempty"`
	Start     string      `json:"start,omitempty"`
	End       string      `json:"end,omitempty"`
	Type      SummaryType `json:"type,omitempty"`
}

// Days is the inclusive number of days the report covers. Day reports cover
// one day; reports without parseable bounds report 0.
func (r Report) Days() int {
	if r.Kind == KindDay {
		return 1
	}
	start, err := time.Parse(DateLayout, r.Start)
	if err != nil {
		return 0
	}
	end, err := time.Parse(DateLayout, r.End)
	if err != nil || end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// ProfitMargin is profit as a percentage of sales, 0 without sales.
func (r Report) ProfitMargin() float64 {
	if r.Sales <= 0 {
		return 0
	}
	return r.Profit / r.Sales * 100
}

// PurchaseRatio is purchases as a percentage of sales, 0 without sales.
func (r Report) PurchaseRatio() float64 {
	if r.Sales <= 0 {
		return 0
	}
	return r.Purchases / r.Sales * 100
}

// Profitable reports whether the period closed with a positive profit.
func (r Report) Profitable() bool {
	return r.Profit > 0
}

// Normalize maps a raw backend report of kind into a Report. Missing numeric
// fields default to 0; only a non-object payload is rejected.
func Normalize(kind Kind, raw []byte) (Report, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return Report{}, ErrMalformed
	}

	report := Report{
		Kind:      kind,
		Sales:     toFloat64(fields["sales_total"]),
		Purchases: toFloat64(fields["purchases_total"]),
		Profit:    toFloat64(fields["gross_profit_approx"]),
		COGS:      toFloat64(fields["cogs_approx"]),
	}
	switch kind {
	case KindDay:
		report.Date = toString(fields["date"])
	case KindPeriod:
		report.Start = toString(fields["start"])
		report.End = toString(fields["end"])
	case KindSummary:
		report.Type = SummaryType(toString(fields["type"]))
		report.Start = toString(fields["start"])
		report.End = toString(fields["end"])
	default:
		return Report{}, fmt.Errorf("reports: unknown kind %q", kind)
	}
	return report, nil
}

func toFloat64(v any) float64 {
	switch val := v.(type) {
	case nil:
		return 0
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return 0
		}
		return f
	case float64:
		return val
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
