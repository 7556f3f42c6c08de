// Package pipeline turns calculation history into month views and the
// monthly revenue series.
package pipeline

import (
	"fmt"
	"time"

	"github.com/theirongolddev/roomtally/internal/model"
)

// Display layouts.
const (
	MonthLayout   = "January 2006"
	ChartLayout   = "Jan 2006"
	DisplayLayout = "January 2, 2006"
)

// InvalidDate labels records whose date cannot be parsed.
const InvalidDate = "Invalid date"

// Directions for ShiftMonth.
const (
	Prev = -1
	Next = 1
)

// ParseDate parses a stored record date.
func ParseDate(date string) (time.Time, bool) {
	t, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// MonthLabel formats t as "January 2006".
func MonthLabel(t time.Time) string {
	return t.Format(MonthLayout)
}

// FormatDisplayDate renders a stored date as "January 2, 2006".
func FormatDisplayDate(date string) string {
	t, ok := ParseDate(date)
	if !ok {
		return InvalidDate
	}
	return t.Format(DisplayLayout)
}

func formatDate(date, layout string) string {
	t, ok := ParseDate(date)
	if !ok {
		return InvalidDate
	}
	return t.Format(layout)
}

// FilterByMonth returns the records whose date falls in month
// ("January 2006"), in input order.
func FilterByMonth(records []model.CalculationRecord, month string) []model.CalculationRecord {
	var out []model.CalculationRecord
	for _, r := range records {
		if formatDate(r.Date, MonthLayout) == month {
			out = append(out, r)
		}
	}
	return out
}

// SumTotals adds up record totals; 0 for none.
func SumTotals(records []model.CalculationRecord) float64 {
	var sum float64
	for _, r := range records {
		sum += r.Total
	}
	return sum
}

// GroupByMonth sums totals per "Jan 2006" label. Labels appear in the order
// they are first seen in records; months without records are not filled in.
func GroupByMonth(records []model.CalculationRecord) []model.MonthTotal {
	index := make(map[string]int)
	var out []model.MonthTotal
	for _, r := range records {
		label := formatDate(r.Date, ChartLayout)
		i, ok := index[label]
		if !ok {
			i = len(out)
			index[label] = i
			out = append(out, model.MonthTotal{Month: label})
		}
		out[i].Total += r.Total
	}
	return out
}

// SummarizeMonth filters records (expected in date-sorted order) to month
// and totals them.
func SummarizeMonth(records []model.CalculationRecord, month string) model.MonthSummary {
	filtered := FilterByMonth(records, month)
	if filtered == nil {
		filtered = []model.CalculationRecord{}
	}
	return model.MonthSummary{
		Month:   month,
		Records: filtered,
		Total:   SumTotals(filtered),
	}
}

// ShiftMonth moves a "January 2006" label by delta months, rolling over
// year boundaries.
func ShiftMonth(month string, delta int) (string, error) {
	t, err := time.Parse(MonthLayout, month)
	if err != nil {
		return "", fmt.Errorf("parsing month %q: %w", month, err)
	}
	return MonthLabel(t.AddDate(0, delta, 0)), nil
}

// Grand totals the whole series.
func Grand(series []model.MonthTotal) float64 {
	var sum float64
	for _, m := range series {
		sum += m.Total
	}
	return sum
}

// Peak returns the largest month in the series.
func Peak(series []model.MonthTotal) (model.MonthTotal, bool) {
	if len(series) == 0 {
		return model.MonthTotal{}, false
	}
	best := series[0]
	for _, m := range series[1:] {
		if m.Total > best.Total {
			best = m
		}
	}
	return best, true
}
