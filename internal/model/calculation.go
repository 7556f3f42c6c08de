// Package model defines the data types shared across roomtally packages.
package model

// DateLayout is the storage format of CalculationRecord.Date.
const DateLayout = "2006-01-02"

// CalculationRecord is one recorded daily total. Records are snapshots:
// editing rooms or budgets later never changes them.
type CalculationRecord struct {
	Total float64 `json:"total"`
	Date  string  `json:"date"` // YYYY-MM-DD
	ID    string  `json:"id,omitempty"`
}

// MonthTotal is one point of the monthly revenue series.
type MonthTotal struct {
	Month string  `json:"month"` // "Jan 2006"
	Total float64 `json:"total"`
}

// MonthSummary holds the records of one calendar month and their total.
type MonthSummary struct {
	Month   string              `json:"month"` // "January 2006"
	Records []CalculationRecord `json:"records"`
	Total   float64             `json:"total"`
}
