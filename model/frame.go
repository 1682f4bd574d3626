package model

import (
	"database/sql"
	"sort"
	"time"
)

// CanonicalTable is the long table keyed by (date, ticker), sorted by date
// then ticker.
type CanonicalTable struct {
	Fields  []Field
	Records []Record
}

// Tickers returns the distinct tickers in ascending order.
func (t CanonicalTable) Tickers() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range t.Records {
		if !seen[r.Ticker] {
			seen[r.Ticker] = true
			out = append(out, r.Ticker)
		}
	}
	sort.Strings(out)
	return out
}

// WideTable has one row per date and one column per (field, ticker).
type WideTable struct {
	Keys  []WideKey
	Dates []time.Time
	// Cells[i][j] is the value of Keys[j] on Dates[i].
	Cells [][]sql.NullFloat64
}

// ManifestEntry summarizes one ticker's post-trim coverage.
type ManifestEntry struct {
	Ticker  string `json:"ticker"   col:"ticker"   db:"ticker"`
	MinDate string `json:"min_date" col:"min_date" db:"min_date" type:"date"`
	MaxDate string `json:"max_date" col:"max_date" db:"max_date" type:"date"`
	Rows    int64  `json:"rows"     col:"rows"     db:"rows"`
}
