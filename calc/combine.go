package calc

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/jing2uo/pricepanel/model"
)

type recordKey struct {
	date   time.Time
	ticker string
}

// Combine concatenates per-ticker records, sorts them by (date, ticker) and
// rejects duplicate keys. fields is the projected column set.
func Combine(perTicker [][]model.Record, fields []model.Field) (model.CanonicalTable, error) {
	total := 0
	for _, rs := range perTicker {
		total += len(rs)
	}

	records := make([]model.Record, 0, total)
	for _, rs := range perTicker {
		records = append(records, rs...)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.Before(records[j].Date)
		}
		return records[i].Ticker < records[j].Ticker
	})

	seen := make(map[recordKey]struct{}, len(records))
	for _, r := range records {
		k := recordKey{date: r.Date, ticker: r.Ticker}
		if _, dup := seen[k]; dup {
			return model.CanonicalTable{}, fmt.Errorf("duplicate key (%s, %s)", r.Date.Format(model.DateLayout), r.Ticker)
		}
		seen[k] = struct{}{}
	}

	return model.CanonicalTable{Fields: fields, Records: records}, nil
}

// Pivot derives the wide table: one row per date, one column per
// (field, ticker) with fields in table order and tickers ascending.
func Pivot(t model.CanonicalTable) model.WideTable {
	tickers := t.Tickers()

	keys := make([]model.WideKey, 0, len(t.Fields)*len(tickers))
	col := make(map[model.WideKey]int, cap(keys))
	for _, f := range t.Fields {
		for _, tk := range tickers {
			k := model.WideKey{Field: f, Ticker: tk}
			col[k] = len(keys)
			keys = append(keys, k)
		}
	}

	wide := model.WideTable{Keys: keys}
	row := -1
	for _, r := range t.Records {
		if row < 0 || !wide.Dates[row].Equal(r.Date) {
			wide.Dates = append(wide.Dates, r.Date)
			wide.Cells = append(wide.Cells, make([]sql.NullFloat64, len(keys)))
			row++
		}
		for _, f := range t.Fields {
			wide.Cells[row][col[model.WideKey{Field: f, Ticker: r.Ticker}]] = r.Value(f)
		}
	}
	return wide
}

// Manifest summarizes each aligned series in input order. Empty series are
// omitted.
func Manifest(aligned []model.AlignedSeries) []model.ManifestEntry {
	entries := make([]model.ManifestEntry, 0, len(aligned))
	for _, a := range aligned {
		if len(a.Slots) == 0 {
			continue
		}
		entries = append(entries, model.ManifestEntry{
			Ticker:  a.Ticker,
			MinDate: a.Slots[0].Date.Format(model.DateLayout),
			MaxDate: a.Slots[len(a.Slots)-1].Date.Format(model.DateLayout),
			Rows:    int64(len(a.Slots)),
		})
	}
	return entries
}
