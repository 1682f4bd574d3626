package store

import (
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/jing2uo/pricepanel/model"
	"github.com/jing2uo/pricepanel/utils"
)

// rawPath is the raw artifact of one ticker. Path separators in the ticker
// are escaped so BRK/B stays a single file in dir.
func rawPath(dir, ticker string) string {
	return filepath.Join(dir, url.PathEscape(ticker)+".parquet")
}

// WriteRaw replaces <dir>/<ticker>.parquet with the fetched bars.
func WriteRaw(dir string, s model.Series) (string, error) {
	path := rawPath(dir, s.Ticker)
	w, err := utils.NewParquetWriter[model.RawRow](path)
	if err != nil {
		return "", err
	}

	rows := make([]model.RawRow, len(s.Bars))
	for i, b := range s.Bars {
		rows[i] = toRawRow(s.Ticker, b)
	}
	if err := w.Write(rows); err != nil {
		w.Abort()
		return "", fmt.Errorf("failed to write raw %s: %w", s.Ticker, err)
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return path, nil
}

func toRawRow(ticker string, b model.Bar) model.RawRow {
	return model.RawRow{
		Ticker:   ticker,
		Date:     b.Date,
		Open:     floatPtr(b.Open),
		High:     floatPtr(b.High),
		Low:      floatPtr(b.Low),
		Close:    floatPtr(b.Close),
		AdjClose: floatPtr(b.AdjClose),
		Volume:   intPtr(b.Volume),
	}
}
