package provider

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jing2uo/pricepanel/model"
)

// CSVDir reads <dir>/<TICKER>.csv with a date,open,high,low,close[,adj_close],volume
// header. Empty or unparsable cells are missing values.
type CSVDir struct {
	dir string
}

func NewCSVDir(dir string) *CSVDir {
	return &CSVDir{dir: dir}
}

func (c *CSVDir) Name() string { return "csv" }

func (c *CSVDir) Fetch(ctx context.Context, req Request) (model.Series, error) {
	if err := ctx.Err(); err != nil {
		return model.Series{}, err
	}

	path := filepath.Join(c.dir, req.Ticker+".csv")
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return model.Series{}, &model.NoDataError{Ticker: req.Ticker}
	}
	if err != nil {
		return model.Series{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	bars, err := decodeCSV(f)
	if err != nil {
		return model.Series{}, fmt.Errorf("%s: %w", path, err)
	}
	return finish(req, bars)
}

func decodeCSV(r io.Reader) ([]model.Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	dateCol, ok := idx["date"]
	if !ok {
		return nil, fmt.Errorf("missing date column")
	}
	if _, ok := idx["close"]; !ok {
		return nil, fmt.Errorf("missing close column")
	}

	cell := func(rec []string, name string) (string, bool) {
		i, ok := idx[name]
		if !ok || i >= len(rec) {
			return "", false
		}
		return strings.TrimSpace(rec[i]), true
	}
	num := func(rec []string, name string) sql.NullFloat64 {
		s, ok := cell(rec, name)
		if !ok || s == "" {
			return sql.NullFloat64{}
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return sql.NullFloat64{}
		}
		return model.Float(v)
	}

	var bars []model.Bar
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if dateCol >= len(rec) {
			return nil, fmt.Errorf("line %d: missing date", line)
		}
		d, err := time.Parse(model.DateLayout, strings.TrimSpace(rec[dateCol]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid date %q", line, rec[dateCol])
		}

		b := model.Bar{
			Date:     d,
			Open:     num(rec, "open"),
			High:     num(rec, "high"),
			Low:      num(rec, "low"),
			Close:    num(rec, "close"),
			AdjClose: num(rec, "adj_close"),
		}
		if v := num(rec, "volume"); v.Valid && v.Float64 < math.MaxInt64 && v.Float64 > math.MinInt64 {
			b.Volume = model.Int(int64(v.Float64))
		}
		bars = append(bars, b)
	}
	return bars, nil
}
