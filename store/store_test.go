package store

import (
	"database/sql"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jing2uo/pricepanel/model"
)

func day(n int) time.Time {
	return time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func record(n int, ticker string, close float64) model.Record {
	return model.Record{
		Date:   day(n),
		Ticker: ticker,
		Slot: model.Slot{Kind: model.SlotReal, Bar: model.Bar{
			Date:     day(n),
			Open:     model.Float(close),
			High:     model.Float(close),
			Low:      model.Float(close),
			Close:    model.Float(close),
			AdjClose: model.Float(close),
			Volume:   model.Int(10),
		}},
	}
}

func readRaw(t *testing.T, path string) model.Series {
	t.Helper()
	rows, err := parquet.ReadFile[model.RawRow](path)
	require.NoError(t, err)

	opt := func(p *float64) sql.NullFloat64 {
		if p == nil {
			return sql.NullFloat64{}
		}
		return model.Float(*p)
	}
	var s model.Series
	s.Bars = make([]model.Bar, len(rows))
	for i, r := range rows {
		s.Ticker = r.Ticker
		b := model.Bar{Date: model.Date(r.Date), Open: opt(r.Open), High: opt(r.High), Low: opt(r.Low), Close: opt(r.Close), AdjClose: opt(r.AdjClose)}
		if r.Volume != nil {
			b.Volume = model.Int(*r.Volume)
		}
		s.Bars[i] = b
	}
	return s
}

func TestRawRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := model.Series{Ticker: "AAA", Bars: []model.Bar{
		{Date: day(0), Open: model.Float(1), Close: model.Float(2), AdjClose: model.Float(1.5), Volume: model.Int(100)},
		{Date: day(1), Close: model.Float(3)},
	}}

	path, err := WriteRaw(dir, s)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "AAA.parquet"), path)

	assert.Equal(t, s, readRaw(t, path))
}

func TestRawEscapesTickerSeparators(t *testing.T) {
	dir := t.TempDir()
	s := model.Series{Ticker: "BRK/B", Bars: []model.Bar{{Date: day(0), Close: model.Float(400)}}}

	path, err := WriteRaw(dir, s)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.Equal(t, "BRK%2FB.parquet", filepath.Base(path))
	assert.Equal(t, s, readRaw(t, path))

	assert.Equal(t, "A%5CB.parquet", filepath.Base(rawPath(dir, `A\B`)))
	assert.Equal(t, "BF.B.parquet", filepath.Base(rawPath(dir, "BF.B")))
}

func TestRawWritesNaNAsNull(t *testing.T) {
	dir := t.TempDir()
	s := model.Series{Ticker: "N", Bars: []model.Bar{{
		Date:  day(0),
		Open:  sql.NullFloat64{Float64: math.NaN(), Valid: true},
		Close: model.Float(1),
	}}}
	path, err := WriteRaw(dir, s)
	require.NoError(t, err)
	got := readRaw(t, path)
	assert.False(t, got.Bars[0].Open.Valid)
	assert.InDelta(t, 1.0, got.Bars[0].Close.Float64, 0)
}

func TestLongRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), LongFile)
	r2 := record(1, "AAA", 11)
	r2.Ret1D = model.Float(0.1)
	r3 := record(1, "BBB", 5)
	r3.Slot.Close = sql.NullFloat64{}
	table := model.CanonicalTable{
		Fields:  model.AllFields,
		Records: []model.Record{record(0, "AAA", 10), r2, r3},
	}
	require.NoError(t, WriteLong(path, table))

	f, err := ReadFrame(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"date", "ticker"}, f.KeyColumns)
	assert.Equal(t, []string{"date", "ticker", "open", "high", "low", "close", "adj_close", "volume", "ret_1d"}, f.Columns)
	assert.Equal(t, 3, f.NumRows)
	assert.Equal(t, []time.Time{day(0), day(1), day(1)}, f.Dates["date"])
	assert.Equal(t, []string{"AAA", "AAA", "BBB"}, f.Strings["ticker"])

	closes := f.Values["close"]
	require.Len(t, closes, 3)
	assert.InDelta(t, 11.0, closes[1].Float64, 0)
	assert.False(t, closes[2].Valid)
	assert.InDelta(t, 10.0, f.Values["volume"][0].Float64, 0)
	assert.False(t, f.Values["ret_1d"][0].Valid)
	assert.InDelta(t, 0.1, f.Values["ret_1d"][1].Float64, 1e-12)
	assert.True(t, f.Has("adj_close"))
	assert.False(t, f.Has("amount"))
}

func TestLongProjection(t *testing.T) {
	path := filepath.Join(t.TempDir(), LongFile)
	table := model.CanonicalTable{
		Fields:  []model.Field{model.FieldClose},
		Records: []model.Record{record(0, "AAA", 10)},
	}
	require.NoError(t, WriteLong(path, table))

	f, err := ReadFrame(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"date", "ticker", "close"}, f.Columns)
	assert.False(t, f.Has("open"))
}

func TestWideRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), WideFile)
	wide := model.WideTable{
		Keys: []model.WideKey{
			{Field: model.FieldClose, Ticker: "AAA"},
			{Field: model.FieldClose, Ticker: "BBB"},
			{Field: model.FieldVolume, Ticker: "AAA"},
		},
		Dates: []time.Time{day(0), day(1)},
	}
	wide.Cells = [][]sql.NullFloat64{
		{model.Float(1), {}, model.Float(7)},
		{model.Float(2), model.Float(3), {}},
	}
	require.NoError(t, WriteWide(path, wide))

	f, err := ReadFrame(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"date"}, f.KeyColumns)
	assert.Equal(t, []string{"date", "close_AAA", "close_BBB", "volume_AAA"}, f.Columns)
	assert.False(t, f.Values["close_BBB"][0].Valid)
	assert.InDelta(t, 3.0, f.Values["close_BBB"][1].Float64, 0)
	assert.InDelta(t, 7.0, f.Values["volume_AAA"][0].Float64, 0)
}

func TestWriteReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), LongFile)
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	table := model.CanonicalTable{Fields: model.AllFields, Records: []model.Record{record(0, "AAA", 1)}}
	require.NoError(t, WriteLong(path, table))

	f, err := ReadFrame(path)
	require.NoError(t, err)
	assert.Equal(t, 1, f.NumRows)
}

func TestManifestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ManifestFile)
	entries := []model.ManifestEntry{
		{Ticker: "BBB", MinDate: "2024-01-02", MaxDate: "2024-01-05", Rows: 3},
		{Ticker: "AAA", MinDate: "2024-01-01", MaxDate: "2024-01-05", Rows: 4},
	}
	require.NoError(t, WriteManifest(path, entries))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"min_date": "2024-01-02"`)
	assert.Contains(t, string(data), `"rows": 3`)

	got, err := ReadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}

func TestManifestEmptyIsArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), ManifestFile)
	require.NoError(t, WriteManifest(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}
