package duckdb

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jing2uo/pricepanel/model"
	"github.com/jing2uo/pricepanel/store"
)

func day(n int) time.Time {
	return time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func openMemory(t *testing.T) *DuckDBDriver {
	t.Helper()
	d := NewDriver(model.DBConfig{Type: model.DBTypeDuckDB})
	require.NoError(t, d.Connect())
	t.Cleanup(func() { d.Close() })
	require.NoError(t, d.InitSchema())
	return d
}

func TestInitSchemaIsRepeatable(t *testing.T) {
	d := openMemory(t)
	assert.NoError(t, d.InitSchema())

	s, err := d.Summary(model.TableRawPrices.TableName)
	require.NoError(t, err)
	assert.Equal(t, int64(0), s.RowCount)
	assert.False(t, s.MinDate.Valid)
}

func TestImportRaw(t *testing.T) {
	d := openMemory(t)
	dir := t.TempDir()

	var paths []string
	for _, tk := range []string{"A", "B"} {
		s := model.Series{Ticker: tk}
		for i := 0; i < 3; i++ {
			s.Bars = append(s.Bars, model.Bar{
				Date:   day(i),
				Open:   model.Float(1),
				High:   model.Float(2),
				Low:    model.Float(0.5),
				Close:  model.Float(1.5),
				Volume: model.Int(100),
			})
		}
		path, err := store.WriteRaw(dir, s)
		require.NoError(t, err)
		paths = append(paths, path)
	}

	require.NoError(t, d.ImportRaw(paths))
	// 重复导入不累积
	require.NoError(t, d.ImportRaw(paths))

	s, err := d.Summary(model.TableRawPrices.TableName)
	require.NoError(t, err)
	assert.Equal(t, int64(6), s.RowCount)
	assert.True(t, s.MinDate.Time.Equal(day(0)))
	assert.True(t, s.MaxDate.Time.Equal(day(2)))

	var tickers []string
	require.NoError(t, d.db.Select(&tickers, "SELECT DISTINCT ticker FROM raw_prices ORDER BY ticker"))
	assert.Equal(t, []string{"A", "B"}, tickers)

	var nulls int
	require.NoError(t, d.db.Get(&nulls, "SELECT COUNT(*) FROM raw_prices WHERE adj_close IS NULL"))
	assert.Equal(t, 6, nulls)
}

func TestImportFrameAndManifest(t *testing.T) {
	d := openMemory(t)
	path := filepath.Join(t.TempDir(), store.LongFile)

	records := []model.Record{
		{Date: day(0), Ticker: "A", Slot: model.Slot{Kind: model.SlotReal, Bar: model.Bar{Close: model.Float(10)}}},
		{Date: day(1), Ticker: "A", Slot: model.Slot{Kind: model.SlotReal, Bar: model.Bar{Close: model.Float(11)}}, Ret1D: model.Float(0.1)},
	}
	table := model.CanonicalTable{Fields: []model.Field{model.FieldClose, model.FieldRet1D}, Records: records}
	require.NoError(t, store.WriteLong(path, table))
	require.NoError(t, d.ImportFrame(model.TableLong, path))

	s, err := d.Summary(model.TableLong)
	require.NoError(t, err)
	assert.Equal(t, int64(2), s.RowCount)

	var rets []float64
	require.NoError(t, d.db.Select(&rets, "SELECT ret_1d FROM prices_daily WHERE ret_1d IS NOT NULL"))
	require.Len(t, rets, 1)
	assert.InDelta(t, 0.1, rets[0], 1e-12)

	entries := []model.ManifestEntry{
		{Ticker: "A", MinDate: "2024-01-01", MaxDate: "2024-01-02", Rows: 2},
		{Ticker: "B", MinDate: "2024-01-02", MaxDate: "2024-01-02", Rows: 1},
	}
	require.NoError(t, d.ImportManifest(entries))
	require.NoError(t, d.ImportManifest(entries))

	var got []struct {
		Ticker string    `db:"ticker"`
		Min    time.Time `db:"min_date"`
		Max    time.Time `db:"max_date"`
		Rows   int64     `db:"rows"`
	}
	require.NoError(t, d.db.Select(&got, "SELECT * FROM "+model.TableManifest.TableName+" WHERE ticker = ?", "B"))
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].Rows)
	assert.True(t, got[0].Min.Equal(day(1)))
}

func TestImportRawEmpty(t *testing.T) {
	d := openMemory(t)
	require.NoError(t, d.ImportRaw(nil))

	s, err := d.Summary(model.TableRawPrices.TableName)
	require.NoError(t, err)
	assert.Equal(t, int64(0), s.RowCount)
}

func TestQuotePath(t *testing.T) {
	assert.Equal(t, "'it''s/*.parquet'", quotePath("it's/*.parquet"))
}
