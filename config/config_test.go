package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jing2uo/pricepanel/model"
)

const minimal = `
tickers: [AAA, BBB]
paths:
  raw: data/raw
  processed: data/processed
`

func TestParseDefaults(t *testing.T) {
	s, err := Parse([]byte(minimal))
	require.NoError(t, err)

	assert.Equal(t, []string{"AAA", "BBB"}, s.Tickers)
	assert.Equal(t, "1d", s.Interval)
	assert.Equal(t, "B", s.Calendar)
	assert.Equal(t, 5, s.Limit())
	assert.Equal(t, runtime.NumCPU(), s.Workers)
	assert.Equal(t, "yahoo", s.Provider.Name)
	assert.Equal(t, 30*time.Second, s.Provider.Timeout)
	assert.Equal(t, model.FixedPolicy{Freq: model.FreqBusinessDay}, s.CalendarPolicy())
	assert.Equal(t, model.AllFields, s.Fields())
}

func TestParseFull(t *testing.T) {
	s, err := Parse([]byte(`
tickers: [AAA]
start: "2020-01-01"
end: "2020-12-31"
calendar: auto
ffill_limit: 0
columns: [Close, VOLUME]
paths: {raw: r, processed: p, database: db.duckdb}
provider: {name: csv, dir: fixtures, timeout: 5s}
`))
	require.NoError(t, err)

	assert.Equal(t, 0, s.Limit())
	assert.Equal(t, model.UnionPolicy{}, s.CalendarPolicy())
	assert.Equal(t, []model.Field{model.FieldClose, model.FieldVolume}, s.Fields())
	assert.Equal(t, 5*time.Second, s.Provider.Timeout)

	start, end, err := s.DateRange()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC), end)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no tickers", "paths: {raw: r, processed: p}"},
		{"no paths", "tickers: [A]"},
		{"negative ffill", "tickers: [A]\nffill_limit: -1\npaths: {raw: r, processed: p}"},
		{"bad date", "tickers: [A]\nstart: 2020/01/01\npaths: {raw: r, processed: p}"},
		{"end before start", "tickers: [A]\nstart: '2021-01-01'\nend: '2020-01-01'\npaths: {raw: r, processed: p}"},
		{"duplicate ticker", "tickers: [A, A]\npaths: {raw: r, processed: p}"},
		{"unknown columns", "tickers: [A]\ncolumns: [foo]\npaths: {raw: r, processed: p}"},
		{"csv without dir", "tickers: [A]\nprovider: {name: csv}\npaths: {raw: r, processed: p}"},
		{"unknown provider", "tickers: [A]\nprovider: {name: bloomberg}\npaths: {raw: r, processed: p}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestEnvOverlay(t *testing.T) {
	t.Setenv("PRICEPANEL_LOG_LEVEL", "debug")
	t.Setenv("PRICEPANEL_FFILL_LIMIT", "2")
	t.Setenv("PRICEPANEL_PATHS_DATABASE", "out.duckdb")
	t.Setenv("PRICEPANEL_TICKERS", "X,Y")

	s, err := Parse([]byte(minimal))
	require.NoError(t, err)
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, 2, s.Limit())
	assert.Equal(t, "out.duckdb", s.Paths.Database)
	assert.Equal(t, []string{"X", "Y"}, s.Tickers)
}

func TestLoad(t *testing.T) {
	p := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(p, []byte(minimal), 0o644))

	s, err := Load(p)
	require.NoError(t, err)
	assert.Len(t, s.Tickers, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadShippedSettings(t *testing.T) {
	s, err := Load("settings.yaml")
	require.NoError(t, err)
	assert.Equal(t, "data/processed", s.Paths.Processed)
	assert.Len(t, s.Fields(), len(model.AllFields))
}
