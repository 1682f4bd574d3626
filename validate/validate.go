package validate

import (
	"database/sql"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jing2uo/pricepanel/model"
	"github.com/jing2uo/pricepanel/store"
	"github.com/jing2uo/pricepanel/utils"
)

const (
	DefaultPath  = "data/processed/prices_daily.parquet"
	MaxNullShare = 0.02
)

var keySchema = []string{"date", "ticker"}

// Report is the outcome of a passing validation.
type Report struct {
	Path    string
	MinDate time.Time
	MaxDate time.Time
	Rows    int
}

func (r Report) String() string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("[OK] %s looks sane. Range: %s → %s, rows=%d",
		r.Path, formatDate(r.MinDate), formatDate(r.MaxDate), r.Rows)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(model.DateLayout)
}

// File reads the long table at path and validates it.
func File(path string) (Report, error) {
	if err := utils.CheckFile(path); err != nil {
		return Report{}, err
	}
	f, err := store.ReadFrame(path)
	if err != nil {
		return Report{}, err
	}
	r, err := Frame(f)
	r.Path = path
	return r, err
}

// Frame runs the checks in order and stops at the first failure, which is
// returned as a *model.ValidationError.
func Frame(f *store.Frame) (Report, error) {
	for _, check := range []func(*store.Frame) error{
		checkKeySchema,
		checkUniqueKeys,
		checkMonotonicDates,
		checkNullShare,
		checkValueRange,
	} {
		if err := check(f); err != nil {
			return Report{}, err
		}
	}

	r := Report{Rows: f.NumRows}
	for _, d := range f.Dates["date"] {
		if r.MinDate.IsZero() || d.Before(r.MinDate) {
			r.MinDate = d
		}
		if d.After(r.MaxDate) {
			r.MaxDate = d
		}
	}
	return r, nil
}

func checkKeySchema(f *store.Frame) error {
	_, hasDate := f.Dates["date"]
	_, hasTicker := f.Strings["ticker"]
	if slices.Equal(f.KeyColumns, keySchema) && hasDate && hasTicker {
		return nil
	}
	return &model.ValidationError{
		Check:   model.CheckKeySchema,
		Message: fmt.Sprintf("Index should be %s, got %s", quoteList(keySchema), quoteList(f.KeyColumns)),
	}
}

func checkUniqueKeys(f *store.Frame) error {
	dates, tickers := f.Dates["date"], f.Strings["ticker"]
	type key struct {
		d time.Time
		t string
	}
	seen := make(map[key]struct{}, len(dates))
	dups := 0
	for i := range dates {
		k := key{dates[i], tickers[i]}
		if _, ok := seen[k]; ok {
			dups++
			continue
		}
		seen[k] = struct{}{}
	}
	if dups == 0 {
		return nil
	}
	return &model.ValidationError{
		Check:    model.CheckUniqueKeys,
		Measured: float64(dups),
		Message:  "Duplicate (date,ticker) rows found",
	}
}

func checkMonotonicDates(f *store.Frame) error {
	dates, tickers := f.Dates["date"], f.Strings["ticker"]
	last := make(map[string]time.Time)
	for i := range dates {
		prev, ok := last[tickers[i]]
		if ok && !dates[i].After(prev) {
			return &model.ValidationError{
				Check:   model.CheckMonotonicDates,
				Field:   tickers[i],
				Message: "Dates not monotonic within at least one ticker",
			}
		}
		last[tickers[i]] = dates[i]
	}
	return nil
}

func checkNullShare(f *store.Frame) error {
	if f.NumRows == 0 {
		return nil
	}
	for _, field := range model.CriticalFields {
		values, ok := f.Values[string(field)]
		if !ok {
			continue
		}
		nulls := 0
		for _, v := range values {
			if missing(v) {
				nulls++
			}
		}
		share := float64(nulls) / float64(f.NumRows)
		if share > MaxNullShare {
			return &model.ValidationError{
				Check:    model.CheckNullShare,
				Field:    string(field),
				Measured: share,
				Message:  fmt.Sprintf("Too many NaNs in %s: %.2f%%", field, share*100),
			}
		}
	}
	return nil
}

func checkValueRange(f *store.Frame) error {
	bad := 0
	for _, v := range f.Values[string(model.FieldClose)] {
		if !missing(v) && v.Float64 <= 0 {
			bad++
		}
	}
	if bad > 0 {
		return &model.ValidationError{
			Check:    model.CheckValueRange,
			Field:    string(model.FieldClose),
			Measured: float64(bad),
			Message:  "Non-positive prices found",
		}
	}

	for _, v := range f.Values[string(model.FieldVolume)] {
		if !missing(v) && v.Float64 < 0 {
			bad++
		}
	}
	if bad > 0 {
		return &model.ValidationError{
			Check:    model.CheckValueRange,
			Field:    string(model.FieldVolume),
			Measured: float64(bad),
			Message:  "Negative volumes found",
		}
	}
	return nil
}

// missing reports a null or NaN cell.
func missing(v sql.NullFloat64) bool {
	return !v.Valid || math.IsNaN(v.Float64)
}

func quoteList(s []string) string {
	quoted := make([]string, len(s))
	for i, v := range s {
		quoted[i] = "'" + v + "'"
	}
	return "[" + strings.Join(quoted, ",") + "]"
}
