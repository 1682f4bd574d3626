package model

import (
	"database/sql"
	"math"
	"time"
)

// DateLayout is the on-disk and console date format.
const DateLayout = "2006-01-02"

// Bar is one daily OHLCV observation. Invalid fields are missing values,
// never zero.
type Bar struct {
	Date     time.Time
	Open     sql.NullFloat64
	High     sql.NullFloat64
	Low      sql.NullFloat64
	Close    sql.NullFloat64
	AdjClose sql.NullFloat64
	Volume   sql.NullInt64
}

// Series is one ticker's bars in ascending date order.
type Series struct {
	Ticker string
	Bars   []Bar
}

// HasAdjClose reports whether any bar carries an adjusted close.
func (s Series) HasAdjClose() bool {
	for _, b := range s.Bars {
		if b.AdjClose.Valid {
			return true
		}
	}
	return false
}

// DateRange returns the first and last bar dates. ok is false for an empty series.
func (s Series) DateRange() (first, last time.Time, ok bool) {
	if len(s.Bars) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return s.Bars[0].Date, s.Bars[len(s.Bars)-1].Date, true
}

type SlotKind uint8

const (
	SlotEmpty SlotKind = iota
	SlotReal
	SlotFilled
)

func (k SlotKind) String() string {
	switch k {
	case SlotReal:
		return "real"
	case SlotFilled:
		return "filled"
	default:
		return "empty"
	}
}

// Slot is one calendar position of an aligned series.
type Slot struct {
	Bar
	Kind SlotKind
}

// AlignedSeries is a ticker's bars reindexed onto the shared calendar,
// with the leading unresolved prefix removed.
type AlignedSeries struct {
	Ticker string
	Slots  []Slot
}

// Filled counts forward-filled slots.
func (a AlignedSeries) Filled() int {
	n := 0
	for _, s := range a.Slots {
		if s.Kind == SlotFilled {
			n++
		}
	}
	return n
}

// Record is one (date, ticker) row of the canonical long table.
type Record struct {
	Date   time.Time
	Ticker string
	Slot   Slot
	Ret1D  sql.NullFloat64
}

// Date normalizes t to a UTC calendar day.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Float wraps v as a present value. NaN and ±Inf are missing.
func Float(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func Int(v int64) sql.NullInt64 { return sql.NullInt64{Int64: v, Valid: true} }
