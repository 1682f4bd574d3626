package model

import (
	"database/sql"
	"fmt"
	"strings"
)

// Field names a value column of the long table.
type Field string

const (
	FieldOpen     Field = "open"
	FieldHigh     Field = "high"
	FieldLow      Field = "low"
	FieldClose    Field = "close"
	FieldAdjClose Field = "adj_close"
	FieldVolume   Field = "volume"
	FieldRet1D    Field = "ret_1d"
)

// AllFields is the default long-table column order.
var AllFields = []Field{FieldOpen, FieldHigh, FieldLow, FieldClose, FieldAdjClose, FieldVolume, FieldRet1D}

// CriticalFields are subject to the null-share check.
var CriticalFields = []Field{FieldOpen, FieldHigh, FieldLow, FieldClose, FieldAdjClose, FieldVolume}

func (f Field) IsInteger() bool { return f == FieldVolume }

func (f Field) Known() bool {
	for _, k := range AllFields {
		if k == f {
			return true
		}
	}
	return false
}

// ParseFields lower-cases names and keeps the known ones in caller order.
// An empty input selects AllFields.
func ParseFields(names []string) []Field {
	if len(names) == 0 {
		return AllFields
	}
	seen := make(map[Field]bool, len(names))
	var out []Field
	for _, n := range names {
		f := Field(strings.ToLower(strings.TrimSpace(n)))
		if !f.Known() || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// Value returns field f of the record as a float. Volume is widened.
func (r Record) Value(f Field) sql.NullFloat64 {
	b := r.Slot.Bar
	switch f {
	case FieldOpen:
		return b.Open
	case FieldHigh:
		return b.High
	case FieldLow:
		return b.Low
	case FieldClose:
		return b.Close
	case FieldAdjClose:
		return b.AdjClose
	case FieldVolume:
		return sql.NullFloat64{Float64: float64(b.Volume.Int64), Valid: b.Volume.Valid}
	case FieldRet1D:
		return r.Ret1D
	}
	return sql.NullFloat64{}
}

// WideKey identifies one column of the wide table.
type WideKey struct {
	Field  Field
	Ticker string
}

// Name is the flat column name used at the storage boundary.
func (k WideKey) Name() string {
	return fmt.Sprintf("%s_%s", k.Field, k.Ticker)
}
