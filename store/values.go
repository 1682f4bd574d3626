package store

import (
	"database/sql"
	"math"
	"time"

	"github.com/parquet-go/parquet-go"
)

const secondsPerDay = 24 * 60 * 60

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid || math.IsNaN(v.Float64) || math.IsInf(v.Float64, 0) {
		return nil
	}
	f := v.Float64
	return &f
}

func intPtr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

// dateValue encodes a DATE as days since the Unix epoch.
func dateValue(t time.Time) parquet.Value {
	return parquet.Int32Value(int32(t.Unix() / secondsPerDay))
}

func dateFromDays(days int32) time.Time {
	return time.Unix(int64(days)*secondsPerDay, 0).UTC()
}
