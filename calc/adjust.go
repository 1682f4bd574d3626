package calc

import (
	"database/sql"
	"math"

	"github.com/jing2uo/pricepanel/model"
)

// AdjustFactor 复权因子 = adj_close / close
// close 为 0 或缺失、adj_close 缺失、比值非正时返回 1.0
func AdjustFactor(b model.Bar) float64 {
	if !b.Close.Valid || !b.AdjClose.Valid || b.Close.Float64 == 0 {
		return 1.0
	}
	f := b.AdjClose.Float64 / b.Close.Float64
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 1.0
	}
	return f
}

// Adjust applies the per-bar factor: prices are multiplied, volume is divided
// and rounded. A series without any adj_close passes through unchanged.
func Adjust(s model.Series) model.Series {
	out := model.Series{Ticker: s.Ticker, Bars: make([]model.Bar, len(s.Bars))}
	if !s.HasAdjClose() {
		copy(out.Bars, s.Bars)
		return out
	}

	for i, b := range s.Bars {
		f := AdjustFactor(b)
		adj := b
		adj.Open = scale(b.Open, f)
		adj.High = scale(b.High, f)
		adj.Low = scale(b.Low, f)
		adj.Close = scale(b.Close, f)
		if b.Volume.Valid {
			adj.Volume = model.Int(clampVolume(math.Round(float64(b.Volume.Int64) / f)))
		}
		out.Bars[i] = adj
	}
	return out
}

// clampVolume converts v to an int64 within [0, MaxInt64].
func clampVolume(v float64) int64 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= math.MaxInt64:
		return math.MaxInt64
	}
	return int64(v)
}

func scale(v sql.NullFloat64, f float64) sql.NullFloat64 {
	if !v.Valid {
		return v
	}
	return model.Float(v.Float64 * f)
}
