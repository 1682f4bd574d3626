package calc

import (
	"time"

	"github.com/jing2uo/pricepanel/model"
)

func day(n int) time.Time {
	return time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func days(ns ...int) []time.Time {
	out := make([]time.Time, len(ns))
	for i, n := range ns {
		out[i] = day(n)
	}
	return out
}

func bar(d time.Time, close float64) model.Bar {
	return model.Bar{
		Date:     d,
		Open:     model.Float(close - 1),
		High:     model.Float(close + 1),
		Low:      model.Float(close - 2),
		Close:    model.Float(close),
		AdjClose: model.Float(close),
		Volume:   model.Int(1000),
	}
}

func series(ticker string, ns ...int) model.Series {
	s := model.Series{Ticker: ticker}
	for _, n := range ns {
		s.Bars = append(s.Bars, bar(day(n), 100+float64(n)))
	}
	return s
}
