package calc

import (
	"database/sql"

	"github.com/jing2uo/pricepanel/model"
)

// Returns tags each aligned slot with its ticker and the one-period return
// against the immediately preceding slot. The first row, a missing close on
// either side or a zero previous close leave ret_1d undefined.
func Returns(a model.AlignedSeries) []model.Record {
	records := make([]model.Record, len(a.Slots))
	for i, slot := range a.Slots {
		records[i] = model.Record{Date: slot.Date, Ticker: a.Ticker, Slot: slot}
		if i == 0 {
			continue
		}
		records[i].Ret1D = pctChange(a.Slots[i-1].Close, slot.Close)
	}
	return records
}

func pctChange(prev, cur sql.NullFloat64) sql.NullFloat64 {
	if !prev.Valid || !cur.Valid || prev.Float64 == 0 {
		return sql.NullFloat64{}
	}
	return model.Float(cur.Float64/prev.Float64 - 1)
}
