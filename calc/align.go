package calc

import (
	"time"

	"github.com/jing2uo/pricepanel/model"
)

// Align reindexes one ticker onto the calendar. A date without a real bar
// copies the last real bar while the run of synthesized dates stays within
// ffillLimit; past the limit the slot is empty. Bars off the calendar are
// dropped. Leading slots before the first resolvable close are trimmed.
func Align(s model.Series, calendar []time.Time, ffillLimit int) model.AlignedSeries {
	byDate := make(map[time.Time]model.Bar, len(s.Bars))
	for _, b := range s.Bars {
		d := model.Date(b.Date)
		if _, dup := byDate[d]; dup {
			continue
		}
		b.Date = d
		byDate[d] = b
	}

	slots := make([]model.Slot, len(calendar))
	var (
		last    model.Bar
		hasLast bool
		run     int
	)
	for i, d := range calendar {
		if b, ok := byDate[d]; ok {
			slots[i] = model.Slot{Bar: b, Kind: model.SlotReal}
			last, hasLast, run = b, true, 0
			continue
		}

		run++
		if hasLast && run <= ffillLimit {
			filled := last
			filled.Date = d
			slots[i] = model.Slot{Bar: filled, Kind: model.SlotFilled}
			continue
		}
		slots[i] = model.Slot{Bar: model.Bar{Date: d}, Kind: model.SlotEmpty}
	}

	first := -1
	for i, slot := range slots {
		if slot.Close.Valid {
			first = i
			break
		}
	}
	if first < 0 {
		return model.AlignedSeries{Ticker: s.Ticker}
	}
	return model.AlignedSeries{Ticker: s.Ticker, Slots: slots[first:]}
}
