package calc

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jing2uo/pricepanel/model"
)

// SessionSource lists the trading sessions of an exchange.
type SessionSource interface {
	Sessions(ctx context.Context, id string, start, end time.Time) ([]time.Time, error)
}

// CalendarBuilder produces the shared date axis.
type CalendarBuilder struct {
	Sessions SessionSource
}

// GlobalRange returns the earliest and latest date over all series.
func GlobalRange(series []model.Series) (start, end time.Time, ok bool) {
	for _, s := range series {
		first, last, has := s.DateRange()
		if !has {
			continue
		}
		if !ok || first.Before(start) {
			start = first
		}
		if !ok || last.After(end) {
			end = last
		}
		ok = true
	}
	return start, end, ok
}

// Build returns a strictly increasing, deduplicated calendar for the policy.
func (b CalendarBuilder) Build(ctx context.Context, policy model.CalendarPolicy, series []model.Series) ([]time.Time, error) {
	start, end, ok := GlobalRange(series)

	switch p := policy.(type) {
	case model.UnionPolicy:
		var dates []time.Time
		for _, s := range series {
			for _, bar := range s.Bars {
				dates = append(dates, bar.Date)
			}
		}
		return normalizeDates(dates), nil

	case model.FixedPolicy:
		if !ok {
			return nil, nil
		}
		return FixedGrid(p.Freq, start, end)

	case model.ExchangePolicy:
		if b.Sessions == nil {
			return nil, &model.UnsupportedCalendarError{Calendar: p.ID, Reason: "no exchange session source available"}
		}
		if !ok {
			return nil, nil
		}
		sessions, err := b.Sessions.Sessions(ctx, p.ID, start, end)
		if err != nil {
			return nil, err
		}
		return normalizeDates(sessions), nil

	default:
		return nil, fmt.Errorf("unknown calendar policy %T", policy)
	}
}

// FixedGrid 生成 [start, end] 区间内的固定频率日期
func FixedGrid(freq model.Frequency, start, end time.Time) ([]time.Time, error) {
	start, end = model.Date(start), model.Date(end)
	if end.Before(start) {
		return nil, nil
	}

	var keep func(d time.Time) bool
	switch freq {
	case model.FreqDaily:
		keep = func(time.Time) bool { return true }
	case model.FreqBusinessDay, model.FreqCustomBusinessDay:
		keep = isWeekday
	case model.FreqWeekly:
		keep = func(d time.Time) bool { return d.Weekday() == time.Sunday }
	case model.FreqMonthEnd:
		keep = func(d time.Time) bool { return d.Equal(monthEnd(d)) }
	case model.FreqBusinessMonthEnd:
		keep = func(d time.Time) bool { return d.Equal(businessMonthEnd(d)) }
	default:
		return nil, fmt.Errorf("unsupported frequency %q", freq)
	}

	var out []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out, nil
}

func isWeekday(d time.Time) bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

func monthEnd(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month()+1, 0, 0, 0, 0, 0, time.UTC)
}

func businessMonthEnd(d time.Time) time.Time {
	e := monthEnd(d)
	for !isWeekday(e) {
		e = e.AddDate(0, 0, -1)
	}
	return e
}

func normalizeDates(dates []time.Time) []time.Time {
	if len(dates) == 0 {
		return nil
	}
	norm := make([]time.Time, len(dates))
	for i, d := range dates {
		norm[i] = model.Date(d)
	}
	sort.Slice(norm, func(i, j int) bool { return norm[i].Before(norm[j]) })

	out := norm[:1]
	for _, d := range norm[1:] {
		if !d.Equal(out[len(out)-1]) {
			out = append(out, d)
		}
	}
	return out
}
