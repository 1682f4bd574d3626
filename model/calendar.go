package model

import (
	"fmt"
	"strings"
)

// Frequency is a fixed calendar grid.
type Frequency string

const (
	FreqDaily             Frequency = "D"
	FreqBusinessDay       Frequency = "B"
	FreqCustomBusinessDay Frequency = "C"
	FreqWeekly            Frequency = "W"
	FreqMonthEnd          Frequency = "M"
	FreqBusinessMonthEnd  Frequency = "BM"
)

// CalendarPolicy selects how the shared date axis is built. It is one of
// UnionPolicy, FixedPolicy or ExchangePolicy.
type CalendarPolicy interface {
	fmt.Stringer
	calendarPolicy()
}

// UnionPolicy uses the sorted union of every ticker's observed dates.
type UnionPolicy struct{}

// FixedPolicy uses a regular grid between the global start and end.
type FixedPolicy struct {
	Freq Frequency
}

// ExchangePolicy uses the trading sessions of an exchange.
type ExchangePolicy struct {
	ID string
}

func (UnionPolicy) calendarPolicy()    {}
func (FixedPolicy) calendarPolicy()    {}
func (ExchangePolicy) calendarPolicy() {}

func (UnionPolicy) String() string      { return "AUTO" }
func (p FixedPolicy) String() string    { return string(p.Freq) }
func (p ExchangePolicy) String() string { return p.ID }

// ParseCalendarPolicy maps a configured calendar name to a policy.
// Empty selects business days.
func ParseCalendarPolicy(name string) CalendarPolicy {
	n := strings.ToUpper(strings.TrimSpace(name))
	switch n {
	case "":
		return FixedPolicy{Freq: FreqBusinessDay}
	case "AUTO", "UNION":
		return UnionPolicy{}
	case "D", "B", "C", "W", "M", "BM":
		return FixedPolicy{Freq: Frequency(n)}
	default:
		return ExchangePolicy{ID: n}
	}
}
