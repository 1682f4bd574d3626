package model

import (
	"fmt"
	"strings"
)

// NoDataError means the provider returned nothing for a ticker.
type NoDataError struct {
	Ticker string
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("no data returned for %s", e.Ticker)
}

// UnsupportedCalendarError means an exchange calendar was requested but
// cannot be served.
type UnsupportedCalendarError struct {
	Calendar string
	Reason   string
	// Known is the set of built-in exchange ids, listed in the hint.
	Known []string
}

func (e *UnsupportedCalendarError) Error() string {
	msg := fmt.Sprintf("calendar '%s' is not supported", e.Calendar)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg + ". " + e.Hint()
}

// Hint tells the operator how to make the calendar available.
func (e *UnsupportedCalendarError) Hint() string {
	ids := "a built-in exchange id"
	if len(e.Known) > 0 {
		ids += " (" + strings.Join(e.Known, ", ") + ")"
	}
	return "Use AUTO, one of B/C/D/W/M/BM, " + ids +
		", or add a <ID>.txt session list under exchange.sessions_dir"
}

// ValidationCheck identifies one of the ordered validator checks.
type ValidationCheck int

const (
	CheckKeySchema ValidationCheck = iota + 1
	CheckUniqueKeys
	CheckMonotonicDates
	CheckNullShare
	CheckValueRange
)

func (c ValidationCheck) String() string {
	switch c {
	case CheckKeySchema:
		return "key_schema"
	case CheckUniqueKeys:
		return "unique_keys"
	case CheckMonotonicDates:
		return "monotonic_dates"
	case CheckNullShare:
		return "null_share"
	case CheckValueRange:
		return "value_range"
	default:
		return "unknown"
	}
}

// ValidationError reports the first violated table invariant.
type ValidationError struct {
	Check    ValidationCheck
	Field    string
	Measured float64
	Message  string
}

func (e *ValidationError) Error() string {
	return e.Message
}
