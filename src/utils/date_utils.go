package utils

import (
	"fmt"
	"time"
)

const (
	// DayMonthYearFormat is what the airbnb export uses for stay dates.
	DayMonthYearFormat = "02-01-2006"
	// ISODateFormat is used by the booking and direct exports, and is the
	// storage format for all ledger dates.
	ISODateFormat = "2006-01-02"
)

// ParseDayMonthYear parses a dd-mm-yyyy date string.
func ParseDayMonthYear(dateStr string) (time.Time, error) {
	t, err := time.Parse(DayMonthYearFormat, dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid dd-mm-yyyy date %q: %w", dateStr, err)
	}
	return t, nil
}

// ParseISODate parses a yyyy-mm-dd date string.
func ParseISODate(dateStr string) (time.Time, error) {
	t, err := time.Parse(ISODateFormat, dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid yyyy-mm-dd date %q: %w", dateStr, err)
	}
	return t, nil
}

// FormatISODate renders a date in the ledger storage format. The zero time
// renders as the empty string so optional dates stay empty in the DB.
func FormatISODate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(ISODateFormat)
}
