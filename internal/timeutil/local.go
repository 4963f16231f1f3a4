package timeutil

import (
	"time"
)

// Local is the business timezone used for receipts and date filters
var Local = defaultLocation()

func defaultLocation() *time.Location {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// Fallback: create fixed zone if Asia/Kolkata not available
		return time.FixedZone("IST", 5*60*60+30*60)
	}
	return loc
}

// SetLocation switches the business timezone. Call once at startup.
func SetLocation(name string) error {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return err
	}
	Local = loc
	return nil
}

// Now returns the current time in the business timezone
func Now() time.Time {
	return time.Now().In(Local)
}

// Format formats a time in the business timezone using the given layout
func Format(t time.Time, layout string) string {
	return t.In(Local).Format(layout)
}

// ParseDate parses a DateLayout day and returns its start in the business timezone
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, Local)
}

// StartOfDay returns the start of day (00:00:00) in the business timezone
func StartOfDay(t time.Time) time.Time {
	l := t.In(Local)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, Local)
}

// Common layouts
const (
	DateLayout    = "2006-01-02"
	DisplayLayout = "02 Jan 2006, 03:04 PM"
)
