// Package dates normalizes the date strings found in upstream regulatory
// feeds. Sources disagree on format and precision: the legislation registry
// emits full ISO timestamps, the trade-data APIs emit anything from
// "02/01/2006" to a bare year. A parsed Date keeps its precision so partial
// dates can be rendered faithfully while still sorting consistently against
// full dates.
package dates

import (
	"fmt"
	"strings"
	"time"
)

// Precision records how much of a Date was present in the source string.
type Precision int

const (
	Day Precision = iota
	Month
	Year
)

// Date is a calendar date with day, month or year precision.
type Date struct {
	Year      int
	Month     time.Month
	Day       int
	Precision Precision
}

// Layouts tried for full dates, in order. The first match wins.
var fullLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02/01/2006",
	"2 January 2006",
	"02 January 2006",
	"Jan 2, 2006",
}

var monthLayouts = []string{
	"2006-01",
	"January 2006",
	"Jan 2006",
}

// Parse converts a source date string into a Date. It accepts full dates,
// year-month and year-only values. Empty or unparseable input returns nil;
// parsing never fails loudly because a bad source date must not fail the
// record it belongs to.
func Parse(raw string) *Date {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	for _, layout := range fullLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &Date{Year: t.Year(), Month: t.Month(), Day: t.Day(), Precision: Day}
		}
	}
	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &Date{Year: t.Year(), Month: t.Month(), Precision: Month}
		}
	}
	if t, err := time.Parse("2006", raw); err == nil {
		return &Date{Year: t.Year(), Precision: Year}
	}
	return nil
}

// SortKey renders the date as YYYY-MM-DD for lexicographic ordering.
// Partial dates sort as the first instant of their period: a year-only date
// sorts as January 1st, a year-month as the 1st of that month. Ordering
// between a partial date and a full date inside the same period therefore
// places the partial date first; callers break remaining ties by document id.
func (d *Date) SortKey() string {
	if d == nil {
		return ""
	}
	month := time.January
	day := 1
	switch d.Precision {
	case Day:
		month = d.Month
		day = d.Day
	case Month:
		month = d.Month
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(month), day)
}

// ISO renders the date at its own precision: "2020-03-02" for full dates,
// "2020-03" for year-month, "2020" for year-only. Parse accepts all three
// forms, so ISO round-trips a Date without inventing missing parts.
func (d *Date) ISO() string {
	if d == nil {
		return ""
	}
	switch d.Precision {
	case Day:
		return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
	case Month:
		return fmt.Sprintf("%04d-%02d", d.Year, int(d.Month))
	default:
		return fmt.Sprintf("%04d", d.Year)
	}
}

// Display renders the date in the government style used on document pages:
// "2 March 2020" for full dates, "March 2020" for year-month, "2020" for
// year-only.
func (d *Date) Display() string {
	if d == nil {
		return ""
	}
	switch d.Precision {
	case Day:
		return fmt.Sprintf("%d %s %d", d.Day, d.Month, d.Year)
	case Month:
		return fmt.Sprintf("%s %d", d.Month, d.Year)
	default:
		return fmt.Sprintf("%d", d.Year)
	}
}

// DisplayString parses raw and renders it for display, returning the raw
// string unchanged when it cannot be parsed. Used for source date strings
// retained verbatim alongside their normalized form.
func DisplayString(raw string) string {
	if d := Parse(raw); d != nil {
		return d.Display()
	}
	return raw
}
