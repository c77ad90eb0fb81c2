// Package date provides a day-granularity Date type used throughout the
// ledger instead of time.Time, plus a chronological History series and a
// closed date Range.
package date

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateFormat is the canonical ISO-8601 representation used for storage and display.
const DateFormat = "2006-01-02"

// readDateFormat is more permissive on read, accepting single-digit month/day.
const readDateFormat = "2006-1-2"

// Day is the duration of one calendar day, for callers that need a time.Duration.
const Day = 24 * time.Hour

// Date represents a calendar date with day-level granularity, canonicalized to UTC.
type Date struct {
	y int
	m time.Month
	d int
}

// New returns a normalized Date for the given year, month and day. Overflowing
// days/months roll over the way time.Date does (e.g. month 0 is December of
// the previous year), which lets callers compute "N months ago" by arithmetic.
func New(year int, month time.Month, day int) Date {
	d := Date{year, month, day}
	d.y, d.m, d.d = d.time().Date()
	return d
}

// Today returns the current date in UTC.
func Today() Date { return New(time.Now().UTC().Date()) }

func (d Date) time() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }

// Year returns the year component.
func (d Date) Year() int { return d.y }

// Month returns the month component.
func (d Date) Month() time.Month { return d.m }

// Day returns the day-of-month component.
func (d Date) Day() int { return d.d }

// Weekday returns the day of the week.
func (d Date) Weekday() time.Weekday { return d.time().Weekday() }

// Before reports whether d is strictly before x.
func (d Date) Before(x Date) bool { return d.time().Before(x.time()) }

// After reports whether d is strictly after x.
func (d Date) After(x Date) bool { return d.time().After(x.time()) }

// Add returns a new Date with the given number of days added (may be negative).
func (d Date) Add(days int) Date { return New(d.y, d.m, d.d+days) }

// AddMonths returns a new Date with the given number of months added.
func (d Date) AddMonths(months int) Date { return New(d.y, d.m+time.Month(months), d.d) }

// AddYears returns a new Date with the given number of years added.
func (d Date) AddYears(years int) Date { return New(d.y+years, d.m, d.d) }

// Sub returns the number of days between d and x (d - x), positive if d is after x.
func (d Date) Sub(x Date) int {
	return int(d.time().Sub(x.time()) / Day)
}

// Format renders the date using a time.Format layout.
func (d Date) Format(layout string) string { return d.time().Format(layout) }

// String renders the date in DateFormat.
func (d Date) String() string { return d.time().Format(DateFormat) }

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool { return d == Date{} }

// Parse parses a Date from a string in (at least) ISO-8601 form, permissively
// accepting single-digit month/day (e.g. "2026-7-1").
func Parse(str string) (Date, error) {
	on, err := time.Parse(readDateFormat, str)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, want format %q: %w", str, DateFormat, err)
	}
	return New(on.Date()), nil
}

// MustParse is like Parse but panics on error; useful for tests and constants.
func MustParse(str string) Date {
	d, err := Parse(str)
	if err != nil {
		panic(err.Error())
	}
	return d
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	on, err := Parse(str)
	if err != nil {
		return err
	}
	*d = on
	return nil
}

var (
	_ json.Marshaler   = Date{}
	_ json.Unmarshaler = (*Date)(nil)
)

// Range represents a closed, inclusive range of dates [From, To].
type Range struct{ From, To Date }

// Contains reports whether on falls within the range, boundaries included.
func (r Range) Contains(on Date) bool { return !on.Before(r.From) && !on.After(r.To) }

// Days returns the number of days spanned by the range (To - From), the
// denominator used by Modified Dietz weighting.
func (r Range) Days() int { return r.To.Sub(r.From) }

// YearRange returns the [Jan 1, Dec 31] range for the given year, except
// that when year is the current year, To is clamped to today (the year is
// still "in progress").
func YearRange(year int) Range {
	from := New(year, time.January, 1)
	to := New(year, time.December, 31)
	today := Today()
	if year == today.Year() && to.After(today) {
		to = today
	}
	return Range{From: from, To: to}
}
