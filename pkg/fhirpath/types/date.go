package types

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// DatePrecision is how much of a Date's year-month-day was actually
// specified in its source literal.
type DatePrecision int

const (
	YearPrecision DatePrecision = iota
	MonthPrecision
	DayPrecision
)

// Date is the FHIRPath date primitive. It keeps partial dates — a bare
// year, or year-month — as first-class values rather than padding
// missing fields, since FHIRPath equality and comparison depend on
// knowing which components were actually given.
type Date struct {
	year      int
	month     int // 0 when precision < MonthPrecision
	day       int // 0 when precision < DayPrecision
	precision DatePrecision
}

var (
	dateYearPattern  = regexp.MustCompile(`^(\d{4})$`)
	dateMonthPattern = regexp.MustCompile(`^(\d{4})-(\d{2})$`)
	dateDayPattern   = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
)

// NewDate parses s as "YYYY", "YYYY-MM", or "YYYY-MM-DD", trying the
// most precise form first.
func NewDate(s string) (Date, error) {
	if matches := dateDayPattern.FindStringSubmatch(s); matches != nil {
		year, err := strconv.Atoi(matches[1])
		if err != nil {
			return Date{}, fmt.Errorf("invalid year in date: %s", s)
		}
		month, err := strconv.Atoi(matches[2])
		if err != nil {
			return Date{}, fmt.Errorf("invalid month in date: %s", s)
		}
		day, err := strconv.Atoi(matches[3])
		if err != nil {
			return Date{}, fmt.Errorf("invalid day in date: %s", s)
		}
		return Date{year: year, month: month, day: day, precision: DayPrecision}, nil
	}

	if matches := dateMonthPattern.FindStringSubmatch(s); matches != nil {
		year, err := strconv.Atoi(matches[1])
		if err != nil {
			return Date{}, fmt.Errorf("invalid year in date: %s", s)
		}
		month, err := strconv.Atoi(matches[2])
		if err != nil {
			return Date{}, fmt.Errorf("invalid month in date: %s", s)
		}
		return Date{year: year, month: month, precision: MonthPrecision}, nil
	}

	if matches := dateYearPattern.FindStringSubmatch(s); matches != nil {
		year, err := strconv.Atoi(matches[1])
		if err != nil {
			return Date{}, fmt.Errorf("invalid year in date: %s", s)
		}
		return Date{year: year, precision: YearPrecision}, nil
	}

	return Date{}, fmt.Errorf("invalid date format: %s", s)
}

// NewDateFromTime takes the year/month/day out of t, at full
// day-level precision.
func NewDateFromTime(t time.Time) Date {
	return Date{year: t.Year(), month: int(t.Month()), day: t.Day(), precision: DayPrecision}
}

// Type reports the FHIRPath type name "Date".
func (d Date) Type() string {
	return "Date"
}

// IsEmpty is always false.
func (d Date) IsEmpty() bool {
	return false
}

// Year, Month, Day, and Precision expose the parsed components; Month
// and Day read 0 when the value's Precision doesn't reach that far.
func (d Date) Year() int               { return d.year }
func (d Date) Month() int              { return d.month }
func (d Date) Day() int                { return d.day }
func (d Date) Precision() DatePrecision { return d.precision }

// String renders only the components implied by Precision, e.g. a
// year-precision value prints as "2024", never "2024-01-01".
func (d Date) String() string {
	switch d.precision {
	case YearPrecision:
		return fmt.Sprintf("%04d", d.year)
	case MonthPrecision:
		return fmt.Sprintf("%04d-%02d", d.year, d.month)
	default:
		return fmt.Sprintf("%04d-%02d-%02d", d.year, d.month, d.day)
	}
}

// Equal requires matching precision as well as matching components —
// a year-precision 2024 is not Equal to a day-precision 2024-01-01
// even though ToTime would put them at the same instant.
func (d Date) Equal(other Value) bool {
	o, ok := other.(Date)
	if !ok {
		return false
	}
	if d.precision != o.precision || d.year != o.year {
		return false
	}
	if d.precision >= MonthPrecision && d.month != o.month {
		return false
	}
	if d.precision >= DayPrecision && d.day != o.day {
		return false
	}
	return true
}

// Equivalent has no separate tolerance rule for dates, so it collapses
// to Equal.
func (d Date) Equivalent(other Value) bool {
	return d.Equal(other)
}

// ToTime expands missing components to January/1st so the value can be
// fed through time.Time arithmetic; the result should not be used to
// infer a precision the original value didn't have.
func (d Date) ToTime() time.Time {
	month := d.month
	if month == 0 {
		month = 1
	}
	day := d.day
	if day == 0 {
		day = 1
	}
	return time.Date(d.year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// cmpInt orders two ints to the -1/0/1 convention Compare methods use.
func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Compare orders d against other. Equal precision compares
// component-by-component; differing precision compares only down to
// the shallower one's depth and reports an error once a difference
// could only be resolved by a component neither value specifies —
// per FHIRPath, that comparison result is not merely unequal but
// genuinely undefined.
func (d Date) Compare(other Value) (int, error) {
	o, ok := other.(Date)
	if !ok {
		return 0, fmt.Errorf("cannot compare Date with %s", other.Type())
	}

	if d.precision == o.precision {
		if c := cmpInt(d.year, o.year); c != 0 {
			return c, nil
		}
		if d.precision >= MonthPrecision {
			if c := cmpInt(d.month, o.month); c != 0 {
				return c, nil
			}
		}
		if d.precision >= DayPrecision {
			if c := cmpInt(d.day, o.day); c != 0 {
				return c, nil
			}
		}
		return 0, nil
	}

	if c := cmpInt(d.year, o.year); c != 0 {
		return c, nil
	}

	minPrecision := d.precision
	if o.precision < minPrecision {
		minPrecision = o.precision
	}
	if minPrecision == YearPrecision {
		return 0, fmt.Errorf("ambiguous comparison between dates with different precisions")
	}
	if d.precision >= MonthPrecision && o.precision >= MonthPrecision {
		if c := cmpInt(d.month, o.month); c != 0 {
			return c, nil
		}
	}
	return 0, fmt.Errorf("ambiguous comparison between dates with different precisions")
}

// dateTimeDelta maps a FHIRPath duration unit name (with its
// quoted-literal and plural spellings) to the calendar delta AddDuration
// should apply; the quoted forms ('year', 'month', ...) come from
// UCUM-literal duration syntax.
func dateTimeDelta(value int, unit string) (years, months, days int, ok bool) {
	switch unit {
	case "year", "years", "'year'", "'years'":
		return value, 0, 0, true
	case "month", "months", "'month'", "'months'":
		return 0, value, 0, true
	case "week", "weeks", "'week'", "'weeks'":
		return 0, 0, value * 7, true
	case "day", "days", "'day'", "'days'":
		return 0, 0, value, true
	default:
		return 0, 0, 0, false
	}
}

// AddDuration shifts the date by value units (year/month/week/day, in
// any of their plural or quoted-literal spellings), then re-clamps the
// result to this value's original Precision. An unrecognized unit is a
// no-op rather than an error, since AddDuration has no error return.
func (d Date) AddDuration(value int, unit string) Date {
	years, months, days, ok := dateTimeDelta(value, unit)
	if !ok {
		return d
	}
	t := d.ToTime().AddDate(years, months, days)

	result := Date{year: t.Year(), month: int(t.Month()), day: t.Day(), precision: d.precision}
	if d.precision < MonthPrecision {
		result.month = 0
	}
	if d.precision < DayPrecision {
		result.day = 0
	}
	return result
}

// SubtractDuration is AddDuration with value negated.
func (d Date) SubtractDuration(value int, unit string) Date {
	return d.AddDuration(-value, unit)
}
