package types

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// DateTimePrecision is how much of a DateTime's year..millisecond
// chain was actually specified in its source literal.
type DateTimePrecision int

const (
	DTYearPrecision DateTimePrecision = iota
	DTMonthPrecision
	DTDayPrecision
	DTHourPrecision
	DTMinutePrecision
	DTSecondPrecision
	DTMillisPrecision
)

// DateTime is the FHIRPath dateTime primitive: a partial or full
// calendar timestamp with an optional timezone offset, kept distinct
// from Date since a dateTime literal may specify a time-of-day and/or
// zone that a plain date cannot.
type DateTime struct {
	year, month, day          int
	hour, minute, second      int
	millis                    int
	tzOffset                  int  // minutes east of UTC
	hasTZ                     bool
	precision                 DateTimePrecision
}

var dateTimePattern = regexp.MustCompile(
	`^(\d{4})(?:-(\d{2})(?:-(\d{2})(?:T(\d{2})(?::(\d{2})(?::(\d{2})(?:\.(\d+))?)?)?)?)?)?(Z|[+-]\d{2}:\d{2})?$`,
)

// NewDateTime parses s against the FHIRPath dateTime grammar, where
// every component from month onward is optional but each one present
// requires all of its predecessors.
func NewDateTime(s string) (DateTime, error) {
	matches := dateTimePattern.FindStringSubmatch(s)
	if matches == nil {
		return DateTime{}, fmt.Errorf("invalid datetime format: %s", s)
	}

	dt := DateTime{}
	precision := DTYearPrecision

	year, err := strconv.Atoi(matches[1])
	if err != nil {
		return DateTime{}, fmt.Errorf("invalid year in datetime: %s", s)
	}
	dt.year = year

	if matches[2] != "" {
		month, err := strconv.Atoi(matches[2])
		if err != nil {
			return DateTime{}, fmt.Errorf("invalid month in datetime: %s", s)
		}
		dt.month = month
		precision = DTMonthPrecision
	}

	if matches[3] != "" {
		day, err := strconv.Atoi(matches[3])
		if err != nil {
			return DateTime{}, fmt.Errorf("invalid day in datetime: %s", s)
		}
		dt.day = day
		precision = DTDayPrecision
	}

	if matches[4] != "" {
		hour, err := strconv.Atoi(matches[4])
		if err != nil {
			return DateTime{}, fmt.Errorf("invalid hour in datetime: %s", s)
		}
		dt.hour = hour
		precision = DTHourPrecision
	}

	if matches[5] != "" {
		minute, err := strconv.Atoi(matches[5])
		if err != nil {
			return DateTime{}, fmt.Errorf("invalid minute in datetime: %s", s)
		}
		dt.minute = minute
		precision = DTMinutePrecision
	}

	if matches[6] != "" {
		second, err := strconv.Atoi(matches[6])
		if err != nil {
			return DateTime{}, fmt.Errorf("invalid second in datetime: %s", s)
		}
		dt.second = second
		precision = DTSecondPrecision
	}

	if matches[7] != "" {
		millis, err := strconv.Atoi(padMillis(matches[7]))
		if err != nil {
			return DateTime{}, fmt.Errorf("invalid milliseconds in datetime: %s", s)
		}
		dt.millis = millis
		precision = DTMillisPrecision
	}

	if matches[8] != "" {
		dt.hasTZ = true
		offset, err := parseTZOffset(matches[8])
		if err != nil {
			return DateTime{}, fmt.Errorf("invalid timezone in datetime: %s", s)
		}
		dt.tzOffset = offset
	}

	dt.precision = precision
	return dt, nil
}

// padMillis normalizes a parsed fractional-seconds group to exactly
// three digits, since "1" and "100" and "1000000" must all mean
// "1 tenth of a second" scaled consistently.
func padMillis(s string) string {
	for len(s) < 3 {
		s += "0"
	}
	return s[:3]
}

// parseTZOffset reads a "Z" or "+HH:MM"/"-HH:MM" timezone suffix into
// signed minutes east of UTC.
func parseTZOffset(s string) (int, error) {
	if s == "Z" {
		return 0, nil
	}
	sign := 1
	if s[0] == '-' {
		sign = -1
	}
	hours, err := strconv.Atoi(s[1:3])
	if err != nil {
		return 0, err
	}
	mins, err := strconv.Atoi(s[4:6])
	if err != nil {
		return 0, err
	}
	return sign * (hours*60 + mins), nil
}

// NewDateTimeFromTime captures every field of t, including its zone
// offset, at full millisecond precision.
func NewDateTimeFromTime(t time.Time) DateTime {
	_, offset := t.Zone()
	return DateTime{
		year: t.Year(), month: int(t.Month()), day: t.Day(),
		hour: t.Hour(), minute: t.Minute(), second: t.Second(),
		millis:    t.Nanosecond() / 1_000_000,
		tzOffset:  offset / 60,
		hasTZ:     true,
		precision: DTMillisPrecision,
	}
}

// Type reports the FHIRPath type name "DateTime".
func (dt DateTime) Type() string {
	return "DateTime"
}

// IsEmpty is always false.
func (dt DateTime) IsEmpty() bool {
	return false
}

func (dt DateTime) Year() int        { return dt.year }
func (dt DateTime) Month() int       { return dt.month }
func (dt DateTime) Day() int         { return dt.day }
func (dt DateTime) Hour() int        { return dt.hour }
func (dt DateTime) Minute() int      { return dt.minute }
func (dt DateTime) Second() int      { return dt.second }
func (dt DateTime) Millisecond() int { return dt.millis }

// String renders only the components implied by Precision, appending
// the zone suffix only when one was present in the source literal.
func (dt DateTime) String() string {
	out := fmt.Sprintf("%04d", dt.year)
	if dt.precision >= DTMonthPrecision {
		out += fmt.Sprintf("-%02d", dt.month)
	}
	if dt.precision >= DTDayPrecision {
		out += fmt.Sprintf("-%02d", dt.day)
	}
	if dt.precision >= DTHourPrecision {
		out += fmt.Sprintf("T%02d", dt.hour)
	}
	if dt.precision >= DTMinutePrecision {
		out += fmt.Sprintf(":%02d", dt.minute)
	}
	if dt.precision >= DTSecondPrecision {
		out += fmt.Sprintf(":%02d", dt.second)
	}
	if dt.precision >= DTMillisPrecision {
		out += fmt.Sprintf(".%03d", dt.millis)
	}
	if dt.hasTZ {
		out += formatTZOffset(dt.tzOffset)
	}
	return out
}

// formatTZOffset renders minutes-east-of-UTC as "Z" for zero or a
// signed "+HH:MM"/"-HH:MM" otherwise.
func formatTZOffset(offsetMinutes int) string {
	if offsetMinutes == 0 {
		return "Z"
	}
	sign, offset := "+", offsetMinutes
	if offset < 0 {
		sign, offset = "-", -offset
	}
	return fmt.Sprintf("%s%02d:%02d", sign, offset/60, offset%60)
}

// Equal compares the two values' full instants in time, so a UTC and
// an equivalent zoned representation of the same moment are Equal
// regardless of precision bookkeeping.
func (dt DateTime) Equal(other Value) bool {
	o, ok := other.(DateTime)
	return ok && dt.ToTime().Equal(o.ToTime())
}

// Equivalent has no separate tolerance rule for datetimes, so it
// collapses to Equal.
func (dt DateTime) Equivalent(other Value) bool {
	return dt.Equal(other)
}

// ToTime expands missing components to January 1st, midnight, and
// applies the recorded zone offset (or UTC if none was given).
func (dt DateTime) ToTime() time.Time {
	month := dt.month
	if month == 0 {
		month = 1
	}
	day := dt.day
	if day == 0 {
		day = 1
	}
	loc := time.UTC
	if dt.hasTZ {
		loc = time.FixedZone("", dt.tzOffset*60)
	}
	return time.Date(dt.year, time.Month(month), day, dt.hour, dt.minute, dt.second, dt.millis*1_000_000, loc)
}

// Compare orders dt against other. Equal precision compares via
// ToTime directly; differing precision compares component-by-component
// down to the shallower value's depth, reporting an error once a
// difference could only be resolved by a component neither value
// specifies.
func (dt DateTime) Compare(other Value) (int, error) {
	o, ok := other.(DateTime)
	if !ok {
		return 0, fmt.Errorf("cannot compare DateTime with %s", other.Type())
	}

	if dt.precision == o.precision {
		t1, t2 := dt.ToTime(), o.ToTime()
		switch {
		case t1.Before(t2):
			return -1, nil
		case t1.After(t2):
			return 1, nil
		default:
			return 0, nil
		}
	}

	minPrecision := dt.precision
	if o.precision < minPrecision {
		minPrecision = o.precision
	}

	if c := cmpInt(dt.year, o.year); c != 0 {
		return c, nil
	}
	if minPrecision < DTMonthPrecision {
		return 0, fmt.Errorf("ambiguous comparison between datetimes with different precisions")
	}
	if c := cmpInt(dt.month, o.month); c != 0 {
		return c, nil
	}
	if minPrecision < DTDayPrecision {
		return 0, fmt.Errorf("ambiguous comparison between datetimes with different precisions")
	}
	if c := cmpInt(dt.day, o.day); c != 0 {
		return c, nil
	}
	if minPrecision < DTHourPrecision {
		return 0, fmt.Errorf("ambiguous comparison between datetimes with different precisions")
	}
	if c := cmpInt(dt.hour, o.hour); c != 0 {
		return c, nil
	}
	if minPrecision < DTMinutePrecision {
		return 0, fmt.Errorf("ambiguous comparison between datetimes with different precisions")
	}
	if c := cmpInt(dt.minute, o.minute); c != 0 {
		return c, nil
	}
	if minPrecision < DTSecondPrecision {
		return 0, fmt.Errorf("ambiguous comparison between datetimes with different precisions")
	}
	if c := cmpInt(dt.second, o.second); c != 0 {
		return c, nil
	}
	return 0, fmt.Errorf("ambiguous comparison between datetimes with different precisions")
}

// AddDuration shifts the datetime by value units — any of
// year/month/week/day/hour/minute/second/millisecond, in their plural,
// quoted-literal, or (for milliseconds) "ms" spellings — then re-clamps
// the result to this value's original Precision. An unrecognized unit
// is a no-op rather than an error, since AddDuration has no error
// return.
func (dt DateTime) AddDuration(value int, unit string) DateTime {
	t := dt.ToTime()

	if years, months, days, ok := dateTimeDelta(value, unit); ok {
		t = t.AddDate(years, months, days)
	} else if d, ok := clockDelta(value, unit); ok {
		t = t.Add(d)
	} else {
		return dt
	}

	result := DateTime{
		year: t.Year(), month: int(t.Month()), day: t.Day(),
		hour: t.Hour(), minute: t.Minute(), second: t.Second(),
		millis:    t.Nanosecond() / 1_000_000,
		tzOffset:  dt.tzOffset,
		hasTZ:     dt.hasTZ,
		precision: dt.precision,
	}

	if dt.precision < DTMonthPrecision {
		result.month = 0
	}
	if dt.precision < DTDayPrecision {
		result.day = 0
	}
	if dt.precision < DTHourPrecision {
		result.hour = 0
	}
	if dt.precision < DTMinutePrecision {
		result.minute = 0
	}
	if dt.precision < DTSecondPrecision {
		result.second = 0
	}
	if dt.precision < DTMillisPrecision {
		result.millis = 0
	}
	return result
}

// clockDelta maps the sub-day duration units AddDuration accepts to a
// time.Duration; calendar units (year/month/week/day) are handled
// separately by dateTimeDelta since they aren't fixed-length.
func clockDelta(value int, unit string) (time.Duration, bool) {
	switch unit {
	case "hour", "hours", "'hour'", "'hours'":
		return time.Duration(value) * time.Hour, true
	case "minute", "minutes", "'minute'", "'minutes'":
		return time.Duration(value) * time.Minute, true
	case "second", "seconds", "'second'", "'seconds'":
		return time.Duration(value) * time.Second, true
	case "millisecond", "milliseconds", "'millisecond'", "'milliseconds'", "ms":
		return time.Duration(value) * time.Millisecond, true
	default:
		return 0, false
	}
}

// SubtractDuration is AddDuration with value negated.
func (dt DateTime) SubtractDuration(value int, unit string) DateTime {
	return dt.AddDuration(-value, unit)
}
