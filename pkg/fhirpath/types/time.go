package types

import (
	"fmt"
	"regexp"
	"strconv"
	gotime "time"
)

// TimePrecision is how much of a Time's hour..millisecond chain was
// actually specified in its source literal.
type TimePrecision int

const (
	HourPrecision TimePrecision = iota
	MinutePrecision
	SecondPrecision
	MillisPrecision
)

// Time is the FHIRPath time-of-day primitive, independent of any
// calendar date or timezone.
type Time struct {
	hour, minute, second int
	millis               int
	precision            TimePrecision
}

var timePattern = regexp.MustCompile(`^T?(\d{2})(?::(\d{2})(?::(\d{2})(?:\.(\d+))?)?)?$`)

// NewTime parses s against the FHIRPath time grammar, tolerating an
// optional leading "T" the way dateTime literals embed a time part.
func NewTime(s string) (Time, error) {
	matches := timePattern.FindStringSubmatch(s)
	if matches == nil {
		return Time{}, fmt.Errorf("invalid time format: %s", s)
	}

	t := Time{}
	precision := HourPrecision

	hour, err := strconv.Atoi(matches[1])
	if err != nil {
		return Time{}, fmt.Errorf("invalid hour in time: %s", s)
	}
	t.hour = hour

	if matches[2] != "" {
		minute, err := strconv.Atoi(matches[2])
		if err != nil {
			return Time{}, fmt.Errorf("invalid minute in time: %s", s)
		}
		t.minute = minute
		precision = MinutePrecision
	}

	if matches[3] != "" {
		second, err := strconv.Atoi(matches[3])
		if err != nil {
			return Time{}, fmt.Errorf("invalid second in time: %s", s)
		}
		t.second = second
		precision = SecondPrecision
	}

	if matches[4] != "" {
		millis, err := strconv.Atoi(padMillis(matches[4]))
		if err != nil {
			return Time{}, fmt.Errorf("invalid milliseconds in time: %s", s)
		}
		t.millis = millis
		precision = MillisPrecision
	}

	t.precision = precision
	return t, nil
}

// NewTimeFromGoTime reads just the time-of-day portion of t, at full
// millisecond precision.
func NewTimeFromGoTime(t gotime.Time) Time {
	return Time{
		hour: t.Hour(), minute: t.Minute(), second: t.Second(),
		millis:    t.Nanosecond() / 1_000_000,
		precision: MillisPrecision,
	}
}

// Type reports the FHIRPath type name "Time".
func (t Time) Type() string {
	return "Time"
}

// IsEmpty is always false.
func (t Time) IsEmpty() bool {
	return false
}

func (t Time) Hour() int        { return t.hour }
func (t Time) Minute() int      { return t.minute }
func (t Time) Second() int      { return t.second }
func (t Time) Millisecond() int { return t.millis }

// String renders only the components implied by Precision.
func (t Time) String() string {
	out := fmt.Sprintf("%02d", t.hour)
	if t.precision >= MinutePrecision {
		out += fmt.Sprintf(":%02d", t.minute)
	}
	if t.precision >= SecondPrecision {
		out += fmt.Sprintf(":%02d", t.second)
	}
	if t.precision >= MillisPrecision {
		out += fmt.Sprintf(".%03d", t.millis)
	}
	return out
}

// Equal requires matching precision as well as matching components.
func (t Time) Equal(other Value) bool {
	o, ok := other.(Time)
	if !ok {
		return false
	}
	if t.precision != o.precision || t.hour != o.hour {
		return false
	}
	if t.precision >= MinutePrecision && t.minute != o.minute {
		return false
	}
	if t.precision >= SecondPrecision && t.second != o.second {
		return false
	}
	if t.precision >= MillisPrecision && t.millis != o.millis {
		return false
	}
	return true
}

// Equivalent has no separate tolerance rule for times, so it collapses
// to Equal.
func (t Time) Equivalent(other Value) bool {
	return t.Equal(other)
}

// Compare orders t against other. Equal precision compares
// component-by-component; differing precision compares only down to
// the shallower one's depth and reports an error once a difference
// could only be resolved by a component neither value specifies.
func (t Time) Compare(other Value) (int, error) {
	o, ok := other.(Time)
	if !ok {
		return 0, fmt.Errorf("cannot compare Time with %s", other.Type())
	}

	if t.precision == o.precision {
		if c := cmpInt(t.hour, o.hour); c != 0 {
			return c, nil
		}
		if t.precision >= MinutePrecision {
			if c := cmpInt(t.minute, o.minute); c != 0 {
				return c, nil
			}
		}
		if t.precision >= SecondPrecision {
			if c := cmpInt(t.second, o.second); c != 0 {
				return c, nil
			}
		}
		if t.precision >= MillisPrecision {
			if c := cmpInt(t.millis, o.millis); c != 0 {
				return c, nil
			}
		}
		return 0, nil
	}

	minPrecision := t.precision
	if o.precision < minPrecision {
		minPrecision = o.precision
	}

	if c := cmpInt(t.hour, o.hour); c != 0 {
		return c, nil
	}
	if minPrecision < MinutePrecision {
		return 0, fmt.Errorf("ambiguous comparison between times with different precisions")
	}
	if c := cmpInt(t.minute, o.minute); c != 0 {
		return c, nil
	}
	if minPrecision < SecondPrecision {
		return 0, fmt.Errorf("ambiguous comparison between times with different precisions")
	}
	if c := cmpInt(t.second, o.second); c != 0 {
		return c, nil
	}
	return 0, fmt.Errorf("ambiguous comparison between times with different precisions")
}
