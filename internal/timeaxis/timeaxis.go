// Package timeaxis builds the ordered sequences of calendar instants that
// both position providers are queried against. An axis is constructed once
// per request and never mutated afterwards; both adapters read the same axis
// so their series stay index-aligned.
package timeaxis

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidDate is returned for malformed or out-of-range calendar input.
var ErrInvalidDate = errors.New("invalid calendar date")

// Instant is a single UTC calendar instant. Immutable once constructed;
// two Instants built from the same calendar date yield the same Julian day.
type Instant struct {
	Year, Month, Day   int
	Hour, Minute       int
	Second, Nanosecond int
}

// NewInstant validates a calendar date and returns the corresponding Instant.
func NewInstant(year, month, day int) (Instant, error) {
	return NewInstantAt(year, month, day, 0, 0)
}

// NewInstantAt validates a calendar date with time of day.
func NewInstantAt(year, month, day, hour, minute int) (Instant, error) {
	if month < 1 || month > 12 {
		return Instant{}, fmt.Errorf("%w: month %d out of range", ErrInvalidDate, month)
	}
	if day < 1 || day > daysInMonth(year, month) {
		return Instant{}, fmt.Errorf("%w: day %d out of range for %04d-%02d", ErrInvalidDate, day, year, month)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return Instant{}, fmt.Errorf("%w: time %02d:%02d out of range", ErrInvalidDate, hour, minute)
	}
	return Instant{Year: year, Month: month, Day: day, Hour: hour, Minute: minute}, nil
}

// FromTime converts a time.Time (interpreted in UTC) to an Instant.
func FromTime(t time.Time) Instant {
	t = t.UTC()
	return Instant{
		Year:       t.Year(),
		Month:      int(t.Month()),
		Day:        t.Day(),
		Hour:       t.Hour(),
		Minute:     t.Minute(),
		Second:     t.Second(),
		Nanosecond: t.Nanosecond(),
	}
}

// Time returns the instant as a UTC time.Time.
func (i Instant) Time() time.Time {
	return time.Date(i.Year, time.Month(i.Month), i.Day, i.Hour, i.Minute, i.Second, i.Nanosecond, time.UTC)
}

// JulianDay converts the instant to a Julian date, the epoch representation
// both providers natively consume.
func (i Instant) JulianDay() float64 {
	y := float64(i.Year)
	m := float64(i.Month)
	d := float64(i.Day)

	dayFrac := (float64(i.Hour) +
		float64(i.Minute)/60 +
		float64(i.Second)/3600 +
		float64(i.Nanosecond)/3600e9) / 24.0

	// January/February count as months 13/14 of the previous year.
	if m <= 2 {
		y--
		m += 12
	}

	// Gregorian calendar correction.
	a := math.Floor(y / 100)
	b := 2 - a + math.Floor(a/4)

	return math.Floor(365.25*(y+4716)) +
		math.Floor(30.6001*(m+1)) +
		d + dayFrac + b - 1524.5
}

// String formats the instant as an ISO-style UTC timestamp.
func (i Instant) String() string {
	if i.Hour == 0 && i.Minute == 0 && i.Second == 0 && i.Nanosecond == 0 {
		return fmt.Sprintf("%04d-%02d-%02d", i.Year, i.Month, i.Day)
	}
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d", i.Year, i.Month, i.Day, i.Hour, i.Minute)
}

// TimeAxis is an ordered, finite sequence of instants, length >= 1.
// It is shared read-only between both position providers.
type TimeAxis []Instant

// Build produces count consecutive calendar days beginning at the given date.
func Build(startYear, startMonth, startDay, count int) (TimeAxis, error) {
	if count < 1 {
		return nil, fmt.Errorf("%w: sample count %d, need at least 1", ErrInvalidDate, count)
	}
	start, err := NewInstant(startYear, startMonth, startDay)
	if err != nil {
		return nil, err
	}

	axis := make(TimeAxis, count)
	t := start.Time()
	for n := 0; n < count; n++ {
		axis[n] = FromTime(t.AddDate(0, 0, n))
	}
	return axis, nil
}

// BuildFromDates produces an axis from explicit (year, month, day) triples.
// The list is used as given: callers are responsible for chronological order,
// out-of-order input propagates directly into misaligned series.
func BuildFromDates(dates [][3]int) (TimeAxis, error) {
	if len(dates) == 0 {
		return nil, fmt.Errorf("%w: empty date list", ErrInvalidDate)
	}
	axis := make(TimeAxis, len(dates))
	for n, d := range dates {
		inst, err := NewInstant(d[0], d[1], d[2])
		if err != nil {
			return nil, err
		}
		axis[n] = inst
	}
	return axis, nil
}

// JulianDays returns the epoch value of every instant on the axis.
func (a TimeAxis) JulianDays() []float64 {
	jds := make([]float64, len(a))
	for n, inst := range a {
		jds[n] = inst.JulianDay()
	}
	return jds
}

func daysInMonth(year, month int) int {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	default:
		if year%4 == 0 && (year%100 != 0 || year%400 == 0) {
			return 29
		}
		return 28
	}
}
