package wbconstraints

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

const (
	PrecisionYear   = 9
	PrecisionMonth  = 10
	PrecisionDay    = 11
	PrecisionSecond = 14

	CalendarGregorian = "http://www.wikidata.org/entity/Q1985727"
)

var timePattern = regexp.MustCompile(`^([+-])(\d{1,16})-(\d{2})-(\d{2})T(\d{2}):(\d{2}):(\d{2})Z$`)

// TimeValue is a Wikibase time value, e.g. "+2020-01-31T00:00:00Z".
type TimeValue struct {
	Time          string `json:"time"`
	Precision     int    `json:"precision"`
	CalendarModel string `json:"calendarmodel,omitempty"`
}

type timeParts struct {
	year                             int64
	month, day, hour, minute, second int
}

func ParseTimeValue(s string) (TimeValue, error) {
	if _, err := parseTimeParts(s); err != nil {
		return TimeValue{}, err
	}
	return TimeValue{Time: s, Precision: PrecisionDay, CalendarModel: CalendarGregorian}, nil
}

func MustTimeValue(s string) TimeValue {
	t, err := ParseTimeValue(s)
	if err != nil {
		panic(err)
	}
	return t
}

// TimeValueFromTime renders t with second precision in the gregorian calendar.
func TimeValueFromTime(t time.Time) TimeValue {
	t = t.UTC()
	return TimeValue{
		Time:          "+" + t.Format("2006-01-02T15:04:05Z"),
		Precision:     PrecisionSecond,
		CalendarModel: CalendarGregorian,
	}
}

func parseTimeParts(s string) (timeParts, error) {
	m := timePattern.FindStringSubmatch(s)
	if m == nil {
		return timeParts{}, fmt.Errorf("invalid time value: %q", s)
	}
	year, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return timeParts{}, fmt.Errorf("invalid year in %q: %w", s, err)
	}
	if m[1] == "-" {
		year = -year
	}
	atoi := func(v string) int {
		n, _ := strconv.Atoi(v)
		return n
	}
	return timeParts{
		year:   year,
		month:  atoi(m[3]),
		day:    atoi(m[4]),
		hour:   atoi(m[5]),
		minute: atoi(m[6]),
		second: atoi(m[7]),
	}, nil
}

func (p timeParts) compare(o timeParts) int {
	if p.year != o.year {
		if p.year < o.year {
			return -1
		}
		return 1
	}
	for _, pair := range [][2]int{
		{p.month, o.month}, {p.day, o.day}, {p.hour, o.hour}, {p.minute, o.minute}, {p.second, o.second},
	} {
		if pair[0] != pair[1] {
			if pair[0] < pair[1] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Compare orders two time values by their components, ignoring precision.
// Unparseable values sort before parseable ones.
func (t TimeValue) Compare(o TimeValue) int {
	a, errA := parseTimeParts(t.Time)
	b, errB := parseTimeParts(o.Time)
	switch {
	case errA != nil && errB != nil:
		return 0
	case errA != nil:
		return -1
	case errB != nil:
		return 1
	}
	return a.compare(b)
}

func (t TimeValue) Before(o TimeValue) bool {
	return t.Compare(o) < 0
}

func (t TimeValue) After(o TimeValue) bool {
	return t.Compare(o) > 0
}

func (t TimeValue) Year() (int64, error) {
	p, err := parseTimeParts(t.Time)
	if err != nil {
		return 0, err
	}
	return p.year, nil
}

// AddYears shifts the year component, keeping the rest of the value.
func (t TimeValue) AddYears(n int64) (TimeValue, error) {
	p, err := parseTimeParts(t.Time)
	if err != nil {
		return TimeValue{}, err
	}
	year := p.year + n
	sign := "+"
	if year < 0 {
		sign = "-"
		year = -year
	}
	t.Time = fmt.Sprintf("%s%04d-%02d-%02dT%02d:%02d:%02dZ", sign, year, p.month, p.day, p.hour, p.minute, p.second)
	return t, nil
}

// YearsBetween returns the fractional number of years from t to o.
func (t TimeValue) YearsBetween(o TimeValue) (float64, error) {
	a, err := parseTimeParts(t.Time)
	if err != nil {
		return 0, err
	}
	b, err := parseTimeParts(o.Time)
	if err != nil {
		return 0, err
	}
	frac := func(p timeParts) float64 {
		return float64(p.year) + (float64(max(p.month, 1))-1)/12 + (float64(max(p.day, 1))-1)/365.25
	}
	return frac(b) - frac(a), nil
}

// IsInFuture reports whether t lies after the clock's current time.
func (t TimeValue) IsInFuture(clock Clock) bool {
	return t.After(TimeValueFromTime(clock.Now()))
}
