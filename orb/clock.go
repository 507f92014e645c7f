package orb

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Clock is a time of day in seconds after midnight.
type Clock int

// NewClock builds a Clock from hour, minute and second.
func NewClock(h, m, s int) Clock {
	return Clock(h*3600 + m*60 + s)
}

// ParseClock accepts "HH:MM" or "HH:MM:SS".
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("bad time of day %q (want HH:MM or HH:MM:SS)", s)
	}

	limits := []int{23, 59, 59}
	vals := make([]int, 3)
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 || v > limits[i] {
			return 0, fmt.Errorf("bad time of day %q", s)
		}
		vals[i] = v
	}
	return NewClock(vals[0], vals[1], vals[2]), nil
}

// MustClock is ParseClock for constants; it panics on bad input.
func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ClockOf returns the time of day of t in loc.
func ClockOf(t time.Time, loc *time.Location) Clock {
	if loc != nil {
		t = t.In(loc)
	}
	return NewClock(t.Hour(), t.Minute(), t.Second())
}

// On returns the instant at this time of day on day's calendar date in loc.
func (c Clock) On(day time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	d := day.In(loc)
	h, m, s := int(c)/3600, (int(c)%3600)/60, int(c)%60
	return time.Date(d.Year(), d.Month(), d.Day(), h, m, s, 0, loc)
}

func (c Clock) String() string {
	h, m, s := int(c)/3600, (int(c)%3600)/60, int(c)%60
	if s != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

// DefaultLocation is the exchange time zone used when none is configured
// (NSE, Asia/Kolkata). Without tzdata it falls back to a fixed +05:30 zone.
func DefaultLocation() *time.Location {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		return time.FixedZone("IST", 5*3600+1800)
	}
	return loc
}
