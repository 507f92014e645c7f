package market

import (
	"fmt"
	"time"
)

// Candle is one fixed-interval OHLC bar. Time is the bar's open time.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Validate reports bars that cannot be traded against.
func (c Candle) Validate() error {
	if c.Time.IsZero() {
		return fmt.Errorf("candle: zero time")
	}
	if c.High < c.Low {
		return fmt.Errorf("candle %s: high %.4f below low %.4f", c.Time.Format(time.RFC3339), c.High, c.Low)
	}
	if c.Close > c.High || c.Close < c.Low {
		return fmt.Errorf("candle %s: close %.4f outside [%.4f, %.4f]", c.Time.Format(time.RFC3339), c.Close, c.Low, c.High)
	}
	return nil
}

// DayKey returns the calendar date of t in loc as YYYY-MM-DD.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("2006-01-02")
}

// StartOfDay returns midnight of t's calendar date in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}
