package market

import (
	"sort"
	"time"
)

// CandleSet is an ordered, de-duplicated candle stream for one instrument.
type CandleSet struct {
	Instrument string
	Interval   time.Duration
	Candles    []Candle

	duplicates int
	invalid    int
}

// NewCandleSet sorts the candles by time, drops duplicate timestamps (first
// one wins) and drops bars that fail Validate.
func NewCandleSet(instrument string, interval time.Duration, candles []Candle) *CandleSet {
	cs := &CandleSet{
		Instrument: instrument,
		Interval:   interval,
	}

	sorted := make([]Candle, len(candles))
	copy(sorted, candles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	cs.Candles = make([]Candle, 0, len(sorted))
	for _, c := range sorted {
		if err := c.Validate(); err != nil {
			cs.invalid++
			continue
		}
		if n := len(cs.Candles); n > 0 && !cs.Candles[n-1].Time.Before(c.Time) {
			cs.duplicates++
			continue
		}
		cs.Candles = append(cs.Candles, c)
	}
	return cs
}

// Len returns the number of usable candles.
func (cs *CandleSet) Len() int {
	return len(cs.Candles)
}

// Dropped returns how many duplicate and invalid rows were discarded.
func (cs *CandleSet) Dropped() (duplicates, invalid int) {
	return cs.duplicates, cs.invalid
}

// Iterator walks the candles in time order.
type Iterator struct {
	cs  *CandleSet
	idx int
}

// Iterator starts before the first candle.
func (cs *CandleSet) Iterator() *Iterator {
	return &Iterator{
		cs:  cs,
		idx: -1,
	}
}

// Next advances and reports whether a candle is available.
func (it *Iterator) Next() bool {
	it.idx++
	return it.idx < len(it.cs.Candles)
}

func (it *Iterator) Candle() Candle {
	return it.cs.Candles[it.idx]
}

// Index is the position of the current candle.
func (it *Iterator) Index() int {
	return it.idx
}

func (it *Iterator) Time() time.Time {
	return it.cs.Candles[it.idx].Time
}
