package orb

import (
	"time"

	"github.com/rustyeddy/orb/market"
)

// Signal is an entry instruction produced by Breakout.
type Signal struct {
	Direction Direction
	Price     float64
	Time      time.Time
}

// Breakout compares post-window closes against the frozen opening range
// and fires at most once.
//
// The close is both trigger and fill price; intrabar highs and lows are
// not used for entries.
type Breakout struct {
	fired bool
}

// Evaluate returns a signal when c closes outside the range. It never
// signals on an open range or after it has already fired.
func (b *Breakout) Evaluate(r *OpeningRange, c market.Candle) (Signal, bool) {
	if b.fired || r == nil || !r.Closed() {
		return Signal{}, false
	}

	var dir Direction
	switch {
	case c.Close > r.High():
		dir = Long
	case c.Close < r.Low():
		dir = Short
	default:
		return Signal{}, false
	}

	b.fired = true
	return Signal{Direction: dir, Price: c.Close, Time: c.Time}, true
}

// Fired reports whether an entry was already signalled today.
func (b *Breakout) Fired() bool { return b.fired }
