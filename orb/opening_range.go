package orb

import "github.com/rustyeddy/orb/market"

// Levels is a frozen high/low pair.
type Levels struct {
	High float64
	Low  float64
}

// OpeningRange accumulates the high/low of the opening window for one
// instrument and day. It freezes on the first candle strictly after the
// window end, provided something was observed inside the window.
type OpeningRange struct {
	window   Window
	high     float64
	low      float64
	observed bool
	closed   bool
}

func NewOpeningRange(w Window) *OpeningRange {
	return &OpeningRange{window: w}
}

// Ingest feeds one candle with its time of day. It returns true only for
// the candle that closes the range.
func (r *OpeningRange) Ingest(c market.Candle, tod Clock) bool {
	if r.closed {
		return false
	}

	if r.window.Contains(tod) {
		if !r.observed {
			r.high, r.low = c.High, c.Low
			r.observed = true
		} else {
			r.high = max(r.high, c.High)
			r.low = min(r.low, c.Low)
		}
		return false
	}

	if tod > r.window.End && r.observed {
		r.closed = true
		return true
	}
	return false
}

func (r *OpeningRange) High() float64 { return r.high }
func (r *OpeningRange) Low() float64 { return r.low }
func (r *OpeningRange) Closed() bool { return r.closed }
func (r *OpeningRange) Observed() bool { return r.observed }
func (r *OpeningRange) Window() Window { return r.window }
func (r *OpeningRange) Levels() Levels { return Levels{High: r.high, Low: r.low} }
