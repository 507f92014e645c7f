package orb

import (
	"fmt"
	"strings"
	"time"
)

// Direction of a position: +1 long, -1 short.
type Direction int8

const (
	Long  Direction = +1
	Short Direction = -1
)

func (d Direction) String() string {
	switch d {
	case Long:
		return "LONG"
	case Short:
		return "SHORT"
	default:
		return fmt.Sprintf("Direction(%d)", int8(d))
	}
}

// ParseDirection is the inverse of Direction.String.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LONG":
		return Long, nil
	case "SHORT":
		return Short, nil
	default:
		return 0, fmt.Errorf("unknown direction %q", s)
	}
}

// pnl of size units filled at exit against entry.
func (d Direction) pnl(size, entry, exit float64) float64 {
	return size * float64(d) * (exit - entry)
}

// Reason tells why a trade was closed.
type Reason string

const (
	ReasonStopBeforeT1   Reason = "SL_BEFORE_T1"
	ReasonT1T2SameBar    Reason = "T1+T2_SAME_BAR"
	ReasonT2             Reason = "T2"
	ReasonTrailPrevLow   Reason = "TSL_PREV_LOW"
	ReasonTrailPrevHigh  Reason = "TSL_PREV_HIGH"
	ReasonBreakEven      Reason = "SL_BE"
	ReasonEOD            Reason = "EOD"
	ReasonDayEndFallback Reason = "DAY_END_FALLBACK"
)

// Reasons lists every exit reason in a stable order.
var Reasons = []Reason{
	ReasonStopBeforeT1,
	ReasonT1T2SameBar,
	ReasonT2,
	ReasonTrailPrevLow,
	ReasonTrailPrevHigh,
	ReasonBreakEven,
	ReasonEOD,
	ReasonDayEndFallback,
}

// TradeRecord is the immutable result of one closed position.
type TradeRecord struct {
	ID         string
	Instrument string
	Date       string // YYYY-MM-DD in the engine's location
	Direction  Direction
	EntryTime  time.Time
	EntryPrice float64
	ExitTime   time.Time
	ExitPrice  float64
	Reason     Reason
	PnL        float64
}

// Win reports a strictly positive result.
func (t TradeRecord) Win() bool { return t.PnL > 0 }

// Loss reports a strictly negative result.
func (t TradeRecord) Loss() bool { return t.PnL < 0 }

func (t TradeRecord) String() string {
	return fmt.Sprintf("%s %s %s entry=%.2f@%s exit=%.2f@%s %s pnl=%.2f",
		t.Instrument, t.Date, t.Direction,
		t.EntryPrice, t.EntryTime.Format("15:04"),
		t.ExitPrice, t.ExitTime.Format("15:04"),
		t.Reason, t.PnL)
}
