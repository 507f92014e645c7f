package orb

import (
	"fmt"
	"time"

	"github.com/rustyeddy/orb/market"
)

// Stage is the lifecycle state of a Position.
type Stage int

const (
	StageBeforeT1 Stage = iota
	StageAfterT1
	StageClosed
)

func (s Stage) String() string {
	switch s {
	case StageBeforeT1:
		return "BEFORE_T1"
	case StageAfterT1:
		return "AFTER_T1"
	case StageClosed:
		return "CLOSED"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// Exit describes the fill that closed a Position. PnL is the total realized
// over the life of the position, partial fills included.
type Exit struct {
	Time   time.Time
	Price  float64
	Reason Reason
	PnL    float64
}

// Position is one open ORB trade. Sizes are normalized: 1.0 at entry, 0.5
// after T1, 0 once closed.
type Position struct {
	dir        Direction
	entryPrice float64
	entryTime  time.Time
	sessionEnd Clock

	stop float64
	t1   float64
	t2   float64

	stage     Stage
	remaining float64
	realized  float64

	breakEven    float64
	hasBreakEven bool

	prevHigh float64
	prevLow  float64

	exit *Exit
}

// OpenPosition enters at the signal price. Stop and targets are fixed here
// from cfg; entry is the candle that produced sig.
func OpenPosition(cfg InstrumentConfig, sig Signal, rng Levels, entry market.Candle) *Position {
	return &Position{
		dir:        sig.Direction,
		entryPrice: sig.Price,
		entryTime:  sig.Time,
		sessionEnd: cfg.SessionEnd,
		stop:       cfg.Stop.Stop(sig.Direction, sig.Price, rng),
		t1:         cfg.T1.Target(sig.Direction, sig.Price),
		t2:         cfg.T2.Target(sig.Direction, sig.Price),
		stage:      StageBeforeT1,
		remaining:  1.0,
		prevHigh:   entry.High,
		prevLow:    entry.Low,
	}
}

// OnCandle applies one post-entry candle. It returns the exit when the
// position closes on this candle.
func (p *Position) OnCandle(c market.Candle, tod Clock) (Exit, bool) {
	switch p.stage {
	case StageBeforeT1:
		return p.beforeT1(c, tod)
	case StageAfterT1:
		return p.afterT1(c, tod)
	case StageClosed:
		return Exit{}, false
	default:
		panic(fmt.Sprintf("orb: unhandled position stage %v", p.stage))
	}
}

func (p *Position) beforeT1(c market.Candle, tod Clock) (Exit, bool) {
	if tod >= p.sessionEnd {
		return p.closeAll(c.Time, c.Close, ReasonEOD), true
	}

	if p.touched(c, p.stop, true) {
		return p.closeAll(c.Time, p.stop, ReasonStopBeforeT1), true
	}

	// Both targets inside one bar: assume T1 then T2 filled in sequence,
	// half size each. A modelling assumption, not an observed fill.
	if p.touched(c, p.t2, false) {
		p.fill(0.5, p.t1)
		return p.closeAll(c.Time, p.t2, ReasonT1T2SameBar), true
	}

	if p.touched(c, p.t1, false) {
		p.fill(0.5, p.t1)
		p.breakEven = p.entryPrice
		p.hasBreakEven = true
		p.stage = StageAfterT1
	}

	p.prevHigh, p.prevLow = c.High, c.Low
	return Exit{}, false
}

func (p *Position) afterT1(c market.Candle, tod Clock) (Exit, bool) {
	if tod >= p.sessionEnd {
		return p.closeAll(c.Time, c.Close, ReasonEOD), true
	}

	if p.touched(c, p.t2, false) {
		return p.closeAll(c.Time, p.t2, ReasonT2), true
	}

	if p.dir == Long && c.Close < p.prevLow {
		return p.closeAll(c.Time, c.Close, ReasonTrailPrevLow), true
	}
	if p.dir == Short && c.Close > p.prevHigh {
		return p.closeAll(c.Time, c.Close, ReasonTrailPrevHigh), true
	}

	if p.touched(c, p.breakEven, true) {
		return p.closeAll(c.Time, p.breakEven, ReasonBreakEven), true
	}

	p.prevHigh, p.prevLow = c.High, c.Low
	return Exit{}, false
}

// ForceClose closes whatever is left at last.Close. Used when the day's
// data runs out before an exit rule fired.
func (p *Position) ForceClose(last market.Candle) (Exit, bool) {
	if p.stage == StageClosed {
		return Exit{}, false
	}
	return p.closeAll(last.Time, last.Close, ReasonDayEndFallback), true
}

// touched reports whether the candle's range reached level. Stops are
// reached from the losing side, targets from the winning side.
func (p *Position) touched(c market.Candle, level float64, stop bool) bool {
	adverse := (p.dir == Long) == stop
	if adverse {
		return c.Low <= level
	}
	return c.High >= level
}

func (p *Position) fill(size, price float64) {
	p.realized += p.dir.pnl(size, p.entryPrice, price)
	p.remaining -= size
}

func (p *Position) closeAll(t time.Time, price float64, reason Reason) Exit {
	p.fill(p.remaining, price)
	p.remaining = 0
	p.stage = StageClosed

	ex := Exit{Time: t, Price: price, Reason: reason, PnL: p.realized}
	p.exit = &ex
	return ex
}

func (p *Position) Direction() Direction { return p.dir }
func (p *Position) EntryPrice() float64 { return p.entryPrice }
func (p *Position) EntryTime() time.Time { return p.entryTime }
func (p *Position) Stage() Stage { return p.stage }
func (p *Position) RemainingSize() float64 { return p.remaining }
func (p *Position) RealizedPnL() float64 { return p.realized }
func (p *Position) StopPrice() float64 { return p.stop }
func (p *Position) T1Price() float64 { return p.t1 }
func (p *Position) T2Price() float64 { return p.t2 }
func (p *Position) PrevHigh() float64 { return p.prevHigh }
func (p *Position) PrevLow() float64 { return p.prevLow }

// BreakEvenStop returns the promoted stop once T1 has filled.
func (p *Position) BreakEvenStop() (float64, bool) {
	return p.breakEven, p.hasBreakEven
}

// Exit returns the closing fill, if any.
func (p *Position) Exit() (Exit, bool) {
	if p.exit == nil {
		return Exit{}, false
	}
	return *p.exit, true
}
