package orb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSessionLongTrailScenario(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, pointsConfig(t))
	assert.Empty(t, feed(t, s, openingBars()...))
	assert.Equal(t, StateBuilding, s.State())

	// A: closes the range and breaks out on the same bar.
	a := at("09:35", 100, 101.5, 99.5, 101)
	assert.Empty(t, feed(t, s, a))
	assert.Equal(t, StateInTrade, s.State())
	assert.Equal(t, Levels{High: 100, Low: 95}, s.Range().Levels())

	p := s.Position()
	require.NotNil(t, p)
	assert.Equal(t, Long, p.Direction())
	assert.Equal(t, 101.0, p.EntryPrice())
	assert.Equal(t, 95.0, p.StopPrice())
	assert.Equal(t, 103.0, p.T1Price())
	assert.Equal(t, 106.0, p.T2Price())

	// B: T1 fills, stop moves to break-even.
	assert.Empty(t, feed(t, s, at("09:40", 102.5, 104, 102, 103)))
	assert.Equal(t, StageAfterT1, p.Stage())
	assert.InDelta(t, 1.0, p.RealizedPnL(), 1e-9)
	assert.Equal(t, 0.5, p.RemainingSize())
	be, _ := p.BreakEvenStop()
	assert.Equal(t, 101.0, be)
	assert.Equal(t, 102.0, p.PrevLow())

	// C: closes under the previous low.
	c := at("09:45", 102, 102.5, 100, 100.5)
	recs := feed(t, s, c)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, "T001", rec.ID)
	assert.Equal(t, "NIFTY", rec.Instrument)
	assert.Equal(t, "2025-01-02", rec.Date)
	assert.Equal(t, Long, rec.Direction)
	assert.Equal(t, a.Time, rec.EntryTime)
	assert.Equal(t, 101.0, rec.EntryPrice)
	assert.Equal(t, c.Time, rec.ExitTime)
	assert.Equal(t, 100.5, rec.ExitPrice)
	assert.Equal(t, ReasonTrailPrevLow, rec.Reason)
	assert.InDelta(t, 0.75, rec.PnL, 1e-9)
	assert.True(t, rec.Win())

	assert.Equal(t, StateDone, s.State())
	assert.Equal(t, OutcomeTraded, s.Outcome())
	got, ok := s.Record()
	require.True(t, ok)
	assert.Equal(t, rec, got)

	again, outcome := s.Finish()
	assert.Nil(t, again)
	assert.Equal(t, OutcomeTraded, outcome)
}

func TestSessionEntryCandleIsNotManaged(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, pointsConfig(t))
	feed(t, s, openingBars()...)

	// Reaches T2 and the stop intrabar; management starts next bar.
	feed(t, s, at("09:35", 100, 110, 90, 101))
	p := s.Position()
	require.NotNil(t, p)
	assert.Equal(t, StageBeforeT1, p.Stage())
	assert.Equal(t, 1.0, p.RemainingSize())
	assert.Equal(t, 110.0, p.PrevHigh())
	assert.Equal(t, 90.0, p.PrevLow())
}

func TestSessionShortStop(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, pointsConfig(t))
	feed(t, s, openingBars()...)
	feed(t, s, at("09:35", 97, 98, 96, 97))
	assert.Equal(t, StateWatching, s.State())

	feed(t, s, at("09:40", 96, 96, 93.5, 94))
	require.NotNil(t, s.Position())
	assert.Equal(t, Short, s.Position().Direction())
	assert.Equal(t, 100.0, s.Position().StopPrice())

	recs := feed(t, s, at("09:45", 94, 100.5, 93.8, 99))
	require.Len(t, recs, 1)
	assert.Equal(t, ReasonStopBeforeT1, recs[0].Reason)
	assert.Equal(t, 100.0, recs[0].ExitPrice)
	assert.InDelta(t, -6, recs[0].PnL, 1e-9)
	assert.True(t, recs[0].Loss())
}

func TestSessionDataGap(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, pointsConfig(t))
	recs := feed(t, s,
		at("09:35", 100, 101, 99, 100),
		at("09:40", 100, 130, 99, 129),
		at("10:00", 129, 129, 60, 61),
	)
	assert.Empty(t, recs)
	assert.Nil(t, s.Position())
	assert.Equal(t, StateBuilding, s.State())
	assert.Equal(t, OutcomePending, s.Outcome())

	rec, outcome := s.Finish()
	assert.Nil(t, rec)
	assert.Equal(t, OutcomeDataGap, outcome)
	assert.Equal(t, StateDone, s.State())
}

func TestSessionRangeNeverCloses(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, pointsConfig(t))
	feed(t, s, openingBars()...)
	rec, outcome := s.Finish()
	assert.Nil(t, rec)
	assert.Equal(t, OutcomeRangeOpen, outcome)
}

func TestSessionNoBreakout(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, pointsConfig(t))
	feed(t, s, openingBars()...)
	feed(t, s,
		at("09:35", 97, 99, 96, 98),
		at("12:00", 98, 102, 94, 97),
	)
	rec, outcome := s.Finish()
	assert.Nil(t, rec)
	assert.Equal(t, OutcomeNoBreakout, outcome)
}

func TestSessionNoEntryAtSessionEnd(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, pointsConfig(t))
	feed(t, s, openingBars()...)
	feed(t, s,
		at("09:35", 97, 99, 96, 98),
		at("15:15", 98, 104, 98, 103),
		at("15:20", 103, 104, 102, 103),
	)
	assert.Nil(t, s.Position())
	_, outcome := s.Finish()
	assert.Equal(t, OutcomeNoBreakout, outcome)
}

func TestSessionLateEntryClosesAtEOD(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, pointsConfig(t))
	feed(t, s, openingBars()...)
	feed(t, s,
		at("09:35", 97, 99, 96, 98),
		at("15:10", 98, 101.5, 98, 101),
	)
	require.NotNil(t, s.Position())

	recs := feed(t, s, at("15:15", 101, 102, 100.5, 101.5))
	require.Len(t, recs, 1)
	assert.Equal(t, ReasonEOD, recs[0].Reason)
	assert.Equal(t, 101.5, recs[0].ExitPrice)
	assert.InDelta(t, 0.5, recs[0].PnL, 1e-9)
}

func TestSessionFallbackClose(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, pointsConfig(t))
	feed(t, s, openingBars()...)
	feed(t, s,
		at("09:35", 100, 101.5, 99.5, 101),
		at("09:40", 101, 102, 100.5, 101.8),
	)
	assert.Equal(t, StateInTrade, s.State())

	rec, outcome := s.Finish()
	require.NotNil(t, rec)
	assert.Equal(t, OutcomeTraded, outcome)
	assert.Equal(t, ReasonDayEndFallback, rec.Reason)
	assert.Equal(t, 101.8, rec.ExitPrice)
	assert.Equal(t, s.LastTime(), rec.ExitTime)
	assert.InDelta(t, 0.8, rec.PnL, 1e-9)

	rec, outcome = s.Finish()
	assert.Nil(t, rec)
	assert.Equal(t, OutcomeTraded, outcome)
}

func TestSessionIgnoresReplayedCandles(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, pointsConfig(t))
	feed(t, s, openingBars()...)
	feed(t, s, at("09:35", 100, 101.5, 99.5, 101))
	b := at("09:40", 102.5, 104, 102, 103)
	feed(t, s, b)

	p := s.Position()
	before := *p
	watermark := s.LastTime()

	// Same bar again, then an older bar that would stop us out.
	assert.Empty(t, feed(t, s, b, at("09:20", 98, 120, 10, 11)))
	assert.Equal(t, before, *p)
	assert.Equal(t, watermark, s.LastTime())
}

func TestSessionOneTradePerDay(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, pointsConfig(t))
	feed(t, s, openingBars()...)
	recs := feed(t, s,
		at("09:35", 100, 101.5, 99.5, 101),
		at("09:40", 101, 101, 94, 94.5),
		at("09:45", 94.5, 95, 90, 90.5),
		at("09:50", 90.5, 110, 90, 109),
	)
	require.Len(t, recs, 1)
	assert.Equal(t, ReasonStopBeforeT1, recs[0].Reason)
	assert.Equal(t, 95.0, recs[0].ExitPrice)
	assert.Equal(t, StateDone, s.State())
	assert.Equal(t, at("09:50", 0, 0, 0, 0).Time, s.LastTime())

	rec, _ := s.Finish()
	assert.Nil(t, rec)
}

func TestSessionRejectsOtherDays(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, pointsConfig(t))
	next := atOn(day.AddDate(0, 0, 1), "09:15", 1, 1, 1, 1)
	rec, err := s.OnCandle(next)
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, ErrWrongDay)
	assert.True(t, s.LastTime().IsZero())
}

func TestSessionLogsTransitions(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	s, err := NewSession(pointsConfig(t), "2025-01-02",
		WithLocation(ist), WithLogger(zap.New(core)), WithIDFunc(seqIDs()))
	require.NoError(t, err)

	feed(t, s, openingBars()...)
	feed(t, s,
		at("09:35", 100, 101.5, 99.5, 101),
		at("09:40", 102.5, 104, 102, 103),
		at("09:45", 102, 102.5, 100, 100.5),
	)

	var msgs []string
	for _, e := range logs.All() {
		msgs = append(msgs, e.Message)
	}
	assert.Equal(t, []string{"opening range closed", "entry", "t1 hit, half booked", "exit"}, msgs)

	exit := logs.FilterMessage("exit").All()[0].ContextMap()
	assert.Equal(t, "TSL_PREV_LOW", exit["reason"])
}

func TestTradeRecordString(t *testing.T) {
	t.Parallel()

	rec := TradeRecord{
		Instrument: "NIFTY",
		Date:       "2025-01-02",
		Direction:  Short,
		EntryTime:  time.Date(2025, 1, 2, 9, 40, 0, 0, ist),
		EntryPrice: 94,
		ExitTime:   time.Date(2025, 1, 2, 10, 5, 0, 0, ist),
		ExitPrice:  97,
		Reason:     ReasonStopBeforeT1,
		PnL:        -3,
	}
	assert.Equal(t, "NIFTY 2025-01-02 SHORT entry=94.00@09:40 exit=97.00@10:05 SL_BEFORE_T1 pnl=-3.00", rec.String())

	d, err := ParseDirection(" short ")
	require.NoError(t, err)
	assert.Equal(t, Short, d)
	_, err = ParseDirection("flat")
	assert.Error(t, err)
}
