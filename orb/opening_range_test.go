package orb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ingest(r *OpeningRange, hhmm string, h, l float64) bool {
	return r.Ingest(at(hhmm, l, h, l, l), MustClock(hhmm))
}

func TestOpeningRangeInclusiveBounds(t *testing.T) {
	t.Parallel()

	r := NewOpeningRange(Window{Start: MustClock("09:15"), End: MustClock("09:30")})

	assert.False(t, ingest(r, "09:10", 500, 1), "pre-window ignored")
	assert.False(t, r.Observed())

	assert.False(t, ingest(r, "09:15", 99, 96))
	assert.False(t, ingest(r, "09:20", 100, 97))
	assert.False(t, ingest(r, "09:30", 98, 95))
	assert.True(t, r.Observed())
	assert.False(t, r.Closed())
	assert.Equal(t, 100.0, r.High())
	assert.Equal(t, 95.0, r.Low())

	assert.True(t, ingest(r, "09:35", 120, 80), "first candle after window closes range")
	assert.True(t, r.Closed())
	assert.Equal(t, Levels{High: 100, Low: 95}, r.Levels(), "closing candle does not widen range")

	assert.False(t, ingest(r, "09:40", 130, 70), "closes only once")
	assert.Equal(t, Levels{High: 100, Low: 95}, r.Levels())
}

func TestOpeningRangeNeedsObservation(t *testing.T) {
	t.Parallel()

	r := NewOpeningRange(Window{Start: MustClock("09:15"), End: MustClock("09:30")})

	assert.False(t, ingest(r, "09:35", 100, 95))
	assert.False(t, ingest(r, "10:00", 100, 95))
	assert.False(t, r.Observed())
	assert.False(t, r.Closed())
}

func TestOpeningRangeSingleCandle(t *testing.T) {
	t.Parallel()

	r := NewOpeningRange(Window{Start: MustClock("09:15"), End: MustClock("09:30")})
	assert.False(t, ingest(r, "09:25", 101, 99))
	assert.True(t, ingest(r, "11:00", 1, 1))
	assert.Equal(t, 101.0, r.High())
	assert.Equal(t, 99.0, r.Low())
}
