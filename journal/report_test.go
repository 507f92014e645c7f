package journal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBacktestRunOrg(t *testing.T) {
	t.Parallel()

	l := NewLedger()
	for _, tr := range sampleTrades() {
		require.NoError(t, l.Append(tr))
	}

	run := NewBacktestRun("RUN1", l, map[string]string{
		"NIFTY": "stop=RangeBoundary(0) t1=FixedOffset(40) t2=FixedOffset(80)",
	})
	run.Interval = "5m"
	run.Dataset = "NIFTY_5min.csv"
	run.Notes = []string{"quiet week"}

	require.Len(t, run.Instruments, 2)
	assert.Equal(t, "BANKNIFTY", run.Instruments[0].Symbol)
	assert.Equal(t, "-120.00", run.Instruments[0].NetPnL)
	assert.Equal(t, "60.75", run.Instruments[1].NetPnL)
	assert.Equal(t, "20.25", run.Instruments[1].AvgPnL)
	assert.Equal(t, 4, run.Total.Trades)
	assert.Equal(t, "2025-01-02", run.Start.Format("2006-01-02"))
	assert.Equal(t, "2025-01-06", run.End.Format("2006-01-02"))
	require.Len(t, run.Reasons, 4)
	assert.Equal(t, "SL_BEFORE_T1", string(run.Reasons[0].Reason))

	out, err := run.Org()
	require.NoError(t, err)
	assert.Contains(t, out, "* BACKTEST: ORB 5m")
	assert.Contains(t, out, ":RUN_ID:      RUN1")
	assert.Contains(t, out, ":TRADES:      4")
	assert.Contains(t, out, ":WIN_RATE:    50.00")
	assert.Contains(t, out, ":NET_PNL:     -59.25")
	assert.Contains(t, out, "| NIFTY | stop=RangeBoundary(0) t1=FixedOffset(40) t2=FixedOffset(80) | 3 | 2 | 0 | 66.67 | 60.75 | 20.25 |")
	assert.Contains(t, out, "| TSL_PREV_LOW | 1 |")

	require.Len(t, run.Trades, 4)
	assert.Equal(t, "BANKNIFTY", run.Trades[0].Instrument, "sorted by date then instrument")
	assert.Equal(t, "NIFTY", run.Trades[1].Instrument)
	assert.Contains(t, out, "** Trades")
	assert.Contains(t, out, "| 2025-01-03 | NIFTY | LONG | 22000.35 |")
	assert.Contains(t, out, "- quiet week")
	assert.NotContains(t, out, "Next Actions")

	run.OrgPath = filepath.Join(t.TempDir(), "run.org")
	require.NoError(t, run.WriteBacktestOrg())
	data, err := os.ReadFile(run.OrgPath)
	require.NoError(t, err)
	assert.Equal(t, out, string(data))
}

func TestBacktestRunEmptyLedger(t *testing.T) {
	t.Parallel()

	run := NewBacktestRun("", NewLedger(), nil)
	out, err := run.Org()
	require.NoError(t, err)
	assert.Contains(t, out, ":RUN_ID:      (run-id?)")
	assert.Contains(t, out, ":START_DATE:  (none)")
	assert.Contains(t, out, ":TRADES:      0")
	assert.NotContains(t, out, "** Trades")
}
