package journal

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/orb/orb"
)

func newTestSQLite(t *testing.T) (*SQLiteJournal, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	j, err := NewSQLite(path)
	require.NoError(t, err)

	return j, path
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var name string
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='trades'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "trades", name)
}

func TestSQLiteRecordTrade(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	rec := sampleTrades()[1]

	require.NoError(t, j.RecordTrade(rec))
	require.NoError(t, j.RecordTrade(rec), "duplicate IDs are ignored")
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var (
		n          int
		instrument string
		direction  string
		reason     string
		pnl        float64
	)
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM trades`).Scan(&n))
	assert.Equal(t, 1, n)

	err = db.QueryRow(`SELECT instrument, direction, reason, pnl FROM trades WHERE trade_id = ?`, rec.ID).
		Scan(&instrument, &direction, &reason, &pnl)
	require.NoError(t, err)
	assert.Equal(t, "BANKNIFTY", instrument)
	assert.Equal(t, "SHORT", direction)
	assert.Equal(t, "SL_BEFORE_T1", reason)
	assert.Equal(t, -120.0, pnl)
}

func TestSQLiteGetTrade(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	want := sampleTrades()[0]
	require.NoError(t, j.RecordTrade(want))

	got, err := j.GetTrade(want.ID)
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Date, got.Date)
	assert.Equal(t, orb.Long, got.Direction)
	assert.Equal(t, orb.ReasonTrailPrevLow, got.Reason)
	assert.True(t, want.EntryTime.Equal(got.EntryTime))
	assert.True(t, want.ExitTime.Equal(got.ExitTime))
	assert.Equal(t, want.PnL, got.PnL)

	_, err = j.GetTrade("missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLiteListTrades(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	for _, tr := range sampleTrades() {
		require.NoError(t, j.RecordTrade(tr))
	}

	day, err := j.ListTradesByDate("2025-01-02")
	require.NoError(t, err)
	require.Len(t, day, 2)
	assert.Equal(t, "BANKNIFTY", day[0].Instrument)
	assert.Equal(t, "NIFTY", day[1].Instrument)

	start := time.Date(2025, 1, 3, 0, 0, 0, 0, ist)
	end := time.Date(2025, 1, 7, 0, 0, 0, 0, ist)
	between, err := j.ListTradesClosedBetween(start, end)
	require.NoError(t, err)
	require.Len(t, between, 2)
	assert.Equal(t, "2025-01-03", between[0].Date)
	assert.Equal(t, "2025-01-06", between[1].Date)

	none, err := j.ListTradesByDate("2030-01-01")
	require.NoError(t, err)
	assert.Empty(t, none)
}
