package feed

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/orb/market"
)

var ist = time.FixedZone("IST", 19800)

func TestReadCSVLayouts(t *testing.T) {
	t.Parallel()

	want := time.Date(2025, 1, 2, 9, 15, 0, 0, ist)
	tests := []struct {
		name string
		ts   string
	}{
		{"rfc3339", "2025-01-02T09:15:00+05:30"},
		{"compact offset", "2025-01-02T09:15:00+0530"},
		{"pandas tz", "2025-01-02 09:15:00+05:30"},
		{"naive seconds", "2025-01-02 09:15:00"},
		{"naive T", "2025-01-02T09:15:00"},
		{"naive minutes", "2025-01-02 09:15"},
		{"utc", "2025-01-02T03:45:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ReadCSV(strings.NewReader(tt.ts+",100,101,99,100.5,1200\n"), ist)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.True(t, want.Equal(got[0].Time), got[0].Time.String())
			assert.Equal(t, 100.5, got[0].Close)
			assert.Equal(t, 1200.0, got[0].Volume)
		})
	}
}

func TestReadCSVHeaderAndBlankRows(t *testing.T) {
	t.Parallel()

	body := "timestamp,open,high,low,close,volume\n" +
		"2025-01-02 09:15:00,100,101,99,100.5,10\n" +
		"\n" +
		"2025-01-02 09:20:00, 100.5, 102, 100, 101.5\n"
	got, err := ReadCSV(strings.NewReader(body), ist)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 102.0, got[1].High)
	assert.Equal(t, 0.0, got[1].Volume, "volume optional")
}

func TestReadCSVErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		body   string
		errMsg string
	}{
		{"short row", "2025-01-02 09:15:00,1,2,3\n", "at least 5 columns"},
		{"bad time", "yesterday,1,2,0.5,1\n", "bad timestamp"},
		{"bad price", "2025-01-02 09:15:00,1,x,0.5,1\n", "bad high"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ReadCSV(strings.NewReader(tt.body), ist)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.Contains(t, err.Error(), "line 1")
		})
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	t.Parallel()

	in := []market.Candle{
		{Time: time.Date(2025, 1, 2, 9, 15, 0, 0, ist), Open: 22000.05, High: 22010.4, Low: 21990, Close: 22005.35, Volume: 0},
		{Time: time.Date(2025, 1, 2, 9, 20, 0, 0, ist), Open: 22005.35, High: 22020, Low: 22001.1, Close: 22019.9, Volume: 1500},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, in))
	assert.True(t, strings.HasPrefix(buf.String(), "timestamp,open,high,low,close,volume\n2025-01-02T09:15:00+05:30,22000.05,22010.4,21990,22005.35,0\n"))

	out, err := ReadCSV(&buf, ist)
	require.NoError(t, err)
	require.Len(t, out, 2)
	for i := range in {
		assert.True(t, in[i].Time.Equal(out[i].Time))
		assert.Equal(t, in[i].Close, out[i].Close)
		assert.Equal(t, in[i].Volume, out[i].Volume)
	}
}

func TestCSVFileFetchCandles(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "NIFTY_5min.csv")
	body := "timestamp,open,high,low,close,volume\n" +
		"2025-01-03 09:15:00,1,1,1,1,0\n" +
		"2025-01-02 09:20:00,1,1,1,1,0\n" +
		"2025-01-02 09:15:00,1,1,1,1,0\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	f := CSVFile{Paths: map[string]string{"NIFTY": path}, Location: ist}
	ctx := context.Background()

	all, err := f.FetchCandles(ctx, "NIFTY", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].Time.Before(all[1].Time), "sorted ascending")

	day := time.Date(2025, 1, 2, 0, 0, 0, 0, ist)
	one, err := f.FetchCandles(ctx, "NIFTY", day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, one, 2)

	_, err = f.FetchCandles(ctx, "BANKNIFTY", time.Time{}, time.Time{})
	assert.Error(t, err)

	f.Paths["SBIN"] = filepath.Join(t.TempDir(), "missing.csv")
	_, err = f.FetchCandles(ctx, "SBIN", time.Time{}, time.Time{})
	assert.Error(t, err)
}

func TestStaticFetcher(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 1, 2, 9, 15, 0, 0, ist)
	s := Static{"NIFTY": {
		{Time: base.Add(10 * time.Minute)},
		{Time: base},
		{Time: base.Add(5 * time.Minute)},
	}}

	got, err := s.FetchCandles(context.Background(), "NIFTY", base, base.Add(10*time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, base, got[0].Time)

	_, err = s.FetchCandles(context.Background(), "X", time.Time{}, time.Time{})
	assert.True(t, errors.Is(err, ErrFeedUnavailable))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.FetchCandles(ctx, "NIFTY", time.Time{}, time.Time{})
	assert.ErrorIs(t, err, context.Canceled)
}
