package feed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/orb/market"
)

// CSVHeader is the column order read by ReadCSV and written by WriteCSV.
var CSVHeader = []string{"timestamp", "open", "high", "low", "close", "volume"}

// timeLayouts are tried in order. Layouts without a zone are read in the
// caller's location.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

func parseTime(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("bad timestamp %q", s)
}

// ReadCSV parses timestamp,open,high,low,close[,volume] rows. A single
// header row is allowed; blank rows are skipped.
func ReadCSV(r io.Reader, loc *time.Location) ([]market.Candle, error) {
	if loc == nil {
		loc = time.UTC
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var out []market.Candle
	for line := 1; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(row[0]), CSVHeader[0]) {
			continue
		}

		c, err := parseCandleRow(row, loc)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, c)
	}
}

func parseCandleRow(row []string, loc *time.Location) (market.Candle, error) {
	if len(row) < 5 {
		return market.Candle{}, fmt.Errorf("want at least 5 columns, got %d", len(row))
	}

	var (
		c   market.Candle
		err error
	)
	if c.Time, err = parseTime(strings.TrimSpace(row[0]), loc); err != nil {
		return c, err
	}

	fields := []*float64{&c.Open, &c.High, &c.Low, &c.Close}
	if len(row) > 5 {
		fields = append(fields, &c.Volume)
	}
	for i, dst := range fields {
		s := strings.TrimSpace(row[i+1])
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return c, fmt.Errorf("bad %s %q: %w", CSVHeader[i+1], s, err)
		}
		*dst = v
	}
	return c, nil
}

// WriteCSV writes candles with a header, timestamps in RFC3339.
func WriteCSV(w io.Writer, candles []market.Candle) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, c := range candles {
		err := cw.Write([]string{
			c.Time.Format(time.RFC3339),
			num(c.Open),
			num(c.High),
			num(c.Low),
			num(c.Close),
			num(c.Volume),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func num(x float64) string {
	return decimal.NewFromFloat(x).String()
}

// CSVFile serves candles from one CSV file per instrument. Files are read
// on every call so a file being appended to is picked up.
type CSVFile struct {
	Paths    map[string]string
	Location *time.Location
}

func (f CSVFile) FetchCandles(ctx context.Context, instrument string, from, to time.Time) ([]market.Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, ok := f.Paths[instrument]
	if !ok {
		return nil, fmt.Errorf("no csv file configured for %s", instrument)
	}

	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer fh.Close()

	candles, err := ReadCSV(fh, f.Location)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return filterSorted(candles, from, to), nil
}
