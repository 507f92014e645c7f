package journal

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/orb/orb"
)

// CSVJournal appends trades to a CSV file. An existing file is appended
// to; a new or empty one gets the header first.
type CSVJournal struct {
	w *csv.Writer
	f *os.File
}

func NewCSV(path string) (*CSVJournal, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	w := csv.NewWriter(f)
	if st.Size() == 0 {
		if err := w.Write(Header); err != nil {
			_ = f.Close()
			return nil, err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return &CSVJournal{w: w, f: f}, nil
}

// RecordTrade writes one row and flushes so a crash loses nothing.
func (j *CSVJournal) RecordTrade(t orb.TradeRecord) error {
	if err := j.w.Write(row(t)); err != nil {
		return err
	}
	j.w.Flush()
	return j.w.Error()
}

func (j *CSVJournal) Close() error {
	j.w.Flush()
	if err := j.w.Error(); err != nil {
		_ = j.f.Close()
		return err
	}
	return j.f.Close()
}

// WriteCSV writes header and trades to w.
func WriteCSV(w io.Writer, trades []orb.TradeRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, t := range trades {
		if err := cw.Write(row(t)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func row(t orb.TradeRecord) []string {
	return []string{
		t.ID,
		t.Instrument,
		t.Date,
		t.Direction.String(),
		t.EntryTime.Format(time.RFC3339),
		price(t.EntryPrice),
		t.ExitTime.Format(time.RFC3339),
		price(t.ExitPrice),
		string(t.Reason),
		price(t.PnL),
	}
}

// ReadCSV loads trades written by CSVJournal or WriteCSV.
func ReadCSV(path string) ([]orb.TradeRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(Header)

	var out []orb.TradeRecord
	for line := 1; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if line == 1 && strings.EqualFold(rec[0], Header[0]) {
			continue
		}
		t, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func parseRow(rec []string) (orb.TradeRecord, error) {
	var (
		t   orb.TradeRecord
		err error
	)
	t.ID, t.Instrument, t.Date = rec[0], rec[1], rec[2]
	if t.Direction, err = orb.ParseDirection(rec[3]); err != nil {
		return t, err
	}
	if t.EntryTime, err = time.Parse(time.RFC3339, rec[4]); err != nil {
		return t, err
	}
	if t.EntryPrice, err = strconv.ParseFloat(rec[5], 64); err != nil {
		return t, err
	}
	if t.ExitTime, err = time.Parse(time.RFC3339, rec[6]); err != nil {
		return t, err
	}
	if t.ExitPrice, err = strconv.ParseFloat(rec[7], 64); err != nil {
		return t, err
	}
	t.Reason = orb.Reason(rec[8])
	if t.PnL, err = strconv.ParseFloat(rec[9], 64); err != nil {
		return t, err
	}
	return t, nil
}
