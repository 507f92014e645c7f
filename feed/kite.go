package feed

import (
	"context"
	"fmt"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"github.com/rustyeddy/orb/market"
	"github.com/rustyeddy/orb/orb"
)

// HistoricalSource is the part of the Kite Connect client used here.
// *kiteconnect.Client satisfies it.
type HistoricalSource interface {
	GetHistoricalData(instrumentToken int, interval string, fromDate time.Time, toDate time.Time, continuous bool, OI bool) ([]kiteconnect.HistoricalData, error)
}

// kiteMaxSpan is how much 5-minute history Kite returns per request.
const kiteMaxSpan = 60 * 24 * time.Hour

// Kite fetches NSE candles from the Zerodha Kite Connect historical API.
type Kite struct {
	src      HistoricalSource
	tokens   map[string]int
	interval string

	// Location is the exchange zone. Kite sends request bounds without a
	// zone and reads them as exchange wall-clock time.
	Location *time.Location
}

// NewKite logs in with an API key and a session access token. tokens maps
// instrument symbols to Kite instrument tokens.
func NewKite(apiKey, accessToken string, tokens map[string]int, interval time.Duration) (*Kite, error) {
	if apiKey == "" || accessToken == "" {
		return nil, fmt.Errorf("kite: api key and access token are required")
	}
	kc := kiteconnect.New(apiKey)
	kc.SetAccessToken(accessToken)
	return NewKiteWith(kc, tokens, interval)
}

// NewKiteWith wraps an existing client.
func NewKiteWith(src HistoricalSource, tokens map[string]int, interval time.Duration) (*Kite, error) {
	iv, err := KiteInterval(interval)
	if err != nil {
		return nil, err
	}
	return &Kite{src: src, tokens: tokens, interval: iv, Location: orb.DefaultLocation()}, nil
}

// KiteInterval maps a candle duration to a Kite interval name.
func KiteInterval(d time.Duration) (string, error) {
	switch d {
	case time.Minute:
		return "minute", nil
	case 3 * time.Minute:
		return "3minute", nil
	case 5 * time.Minute:
		return "5minute", nil
	case 10 * time.Minute:
		return "10minute", nil
	case 15 * time.Minute:
		return "15minute", nil
	case 30 * time.Minute:
		return "30minute", nil
	case time.Hour:
		return "60minute", nil
	default:
		return "", fmt.Errorf("kite: unsupported interval %s", d)
	}
}

// FetchCandles pages through [from, to) in spans Kite accepts. Both bounds
// are required and may be in any zone.
func (k *Kite) FetchCandles(ctx context.Context, instrument string, from, to time.Time) ([]market.Candle, error) {
	token, ok := k.tokens[instrument]
	if !ok {
		return nil, fmt.Errorf("kite: no instrument token for %s", instrument)
	}
	if from.IsZero() || to.IsZero() || !from.Before(to) {
		return nil, fmt.Errorf("kite: bad range %s - %s", from, to)
	}
	loc := k.Location
	if loc == nil {
		loc = orb.DefaultLocation()
	}

	var out []market.Candle
	for start := from; start.Before(to); start = start.Add(kiteMaxSpan) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := start.Add(kiteMaxSpan)
		if end.After(to) {
			end = to
		}

		data, err := k.src.GetHistoricalData(token, k.interval, start.In(loc), end.In(loc), false, false)
		if err != nil {
			return nil, fmt.Errorf("%w: kite %s: %v", ErrFeedUnavailable, instrument, err)
		}
		for _, d := range data {
			out = append(out, market.Candle{
				Time:   d.Date.Time,
				Open:   d.Open,
				High:   d.High,
				Low:    d.Low,
				Close:  d.Close,
				Volume: float64(d.Volume),
			})
		}
	}

	out = filterSorted(out, from, to)
	if len(out) == 0 {
		return nil, unavailable("kite returned no candles for %s", instrument)
	}
	return out, nil
}
