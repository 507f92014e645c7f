package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rustyeddy/orb/market"
)

const (
	// OandaPracticeURL is OANDA's practice/demo environment.
	OandaPracticeURL = "https://api-fxpractice.oanda.com"
	// OandaLiveURL is OANDA's live trading environment.
	OandaLiveURL = "https://api-fxtrade.oanda.com"

	oandaMaxCount = 5000
)

// Oanda fetches mid-price candles from the OANDA v3 REST API.
type Oanda struct {
	baseURL     string
	token       string
	granularity string
	httpClient  *http.Client
}

func NewOanda(token string, practice bool, interval time.Duration) (*Oanda, error) {
	baseURL := OandaLiveURL
	if practice {
		baseURL = OandaPracticeURL
	}
	return newOanda(baseURL, token, interval)
}

func newOanda(baseURL, token string, interval time.Duration) (*Oanda, error) {
	g, err := OandaGranularity(interval)
	if err != nil {
		return nil, err
	}
	return &Oanda{
		baseURL:     baseURL,
		token:       token,
		granularity: g,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// OandaGranularity maps a candle duration to an OANDA granularity.
func OandaGranularity(d time.Duration) (string, error) {
	switch d {
	case time.Minute:
		return "M1", nil
	case 5 * time.Minute:
		return "M5", nil
	case 15 * time.Minute:
		return "M15", nil
	case 30 * time.Minute:
		return "M30", nil
	case time.Hour:
		return "H1", nil
	default:
		return "", fmt.Errorf("oanda: unsupported interval %s", d)
	}
}

type oandaOHLC struct {
	O string `json:"o"`
	H string `json:"h"`
	L string `json:"l"`
	C string `json:"c"`
}

type oandaCandle struct {
	Complete bool      `json:"complete"`
	Volume   int       `json:"volume"`
	Time     string    `json:"time"`
	Mid      oandaOHLC `json:"mid"`
}

type oandaCandles struct {
	Instrument  string        `json:"instrument"`
	Granularity string        `json:"granularity"`
	Candles     []oandaCandle `json:"candles"`
}

// FetchCandles returns completed candles in [from, to). Incomplete candles
// are dropped.
func (o *Oanda) FetchCandles(ctx context.Context, instrument string, from, to time.Time) ([]market.Candle, error) {
	if instrument == "" {
		return nil, fmt.Errorf("instrument is required")
	}

	params := url.Values{}
	params.Set("price", "M")
	params.Set("granularity", o.granularity)
	if from.IsZero() {
		params.Set("count", strconv.Itoa(oandaMaxCount))
	} else {
		params.Set("from", from.UTC().Format(time.RFC3339))
		if !to.IsZero() {
			params.Set("to", to.UTC().Format(time.RFC3339))
		}
	}

	apiURL := fmt.Sprintf("%s/v3/instruments/%s/candles?%s", o.baseURL, url.PathEscape(instrument), params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.token)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: oanda: %v", ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("oanda API error (status %d): %s", resp.StatusCode, string(body))
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
		}
		return nil, err
	}

	var body oandaCandles
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	candles := make([]market.Candle, 0, len(body.Candles))
	for _, ac := range body.Candles {
		if !ac.Complete {
			continue
		}
		c, err := ac.candle()
		if err != nil {
			return nil, err
		}
		candles = append(candles, c)
	}
	return filterSorted(candles, from, to), nil
}

func (ac oandaCandle) candle() (market.Candle, error) {
	t, err := time.Parse(time.RFC3339, ac.Time)
	if err != nil {
		return market.Candle{}, fmt.Errorf("parse time %s: %w", ac.Time, err)
	}

	c := market.Candle{Time: t, Volume: float64(ac.Volume)}
	for _, f := range []struct {
		name string
		s    string
		dst  *float64
	}{
		{"open", ac.Mid.O, &c.Open},
		{"high", ac.Mid.H, &c.High},
		{"low", ac.Mid.L, &c.Low},
		{"close", ac.Mid.C, &c.Close},
	} {
		v, err := strconv.ParseFloat(f.s, 64)
		if err != nil {
			return market.Candle{}, fmt.Errorf("parse %s price: %w", f.name, err)
		}
		*f.dst = v
	}
	return c, nil
}
