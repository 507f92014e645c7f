package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rustyeddy/orb/config"
	"github.com/rustyeddy/orb/feed"
	"github.com/rustyeddy/orb/orb"
)

// runtimeConfig is the resolved form of appConfig used by the commands.
type runtimeConfig struct {
	loc         *time.Location
	interval    time.Duration
	instruments []orb.InstrumentConfig
}

func resolve(cfg *config.Config, symbols []string) (runtimeConfig, error) {
	var rc runtimeConfig
	if err := cfg.Validate(); err != nil {
		return rc, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return rc, err
	}
	interval, err := cfg.IntervalDuration()
	if err != nil {
		return rc, err
	}
	all, err := cfg.InstrumentConfigs()
	if err != nil {
		return rc, err
	}

	rc.loc, rc.interval = loc, interval
	if len(symbols) == 0 {
		rc.instruments = all
		return rc, nil
	}

	want := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		want[strings.ToUpper(strings.TrimSpace(s))] = true
	}
	for _, ic := range all {
		if want[strings.ToUpper(ic.Symbol)] {
			rc.instruments = append(rc.instruments, ic)
			delete(want, strings.ToUpper(ic.Symbol))
		}
	}
	if len(want) > 0 {
		var missing []string
		for s := range want {
			missing = append(missing, s)
		}
		return rc, fmt.Errorf("unknown symbols: %s", strings.Join(missing, ", "))
	}
	return rc, nil
}

// newFetcher builds the candle source named by cfg.Feed.Source.
func newFetcher(cfg *config.Config, rc runtimeConfig) (feed.Fetcher, error) {
	switch cfg.Feed.Source {
	case "", "csv":
		paths := make(map[string]string, len(cfg.Instruments))
		for _, in := range cfg.Instruments {
			paths[in.Symbol] = in.CSV
		}
		return feed.CSVFile{Paths: paths, Location: rc.loc}, nil

	case "kite":
		return newKite(cfg, rc)

	case "oanda":
		token := os.Getenv("OANDA_TOKEN")
		if token == "" {
			return nil, fmt.Errorf("OANDA_TOKEN is not set")
		}
		return feed.NewOanda(token, cfg.Feed.Practice, rc.interval)

	default:
		return nil, fmt.Errorf("unknown feed source %q", cfg.Feed.Source)
	}
}

func newKite(cfg *config.Config, rc runtimeConfig) (*feed.Kite, error) {
	apiKey, token := os.Getenv("KITE_API_KEY"), os.Getenv("KITE_ACCESS_TOKEN")
	if apiKey == "" || token == "" {
		return nil, fmt.Errorf("KITE_API_KEY and KITE_ACCESS_TOKEN must be set")
	}
	tokens := make(map[string]int, len(cfg.Instruments))
	for _, in := range cfg.Instruments {
		tokens[in.Symbol] = in.KiteToken
	}
	k, err := feed.NewKite(apiKey, token, tokens, rc.interval)
	if err != nil {
		return nil, err
	}
	k.Location = rc.loc
	return k, nil
}

// rules maps each configured symbol to its stop and target description.
func rules(cfg *config.Config) map[string]string {
	out := make(map[string]string, len(cfg.Instruments))
	for _, in := range cfg.Instruments {
		out[in.Symbol] = in.Rules()
	}
	return out
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
