package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/orb/orb"
)

// Config is the complete run configuration shared by the backtest and
// paper commands.
type Config struct {
	Timezone    string             `json:"timezone" yaml:"timezone"`
	Interval    string             `json:"interval" yaml:"interval"` // candle size, e.g. "5m"
	Session     SessionConfig      `json:"session" yaml:"session"`
	Instruments []InstrumentConfig `json:"instruments" yaml:"instruments"`
	Feed        FeedConfig         `json:"feed" yaml:"feed"`
	Paper       PaperConfig        `json:"paper" yaml:"paper"`
	Journal     JournalConfig      `json:"journal" yaml:"journal"`
	Log         LogConfig          `json:"log" yaml:"log"`
}

// SessionConfig holds exchange-time clock values ("HH:MM").
type SessionConfig struct {
	WindowStart string `json:"window_start" yaml:"window_start"`
	WindowEnd   string `json:"window_end" yaml:"window_end"`
	SessionEnd  string `json:"session_end" yaml:"session_end"`
}

// InstrumentConfig is one traded symbol. Session fields left empty fall
// back to the top-level session.
type InstrumentConfig struct {
	Symbol    string        `json:"symbol" yaml:"symbol"`
	CSV       string        `json:"csv,omitempty" yaml:"csv,omitempty"`
	KiteToken int           `json:"kite_token,omitempty" yaml:"kite_token,omitempty"`
	Session   SessionConfig `json:"session,omitempty" yaml:"session,omitempty"`
	Stop      PolicyConfig  `json:"stop" yaml:"stop"`
	T1        PolicyConfig  `json:"t1" yaml:"t1"`
	T2        PolicyConfig  `json:"t2" yaml:"t2"`
}

// PolicyConfig is a stop or target: kind is fixed, percent or range.
type PolicyConfig struct {
	Kind  string  `json:"kind" yaml:"kind"`
	Value float64 `json:"value" yaml:"value"`
}

// FeedConfig selects the candle source: csv, kite or oanda.
type FeedConfig struct {
	Source   string `json:"source" yaml:"source"`
	Practice bool   `json:"practice,omitempty" yaml:"practice,omitempty"` // oanda only
}

// PaperConfig tunes the live polling loop.
type PaperConfig struct {
	Poll       string `json:"poll" yaml:"poll"`
	Grace      string `json:"grace" yaml:"grace"`
	StartAfter string `json:"start_after" yaml:"start_after"`
	TradesDir  string `json:"trades_dir,omitempty" yaml:"trades_dir,omitempty"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv" or "sqlite"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// Path is where the configured journal writes.
func (j JournalConfig) Path() string {
	if j.Type == "sqlite" {
		return j.DBPath
	}
	return j.TradesFile
}

type LogConfig struct {
	Level   string `json:"level" yaml:"level"`
	Format  string `json:"format" yaml:"format"` // "json" or "console"
	Tracing bool   `json:"tracing" yaml:"tracing"`
}

// LoadFromFile loads configuration from a file (YAML, falling back to JSON)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = &Config{}
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (YAML for .yaml/.yml, else JSON)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid. Instrument rule errors
// wrap orb.ErrInvalidConfig.
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.IntervalDuration(); err != nil {
		return err
	}
	if len(c.Instruments) == 0 {
		return fmt.Errorf("at least one instrument is required")
	}

	seen := make(map[string]bool)
	for _, in := range c.Instruments {
		if seen[in.Symbol] {
			return fmt.Errorf("duplicate instrument %q", in.Symbol)
		}
		seen[in.Symbol] = true

		switch c.Feed.Source {
		case "csv":
			if in.CSV == "" {
				return fmt.Errorf("%s: csv path required for csv feed", in.Symbol)
			}
		case "kite":
			if in.KiteToken <= 0 {
				return fmt.Errorf("%s: kite_token required for kite feed", in.Symbol)
			}
		}
	}
	if _, err := c.InstrumentConfigs(); err != nil {
		return err
	}

	switch c.Feed.Source {
	case "csv", "kite", "oanda":
	default:
		return fmt.Errorf("feed.source must be 'csv', 'kite' or 'oanda'")
	}

	if _, err := c.PollInterval(); err != nil {
		return err
	}
	if _, err := c.GraceDuration(); err != nil {
		return err
	}
	if _, err := c.StartAfter(); err != nil {
		return err
	}

	if c.Journal.Type != "csv" && c.Journal.Type != "sqlite" {
		return fmt.Errorf("journal.type must be 'csv' or 'sqlite'")
	}
	if c.Journal.Type == "csv" && c.Journal.TradesFile == "" {
		return fmt.Errorf("journal trades_file required for CSV type")
	}
	if c.Journal.Type == "sqlite" && c.Journal.DBPath == "" {
		return fmt.Errorf("journal db_path required for SQLite type")
	}

	switch c.Log.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("log.format must be 'json' or 'console'")
	}
	return nil
}

// Location loads the configured time zone. Empty means Asia/Kolkata.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return orb.DefaultLocation(), nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}
	return loc, nil
}

// IntervalDuration parses the candle interval.
func (c *Config) IntervalDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.Interval)
	if err != nil {
		return 0, fmt.Errorf("interval: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("interval must be positive")
	}
	return d, nil
}

func (c *Config) PollInterval() (time.Duration, error) {
	return positiveDuration("paper.poll", c.Paper.Poll, 15*time.Second)
}

func (c *Config) GraceDuration() (time.Duration, error) {
	return positiveDuration("paper.grace", c.Paper.Grace, 5*time.Minute)
}

// StartAfter is the wall-clock time before which the paper loop idles.
func (c *Config) StartAfter() (orb.Clock, error) {
	if c.Paper.StartAfter == "" {
		return orb.MustClock("09:00"), nil
	}
	clk, err := orb.ParseClock(c.Paper.StartAfter)
	if err != nil {
		return 0, fmt.Errorf("paper.start_after: %w", err)
	}
	return clk, nil
}

func positiveDuration(field, s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", field)
	}
	return d, nil
}

// InstrumentConfigs converts every instrument into validated engine rules.
func (c *Config) InstrumentConfigs() ([]orb.InstrumentConfig, error) {
	out := make([]orb.InstrumentConfig, 0, len(c.Instruments))
	for _, in := range c.Instruments {
		ic, err := c.instrument(in)
		if err != nil {
			return nil, err
		}
		out = append(out, ic)
	}
	return out, nil
}

func (c *Config) instrument(in InstrumentConfig) (orb.InstrumentConfig, error) {
	s := c.Session.merge(in.Session)

	clocks := make([]orb.Clock, 3)
	for i, f := range []struct{ name, val string }{
		{"window_start", s.WindowStart},
		{"window_end", s.WindowEnd},
		{"session_end", s.SessionEnd},
	} {
		clk, err := orb.ParseClock(f.val)
		if err != nil {
			return orb.InstrumentConfig{}, fmt.Errorf("%w: %s: session.%s: %v", orb.ErrInvalidConfig, in.Symbol, f.name, err)
		}
		clocks[i] = clk
	}

	policies := make([]orb.Policy, 3)
	for i, p := range []struct {
		name string
		cfg  PolicyConfig
	}{
		{"stop", in.Stop},
		{"t1", in.T1},
		{"t2", in.T2},
	} {
		pol, err := p.cfg.Policy()
		if err != nil {
			return orb.InstrumentConfig{}, fmt.Errorf("%w: %s.%s: %v", orb.ErrInvalidConfig, in.Symbol, p.name, err)
		}
		policies[i] = pol
	}

	return orb.NewInstrumentConfig(in.Symbol,
		orb.Window{Start: clocks[0], End: clocks[1]},
		clocks[2],
		policies[0], policies[1], policies[2],
	)
}

func (s SessionConfig) merge(override SessionConfig) SessionConfig {
	if override.WindowStart != "" {
		s.WindowStart = override.WindowStart
	}
	if override.WindowEnd != "" {
		s.WindowEnd = override.WindowEnd
	}
	if override.SessionEnd != "" {
		s.SessionEnd = override.SessionEnd
	}
	return s
}

// Policy converts to the engine's policy type.
func (p PolicyConfig) Policy() (orb.Policy, error) {
	kind, err := orb.ParsePolicyKind(p.Kind)
	if err != nil {
		return orb.Policy{}, err
	}
	return orb.Policy{Kind: kind, Value: p.Value}, nil
}

// Rules describes an instrument's stop and targets in one line.
func (in InstrumentConfig) Rules() string {
	var parts []string
	for _, p := range []struct {
		name string
		cfg  PolicyConfig
	}{{"stop", in.Stop}, {"t1", in.T1}, {"t2", in.T2}} {
		pol, err := p.cfg.Policy()
		if err != nil {
			parts = append(parts, p.name+"=?")
			continue
		}
		parts = append(parts, p.name+"="+pol.String())
	}
	return strings.Join(parts, " ")
}

// Instrument returns the named instrument.
func (c *Config) Instrument(symbol string) (InstrumentConfig, bool) {
	for _, in := range c.Instruments {
		if in.Symbol == symbol {
			return in, true
		}
	}
	return InstrumentConfig{}, false
}

// Default returns the NSE index and stock setup the strategy was tuned on.
func Default() *Config {
	return &Config{
		Timezone: "Asia/Kolkata",
		Interval: "5m",
		Session: SessionConfig{
			WindowStart: "09:15",
			WindowEnd:   "09:30",
			SessionEnd:  "15:15",
		},
		Instruments: []InstrumentConfig{
			{
				Symbol:    "NIFTY",
				CSV:       "NIFTY_5min.csv",
				KiteToken: 256265,
				Stop:      PolicyConfig{Kind: "range"},
				T1:        PolicyConfig{Kind: "fixed", Value: 40},
				T2:        PolicyConfig{Kind: "fixed", Value: 80},
			},
			{
				Symbol:    "BANKNIFTY",
				CSV:       "BANKNIFTY_5min.csv",
				KiteToken: 260105,
				Stop:      PolicyConfig{Kind: "range"},
				T1:        PolicyConfig{Kind: "fixed", Value: 120},
				T2:        PolicyConfig{Kind: "fixed", Value: 250},
			},
			{
				Symbol:    "SBIN",
				CSV:       "SBIN_5min.csv",
				KiteToken: 779521,
				Stop:      PolicyConfig{Kind: "percent", Value: 0.005},
				T1:        PolicyConfig{Kind: "percent", Value: 0.006},
				T2:        PolicyConfig{Kind: "percent", Value: 0.012},
			},
			{
				Symbol:    "ICICIBANK",
				CSV:       "ICICIBANK_5min.csv",
				KiteToken: 1270529,
				Stop:      PolicyConfig{Kind: "percent", Value: 0.004},
				T1:        PolicyConfig{Kind: "percent", Value: 0.006},
				T2:        PolicyConfig{Kind: "percent", Value: 0.012},
			},
		},
		Feed: FeedConfig{Source: "csv"},
		Paper: PaperConfig{
			Poll:       "15s",
			Grace:      "5m",
			StartAfter: "09:00",
		},
		Journal: JournalConfig{
			Type:       "csv",
			TradesFile: "./trades.csv",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
