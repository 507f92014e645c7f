package orb

import "strings"

// Window is an inclusive [Start, End] time-of-day interval.
type Window struct {
	Start Clock
	End   Clock
}

// Contains reports Start <= tod <= End.
func (w Window) Contains(tod Clock) bool {
	return tod >= w.Start && tod <= w.End
}

func (w Window) String() string {
	return w.Start.String() + "-" + w.End.String()
}

// InstrumentConfig holds the per-instrument ORB rules. Build it with
// NewInstrumentConfig; engines keep their own copy and never mutate it.
type InstrumentConfig struct {
	Symbol        string
	OpeningWindow Window
	SessionEnd    Clock
	Stop          Policy
	T1            Policy
	T2            Policy
}

// NewInstrumentConfig validates and returns the config.
func NewInstrumentConfig(symbol string, window Window, sessionEnd Clock, stop, t1, t2 Policy) (InstrumentConfig, error) {
	cfg := InstrumentConfig{
		Symbol:        strings.TrimSpace(symbol),
		OpeningWindow: window,
		SessionEnd:    sessionEnd,
		Stop:          stop,
		T1:            t1,
		T2:            t2,
	}
	if err := cfg.Validate(); err != nil {
		return InstrumentConfig{}, err
	}
	return cfg, nil
}

// Validate returns an error wrapping ErrInvalidConfig when the config
// cannot drive a session.
func (c InstrumentConfig) Validate() error {
	if c.Symbol == "" {
		return invalidf("symbol is required")
	}
	if c.OpeningWindow.Start >= c.OpeningWindow.End {
		return invalidf("%s: opening window start %s must be before end %s",
			c.Symbol, c.OpeningWindow.Start, c.OpeningWindow.End)
	}
	if c.SessionEnd <= c.OpeningWindow.End {
		return invalidf("%s: session end %s must be after opening window end %s",
			c.Symbol, c.SessionEnd, c.OpeningWindow.End)
	}
	if err := c.Stop.validate(c.Symbol+".stop", true); err != nil {
		return err
	}
	if err := c.T1.validate(c.Symbol+".t1", false); err != nil {
		return err
	}
	if err := c.T2.validate(c.Symbol+".t2", false); err != nil {
		return err
	}
	return nil
}
