package orb

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentConfigValidate(t *testing.T) {
	t.Parallel()

	valid := func() InstrumentConfig {
		return InstrumentConfig{
			Symbol:        "NIFTY",
			OpeningWindow: Window{Start: MustClock("09:15"), End: MustClock("09:30")},
			SessionEnd:    MustClock("15:15"),
			Stop:          RangeBoundary(0),
			T1:            FixedOffset(40),
			T2:            FixedOffset(80),
		}
	}

	tests := []struct {
		name    string
		mutate  func(*InstrumentConfig)
		wantErr bool
		errMsg  string
	}{
		{name: "valid", mutate: func(*InstrumentConfig) {}},
		{
			name:    "missing symbol",
			mutate:  func(c *InstrumentConfig) { c.Symbol = "" },
			wantErr: true,
			errMsg:  "symbol is required",
		},
		{
			name:    "empty window",
			mutate:  func(c *InstrumentConfig) { c.OpeningWindow.End = c.OpeningWindow.Start },
			wantErr: true,
			errMsg:  "opening window start",
		},
		{
			name:    "session ends inside window",
			mutate:  func(c *InstrumentConfig) { c.SessionEnd = MustClock("09:30") },
			wantErr: true,
			errMsg:  "session end",
		},
		{
			name:    "zero stop",
			mutate:  func(c *InstrumentConfig) { c.Stop = FixedOffset(0) },
			wantErr: true,
			errMsg:  "NIFTY.stop",
		},
		{
			name:    "negative t1",
			mutate:  func(c *InstrumentConfig) { c.T1 = PercentOfEntry(-0.01) },
			wantErr: true,
			errMsg:  "NIFTY.t1",
		},
		{
			name:    "range target",
			mutate:  func(c *InstrumentConfig) { c.T2 = RangeBoundary(0) },
			wantErr: true,
			errMsg:  "only valid for stops",
		},
		{
			name:    "unset t2",
			mutate:  func(c *InstrumentConfig) { c.T2 = Policy{} },
			wantErr: true,
			errMsg:  "unknown policy kind",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestNewInstrumentConfigTrimsSymbol(t *testing.T) {
	t.Parallel()

	cfg, err := NewInstrumentConfig(" SBIN ",
		Window{Start: MustClock("09:15"), End: MustClock("09:30")},
		MustClock("15:15"),
		PercentOfEntry(0.005), PercentOfEntry(0.006), PercentOfEntry(0.012))
	require.NoError(t, err)
	assert.Equal(t, "SBIN", cfg.Symbol)

	_, err = NewInstrumentConfig("   ", cfg.OpeningWindow, cfg.SessionEnd, cfg.Stop, cfg.T1, cfg.T2)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConstructorsRejectInvalidConfig(t *testing.T) {
	t.Parallel()

	bad := InstrumentConfig{Symbol: "X"}
	_, err := NewEngine(bad)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = NewSession(bad, "2025-01-02")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestWindowContains(t *testing.T) {
	t.Parallel()

	w := Window{Start: MustClock("09:15"), End: MustClock("09:30")}
	assert.False(t, w.Contains(MustClock("09:14:59")))
	assert.True(t, w.Contains(MustClock("09:15")))
	assert.True(t, w.Contains(MustClock("09:30")))
	assert.False(t, w.Contains(MustClock("09:30:01")))
	assert.Equal(t, "09:15-09:30", w.String())
}
