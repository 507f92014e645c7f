package orb

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned for a malformed InstrumentConfig. It is
	// raised at construction, never while candles are processed.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrWrongDay is returned when a Session is fed a candle from another date.
	ErrWrongDay = errors.New("candle outside session day")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
