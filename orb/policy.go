package orb

import (
	"fmt"
	"strings"
)

// PolicyKind tags the Policy variant.
type PolicyKind int

const (
	PolicyUnknown PolicyKind = iota
	// PolicyFixedOffset measures in absolute price points.
	PolicyFixedOffset
	// PolicyPercentOfEntry measures as a fraction of the entry price.
	PolicyPercentOfEntry
	// PolicyRangeBoundary places a stop at the opposite opening-range
	// boundary, Value points beyond it. Stops only.
	PolicyRangeBoundary
)

func (k PolicyKind) String() string {
	switch k {
	case PolicyFixedOffset:
		return "fixed"
	case PolicyPercentOfEntry:
		return "percent"
	case PolicyRangeBoundary:
		return "range"
	default:
		return "unknown"
	}
}

// ParsePolicyKind accepts the names produced by PolicyKind.String plus a
// few aliases used in config files.
func ParsePolicyKind(s string) (PolicyKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fixed", "points", "fixed_offset":
		return PolicyFixedOffset, nil
	case "percent", "pct", "percent_of_entry":
		return PolicyPercentOfEntry, nil
	case "range", "or", "range_boundary":
		return PolicyRangeBoundary, nil
	default:
		return PolicyUnknown, fmt.Errorf("unknown policy kind %q (supported: fixed, percent, range)", s)
	}
}

// Policy is a stop or target distance.
type Policy struct {
	Kind  PolicyKind
	Value float64
}

func FixedOffset(points float64) Policy {
	return Policy{Kind: PolicyFixedOffset, Value: points}
}

func PercentOfEntry(fraction float64) Policy {
	return Policy{Kind: PolicyPercentOfEntry, Value: fraction}
}

func RangeBoundary(buffer float64) Policy {
	return Policy{Kind: PolicyRangeBoundary, Value: buffer}
}

func (p Policy) String() string {
	switch p.Kind {
	case PolicyFixedOffset:
		return fmt.Sprintf("FixedOffset(%g)", p.Value)
	case PolicyPercentOfEntry:
		return fmt.Sprintf("PercentOfEntry(%g)", p.Value)
	case PolicyRangeBoundary:
		return fmt.Sprintf("RangeBoundary(%g)", p.Value)
	default:
		return "Policy(unknown)"
	}
}

func (p Policy) validate(field string, stop bool) error {
	switch p.Kind {
	case PolicyFixedOffset, PolicyPercentOfEntry:
		if p.Value <= 0 {
			return invalidf("%s: %s value must be positive, got %g", field, p.Kind, p.Value)
		}
	case PolicyRangeBoundary:
		if !stop {
			return invalidf("%s: range policy is only valid for stops", field)
		}
		if p.Value < 0 {
			return invalidf("%s: range buffer must not be negative, got %g", field, p.Value)
		}
	default:
		return invalidf("%s: unknown policy kind", field)
	}
	return nil
}

// distance from entry for offset and percent policies.
func (p Policy) distance(entry float64) float64 {
	if p.Kind == PolicyPercentOfEntry {
		return entry * p.Value
	}
	return p.Value
}

// Target is the profit level: away from entry in the trade direction.
func (p Policy) Target(dir Direction, entry float64) float64 {
	return entry + float64(dir)*p.distance(entry)
}

// Stop is the protective level: against the trade direction. Range stops
// hang off the opening range boundary opposite to the trade.
func (p Policy) Stop(dir Direction, entry float64, rng Levels) float64 {
	if p.Kind == PolicyRangeBoundary {
		if dir == Long {
			return rng.Low - p.Value
		}
		return rng.High + p.Value
	}
	return entry - float64(dir)*p.distance(entry)
}
