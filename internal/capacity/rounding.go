package capacity

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrUnknownRounding is returned for rounding policy names that are not supported.
var ErrUnknownRounding = errors.New("unknown tutor rounding policy")

// Rounding is an enumeration of the ways a fractional tutor count becomes a whole number.
type Rounding int

// enumeration of Rounding
const (
	// RoundingCeiling is the mathematical ceiling: exact divisions are not bumped.
	RoundingCeiling Rounding = iota
	// RoundingLegacy truncates and always adds one, even when the division is exact.
	// Staffing reports produced before the ceiling fix used this rule.
	RoundingLegacy
)

// ratioEpsilon is the relative tolerance that absorbs float noise such as
// 132.00000000000003/12 before rounding.
const ratioEpsilon = 1e-9

// maxCount caps whole-number results so extreme ratios never overflow int.
const maxCount = math.MaxInt32

func (r Rounding) String() string {
	switch r {
	case RoundingCeiling:
		return "ceiling"
	case RoundingLegacy:
		return "legacy"
	default:
		return fmt.Sprintf("Rounding(%d)", int(r))
	}
}

// ParseRounding maps a policy name to a Rounding. An empty name selects the ceiling.
func ParseRounding(name string) (Rounding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "ceiling", "ceil":
		return RoundingCeiling, nil
	case "legacy", "plus-one":
		return RoundingLegacy, nil
	default:
		return RoundingCeiling, fmt.Errorf("%w: %q", ErrUnknownRounding, name)
	}
}

// tutors converts a non-negative required-hours ratio into a whole tutor count.
// Under the ceiling any positive ratio gives at least one tutor.
func (r Rounding) tutors(ratio float64) int {
	if r == RoundingLegacy {
		return toCount(math.Floor(ratio)) + 1
	}
	whole := math.Floor(ratio)
	if ratio-whole > ratioEpsilon*ratio {
		whole++
	}
	return toCount(whole)
}

// toCount converts a whole, non-negative float to an int, saturating at maxCount.
func toCount(v float64) int {
	switch {
	case !(v > 0):
		return 0
	case v >= maxCount:
		return maxCount
	default:
		return int(v)
	}
}
