package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"

	"k8s.io/utils/ptr"

	"github.com/scholarship-analytics/enrollment-planner/internal/history"
	"github.com/scholarship-analytics/enrollment-planner/internal/model"
)

// Manual scenario values used when the operator leaves a field unset.
const (
	DefaultManualMarketingSpend    = 500_000_000
	DefaultManualScholarshipEvents = 15
)

// ErrInvalidScenario is returned for manual inputs that cannot be scored.
var ErrInvalidScenario = errors.New("invalid scenario")

// Scenario is the fully resolved input of one forecast.
type Scenario struct {
	MarketingSpend    float64
	ScholarshipEvents float64
	// Target is the first day of the forecast month.
	Target time.Time
	// Lag1 and Lag2 are the student counts of the last and second-to-last
	// observed months.
	Lag1 int
	Lag2 int
}

// Features returns the scenario as a model feature vector in schema order.
func (s Scenario) Features() model.FeatureVector {
	return model.FeatureVector{
		Names: append([]string(nil), model.EnrollmentSchema...),
		Values: []float64{
			s.MarketingSpend,
			s.ScholarshipEvents,
			float64(s.Target.Month()),
			float64(s.Target.Year()),
			float64(s.Lag1),
			float64(s.Lag2),
		},
	}
}

// BuildFeatures is Scenario.Features as a function.
func BuildFeatures(s Scenario) model.FeatureVector {
	return s.Features()
}

// LatestLags returns the student counts of the last two observations. With a
// single observation both lags equal it, which assumes a flat trend.
func LatestLags(ds *history.Dataset) (lag1, lag2 int, err error) {
	last, ok := ds.FromEnd(0)
	if !ok {
		return 0, 0, history.ErrEmptyHistory
	}
	prev, ok := ds.FromEnd(1)
	if !ok {
		return last.Students, last.Students, nil
	}
	return last.Students, prev.Students, nil
}

// Request carries the operator's choices. Nil fields take their defaults.
type Request struct {
	Mode Mode
	// Target is any instant in the forecast month; zero means the current month.
	Target            time.Time
	MarketingSpend    *float64
	ScholarshipEvents *float64
}

// ResolveScenario builds the scenario for req. In ModeAuto the exogenous inputs
// are historical means and any manual values are ignored. In ModeManual unset
// values take the manual defaults and negative values are rejected.
func ResolveScenario(req Request, ds *history.Dataset, now time.Time) (Scenario, error) {
	lag1, lag2, err := LatestLags(ds)
	if err != nil {
		return Scenario{}, err
	}

	target := req.Target
	if target.IsZero() {
		target = now
	}
	s := Scenario{
		Target: history.MonthStart(target),
		Lag1:   lag1,
		Lag2:   lag2,
	}

	switch req.Mode {
	case ModeAuto, "":
		s.MarketingSpend = ds.MeanMarketingSpend()
		s.ScholarshipEvents = ds.MeanScholarshipEvents()
	case ModeManual:
		s.MarketingSpend = ptr.Deref(req.MarketingSpend, DefaultManualMarketingSpend)
		s.ScholarshipEvents = ptr.Deref(req.ScholarshipEvents, DefaultManualScholarshipEvents)
		if !validAmount(s.MarketingSpend) {
			return Scenario{}, fmt.Errorf("%w: marketing spend must be a non-negative number, got %v",
				ErrInvalidScenario, s.MarketingSpend)
		}
		if !validAmount(s.ScholarshipEvents) {
			return Scenario{}, fmt.Errorf("%w: scholarship events must be a non-negative number, got %v",
				ErrInvalidScenario, s.ScholarshipEvents)
		}
	default:
		return Scenario{}, fmt.Errorf("%w: %q", ErrUnknownMode, req.Mode)
	}
	return s, nil
}

func validAmount(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0)
}
