package capacity

import (
	"fmt"
	"math"
)

// Inputs are the workload parameters of one capacity calculation.
type Inputs struct {
	// ActiveStudents is the number of students to be served.
	ActiveStudents int
	// HoursPerStudent is the weekly tutoring hours each student needs.
	HoursPerStudent float64
	// HoursPerTutor is the weekly hours a single tutor can supply.
	HoursPerTutor float64
}

// Result is the staffing requirement and fairness load for a set of Inputs.
// Every field is always populated and never negative.
type Result struct {
	TotalHours          float64
	TutorsNeeded        int
	MaxStudentsPerTutor int
	AverageLoadPerTutor float64
	Rounding            Rounding
	// WithinRecommendedLoad reports whether the realized average load stays at or
	// under the recommended maximum students per tutor.
	WithinRecommendedLoad bool
}

// Calculator computes capacity results under a fixed rounding policy.
type Calculator interface {
	// Calculate returns the staffing requirement for in.
	Calculate(in Inputs) Result
}

// NewCalculator is a factory that creates a Calculator for the provided rounding policy
func NewCalculator(rounding Rounding) (Calculator, error) {
	switch rounding {
	case RoundingCeiling, RoundingLegacy:
		return policyCalculator{rounding: rounding}, nil
	default:
		return nil, fmt.Errorf("unsupported rounding policy: %v", rounding)
	}
}

type policyCalculator struct {
	rounding Rounding
}

func (c policyCalculator) Calculate(in Inputs) Result {
	return Compute(in, c.rounding)
}

// Compute is the capacity and fairness calculation. It is pure: identical inputs
// always give identical results.
//
// A tutor capacity that is not a positive finite number yields a zero-valued
// staffing result rather than an error; total hours are still reported. Hours per
// student that are negative or not finite count as zero.
func Compute(in Inputs, rounding Rounding) Result {
	students := in.ActiveStudents
	if students < 0 {
		students = 0
	}
	hoursPerStudent := in.HoursPerStudent
	if !(hoursPerStudent > 0) || math.IsInf(hoursPerStudent, 1) {
		hoursPerStudent = 0
	}

	res := Result{
		TotalHours: float64(students) * hoursPerStudent,
		Rounding:   rounding,
	}
	if !(in.HoursPerTutor > 0) || math.IsInf(in.HoursPerTutor, 1) {
		return res
	}

	res.TutorsNeeded = rounding.tutors(res.TotalHours / in.HoursPerTutor)
	if hoursPerStudent > 0 {
		res.MaxStudentsPerTutor = toCount(math.Floor(in.HoursPerTutor/hoursPerStudent + ratioEpsilon))
	}
	if res.TutorsNeeded > 0 {
		res.AverageLoadPerTutor = float64(students) / float64(res.TutorsNeeded)
	}
	res.WithinRecommendedLoad = res.MaxStudentsPerTutor > 0 &&
		res.AverageLoadPerTutor <= float64(res.MaxStudentsPerTutor)
	return res
}
