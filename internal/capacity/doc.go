// Package capacity implements the tutor capacity and fairness calculation.
//
// Given the number of active students, the weekly hours each student needs and
// the weekly hours each tutor can supply, the calculator reports:
//
//   - TotalHours: students × hours per student
//   - TutorsNeeded: TotalHours ÷ hours per tutor, rounded up to a whole tutor
//   - MaxStudentsPerTutor: hours per tutor ÷ hours per student, rounded down
//     (the recommended ceiling for a fair load)
//   - AverageLoadPerTutor: students ÷ TutorsNeeded (the realized load)
//
// Rounding:
//
// Two tutor rounding policies exist. RoundingCeiling is the true ceiling and is
// the default. RoundingLegacy reproduces the earlier planning sheet rule of
// truncating and adding one, which over-staffs by one tutor whenever the hours
// divide exactly (120 students × 1.5h ÷ 12h gives 16 instead of 15). It is kept
// selectable so historical reports can be reproduced.
//
// Example usage:
//
//	calc, err := capacity.NewCalculator(capacity.RoundingCeiling)
//	if err != nil {
//	    return err
//	}
//	res := calc.Calculate(capacity.Inputs{
//	    ActiveStudents:  120,
//	    HoursPerStudent: 1.5,
//	    HoursPerTutor:   12,
//	})
//	// res.TotalHours == 180, res.TutorsNeeded == 15, res.MaxStudentsPerTutor == 8
//
// A non-positive tutor capacity is not an error: the result is zero-valued
// apart from TotalHours.
package capacity
