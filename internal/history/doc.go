// Package history loads and normalizes the monthly enrollment history.
//
// The history is a CSV export with one row per month. Header names vary between
// exports, so each column accepts several aliases:
//
//	date:                bulan, month, date
//	students:            student, students, student_count
//	marketing spend:     Spending_Marketing, marketing_spend, marketing
//	scholarship events:  Beasiswa, scholarship_events, events
//
// # Normalization
//
// Monetary cells are currency-formatted text ("Rp500,000,000", "$1,250.50").
// ParseCurrency strips currency symbols and codes, whitespace and ','
// thousands separators, then parses the rest; anything unparseable or negative
// becomes 0. Count cells go through ParseCount with the same zero policy.
//
// Dates accept ISO days and months, RFC3339, "01/2006", "Jan 2006" and
// "January 2006", and are normalized to the first day of the month in UTC. A row
// whose date cannot be parsed is skipped and reported in the LoadReport.
//
// # Dataset
//
// The loaded Dataset is sorted ascending by date and never mutated afterwards.
// It exposes the last observations (the lag sources for the forecast), the
// historical means used by the auto scenario, and the student counts as a
// TimeSeries for charting.
//
//	ds, report, err := history.LoadFile(ctx, "data/enrollment.csv")
//	if err != nil {
//	    return err // fatal: the planner cannot run without history
//	}
//	last, _ := ds.Last()
//	log.Info("history loaded", "months", ds.Len(), "skipped", len(report.SkippedLines),
//	    "lastMonth", last.Date.Format("2006-01"), "lastStudents", last.Students)
//
// An empty history (no header, or no row with a usable date) is ErrEmptyHistory.
package history
