package history

import (
	"errors"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// ErrEmptyHistory is returned when no usable historical observation exists.
// Without at least one observation no lag feature can be produced.
var ErrEmptyHistory = errors.New("historical dataset is empty")

// Observation is one month of enrollment history.
type Observation struct {
	// Date is the first day of the observed month, in UTC.
	Date time.Time
	// Students is the enrolled student count for the month.
	Students int
	// MarketingSpend is the marketing budget spent during the month.
	MarketingSpend float64
	// ScholarshipEvents is the number of scholarship events held during the month.
	ScholarshipEvents int
}

// Dataset is an immutable, date-ascending sequence of observations.
// It is safe for concurrent readers.
type Dataset struct {
	observations []Observation
}

// NewDataset copies obs, sorts it ascending by date and returns the Dataset.
// Observations sharing a month keep their input order.
func NewDataset(obs []Observation) (*Dataset, error) {
	if len(obs) == 0 {
		return nil, ErrEmptyHistory
	}
	sorted := make([]Observation, len(obs))
	copy(sorted, obs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return &Dataset{observations: sorted}, nil
}

// Len returns the number of observations.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.observations)
}

// Last returns the most recent observation.
func (d *Dataset) Last() (Observation, bool) {
	if d.Len() == 0 {
		return Observation{}, false
	}
	return d.observations[len(d.observations)-1], true
}

// FromEnd returns the observation n positions before the most recent one
// (FromEnd(0) is the most recent).
func (d *Dataset) FromEnd(n int) (Observation, bool) {
	if n < 0 || n >= d.Len() {
		return Observation{}, false
	}
	return d.observations[len(d.observations)-1-n], true
}

// Observations returns a copy of all observations in date order.
func (d *Dataset) Observations() []Observation {
	out := make([]Observation, d.Len())
	if d != nil {
		copy(out, d.observations)
	}
	return out
}

// MeanMarketingSpend is the average monthly marketing spend.
func (d *Dataset) MeanMarketingSpend() float64 {
	return d.mean(func(o Observation) float64 { return o.MarketingSpend })
}

// MeanScholarshipEvents is the average monthly number of scholarship events.
func (d *Dataset) MeanScholarshipEvents() float64 {
	return d.mean(func(o Observation) float64 { return float64(o.ScholarshipEvents) })
}

// MeanStudents is the average monthly student count.
func (d *Dataset) MeanStudents() float64 {
	return d.mean(func(o Observation) float64 { return float64(o.Students) })
}

func (d *Dataset) mean(field func(Observation) float64) float64 {
	if d.Len() == 0 {
		return 0
	}
	values := make([]float64, len(d.observations))
	for i, o := range d.observations {
		values[i] = field(o)
	}
	return stat.Mean(values, nil)
}

// StudentSeries returns the student counts as a chartable time series.
func (d *Dataset) StudentSeries() *TimeSeries {
	ts := NewTimeSeries(SeriesHistorical)
	for _, o := range d.Observations() {
		ts.AddPoint(o.Date, float64(o.Students))
	}
	return ts
}

// MonthStart normalizes t to the first instant of its month in UTC.
func MonthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}
