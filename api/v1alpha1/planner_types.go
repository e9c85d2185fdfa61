/*
Copyright 2025 The enrollment-planner Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package v1alpha1 contains the wire types of the planner HTTP API and CLI
// output.
package v1alpha1

import (
	"fmt"
	"strings"
	"time"
)

// MonthLayout is the wire format of a month: "2025-11".
const MonthLayout = "2006-01"

// Sources of the active student count used by a capacity calculation.
const (
	ActiveStudentsFromRequest  = "request"
	ActiveStudentsFromForecast = "forecast"
	ActiveStudentsFromHistory  = "history"
)

// ForecastRequest asks for a single-month enrollment forecast.
type ForecastRequest struct {
	// Mode selects the scenario source: "auto" (historical averages) or
	// "manual". Empty means auto.
	Mode string `json:"mode,omitempty" yaml:"mode,omitempty"`

	// Target is the forecast month (YYYY-MM). Empty means the current month.
	Target string `json:"target,omitempty" yaml:"target,omitempty"`

	// MarketingSpend is used in manual mode. Defaults to 500000000.
	MarketingSpend *float64 `json:"marketingSpend,omitempty" yaml:"marketingSpend,omitempty"`

	// ScholarshipEvents is used in manual mode. Defaults to 15.
	ScholarshipEvents *float64 `json:"scholarshipEvents,omitempty" yaml:"scholarshipEvents,omitempty"`

	// IncludeSeries adds the historical and forecast chart series to the
	// response.
	IncludeSeries bool `json:"includeSeries,omitempty" yaml:"includeSeries,omitempty"`
}

// ScenarioInputs are the feature values a forecast was scored with.
type ScenarioInputs struct {
	MarketingSpend    float64 `json:"marketingSpend" yaml:"marketingSpend"`
	ScholarshipEvents float64 `json:"scholarshipEvents" yaml:"scholarshipEvents"`
	MonthNumber       int     `json:"monthNumber" yaml:"monthNumber"`
	Year              int     `json:"year" yaml:"year"`
	Lag1              int     `json:"lag1" yaml:"lag1"`
	Lag2              int     `json:"lag2" yaml:"lag2"`
}

// SeriesPoint is one charted month.
type SeriesPoint struct {
	Month    string  `json:"month" yaml:"month"`
	Students float64 `json:"students" yaml:"students"`
}

// Series is a named line of a chart ("Historical" or "Forecast").
type Series struct {
	Name   string        `json:"name" yaml:"name"`
	Points []SeriesPoint `json:"points" yaml:"points"`
}

// ForecastResponse is the outcome of a forecast. When Error is set the
// predictor failed, PredictedStudents is 0, and the request may be retried.
type ForecastResponse struct {
	Target             string         `json:"target" yaml:"target"`
	Mode               string         `json:"mode" yaml:"mode"`
	Scenario           ScenarioInputs `json:"scenario" yaml:"scenario"`
	PredictedStudents  int            `json:"predictedStudents" yaml:"predictedStudents"`
	LastObserved       int            `json:"lastObserved" yaml:"lastObserved"`
	DeltaFromLastMonth int            `json:"deltaFromLastMonth" yaml:"deltaFromLastMonth"`
	Error              string         `json:"error,omitempty" yaml:"error,omitempty"`
	Series             []Series       `json:"series,omitempty" yaml:"series,omitempty"`
}

// CapacityRequest asks for a tutor capacity and fairness calculation.
type CapacityRequest struct {
	// Profile selects the slider bounds. Empty means "default".
	Profile string `json:"profile,omitempty" yaml:"profile,omitempty"`

	// ActiveStudents overrides the student count.
	ActiveStudents *int `json:"activeStudents,omitempty" yaml:"activeStudents,omitempty"`

	// PredictedStudents is a forecast output to use when ActiveStudents is
	// unset. Ignored unless positive; the last historical count is used then.
	PredictedStudents *int `json:"predictedStudents,omitempty" yaml:"predictedStudents,omitempty"`

	// HoursPerStudent is weekly tutoring hours per student. Defaults to the
	// profile's default.
	HoursPerStudent *float64 `json:"hoursPerStudent,omitempty" yaml:"hoursPerStudent,omitempty"`

	// HoursPerTutor is weekly hours each tutor gives. Defaults to the
	// profile's default.
	HoursPerTutor *float64 `json:"hoursPerTutor,omitempty" yaml:"hoursPerTutor,omitempty"`

	// Rounding overrides the tutor rounding policy: "ceiling" or "legacy".
	Rounding string `json:"rounding,omitempty" yaml:"rounding,omitempty"`
}

// CapacityResponse is the capacity and fairness result with the inputs used.
type CapacityResponse struct {
	Profile               string  `json:"profile" yaml:"profile"`
	ActiveStudents        int     `json:"activeStudents" yaml:"activeStudents"`
	ActiveStudentsSource  string  `json:"activeStudentsSource" yaml:"activeStudentsSource"`
	HoursPerStudent       float64 `json:"hoursPerStudent" yaml:"hoursPerStudent"`
	HoursPerTutor         float64 `json:"hoursPerTutor" yaml:"hoursPerTutor"`
	TotalHours            float64 `json:"totalHours" yaml:"totalHours"`
	TutorsNeeded          int     `json:"tutorsNeeded" yaml:"tutorsNeeded"`
	MaxStudentsPerTutor   int     `json:"maxStudentsPerTutor" yaml:"maxStudentsPerTutor"`
	AverageLoadPerTutor   float64 `json:"averageLoadPerTutor" yaml:"averageLoadPerTutor"`
	Rounding              string  `json:"rounding" yaml:"rounding"`
	WithinRecommendedLoad bool    `json:"withinRecommendedLoad" yaml:"withinRecommendedLoad"`
}

// Observation is one cleaned month of history.
type Observation struct {
	Month             string  `json:"month" yaml:"month"`
	Students          int     `json:"students" yaml:"students"`
	MarketingSpend    float64 `json:"marketingSpend" yaml:"marketingSpend"`
	ScholarshipEvents int     `json:"scholarshipEvents" yaml:"scholarshipEvents"`
}

// HistorySummary describes the loaded history.
type HistorySummary struct {
	Months                   int      `json:"months" yaml:"months"`
	FirstMonth               string   `json:"firstMonth" yaml:"firstMonth"`
	LastMonth                string   `json:"lastMonth" yaml:"lastMonth"`
	LastStudents             int      `json:"lastStudents" yaml:"lastStudents"`
	AverageStudents          float64  `json:"averageStudents" yaml:"averageStudents"`
	AverageMarketingSpend    float64  `json:"averageMarketingSpend" yaml:"averageMarketingSpend"`
	AverageScholarshipEvents float64  `json:"averageScholarshipEvents" yaml:"averageScholarshipEvents"`
	SkippedLines             []int    `json:"skippedLines,omitempty" yaml:"skippedLines,omitempty"`
	MissingColumns           []string `json:"missingColumns,omitempty" yaml:"missingColumns,omitempty"`
	LoadedAt                 string   `json:"loadedAt" yaml:"loadedAt"`
}

// HistoryResponse is the cleaned history with its summary.
type HistoryResponse struct {
	Summary      HistorySummary `json:"summary" yaml:"summary"`
	Observations []Observation  `json:"observations" yaml:"observations"`
}

// SliderBounds constrains one capacity parameter.
type SliderBounds struct {
	Min     float64 `json:"min" yaml:"min"`
	Max     float64 `json:"max" yaml:"max"`
	Step    float64 `json:"step" yaml:"step"`
	Default float64 `json:"default" yaml:"default"`
}

// Profile is an effective capacity profile.
type Profile struct {
	Name            string       `json:"name" yaml:"name"`
	Description     string       `json:"description,omitempty" yaml:"description,omitempty"`
	HoursPerStudent SliderBounds `json:"hoursPerStudent" yaml:"hoursPerStudent"`
	HoursPerTutor   SliderBounds `json:"hoursPerTutor" yaml:"hoursPerTutor"`
	Rounding        string       `json:"rounding" yaml:"rounding"`
}

// ProfilesResponse lists the capacity profiles, "default" first.
type ProfilesResponse struct {
	Profiles []Profile `json:"profiles" yaml:"profiles"`
}

// ReloadResponse reports a successful asset reload.
type ReloadResponse struct {
	LoadedAt string `json:"loadedAt" yaml:"loadedAt"`
	Months   int    `json:"months" yaml:"months"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error     string `json:"error" yaml:"error"`
	RequestID string `json:"requestID,omitempty" yaml:"requestID,omitempty"`
}

// ParseMonth parses a wire month. "2025-11" and "2025-11-17" are accepted; an
// empty value means the month containing now.
func ParseMonth(value string, now time.Time) (time.Time, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		y, m, _ := now.Date()
		return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC), nil
	}
	for _, layout := range []string{MonthLayout, time.DateOnly} {
		if t, err := time.Parse(layout, v); err == nil {
			return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid month %q, want YYYY-MM", value)
}

// FormatMonth renders t in MonthLayout.
func FormatMonth(t time.Time) string {
	return t.UTC().Format(MonthLayout)
}
