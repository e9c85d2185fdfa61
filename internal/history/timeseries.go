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

package history

import (
	"time"
)

// Series names used when historical and forecast points are charted together.
const (
	SeriesHistorical = "Historical"
	SeriesForecast   = "Forecast"
)

// DataPoint represents a single monthly value.
type DataPoint struct {
	// Timestamp is the first day of the month the value belongs to.
	Timestamp time.Time

	// Value is the student count for that month.
	Value float64
}

// TimeSeries represents a named sequence of monthly data points.
// Note: This type is not thread-safe. Series handed out by a Dataset are copies.
type TimeSeries struct {
	// Name identifies the series in a chart legend (Historical, Forecast).
	Name string

	// Points are the data points in chronological order.
	Points []DataPoint
}

// NewTimeSeries creates an empty TimeSeries with the given name.
func NewTimeSeries(name string) *TimeSeries {
	return &TimeSeries{
		Name:   name,
		Points: make([]DataPoint, 0),
	}
}

// AddPoint adds a data point to the time series.
func (ts *TimeSeries) AddPoint(timestamp time.Time, value float64) {
	ts.Points = append(ts.Points, DataPoint{
		Timestamp: timestamp,
		Value:     value,
	})
}

// Len returns the number of points.
func (ts *TimeSeries) Len() int {
	return len(ts.Points)
}

// Latest returns the most recent data point, or nil if empty.
func (ts *TimeSeries) Latest() *DataPoint {
	if len(ts.Points) == 0 {
		return nil
	}
	return &ts.Points[len(ts.Points)-1]
}

// LatestValue returns the most recent value, or 0 if empty.
func (ts *TimeSeries) LatestValue() float64 {
	if len(ts.Points) == 0 {
		return 0
	}
	return ts.Points[len(ts.Points)-1].Value
}
