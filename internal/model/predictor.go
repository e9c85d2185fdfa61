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

package model

import (
	"errors"
	"fmt"
	"slices"
)

// Feature names of the enrollment model, in training order.
const (
	FeatureMarketingSpend    = "Spending_Marketing"
	FeatureScholarshipEvents = "Beasiswa"
	FeatureMonth             = "Month_Num"
	FeatureYear              = "Year"
	FeatureLag1              = "Lag_1"
	FeatureLag2              = "Lag_2"
)

// EnrollmentSchema is the feature order every enrollment model is trained on.
var EnrollmentSchema = []string{
	FeatureMarketingSpend,
	FeatureScholarshipEvents,
	FeatureMonth,
	FeatureYear,
	FeatureLag1,
	FeatureLag2,
}

// ErrSchemaMismatch is returned when a feature vector does not carry exactly the
// features a model was trained on, in the same order.
var ErrSchemaMismatch = errors.New("feature schema mismatch")

// FeatureVector is an ordered, named record of model inputs.
type FeatureVector struct {
	Names  []string
	Values []float64
}

// Value returns the value of the named feature.
func (fv FeatureVector) Value(name string) (float64, bool) {
	i := slices.Index(fv.Names, name)
	if i < 0 || i >= len(fv.Values) {
		return 0, false
	}
	return fv.Values[i], true
}

// Predictor scores a feature vector. Implementations are read-only after
// loading and safe for concurrent use.
type Predictor interface {
	// Features returns the ordered feature names the predictor expects.
	Features() []string
	// Predict returns the raw regression output for fv.
	Predict(fv FeatureVector) (float64, error)
}

// CheckSchema verifies fv matches want name-for-name.
func CheckSchema(want []string, fv FeatureVector) error {
	if len(fv.Names) != len(fv.Values) {
		return fmt.Errorf("%w: %d names for %d values", ErrSchemaMismatch, len(fv.Names), len(fv.Values))
	}
	if !slices.Equal(want, fv.Names) {
		return fmt.Errorf("%w: model expects %v, got %v", ErrSchemaMismatch, want, fv.Names)
	}
	return nil
}
