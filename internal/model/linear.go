package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// KindLinear identifies a linear model artifact.
const KindLinear = "linear"

// LinearModel is an ordinary least squares model: intercept + Σ coef·x.
type LinearModel struct {
	Kind         string    `yaml:"kind"`
	FeatureNames []string  `yaml:"features"`
	Intercept    float64   `yaml:"intercept"`
	Coefficients []float64 `yaml:"coefficients"`
}

// Validate checks that the artifact is internally consistent.
func (m *LinearModel) Validate() error {
	if m.Kind != "" && m.Kind != KindLinear {
		return fmt.Errorf("unexpected model kind %q, want %q", m.Kind, KindLinear)
	}
	if len(m.FeatureNames) == 0 {
		return fmt.Errorf("linear model has no features")
	}
	if len(m.FeatureNames) != len(m.Coefficients) {
		return fmt.Errorf("linear model has %d features but %d coefficients",
			len(m.FeatureNames), len(m.Coefficients))
	}
	if math.IsNaN(m.Intercept) || math.IsInf(m.Intercept, 0) || floats.HasNaN(m.Coefficients) {
		return fmt.Errorf("linear model has non-finite parameters")
	}
	return nil
}

// Features implements Predictor.
func (m *LinearModel) Features() []string {
	return append([]string(nil), m.FeatureNames...)
}

// Predict implements Predictor.
func (m *LinearModel) Predict(fv FeatureVector) (float64, error) {
	if err := CheckSchema(m.FeatureNames, fv); err != nil {
		return 0, err
	}
	y := m.Intercept + floats.Dot(m.Coefficients, fv.Values)
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, fmt.Errorf("linear model produced non-finite prediction")
	}
	return y, nil
}
