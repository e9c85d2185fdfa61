package model

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/scholarship-analytics/enrollment-planner/internal/logging"
)

// LoadFile loads a model artifact, choosing the format by file extension:
// .yaml/.yml for linear models and .json for XGBoost tree dumps. A model trained
// on other features than EnrollmentSchema is loaded with a warning; its
// predictions return ErrSchemaMismatch.
func LoadFile(ctx context.Context, path string) (Predictor, error) {
	logger := ctrl.LoggerFrom(ctx)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model artifact: %w", err)
	}

	var p Predictor
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		p, err = LoadLinear(bytes.NewReader(data))
	case ".json":
		p, err = LoadTreeEnsemble(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("unsupported model artifact extension %q (want .yaml, .yml or .json)", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load model from %s: %w", path, err)
	}

	// A foreign schema still loads; every forecast then fails recoverably.
	if err := CheckSchema(EnrollmentSchema, FeatureVector{Names: p.Features(), Values: make([]float64, len(p.Features()))}); err != nil {
		logger.Info("WARNING: model features do not match the enrollment schema; forecasts will fail",
			"path", path, "features", p.Features(), "want", EnrollmentSchema, "error", err.Error())
	}
	logger.V(logging.DEBUG).Info("Loaded model artifact", "path", path, "features", p.Features())
	return p, nil
}

// LoadLinear decodes a linear model artifact. Unknown keys are rejected.
func LoadLinear(r io.Reader) (*LinearModel, error) {
	var m LinearModel
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty linear model artifact")
		}
		return nil, fmt.Errorf("failed to decode linear model: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadTreeEnsemble decodes an XGBoost JSON dump wrapped with its feature names
// and base score.
func LoadTreeEnsemble(r io.Reader) (*TreeEnsemble, error) {
	var e TreeEnsemble
	if err := json.NewDecoder(r).Decode(&e); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty tree ensemble artifact")
		}
		return nil, fmt.Errorf("failed to decode tree ensemble: %w", err)
	}
	if err := e.prepare(); err != nil {
		return nil, err
	}
	return &e, nil
}
