// Package planner implements the query engine behind the HTTP API and the CLI.
//
// The planner package turns wire requests into forecasts and capacity
// calculations by coordinating the shared assets, the forecast builder and the
// capacity calculator.
//
// Architecture:
//
// The planner follows a pipeline pattern:
//
//	Request → Validation → Assets Snapshot → Forecast / Capacity → Response
//	           (profiles)      (assets)     (forecast, capacity)   (v1alpha1)
//
// Example usage:
//
//	svc := planner.NewService(store, planner.Options{
//	    Profiles: cfg.CapacityProfiles(),
//	    Rounding: cfg.RoundingPolicy(),
//	    Recorder: metrics,
//	})
//
//	fc, err := svc.Forecast(ctx, v1alpha1.ForecastRequest{Mode: "auto", Target: "2025-11"})
//	if err != nil {
//	    return err
//	}
//	cp, err := svc.Capacity(ctx, v1alpha1.CapacityRequest{PredictedStudents: &fc.PredictedStudents})
//
// Error Handling:
//
//   - Caller mistakes (unknown mode or profile, slider out of range) → ErrInvalidRequest
//   - Model or history that cannot be loaded → ErrAssetsUnavailable
//   - Predictor failure → reported in ForecastResponse.Error, not returned
package planner
