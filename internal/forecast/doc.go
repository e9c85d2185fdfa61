// Package forecast builds model inputs from operator scenarios and runs
// single-month enrollment forecasts.
//
// A forecast needs six features in a fixed order: marketing spend, scholarship
// events, target month number, target year, and the student counts of the last
// two observed months (Lag_1, Lag_2). The lags always come from real history,
// never from an earlier forecast.
//
// Two scenario modes fill the exogenous inputs:
//
//   - auto: marketing spend and scholarship events are historical means.
//   - manual: the operator supplies both (defaults 500,000,000 and 15).
//
// The prediction is truncated toward zero and floored at zero. A predictor
// error does not fail the request; it is reported in Result.Err so the operator
// can retry.
package forecast
