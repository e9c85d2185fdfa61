package forecast

import (
	"context"
	"fmt"
	"math"
	"time"

	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/scholarship-analytics/enrollment-planner/internal/history"
	"github.com/scholarship-analytics/enrollment-planner/internal/logging"
	"github.com/scholarship-analytics/enrollment-planner/internal/model"
)

// Recorder observes forecast outcomes. err is the recoverable predictor error,
// if any.
type Recorder interface {
	RecordForecast(mode Mode, predicted int, err error)
}

// Result is the outcome of one forecast.
type Result struct {
	Mode     Mode
	Scenario Scenario
	// PredictedStudents is the prediction truncated toward zero and floored at
	// zero. It is 0 when Err is set.
	PredictedStudents int
	// LastObserved is the student count of the most recent observation.
	LastObserved int
	// DeltaFromLastMonth is PredictedStudents - LastObserved.
	DeltaFromLastMonth int
	// Err is a recoverable predictor failure. The operator may retry.
	Err error
}

// Succeeded reports whether the predictor produced a value.
func (r Result) Succeeded() bool {
	return r.Err == nil
}

// Series returns the historical student series and, when the forecast
// succeeded, a one-point forecast series at the target month.
func (r Result) Series(ds *history.Dataset) []*history.TimeSeries {
	series := []*history.TimeSeries{ds.StudentSeries()}
	if r.Succeeded() {
		fc := history.NewTimeSeries(history.SeriesForecast)
		fc.AddPoint(r.Scenario.Target, float64(r.PredictedStudents))
		series = append(series, fc)
	}
	return series
}

// Option configures a Forecaster.
type Option func(*Forecaster)

// WithRecorder reports every forecast to r.
func WithRecorder(r Recorder) Option {
	return func(f *Forecaster) { f.recorder = r }
}

// WithClock overrides the clock used to default the target month.
func WithClock(now func() time.Time) Option {
	return func(f *Forecaster) { f.now = now }
}

// Forecaster turns operator requests into single-month enrollment predictions.
// It holds no per-request state and is safe for concurrent use.
type Forecaster struct {
	recorder Recorder
	now      func() time.Time
}

// NewForecaster returns a Forecaster.
func NewForecaster(opts ...Option) *Forecaster {
	f := &Forecaster{now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Forecast resolves the scenario for req against ds and scores it with p.
// Scenario errors (unknown mode, invalid manual input, empty history) are
// returned. A predictor failure is not: it is logged, recorded, and carried in
// Result.Err with PredictedStudents left at zero.
func (f *Forecaster) Forecast(ctx context.Context, p model.Predictor, ds *history.Dataset, req Request) (Result, error) {
	logger := ctrl.LoggerFrom(ctx)

	scenario, err := ResolveScenario(req, ds, f.now())
	if err != nil {
		return Result{}, err
	}
	mode := req.Mode
	if mode == "" {
		mode = ModeAuto
	}
	res := Result{
		Mode:         mode,
		Scenario:     scenario,
		LastObserved: scenario.Lag1,
	}

	fv := scenario.Features()
	logger.V(logging.TRACE).Info("Scoring scenario", "features", fv.Names, "values", fv.Values)

	raw, err := p.Predict(fv)
	if err == nil {
		res.PredictedStudents, err = toStudents(raw)
	}
	if err != nil {
		res.Err = fmt.Errorf("prediction failed: %w", err)
		logger.Error(err, "Forecast failed", "mode", mode, "target", scenario.Target.Format("2006-01"))
	} else {
		res.DeltaFromLastMonth = res.PredictedStudents - res.LastObserved
		logger.V(logging.DEBUG).Info("Forecast complete",
			"mode", mode,
			"target", scenario.Target.Format("2006-01"),
			"raw", raw,
			"predicted", res.PredictedStudents,
			"delta", res.DeltaFromLastMonth)
	}

	if f.recorder != nil {
		f.recorder.RecordForecast(mode, res.PredictedStudents, res.Err)
	}
	return res, nil
}

func toStudents(raw float64) (int, error) {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0, fmt.Errorf("non-finite prediction %v", raw)
	}
	if raw > math.MaxInt32 {
		return 0, fmt.Errorf("prediction %v out of range", raw)
	}
	if raw < 0 {
		return 0, nil
	}
	return int(raw), nil
}
