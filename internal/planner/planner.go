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

package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"k8s.io/apimachinery/pkg/util/validation/field"
	"k8s.io/utils/ptr"
	ctrl "sigs.k8s.io/controller-runtime"

	v1alpha1 "github.com/scholarship-analytics/enrollment-planner/api/v1alpha1"
	"github.com/scholarship-analytics/enrollment-planner/internal/assets"
	"github.com/scholarship-analytics/enrollment-planner/internal/capacity"
	"github.com/scholarship-analytics/enrollment-planner/internal/config"
	"github.com/scholarship-analytics/enrollment-planner/internal/forecast"
	"github.com/scholarship-analytics/enrollment-planner/internal/history"
	"github.com/scholarship-analytics/enrollment-planner/internal/logging"
)

var (
	// ErrInvalidRequest marks caller mistakes: unknown mode or profile,
	// out-of-range sliders, negative overrides.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrAssetsUnavailable marks a model or history that could not be loaded.
	ErrAssetsUnavailable = errors.New("assets unavailable")
)

// Recorder observes forecasts and capacity calculations.
type Recorder interface {
	forecast.Recorder
	RecordCapacity(profile string, res capacity.Result)
}

// Options configures a Service.
type Options struct {
	// Profiles are the capacity profiles; nil means built-in bounds only.
	Profiles config.CapacityProfiles
	// Rounding is the global tutor rounding policy.
	Rounding capacity.Rounding
	// Recorder is optional.
	Recorder Recorder
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Service answers forecast, capacity, history and profile queries over the
// shared assets. It is safe for concurrent use; every call derives its state
// from the request and the current snapshot.
type Service struct {
	assets     assets.ReadReloader
	forecaster *forecast.Forecaster
	profiles   config.CapacityProfiles
	rounding   capacity.Rounding
	recorder   Recorder
	now        func() time.Time
}

// NewService returns a Service reading from store.
func NewService(store assets.ReadReloader, opts Options) *Service {
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	profiles := opts.Profiles
	if profiles == nil {
		profiles = config.CapacityProfiles{}
	}

	fopts := []forecast.Option{forecast.WithClock(now)}
	if opts.Recorder != nil {
		fopts = append(fopts, forecast.WithRecorder(opts.Recorder))
	}

	if opts.Rounding == capacity.RoundingLegacy {
		ctrl.Log.WithName("planner").Info("WARNING: legacy tutor rounding is enabled; exact divisions get one extra tutor",
			"rounding", opts.Rounding.String())
	}

	return &Service{
		assets:     store,
		forecaster: forecast.NewForecaster(fopts...),
		profiles:   profiles,
		rounding:   opts.Rounding,
		recorder:   opts.Recorder,
		now:        now,
	}
}

// Ready reports whether the assets are loaded.
func (s *Service) Ready() bool {
	return s.assets.Loaded()
}

func (s *Service) snapshot(ctx context.Context) (*assets.Snapshot, error) {
	snap, err := s.assets.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAssetsUnavailable, err)
	}
	return snap, nil
}

// Forecast runs one forecast. A predictor failure is not an error: the
// response carries it in Error.
func (s *Service) Forecast(ctx context.Context, req v1alpha1.ForecastRequest) (*v1alpha1.ForecastResponse, error) {
	mode, err := forecast.ParseMode(req.Mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	target, err := v1alpha1.ParseMonth(req.Target, s.now())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	res, err := s.forecaster.Forecast(ctx, snap.Model, snap.History, forecast.Request{
		Mode:              mode,
		Target:            target,
		MarketingSpend:    req.MarketingSpend,
		ScholarshipEvents: req.ScholarshipEvents,
	})
	switch {
	case errors.Is(err, forecast.ErrInvalidScenario), errors.Is(err, forecast.ErrUnknownMode):
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	case errors.Is(err, history.ErrEmptyHistory):
		return nil, fmt.Errorf("%w: %w", ErrAssetsUnavailable, err)
	case err != nil:
		return nil, err
	}

	resp := &v1alpha1.ForecastResponse{
		Target: v1alpha1.FormatMonth(res.Scenario.Target),
		Mode:   string(res.Mode),
		Scenario: v1alpha1.ScenarioInputs{
			MarketingSpend:    res.Scenario.MarketingSpend,
			ScholarshipEvents: res.Scenario.ScholarshipEvents,
			MonthNumber:       int(res.Scenario.Target.Month()),
			Year:              res.Scenario.Target.Year(),
			Lag1:              res.Scenario.Lag1,
			Lag2:              res.Scenario.Lag2,
		},
		PredictedStudents:  res.PredictedStudents,
		LastObserved:       res.LastObserved,
		DeltaFromLastMonth: res.DeltaFromLastMonth,
	}
	if res.Err != nil {
		resp.Error = res.Err.Error()
	}
	if req.IncludeSeries {
		for _, ts := range res.Series(snap.History) {
			resp.Series = append(resp.Series, toSeries(ts))
		}
	}
	return resp, nil
}

// Capacity runs the tutor capacity and fairness calculation. Slider values are
// checked against the selected profile. Rounding precedence is request, then
// profile, then the global policy. Active students come from the request
// override, else a positive predicted count, else the last historical month.
func (s *Service) Capacity(ctx context.Context, req v1alpha1.CapacityRequest) (*v1alpha1.CapacityResponse, error) {
	logger := ctrl.LoggerFrom(ctx)

	profile, found := s.profiles.Lookup(req.Profile)
	if !found {
		return nil, fmt.Errorf("%w: unknown capacity profile %q", ErrInvalidRequest, req.Profile)
	}

	hs := ptr.Deref(req.HoursPerStudent, profile.HoursPerStudent.Default)
	ht := ptr.Deref(req.HoursPerTutor, profile.HoursPerTutor.Default)

	var errs field.ErrorList
	if !profile.HoursPerStudent.Contains(hs) {
		errs = append(errs, field.Invalid(field.NewPath("hoursPerStudent"), hs,
			fmt.Sprintf("must be within [%g, %g]", profile.HoursPerStudent.Min, profile.HoursPerStudent.Max)))
	}
	if !profile.HoursPerTutor.Contains(ht) {
		errs = append(errs, field.Invalid(field.NewPath("hoursPerTutor"), ht,
			fmt.Sprintf("must be within [%g, %g]", profile.HoursPerTutor.Min, profile.HoursPerTutor.Max)))
	}
	if req.ActiveStudents != nil && *req.ActiveStudents < 0 {
		errs = append(errs, field.Invalid(field.NewPath("activeStudents"), *req.ActiveStudents, "must not be negative"))
	}
	rounding, err := s.resolveRounding(req.Rounding, profile.Rounding)
	if err != nil {
		errs = append(errs, field.Invalid(field.NewPath("rounding"), req.Rounding, err.Error()))
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, errs.ToAggregate())
	}

	active, source, err := s.activeStudents(ctx, req)
	if err != nil {
		return nil, err
	}

	calc, err := capacity.NewCalculator(rounding)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	res := calc.Calculate(capacity.Inputs{ActiveStudents: active, HoursPerStudent: hs, HoursPerTutor: ht})

	logger.V(logging.DEBUG).Info("Capacity calculated",
		"profile", profile.Name,
		"activeStudents", active,
		"source", source,
		"tutorsNeeded", res.TutorsNeeded,
		"maxStudentsPerTutor", res.MaxStudentsPerTutor,
		"rounding", res.Rounding.String())
	if s.recorder != nil {
		s.recorder.RecordCapacity(profile.Name, res)
	}

	return &v1alpha1.CapacityResponse{
		Profile:               profile.Name,
		ActiveStudents:        active,
		ActiveStudentsSource:  source,
		HoursPerStudent:       hs,
		HoursPerTutor:         ht,
		TotalHours:            res.TotalHours,
		TutorsNeeded:          res.TutorsNeeded,
		MaxStudentsPerTutor:   res.MaxStudentsPerTutor,
		AverageLoadPerTutor:   res.AverageLoadPerTutor,
		Rounding:              res.Rounding.String(),
		WithinRecommendedLoad: res.WithinRecommendedLoad,
	}, nil
}

func (s *Service) resolveRounding(requested, profile string) (capacity.Rounding, error) {
	switch {
	case requested != "":
		return capacity.ParseRounding(requested)
	case profile != "":
		return capacity.ParseRounding(profile)
	default:
		return s.rounding, nil
	}
}

func (s *Service) activeStudents(ctx context.Context, req v1alpha1.CapacityRequest) (int, string, error) {
	if req.ActiveStudents != nil {
		return *req.ActiveStudents, v1alpha1.ActiveStudentsFromRequest, nil
	}
	if p := ptr.Deref(req.PredictedStudents, 0); p > 0 {
		return p, v1alpha1.ActiveStudentsFromForecast, nil
	}
	snap, err := s.snapshot(ctx)
	if err != nil {
		return 0, "", err
	}
	last, ok := snap.History.Last()
	if !ok {
		return 0, "", fmt.Errorf("%w: %w", ErrAssetsUnavailable, history.ErrEmptyHistory)
	}
	return last.Students, v1alpha1.ActiveStudentsFromHistory, nil
}

// History returns the cleaned history and its summary.
func (s *Service) History(ctx context.Context) (*v1alpha1.HistoryResponse, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	ds := snap.History
	obs := ds.Observations()

	resp := &v1alpha1.HistoryResponse{
		Summary: v1alpha1.HistorySummary{
			Months:                   ds.Len(),
			AverageStudents:          ds.MeanStudents(),
			AverageMarketingSpend:    ds.MeanMarketingSpend(),
			AverageScholarshipEvents: ds.MeanScholarshipEvents(),
			SkippedLines:             snap.Report.SkippedLines,
			MissingColumns:           snap.Report.MissingColumns,
			LoadedAt:                 snap.LoadedAt.UTC().Format(time.RFC3339),
		},
		Observations: make([]v1alpha1.Observation, 0, len(obs)),
	}
	students := ds.StudentSeries()
	if last := students.Latest(); last != nil {
		resp.Summary.FirstMonth = v1alpha1.FormatMonth(students.Points[0].Timestamp)
		resp.Summary.LastMonth = v1alpha1.FormatMonth(last.Timestamp)
		resp.Summary.LastStudents = int(students.LatestValue())
	}
	for _, o := range obs {
		resp.Observations = append(resp.Observations, v1alpha1.Observation{
			Month:             v1alpha1.FormatMonth(o.Date),
			Students:          o.Students,
			MarketingSpend:    o.MarketingSpend,
			ScholarshipEvents: o.ScholarshipEvents,
		})
	}
	return resp, nil
}

// Profiles lists the effective capacity profiles.
func (s *Service) Profiles() *v1alpha1.ProfilesResponse {
	resp := &v1alpha1.ProfilesResponse{}
	for _, name := range s.profiles.Names() {
		p := s.profiles.Get(name)
		rounding := s.rounding
		if r, err := capacity.ParseRounding(p.Rounding); err == nil && p.Rounding != "" {
			rounding = r
		}
		resp.Profiles = append(resp.Profiles, v1alpha1.Profile{
			Name:            p.Name,
			Description:     p.Description,
			HoursPerStudent: v1alpha1.SliderBounds(p.HoursPerStudent),
			HoursPerTutor:   v1alpha1.SliderBounds(p.HoursPerTutor),
			Rounding:        rounding.String(),
		})
	}
	return resp
}

// Reload drops the cached assets and loads them again. On failure the
// previous assets keep serving.
func (s *Service) Reload(ctx context.Context) (*v1alpha1.ReloadResponse, error) {
	snap, err := s.assets.Reload(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAssetsUnavailable, err)
	}
	return &v1alpha1.ReloadResponse{
		LoadedAt: snap.LoadedAt.UTC().Format(time.RFC3339),
		Months:   snap.History.Len(),
	}, nil
}

// Invalidate drops the cached assets; the next query reloads them.
func (s *Service) Invalidate() {
	s.assets.Invalidate()
}

func toSeries(ts *history.TimeSeries) v1alpha1.Series {
	out := v1alpha1.Series{Name: ts.Name, Points: make([]v1alpha1.SeriesPoint, 0, ts.Len())}
	for _, p := range ts.Points {
		out.Points = append(out.Points, v1alpha1.SeriesPoint{
			Month:    v1alpha1.FormatMonth(p.Timestamp),
			Students: p.Value,
		})
	}
	return out
}
