package planner

import (
	"context"
	"errors"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"k8s.io/utils/ptr"

	v1alpha1 "github.com/scholarship-analytics/enrollment-planner/api/v1alpha1"
	"github.com/scholarship-analytics/enrollment-planner/internal/assets"
	"github.com/scholarship-analytics/enrollment-planner/internal/capacity"
	"github.com/scholarship-analytics/enrollment-planner/internal/config"
	"github.com/scholarship-analytics/enrollment-planner/internal/forecast"
	"github.com/scholarship-analytics/enrollment-planner/internal/history"
	"github.com/scholarship-analytics/enrollment-planner/internal/model"
)

type fixedPredictor struct {
	value float64
	err   error
}

func (p fixedPredictor) Features() []string { return model.EnrollmentSchema }

func (p fixedPredictor) Predict(fv model.FeatureVector) (float64, error) {
	if err := model.CheckSchema(model.EnrollmentSchema, fv); err != nil {
		return 0, err
	}
	return p.value, p.err
}

type capacityCall struct {
	profile string
	result  capacity.Result
}

type fakeRecorder struct {
	forecasts  int
	capacities []capacityCall
}

func (r *fakeRecorder) RecordForecast(forecast.Mode, int, error) { r.forecasts++ }

func (r *fakeRecorder) RecordCapacity(profile string, res capacity.Result) {
	r.capacities = append(r.capacities, capacityCall{profile: profile, result: res})
}

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func newStore(p model.Predictor) *assets.Store {
	return assets.NewStore(assets.LoaderFunc(func(context.Context) (*assets.Snapshot, error) {
		ds, err := history.NewDataset([]history.Observation{
			{Date: month(2025, time.August), Students: 80, MarketingSpend: 400_000_000, ScholarshipEvents: 10},
			{Date: month(2025, time.September), Students: 90, MarketingSpend: 500_000_000, ScholarshipEvents: 15},
			{Date: month(2025, time.October), Students: 100, MarketingSpend: 600_000_000, ScholarshipEvents: 20},
		})
		if err != nil {
			return nil, err
		}
		return &assets.Snapshot{
			Model:    p,
			History:  ds,
			Report:   history.LoadReport{Rows: 4, Loaded: 3, SkippedLines: []int{3}},
			LoadedAt: time.Date(2025, time.November, 1, 8, 0, 0, 0, time.UTC),
		}, nil
	}), nil)
}

var _ = Describe("Service", func() {
	var (
		ctx      context.Context
		recorder *fakeRecorder
		svc      *Service
		profiles config.CapacityProfiles
	)

	clock := func() time.Time { return time.Date(2025, time.November, 18, 10, 0, 0, 0, time.UTC) }

	BeforeEach(func() {
		ctx = context.Background()
		recorder = &fakeRecorder{}
		profiles = config.ParseCapacityProfiles(map[string]string{
			"evening":   "description: Evening cohort\nhoursPerTutor:\n  max: 20\n  default: 8\n",
			"intensive": "hoursPerStudent:\n  default: 3.0\nrounding: legacy\n",
		})
		svc = NewService(newStore(fixedPredictor{value: 112.7}), Options{
			Profiles: profiles,
			Rounding: capacity.RoundingCeiling,
			Recorder: recorder,
			Clock:    clock,
		})
	})

	Describe("Forecast", func() {
		It("forecasts the current month from historical averages by default", func() {
			resp, err := svc.Forecast(ctx, v1alpha1.ForecastRequest{})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Target).To(Equal("2025-11"))
			Expect(resp.Mode).To(Equal("auto"))
			Expect(resp.Scenario.MarketingSpend).To(BeNumerically("~", 500_000_000))
			Expect(resp.Scenario.ScholarshipEvents).To(BeNumerically("~", 15))
			Expect(resp.Scenario.MonthNumber).To(Equal(11))
			Expect(resp.Scenario.Year).To(Equal(2025))
			Expect(resp.Scenario.Lag1).To(Equal(100))
			Expect(resp.Scenario.Lag2).To(Equal(90))
			Expect(resp.PredictedStudents).To(Equal(112))
			Expect(resp.DeltaFromLastMonth).To(Equal(12))
			Expect(resp.Error).To(BeEmpty())
			Expect(resp.Series).To(BeEmpty())
			Expect(recorder.forecasts).To(Equal(1))
		})

		It("uses manual values and the requested month", func() {
			resp, err := svc.Forecast(ctx, v1alpha1.ForecastRequest{
				Mode:              "Simulation",
				Target:            "2026-02",
				MarketingSpend:    ptr.To(750_000_000.0),
				IncludeSeries:     true,
				ScholarshipEvents: nil,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Mode).To(Equal("manual"))
			Expect(resp.Scenario.MarketingSpend).To(BeNumerically("==", 750_000_000))
			Expect(resp.Scenario.ScholarshipEvents).To(BeNumerically("==", 15))
			Expect(resp.Scenario.MonthNumber).To(Equal(2))
			Expect(resp.Series).To(HaveLen(2))
			Expect(resp.Series[0].Name).To(Equal("Historical"))
			Expect(resp.Series[0].Points).To(HaveLen(3))
			Expect(resp.Series[1].Points).To(ConsistOf(v1alpha1.SeriesPoint{Month: "2026-02", Students: 112}))
		})

		It("keeps serving when the model was trained on other features", func() {
			foreign, err := model.LoadLinear(strings.NewReader("kind: linear\nfeatures: [Lag_1, Lag_2]\nintercept: 1\ncoefficients: [1, 1]\n"))
			Expect(err).NotTo(HaveOccurred())
			svc = NewService(newStore(foreign), Options{Clock: clock, Recorder: recorder})

			resp, err := svc.Forecast(ctx, v1alpha1.ForecastRequest{})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Error).To(ContainSubstring(model.ErrSchemaMismatch.Error()))
			Expect(resp.PredictedStudents).To(BeZero())
			Expect(recorder.forecasts).To(Equal(1))

			_, err = svc.History(ctx)
			Expect(err).NotTo(HaveOccurred())
		})

		It("reports predictor failures in the response", func() {
			svc = NewService(newStore(fixedPredictor{err: errors.New("bad model")}), Options{Clock: clock})
			resp, err := svc.Forecast(ctx, v1alpha1.ForecastRequest{})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Error).To(ContainSubstring("bad model"))
			Expect(resp.PredictedStudents).To(BeZero())
		})

		DescribeTable("rejects invalid requests",
			func(req v1alpha1.ForecastRequest) {
				_, err := svc.Forecast(ctx, req)
				Expect(err).To(MatchError(ErrInvalidRequest))
			},
			Entry("unknown mode", v1alpha1.ForecastRequest{Mode: "crystal-ball"}),
			Entry("bad month", v1alpha1.ForecastRequest{Target: "Nov 2025"}),
			Entry("negative spend", v1alpha1.ForecastRequest{Mode: "manual", MarketingSpend: ptr.To(-1.0)}),
		)

		It("reports unloadable assets", func() {
			broken := assets.NewStore(assets.LoaderFunc(func(context.Context) (*assets.Snapshot, error) {
				return nil, errors.New("file missing")
			}), nil)
			svc = NewService(broken, Options{Clock: clock})
			_, err := svc.Forecast(ctx, v1alpha1.ForecastRequest{})
			Expect(err).To(MatchError(ErrAssetsUnavailable))
			Expect(svc.Ready()).To(BeFalse())
		})
	})

	Describe("Capacity", func() {
		It("uses the last historical month and profile defaults", func() {
			resp, err := svc.Capacity(ctx, v1alpha1.CapacityRequest{})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Profile).To(Equal("default"))
			Expect(resp.ActiveStudents).To(Equal(100))
			Expect(resp.ActiveStudentsSource).To(Equal(v1alpha1.ActiveStudentsFromHistory))
			Expect(resp.HoursPerStudent).To(Equal(1.5))
			Expect(resp.HoursPerTutor).To(Equal(12.0))
			Expect(resp.TotalHours).To(BeNumerically("~", 150))
			Expect(resp.TutorsNeeded).To(Equal(13))
			Expect(resp.MaxStudentsPerTutor).To(Equal(8))
			Expect(resp.Rounding).To(Equal("ceiling"))
			Expect(resp.WithinRecommendedLoad).To(BeTrue())
			Expect(recorder.capacities).To(HaveLen(1))
			Expect(recorder.capacities[0].profile).To(Equal("default"))
		})

		It("prefers a positive forecast over history", func() {
			resp, err := svc.Capacity(ctx, v1alpha1.CapacityRequest{PredictedStudents: ptr.To(120)})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.ActiveStudents).To(Equal(120))
			Expect(resp.ActiveStudentsSource).To(Equal(v1alpha1.ActiveStudentsFromForecast))
			Expect(resp.TutorsNeeded).To(Equal(15))
		})

		It("ignores a zero forecast", func() {
			resp, err := svc.Capacity(ctx, v1alpha1.CapacityRequest{PredictedStudents: ptr.To(0)})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.ActiveStudentsSource).To(Equal(v1alpha1.ActiveStudentsFromHistory))
		})

		It("prefers an explicit override, even zero", func() {
			resp, err := svc.Capacity(ctx, v1alpha1.CapacityRequest{ActiveStudents: ptr.To(0), PredictedStudents: ptr.To(120)})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.ActiveStudents).To(BeZero())
			Expect(resp.ActiveStudentsSource).To(Equal(v1alpha1.ActiveStudentsFromRequest))
			Expect(resp.TutorsNeeded).To(BeZero())
		})

		It("applies rounding precedence request > profile > global", func() {
			req := v1alpha1.CapacityRequest{ActiveStudents: ptr.To(120), HoursPerStudent: ptr.To(1.5), HoursPerTutor: ptr.To(12.0)}

			resp, err := svc.Capacity(ctx, req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.TutorsNeeded).To(Equal(15))

			req.Profile = "intensive"
			resp, err = svc.Capacity(ctx, req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Rounding).To(Equal("legacy"))
			Expect(resp.TutorsNeeded).To(Equal(16))

			req.Rounding = "ceiling"
			resp, err = svc.Capacity(ctx, req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.TutorsNeeded).To(Equal(15))
		})

		It("checks sliders against the selected profile", func() {
			_, err := svc.Capacity(ctx, v1alpha1.CapacityRequest{Profile: "evening", HoursPerTutor: ptr.To(30.0)})
			Expect(err).To(MatchError(ErrInvalidRequest))
			Expect(err.Error()).To(ContainSubstring("hoursPerTutor"))

			resp, err := svc.Capacity(ctx, v1alpha1.CapacityRequest{Profile: "evening"})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.HoursPerTutor).To(Equal(8.0))
		})

		DescribeTable("rejects invalid requests",
			func(req v1alpha1.CapacityRequest) {
				_, err := svc.Capacity(ctx, req)
				Expect(err).To(MatchError(ErrInvalidRequest))
			},
			Entry("unknown profile", v1alpha1.CapacityRequest{Profile: "weekend"}),
			Entry("hours per student too low", v1alpha1.CapacityRequest{HoursPerStudent: ptr.To(0.4)}),
			Entry("hours per student too high", v1alpha1.CapacityRequest{HoursPerStudent: ptr.To(5.5)}),
			Entry("hours per tutor too low", v1alpha1.CapacityRequest{HoursPerTutor: ptr.To(4.0)}),
			Entry("negative students", v1alpha1.CapacityRequest{ActiveStudents: ptr.To(-1)}),
			Entry("unknown rounding", v1alpha1.CapacityRequest{Rounding: "bankers"}),
		)
	})

	Describe("History", func() {
		It("summarizes the loaded history", func() {
			resp, err := svc.History(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Summary.Months).To(Equal(3))
			Expect(resp.Summary.FirstMonth).To(Equal("2025-08"))
			Expect(resp.Summary.LastMonth).To(Equal("2025-10"))
			Expect(resp.Summary.LastStudents).To(Equal(100))
			Expect(resp.Summary.AverageStudents).To(BeNumerically("~", 90))
			Expect(resp.Summary.SkippedLines).To(Equal([]int{3}))
			Expect(resp.Summary.LoadedAt).To(Equal("2025-11-01T08:00:00Z"))
			Expect(resp.Observations).To(HaveLen(3))
			Expect(resp.Observations[2]).To(Equal(v1alpha1.Observation{
				Month: "2025-10", Students: 100, MarketingSpend: 600_000_000, ScholarshipEvents: 20,
			}))
		})
	})

	Describe("Profiles", func() {
		It("lists effective profiles with default first", func() {
			resp := svc.Profiles()
			Expect(resp.Profiles).To(HaveLen(3))
			Expect(resp.Profiles[0].Name).To(Equal("default"))
			Expect(resp.Profiles[0].HoursPerTutor).To(Equal(v1alpha1.SliderBounds{Min: 5, Max: 40, Step: 1, Default: 12}))
			Expect(resp.Profiles[0].Rounding).To(Equal("ceiling"))
			Expect(resp.Profiles[1].Name).To(Equal("evening"))
			Expect(resp.Profiles[1].HoursPerTutor.Max).To(Equal(20.0))
			Expect(resp.Profiles[2].Rounding).To(Equal("legacy"))
		})
	})

	Describe("Reload and Invalidate", func() {
		It("reloads and becomes ready", func() {
			Expect(svc.Ready()).To(BeFalse())
			resp, err := svc.Reload(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Months).To(Equal(3))
			Expect(svc.Ready()).To(BeTrue())

			svc.Invalidate()
			Expect(svc.Ready()).To(BeFalse())
			_, err = svc.History(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(svc.Ready()).To(BeTrue())
		})
	})
})
