package forecast

import (
	"context"
	"errors"
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"k8s.io/utils/ptr"

	"github.com/scholarship-analytics/enrollment-planner/internal/history"
	"github.com/scholarship-analytics/enrollment-planner/internal/model"
)

type stubPredictor struct {
	value float64
	err   error
	seen  []model.FeatureVector
}

func (s *stubPredictor) Features() []string { return model.EnrollmentSchema }

func (s *stubPredictor) Predict(fv model.FeatureVector) (float64, error) {
	s.seen = append(s.seen, fv)
	if err := model.CheckSchema(model.EnrollmentSchema, fv); err != nil {
		return 0, err
	}
	return s.value, s.err
}

type recordedForecast struct {
	mode      Mode
	predicted int
	err       error
}

type fakeRecorder struct {
	calls []recordedForecast
}

func (r *fakeRecorder) RecordForecast(mode Mode, predicted int, err error) {
	r.calls = append(r.calls, recordedForecast{mode: mode, predicted: predicted, err: err})
}

func utcMonth(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func mustDataset(obs ...history.Observation) *history.Dataset {
	ds, err := history.NewDataset(obs)
	Expect(err).NotTo(HaveOccurred())
	return ds
}

var _ = Describe("LatestLags", func() {
	It("uses the last two observations", func() {
		ds := mustDataset(
			history.Observation{Date: utcMonth(2025, time.August), Students: 80},
			history.Observation{Date: utcMonth(2025, time.October), Students: 100},
			history.Observation{Date: utcMonth(2025, time.September), Students: 90},
		)
		lag1, lag2, err := LatestLags(ds)
		Expect(err).NotTo(HaveOccurred())
		Expect(lag1).To(Equal(100))
		Expect(lag2).To(Equal(90))
	})

	It("assumes a flat trend with a single observation", func() {
		ds := mustDataset(history.Observation{Date: utcMonth(2025, time.October), Students: 42})
		lag1, lag2, err := LatestLags(ds)
		Expect(err).NotTo(HaveOccurred())
		Expect(lag1).To(Equal(42))
		Expect(lag2).To(Equal(42))
	})

	It("fails on an empty history", func() {
		_, _, err := LatestLags(nil)
		Expect(err).To(MatchError(history.ErrEmptyHistory))
	})
})

var _ = Describe("ResolveScenario", func() {
	var (
		ds  *history.Dataset
		now time.Time
	)

	BeforeEach(func() {
		ds = mustDataset(
			history.Observation{Date: utcMonth(2025, time.September), Students: 90, MarketingSpend: 400, ScholarshipEvents: 10},
			history.Observation{Date: utcMonth(2025, time.October), Students: 100, MarketingSpend: 600, ScholarshipEvents: 20},
		)
		now = time.Date(2025, time.November, 18, 9, 30, 0, 0, time.UTC)
	})

	It("uses historical means in auto mode and ignores manual values", func() {
		s, err := ResolveScenario(Request{Mode: ModeAuto, MarketingSpend: ptr.To(1.0)}, ds, now)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.MarketingSpend).To(BeNumerically("~", 500))
		Expect(s.ScholarshipEvents).To(BeNumerically("~", 15))
		Expect(s.Target).To(Equal(utcMonth(2025, time.November)))
		Expect(s.Lag1).To(Equal(100))
		Expect(s.Lag2).To(Equal(90))
	})

	It("applies manual defaults when values are unset", func() {
		s, err := ResolveScenario(Request{Mode: ModeManual}, ds, now)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.MarketingSpend).To(BeNumerically("==", DefaultManualMarketingSpend))
		Expect(s.ScholarshipEvents).To(BeNumerically("==", DefaultManualScholarshipEvents))
	})

	It("takes the operator's values and target in manual mode", func() {
		req := Request{
			Mode:              ModeManual,
			Target:            time.Date(2026, time.February, 20, 0, 0, 0, 0, time.UTC),
			MarketingSpend:    ptr.To(750_000_000.0),
			ScholarshipEvents: ptr.To(0.0),
		}
		s, err := ResolveScenario(req, ds, now)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.MarketingSpend).To(BeNumerically("==", 750_000_000))
		Expect(s.ScholarshipEvents).To(BeZero())
		Expect(s.Target).To(Equal(utcMonth(2026, time.February)))
	})

	It("rejects negative manual values", func() {
		_, err := ResolveScenario(Request{Mode: ModeManual, MarketingSpend: ptr.To(-1.0)}, ds, now)
		Expect(err).To(MatchError(ErrInvalidScenario))

		_, err = ResolveScenario(Request{Mode: ModeManual, ScholarshipEvents: ptr.To(math.NaN())}, ds, now)
		Expect(err).To(MatchError(ErrInvalidScenario))
	})

	It("rejects an unknown mode", func() {
		_, err := ResolveScenario(Request{Mode: "guess"}, ds, now)
		Expect(err).To(MatchError(ErrUnknownMode))
	})

	It("builds features in schema order", func() {
		s, err := ResolveScenario(Request{Mode: ModeManual, MarketingSpend: ptr.To(1.0), ScholarshipEvents: ptr.To(2.0)}, ds, now)
		Expect(err).NotTo(HaveOccurred())
		fv := BuildFeatures(s)
		Expect(fv.Names).To(Equal(model.EnrollmentSchema))
		Expect(fv.Values).To(Equal([]float64{1, 2, 11, 2025, 100, 90}))
	})
})

var _ = Describe("Forecaster", func() {
	var (
		ds       *history.Dataset
		recorder *fakeRecorder
		f        *Forecaster
		ctx      context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		ds = mustDataset(
			history.Observation{Date: utcMonth(2025, time.September), Students: 90, MarketingSpend: 400, ScholarshipEvents: 10},
			history.Observation{Date: utcMonth(2025, time.October), Students: 100, MarketingSpend: 600, ScholarshipEvents: 20},
		)
		recorder = &fakeRecorder{}
		f = NewForecaster(
			WithRecorder(recorder),
			WithClock(func() time.Time { return time.Date(2025, time.November, 3, 0, 0, 0, 0, time.UTC) }),
		)
	})

	It("truncates the prediction toward zero", func() {
		p := &stubPredictor{value: 112.9}
		res, err := f.Forecast(ctx, p, ds, Request{})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Succeeded()).To(BeTrue())
		Expect(res.Mode).To(Equal(ModeAuto))
		Expect(res.PredictedStudents).To(Equal(112))
		Expect(res.LastObserved).To(Equal(100))
		Expect(res.DeltaFromLastMonth).To(Equal(12))
		Expect(p.seen).To(HaveLen(1))
		Expect(p.seen[0].Values[4:]).To(Equal([]float64{100, 90}))
		Expect(recorder.calls).To(ConsistOf(recordedForecast{mode: ModeAuto, predicted: 112}))
	})

	It("floors negative predictions at zero", func() {
		res, err := f.Forecast(ctx, &stubPredictor{value: -7.5}, ds, Request{Mode: ModeManual})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.PredictedStudents).To(BeZero())
		Expect(res.DeltaFromLastMonth).To(Equal(-100))
	})

	It("carries predictor failures in the result", func() {
		boom := errors.New("model exploded")
		res, err := f.Forecast(ctx, &stubPredictor{err: boom}, ds, Request{})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Succeeded()).To(BeFalse())
		Expect(res.Err).To(MatchError(boom))
		Expect(res.PredictedStudents).To(BeZero())
		Expect(res.DeltaFromLastMonth).To(BeZero())
		Expect(recorder.calls).To(HaveLen(1))
		Expect(recorder.calls[0].err).To(MatchError(boom))
	})

	It("treats a non-finite prediction as a predictor failure", func() {
		res, err := f.Forecast(ctx, &stubPredictor{value: math.Inf(1)}, ds, Request{})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Err).To(HaveOccurred())
	})

	It("returns scenario errors without calling the predictor", func() {
		p := &stubPredictor{value: 1}
		_, err := f.Forecast(ctx, p, ds, Request{Mode: ModeManual, MarketingSpend: ptr.To(-5.0)})
		Expect(err).To(MatchError(ErrInvalidScenario))
		Expect(p.seen).To(BeEmpty())
		Expect(recorder.calls).To(BeEmpty())
	})

	It("charts history plus the forecast point", func() {
		res, err := f.Forecast(ctx, &stubPredictor{value: 120}, ds, Request{})
		Expect(err).NotTo(HaveOccurred())

		series := res.Series(ds)
		Expect(series).To(HaveLen(2))
		Expect(series[0].Name).To(Equal(history.SeriesHistorical))
		Expect(series[0].Len()).To(Equal(2))
		Expect(series[1].Name).To(Equal(history.SeriesForecast))
		Expect(series[1].Latest().Timestamp).To(Equal(utcMonth(2025, time.November)))
		Expect(series[1].LatestValue()).To(Equal(120.0))
	})

	It("charts only history after a failure", func() {
		res, _ := f.Forecast(ctx, &stubPredictor{err: errors.New("no")}, ds, Request{})
		Expect(res.Series(ds)).To(HaveLen(1))
	})
})
