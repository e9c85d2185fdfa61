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

package e2e

import (
	"io"
	"net/http"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"k8s.io/utils/ptr"

	v1alpha1 "github.com/scholarship-analytics/enrollment-planner/api/v1alpha1"
)

var _ = Describe("Enrollment planner", Ordered, func() {
	It("is not ready before the first query", func() {
		Expect(call(http.MethodGet, "/readyz", nil, nil)).To(Equal(http.StatusServiceUnavailable))
	})

	It("serves the cleaned history", func() {
		var resp v1alpha1.HistoryResponse
		Expect(call(http.MethodGet, "/api/v1/history", nil, &resp)).To(Equal(http.StatusOK))
		Expect(resp.Summary.Months).To(Equal(3))
		Expect(resp.Summary.LastStudents).To(Equal(100))
		Expect(resp.Summary.AverageMarketingSpend).To(BeNumerically("~", 500_000_000))
		Expect(resp.Observations[0].Month).To(Equal("2025-08"))

		Expect(call(http.MethodGet, "/readyz", nil, nil)).To(Equal(http.StatusOK))
	})

	It("forecasts from historical averages", func() {
		var resp v1alpha1.ForecastResponse
		Expect(call(http.MethodPost, "/api/v1/forecast", v1alpha1.ForecastRequest{IncludeSeries: true}, &resp)).
			To(Equal(http.StatusOK))
		Expect(resp.Error).To(BeEmpty())
		Expect(resp.Scenario.Lag1).To(Equal(100))
		Expect(resp.Scenario.Lag2).To(Equal(90))
		Expect(resp.PredictedStudents).To(Equal(109))
		Expect(resp.DeltaFromLastMonth).To(Equal(9))
		Expect(resp.Series).To(HaveLen(2))
	})

	It("forecasts a manual scenario", func() {
		var resp v1alpha1.ForecastResponse
		Expect(call(http.MethodPost, "/api/v1/forecast", v1alpha1.ForecastRequest{
			Mode:              "manual",
			Target:            "2026-01",
			MarketingSpend:    ptr.To(400_000_000.0),
			ScholarshipEvents: ptr.To(5.0),
		}, &resp)).To(Equal(http.StatusOK))
		Expect(resp.PredictedStudents).To(Equal(103))
		Expect(resp.Target).To(Equal("2026-01"))
	})

	It("sizes the tutor team for the forecast", func() {
		var resp v1alpha1.CapacityResponse
		Expect(call(http.MethodPost, "/api/v1/capacity", v1alpha1.CapacityRequest{PredictedStudents: ptr.To(109)}, &resp)).
			To(Equal(http.StatusOK))
		Expect(resp.ActiveStudentsSource).To(Equal(v1alpha1.ActiveStudentsFromForecast))
		Expect(resp.TotalHours).To(BeNumerically("~", 163.5))
		Expect(resp.TutorsNeeded).To(Equal(14))
		Expect(resp.MaxStudentsPerTutor).To(Equal(8))
		Expect(resp.WithinRecommendedLoad).To(BeTrue())
	})

	It("rejects sliders outside the profile", func() {
		var resp v1alpha1.ErrorResponse
		Expect(call(http.MethodPost, "/api/v1/capacity", v1alpha1.CapacityRequest{
			Profile:       "evening",
			HoursPerTutor: ptr.To(25.0),
		}, &resp)).To(Equal(http.StatusBadRequest))
		Expect(resp.Error).To(ContainSubstring("hoursPerTutor"))
		Expect(resp.RequestID).NotTo(BeEmpty())
	})

	It("lists profiles", func() {
		var resp v1alpha1.ProfilesResponse
		Expect(call(http.MethodGet, "/api/v1/profiles", nil, &resp)).To(Equal(http.StatusOK))
		Expect(resp.Profiles).To(HaveLen(2))
		Expect(resp.Profiles[1].HoursPerTutor.Max).To(Equal(20.0))
	})

	It("picks up new history on reload", func() {
		f, err := os.OpenFile(historyPath, os.O_APPEND|os.O_WRONLY, 0)
		Expect(err).NotTo(HaveOccurred())
		_, err = f.WriteString("2025-11-01,95,\"Rp500,000,000\",18\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(f.Close()).To(Succeed())

		var reload v1alpha1.ReloadResponse
		Expect(call(http.MethodPost, "/api/v1/admin/reload", nil, &reload)).To(Equal(http.StatusOK))
		Expect(reload.Months).To(Equal(4))

		var resp v1alpha1.ForecastResponse
		Expect(call(http.MethodPost, "/api/v1/forecast", v1alpha1.ForecastRequest{}, &resp)).To(Equal(http.StatusOK))
		Expect(resp.Scenario.Lag1).To(Equal(95))
		Expect(resp.PredictedStudents).To(Equal(96))
		Expect(resp.DeltaFromLastMonth).To(Equal(1))
	})

	It("keeps serving when a reload fails", func() {
		Expect(os.WriteFile(historyPath, []byte("nothing,useful\n"), 0o600)).To(Succeed())

		var errResp v1alpha1.ErrorResponse
		Expect(call(http.MethodPost, "/api/v1/admin/reload", nil, &errResp)).To(Equal(http.StatusServiceUnavailable))

		var hist v1alpha1.HistoryResponse
		Expect(call(http.MethodGet, "/api/v1/history", nil, &hist)).To(Equal(http.StatusOK))
		Expect(hist.Summary.Months).To(Equal(4))
	})

	It("reports unavailable assets after the cache is dropped", func() {
		Expect(call(http.MethodDelete, "/api/v1/admin/cache", nil, nil)).To(Equal(http.StatusNoContent))
		Expect(call(http.MethodGet, "/api/v1/history", nil, nil)).To(Equal(http.StatusServiceUnavailable))
		Expect(call(http.MethodGet, "/readyz", nil, nil)).To(Equal(http.StatusServiceUnavailable))
	})

	It("exposes planner metrics", func() {
		resp, err := client.Get(baseURL + "/metrics")
		Expect(err).NotTo(HaveOccurred())
		defer func() { _ = resp.Body.Close() }()
		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())

		Expect(string(body)).To(ContainSubstring(`planner_forecasts_total{mode="auto",outcome="success"} 2`))
		Expect(string(body)).To(ContainSubstring(`planner_tutors_needed{profile="default"} 14`))
		Expect(string(body)).To(ContainSubstring("planner_history_months 4"))
		Expect(string(body)).To(ContainSubstring(`route="/api/v1/admin/reload"`))
	})
})
