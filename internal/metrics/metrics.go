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

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	versioncollector "github.com/prometheus/client_golang/prometheus/collectors/version"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scholarship-analytics/enrollment-planner/internal/assets"
	"github.com/scholarship-analytics/enrollment-planner/internal/capacity"
	"github.com/scholarship-analytics/enrollment-planner/internal/forecast"
)

// Namespace prefixes every planner metric.
const Namespace = "planner"

// Forecast outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics owns a private registry and the planner's instruments.
type Metrics struct {
	registry *prometheus.Registry

	forecasts         *prometheus.CounterVec
	predictedStudents *prometheus.GaugeVec
	capacityCalcs     *prometheus.CounterVec
	tutorsNeeded      *prometheus.GaugeVec
	overloaded        *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	historyMonths     prometheus.Gauge
	assetsLoaded      prometheus.Gauge
	assetLoads        prometheus.Counter
}

var _ forecast.Recorder = &Metrics{}

// New registers all planner metrics plus the Go runtime, process and build
// info collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		versioncollector.NewCollector(Namespace),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		forecasts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "forecasts_total",
			Help:      "Forecasts run, by scenario mode and outcome.",
		}, []string{"mode", "outcome"}),
		predictedStudents: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "predicted_students",
			Help:      "Student count of the latest successful forecast, by scenario mode.",
		}, []string{"mode"}),
		capacityCalcs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "capacity_calculations_total",
			Help:      "Capacity calculations run, by profile and rounding policy.",
		}, []string{"profile", "rounding"}),
		tutorsNeeded: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "tutors_needed",
			Help:      "Tutors needed by the latest capacity calculation, by profile.",
		}, []string{"profile"}),
		overloaded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "capacity_over_recommended_load_total",
			Help:      "Capacity calculations whose average load exceeded the recommended maximum.",
		}, []string{"profile"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route template, method and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "code"}),
		historyMonths: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "history_months",
			Help:      "Months in the loaded enrollment history.",
		}),
		assetsLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "assets_loaded_timestamp_seconds",
			Help:      "Unix time the model and history were last loaded.",
		}),
		assetLoads: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "asset_loads_total",
			Help:      "Successful model and history loads.",
		}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordForecast implements forecast.Recorder.
func (m *Metrics) RecordForecast(mode forecast.Mode, predicted int, err error) {
	if err != nil {
		m.forecasts.WithLabelValues(string(mode), OutcomeError).Inc()
		return
	}
	m.forecasts.WithLabelValues(string(mode), OutcomeSuccess).Inc()
	m.predictedStudents.WithLabelValues(string(mode)).Set(float64(predicted))
}

// RecordCapacity records one capacity calculation made with profile.
func (m *Metrics) RecordCapacity(profile string, res capacity.Result) {
	m.capacityCalcs.WithLabelValues(profile, res.Rounding.String()).Inc()
	m.tutorsNeeded.WithLabelValues(profile).Set(float64(res.TutorsNeeded))
	if res.TutorsNeeded > 0 && !res.WithinRecommendedLoad {
		m.overloaded.WithLabelValues(profile).Inc()
	}
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(route, method string, code int, elapsed time.Duration) {
	m.requestDuration.WithLabelValues(route, method, strconv.Itoa(code)).Observe(elapsed.Seconds())
}

// ObserveAssets is an assets.Observer.
func (m *Metrics) ObserveAssets(s *assets.Snapshot) {
	m.historyMonths.Set(float64(s.History.Len()))
	m.assetsLoaded.Set(float64(s.LoadedAt.Unix()))
	m.assetLoads.Inc()
}
