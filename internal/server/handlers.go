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

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	ctrl "sigs.k8s.io/controller-runtime"

	v1alpha1 "github.com/scholarship-analytics/enrollment-planner/api/v1alpha1"
	"github.com/scholarship-analytics/enrollment-planner/internal/metrics"
	"github.com/scholarship-analytics/enrollment-planner/internal/planner"
)

const maxBodyBytes = 1 << 20

// Planner is the query surface the API serves. *planner.Service implements it.
type Planner interface {
	Ready() bool
	Forecast(ctx context.Context, req v1alpha1.ForecastRequest) (*v1alpha1.ForecastResponse, error)
	Capacity(ctx context.Context, req v1alpha1.CapacityRequest) (*v1alpha1.CapacityResponse, error)
	History(ctx context.Context) (*v1alpha1.HistoryResponse, error)
	Profiles() *v1alpha1.ProfilesResponse
	Reload(ctx context.Context) (*v1alpha1.ReloadResponse, error)
	Invalidate()
}

type handlers struct {
	planner Planner
}

// NewHandler returns the API router. When m is nil, /metrics is not served and
// requests are not observed.
func NewHandler(p Planner, m *metrics.Metrics) http.Handler {
	h := &handlers{planner: p}
	r := mux.NewRouter()
	r.Use(requestID, recoverPanics)
	if m != nil {
		r.Use(instrument(m))
		r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	}

	r.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", h.readyz).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/history", h.history).Methods(http.MethodGet)
	api.HandleFunc("/forecast", h.forecast).Methods(http.MethodPost)
	api.HandleFunc("/capacity", h.capacity).Methods(http.MethodPost)
	api.HandleFunc("/profiles", h.profiles).Methods(http.MethodGet)
	api.HandleFunc("/admin/reload", h.reload).Methods(http.MethodPost)
	api.HandleFunc("/admin/cache", h.invalidate).Methods(http.MethodDelete)

	// Middleware only runs on matched routes, so the fallbacks assign their own
	// request IDs.
	for _, router := range []*mux.Router{r, api} {
		router.NotFoundHandler = requestID(http.HandlerFunc(notFound))
		router.MethodNotAllowedHandler = requestID(http.HandlerFunc(methodNotAllowed))
	}
	return r
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusNotFound, fmt.Errorf("no route for %s %s", r.Method, r.URL.Path))
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed on %s", r.Method, r.URL.Path))
}

func (h *handlers) healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *handlers) readyz(w http.ResponseWriter, r *http.Request) {
	if !h.planner.Ready() {
		writeError(w, r, http.StatusServiceUnavailable, planner.ErrAssetsUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *handlers) history(w http.ResponseWriter, r *http.Request) {
	resp, err := h.planner.History(r.Context())
	if err != nil {
		writePlannerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) forecast(w http.ResponseWriter, r *http.Request) {
	var req v1alpha1.ForecastRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := h.planner.Forecast(r.Context(), req)
	if err != nil {
		writePlannerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) capacity(w http.ResponseWriter, r *http.Request) {
	var req v1alpha1.CapacityRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := h.planner.Capacity(r.Context(), req)
	if err != nil {
		writePlannerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) profiles(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.planner.Profiles())
}

func (h *handlers) reload(w http.ResponseWriter, r *http.Request) {
	resp, err := h.planner.Reload(r.Context())
	if err != nil {
		writePlannerError(w, r, err)
		return
	}
	ctrl.LoggerFrom(r.Context()).Info("Assets reloaded", "months", resp.Months, "loadedAt", resp.LoadedAt)
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) invalidate(w http.ResponseWriter, _ *http.Request) {
	h.planner.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}

// decode reads a JSON body into dst. An empty body leaves dst at its zero
// value. It writes a 400 and returns false on malformed input.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("malformed request body: %w", err))
		return false
	}
	return true
}

func writePlannerError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, planner.ErrInvalidRequest):
		writeError(w, r, http.StatusBadRequest, err)
	case errors.Is(err, planner.ErrAssetsUnavailable):
		writeError(w, r, http.StatusServiceUnavailable, err)
	default:
		ctrl.LoggerFrom(r.Context()).Error(err, "Request failed", "path", r.URL.Path)
		writeError(w, r, http.StatusInternalServerError, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, code int, err error) {
	writeJSON(w, code, v1alpha1.ErrorResponse{
		Error:     err.Error(),
		RequestID: RequestIDFrom(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
