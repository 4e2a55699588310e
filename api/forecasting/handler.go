// Package forecasting exposes the rental forecast over HTTP.
package forecasting

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	corelogger "github.com/kilianp07/bikecast/core/logger"
	"github.com/kilianp07/bikecast/core/model"
	coremon "github.com/kilianp07/bikecast/core/monitoring"
	"github.com/kilianp07/bikecast/core/runlog"
)

// Forecaster produces the next forecast horizon.
type Forecaster interface {
	Forecast(ctx context.Context) (model.ForecastResult, error)
}

// NewRouter mounts the forecasting routes. The run history route is only
// registered when runs is non-nil.
func NewRouter(f Forecaster, runs runlog.Store, log corelogger.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(recoverer(log), requestLogger(log))
	router.Handle("/Forecasting", NewForecastHandler(f, log)).Methods(http.MethodGet)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	if runs != nil {
		router.Handle("/runs", NewRunsHandler(runs)).Methods(http.MethodGet)
	}
	return router
}

// NewForecastHandler returns the forecasted values of the next horizon as a
// JSON array. Bounds are not exposed.
func NewForecastHandler(f Forecaster, log corelogger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, err := f.Forecast(r.Context())
		if err != nil {
			log.Errorf("forecast: %v", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		values := res.Forecast
		if values == nil {
			values = []float64{}
		}
		writeJSON(w, http.StatusOK, values)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func recoverer(log corelogger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					err := fmt.Errorf("panic serving %s: %v", r.URL.Path, rec)
					log.Errorf("%v", err)
					coremon.Capture("api", err, "path", r.URL.Path)
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func requestLogger(log corelogger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.Debugw("request served", map[string]any{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start).String(),
			})
		})
	}
}
