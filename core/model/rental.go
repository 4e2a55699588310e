package model

import "time"

// Observation is one day of rental history as returned by the data source.
// Year is 0 for the first year of data and >= 1 afterwards.
type Observation struct {
	Date         time.Time `json:"rental_date"`
	Year         float64   `json:"year"`
	TotalRentals float64   `json:"total_rentals"`
}

// ForecastResult holds one horizon of predictions with its confidence band.
// All three slices have the same length.
type ForecastResult struct {
	Forecast   []float64 `json:"forecasted_rentals" msgpack:"forecast"`
	LowerBound []float64 `json:"lower_bound_rentals" msgpack:"lower"`
	UpperBound []float64 `json:"upper_bound_rentals" msgpack:"upper"`
}

// Len returns the horizon covered by the result.
func (r ForecastResult) Len() int { return len(r.Forecast) }

// Record pairs an observed day with the forecast made for it.
type Record struct {
	Date     time.Time `json:"date" yaml:"date"`
	Actual   float64   `json:"actual_rentals" yaml:"actual_rentals"`
	Lower    float64   `json:"lower_estimate" yaml:"lower_estimate"`
	Forecast float64   `json:"forecast" yaml:"forecast"`
	Upper    float64   `json:"upper_estimate" yaml:"upper_estimate"`
}
