package forecasting

import (
	"github.com/kilianp07/bikecast/core/model"
)

// Predictor is the part of Engine used to produce one horizon.
type Predictor interface {
	Predict() (model.ForecastResult, error)
}

// Run makes a single prediction and pairs its steps with the first horizon
// held-out observations. The number of records is bounded by horizon, the
// held-out rows and the forecast length. Lower estimates are floored at zero
// since rentals cannot be negative. The raw prediction is returned with the
// records.
func Run(p Predictor, holdout []model.Observation, horizon int) ([]model.Record, model.ForecastResult, error) {
	res, err := p.Predict()
	if err != nil {
		return nil, model.ForecastResult{}, err
	}
	n := horizon
	if len(holdout) < n {
		n = len(holdout)
	}
	if res.Len() < n {
		n = res.Len()
	}
	out := make([]model.Record, 0, n)
	for i := 0; i < n; i++ {
		obs := holdout[i]
		out = append(out, model.Record{
			Date:     obs.Date,
			Actual:   obs.TotalRentals,
			Lower:    max(0, res.LowerBound[i]),
			Forecast: res.Forecast[i],
			Upper:    res.UpperBound[i],
		})
	}
	return out, res, nil
}
