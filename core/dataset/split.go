package dataset

import (
	"context"

	"github.com/kilianp07/bikecast/core/model"
)

// Source loads the full rental history in chronological order.
type Source interface {
	Load(ctx context.Context) ([]model.Observation, error)
}

// Split separates observations on the year indicator. Rows with Year < 1 go to
// train, the rest to holdout. Source order is kept in both partitions.
func Split(obs []model.Observation) (train, holdout []model.Observation) {
	for _, o := range obs {
		if o.Year < 1 {
			train = append(train, o)
		} else {
			holdout = append(holdout, o)
		}
	}
	return train, holdout
}

// Values extracts the rental counts.
func Values(obs []model.Observation) []float64 {
	out := make([]float64, len(obs))
	for i, o := range obs {
		out[i] = o.TotalRentals
	}
	return out
}
