// Package forecasting implements Singular Spectrum Analysis (SSA) forecasting
// for daily rental counts.
//
// Fit embeds the training series into a trajectory matrix, keeps the leading
// singular components and derives a linear recurrence formula (LRF) from them.
// The fitted Model is immutable. Engines created from it carry the recursion
// buffer needed to forecast the next horizon and can be checkpointed to disk
// and restored without retraining.
//
//	m, err := forecasting.Fit(values, forecasting.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	eng := m.NewEngine()
//	res, err := eng.Predict()
package forecasting
