// Package dataset partitions rental history into the training year and the
// held-out period used for evaluation and forecasting.
package dataset
