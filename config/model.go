package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/bikecast/core/forecasting"
)

// ModelConfig holds the forecaster options and model lifecycle settings.
type ModelConfig struct {
	forecasting.Options `json:",squash"`
	// CheckpointPath is where the fitted engine is saved. Empty disables
	// checkpointing.
	CheckpointPath string `json:"checkpoint_path"`
	// WarmStart restores the engine from CheckpointPath instead of fitting
	// when the file exists.
	WarmStart bool `json:"warm_start"`
	// RefreshIntervalSeconds is how long the server keeps a fitted model
	// before fitting again. 0 keeps it forever.
	RefreshIntervalSeconds int `json:"refresh_interval_seconds"`
}

// SetDefaults applies default values. Zero options fields take their default.
func (c *ModelConfig) SetDefaults() {
	def := forecasting.DefaultOptions()
	if c.WindowSize == 0 {
		c.WindowSize = def.WindowSize
	}
	if c.SeriesLength == 0 {
		c.SeriesLength = def.SeriesLength
	}
	if c.TrainSize == 0 {
		c.TrainSize = def.TrainSize
	}
	if c.Horizon == 0 {
		c.Horizon = def.Horizon
	}
	if c.ConfidenceLevel == 0 {
		c.ConfidenceLevel = def.ConfidenceLevel
	}
	if c.CheckpointPath == "" {
		c.CheckpointPath = "Model.zip"
	}
}

// Validate checks the forecaster options and refresh interval.
func (c ModelConfig) Validate() error {
	if err := c.Options.Validate(); err != nil {
		return err
	}
	if c.RefreshIntervalSeconds < 0 {
		return fmt.Errorf("refresh_interval_seconds must not be negative")
	}
	return nil
}

// RefreshInterval returns the refresh interval as a duration.
func (c ModelConfig) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalSeconds) * time.Second
}
