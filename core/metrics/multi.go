package metrics

// MultiSink fans events out to several sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordForecast forwards the event to all sinks, returning the first error.
func (m *MultiSink) RecordForecast(ev ForecastEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordForecast(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordFit forwards to sinks implementing FitRecorder.
func (m *MultiSink) RecordFit(ev FitEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(FitRecorder); ok {
			if err := rec.RecordFit(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordEvaluation forwards to sinks implementing EvaluationRecorder.
func (m *MultiSink) RecordEvaluation(ev EvaluationEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(EvaluationRecorder); ok {
			if err := rec.RecordEvaluation(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
