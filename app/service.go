package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/kilianp07/bikecast/config"
	"github.com/kilianp07/bikecast/core/dataset"
	"github.com/kilianp07/bikecast/core/evaluation"
	"github.com/kilianp07/bikecast/core/forecasting"
	corelogger "github.com/kilianp07/bikecast/core/logger"
	coremetrics "github.com/kilianp07/bikecast/core/metrics"
	"github.com/kilianp07/bikecast/core/model"
	coremon "github.com/kilianp07/bikecast/core/monitoring"
	coremqtt "github.com/kilianp07/bikecast/core/mqtt"
	"github.com/kilianp07/bikecast/core/runlog"
	"github.com/kilianp07/bikecast/infra/logger"
	_ "github.com/kilianp07/bikecast/infra/metrics"
	"github.com/kilianp07/bikecast/infra/mqtt"
	"github.com/kilianp07/bikecast/infra/storage"
	"github.com/kilianp07/bikecast/pkg/export"
)

// Run sources recorded in the run log, metrics and published messages.
const (
	SourceConsole = "console"
	SourceHTTP    = "http"
)

// Session is the outcome of a training run.
type Session struct {
	Model   *forecasting.Model
	Train   []model.Observation
	Holdout []model.Observation
	// Metrics is nil when the hold-out evaluation could not be computed.
	Metrics     *evaluation.Metrics
	Restored    bool
	FitDuration time.Duration
}

// Service orchestrates loading, fitting, evaluation and forecasting.
type Service struct {
	cfg    *config.Config
	source dataset.Source
	sink   coremetrics.MetricsSink
	runs   runlog.Store
	pub    coremqtt.Publisher
	log    corelogger.Logger
	now    func() time.Time

	closers []func() error

	mu       sync.Mutex
	cached   *forecasting.Model
	fittedAt time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithSource replaces the database source.
func WithSource(src dataset.Source) Option { return func(s *Service) { s.source = src } }

// WithMetricsSink replaces the sinks built from configuration.
func WithMetricsSink(sink coremetrics.MetricsSink) Option {
	return func(s *Service) { s.sink = sink }
}

// WithRunLog replaces the run log store built from configuration.
func WithRunLog(store runlog.Store) Option { return func(s *Service) { s.runs = store } }

// WithPublisher replaces the MQTT publisher built from configuration.
func WithPublisher(p coremqtt.Publisher) Option { return func(s *Service) { s.pub = p } }

// WithLogger sets the service logger.
func WithLogger(l corelogger.Logger) Option { return func(s *Service) { s.log = l } }

// WithClock sets the time source used for refresh decisions and records.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// New creates a Service from the configuration. Collaborators not supplied
// through options are built from cfg.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	s := &Service{cfg: cfg, log: logger.New("service"), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	if s.source == nil {
		src, err := storage.Open(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("data source: %w", err)
		}
		s.source = src
		s.closers = append(s.closers, src.Close)
	}
	if s.sink == nil {
		sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("metrics sink: %w", err)
		}
		s.sink = sink
	}
	if s.runs == nil {
		store, err := runlog.NewStore(cfg.Logging)
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("run log: %w", err)
		}
		s.runs = store
		s.closers = append(s.closers, store.Close)
	}
	if s.pub == nil {
		pub, disconnect, err := mqtt.New(cfg.MQTT)
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		s.pub = pub
		s.closers = append(s.closers, func() error { disconnect(); return nil })
	}
	return s, nil
}

// Train loads the history, fits on the first year and evaluates on the
// rest. With warm start enabled a matching checkpoint replaces the fit. The
// fitted engine is checkpointed when a path is configured.
func (s *Service) Train(ctx context.Context) (*Session, error) {
	obs, err := s.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rentals: %w", err)
	}
	train, holdout := dataset.Split(obs)
	s.log.Infow("dataset split", map[string]any{"train": len(train), "holdout": len(holdout)})

	sess := &Session{Train: train, Holdout: holdout}
	if m := s.restore(); m != nil {
		sess.Model, sess.Restored = m, true
	} else {
		start := s.now()
		m, err := forecasting.Fit(dataset.Values(train), s.cfg.Model.Options)
		if err != nil {
			return nil, fmt.Errorf("fit: %w", err)
		}
		sess.Model, sess.FitDuration = m.WithThrough(lastDate(train)), s.now().Sub(start)
	}
	s.recordFit(sess.Model, len(train), sess.FitDuration, sess.Restored)

	if met, err := evaluation.Evaluate(sess.Model, holdout); err != nil {
		s.log.Warnf("evaluation skipped: %v", err)
	} else {
		sess.Metrics = &met
		s.log.Infow("model evaluated", map[string]any{"mae": met.MAE, "rmse": met.RMSE, "points": met.Count})
		if rec, ok := s.sink.(coremetrics.EvaluationRecorder); ok {
			if err := rec.RecordEvaluation(coremetrics.EvaluationEvent{MAE: met.MAE, RMSE: met.RMSE, Points: met.Count, Time: s.now()}); err != nil {
				s.log.Errorf("record evaluation: %v", err)
			}
		}
	}

	if path := s.cfg.Model.CheckpointPath; path != "" && !sess.Restored {
		if err := sess.Model.NewEngine().Checkpoint(path); err != nil {
			return nil, fmt.Errorf("checkpoint %s: %w", path, err)
		}
		s.log.Infof("checkpoint written to %s", path)
	}
	return sess, nil
}

// RunConsole trains, prints the evaluation metrics and the forecast of the
// first hold-out days to w. Metrics are only printed in text format.
func (s *Service) RunConsole(ctx context.Context, w io.Writer, format string) error {
	sess, err := s.Train(ctx)
	if err != nil {
		return err
	}
	if sess.Metrics != nil && (format == "" || format == "text") {
		if err := export.WriteMetrics(w, *sess.Metrics); err != nil {
			return err
		}
	}
	recs, res, err := forecasting.Run(sess.Model.NewEngine(), sess.Holdout, s.cfg.Model.Horizon)
	if err != nil {
		err = fmt.Errorf("predict: %w", err)
		s.report(ctx, SourceConsole, sess, nil, model.ForecastResult{}, err)
		return err
	}
	s.report(ctx, SourceConsole, sess, firstDate(sess.Holdout), res, nil)
	return export.Write(w, format, recs)
}

// Forecast returns the next horizon after the full history. The fitted model
// is cached for the configured refresh interval and every call uses its own
// engine.
func (s *Service) Forecast(ctx context.Context) (model.ForecastResult, error) {
	m, sess, err := s.servingModel(ctx)
	if err != nil {
		s.report(ctx, SourceHTTP, nil, nil, model.ForecastResult{}, err)
		return model.ForecastResult{}, err
	}
	res, err := m.NewEngine().Predict()
	if err != nil {
		err = fmt.Errorf("predict: %w", err)
		s.report(ctx, SourceHTTP, sess, nil, model.ForecastResult{}, err)
		return model.ForecastResult{}, err
	}
	s.report(ctx, SourceHTTP, sess, nil, res, nil)
	return res, nil
}

// servingModel returns the cached model, preparing a new one from the whole
// history when none is cached or the cached one is stale. A warm start
// checkpoint is caught up with the observations recorded after it; otherwise
// the model is fitted. sess is non-nil only when a new model was prepared.
func (s *Service) servingModel(ctx context.Context) (*forecasting.Model, *Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if s.cached != nil {
		refresh := s.cfg.Model.RefreshInterval()
		if refresh == 0 || now.Sub(s.fittedAt) < refresh {
			return s.cached, nil, nil
		}
	}
	obs, err := s.source.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load rentals: %w", err)
	}
	sess := &Session{Train: obs}
	if s.cached == nil {
		if m := s.restore(); m != nil {
			if m, err = catchUp(m, obs); err != nil {
				s.log.Warnf("checkpoint cannot be brought up to date, refitting: %v", err)
			} else {
				sess.Model, sess.Restored = m, true
			}
		}
	}
	if sess.Model == nil {
		start := s.now()
		m, err := forecasting.Fit(dataset.Values(obs), s.cfg.Model.Options)
		if err != nil {
			return nil, nil, fmt.Errorf("fit: %w", err)
		}
		sess.Model, sess.FitDuration = m.WithThrough(lastDate(obs)), s.now().Sub(start)
	}
	s.recordFit(sess.Model, len(sess.Train), sess.FitDuration, sess.Restored)
	s.cached, s.fittedAt = sess.Model, now
	return sess.Model, sess, nil
}

// catchUp feeds the observations dated after m.Through into an engine and
// returns the model positioned after the last of them.
func catchUp(m *forecasting.Model, obs []model.Observation) (*forecasting.Model, error) {
	through := m.Through()
	if through.IsZero() {
		return nil, errors.New("checkpoint has no position")
	}
	engine := m.NewEngine()
	last := through
	for _, o := range obs {
		if !o.Date.After(through) {
			continue
		}
		if err := engine.Observe(o.TotalRentals); err != nil {
			return nil, err
		}
		if o.Date.After(last) {
			last = o.Date
		}
	}
	caught, err := engine.Model()
	if err != nil {
		return nil, err
	}
	return caught.WithThrough(last), nil
}

// restore loads the configured checkpoint when warm start is enabled and the
// saved options match the configured ones.
func (s *Service) restore() *forecasting.Model {
	path := s.cfg.Model.CheckpointPath
	if !s.cfg.Model.WarmStart || path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	engine, err := forecasting.LoadCheckpoint(path)
	if err != nil {
		s.log.Warnf("ignoring checkpoint %s: %v", path, err)
		coremon.Capture("forecasting", err, "checkpoint", path)
		return nil
	}
	m, err := engine.Model()
	if err != nil {
		return nil
	}
	if m.Options() != s.cfg.Model.Options {
		s.log.Warnf("checkpoint %s was fitted with other options, refitting", path)
		return nil
	}
	s.log.Infof("restored model from %s", path)
	return m
}

func (s *Service) recordFit(m *forecasting.Model, points int, d time.Duration, restored bool) {
	s.log.Infow("model ready", map[string]any{
		"rank":     m.Rank(),
		"residual": m.ResidualDeviation(),
		"points":   points,
		"restored": restored,
		"duration": d.String(),
	})
	if rec, ok := s.sink.(coremetrics.FitRecorder); ok {
		ev := coremetrics.FitEvent{
			TrainPoints: points,
			Rank:        m.Rank(),
			Residual:    m.ResidualDeviation(),
			Duration:    d,
			Restored:    restored,
			Time:        s.now(),
		}
		if err := rec.RecordFit(ev); err != nil {
			s.log.Errorf("record fit: %v", err)
		}
	}
}

// report appends the run to the log, records metrics and publishes the
// forecast. Failures are logged and never returned.
func (s *Service) report(ctx context.Context, source string, sess *Session, start *time.Time, res model.ForecastResult, runErr error) {
	now := s.now()
	rec := runlog.NewRecord(source)
	rec.Timestamp = now.UTC()
	rec.Forecast = res
	if sess != nil {
		rec.TrainPoints = len(sess.Train)
		rec.HoldoutPoints = len(sess.Holdout)
		rec.Rank = sess.Model.Rank()
		rec.Restored = sess.Restored
		rec.Metrics = sess.Metrics
	}
	if runErr != nil {
		rec.Error = runErr.Error()
		coremon.Capture("service", runErr, "source", source)
	}
	if err := s.runs.Append(ctx, rec); err != nil {
		s.log.Errorf("run log append: %v", err)
	}
	if runErr != nil {
		return
	}

	ev := coremetrics.ForecastEvent{Source: source, Result: res, Time: now}
	if start != nil {
		ev.Start = *start
	}
	if err := s.sink.RecordForecast(ev); err != nil {
		s.log.Errorf("record forecast: %v", err)
	}
	msg := coremqtt.ForecastMessage{MessageID: rec.ID, Source: source, IssuedAt: now, Start: start, Result: res}
	if _, err := s.pub.PublishForecast(msg); err != nil {
		s.log.Errorf("publish forecast: %v", err)
	}
}

// Runs returns the run log the service appends to.
func (s *Service) Runs() runlog.Store { return s.runs }

// Close releases resources held by the service.
func (s *Service) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

func lastDate(obs []model.Observation) time.Time {
	var last time.Time
	for _, o := range obs {
		if o.Date.After(last) {
			last = o.Date
		}
	}
	return last
}

func firstDate(obs []model.Observation) *time.Time {
	if len(obs) == 0 {
		return nil
	}
	d := obs[0].Date
	return &d
}
