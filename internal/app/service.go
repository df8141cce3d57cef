// Package service runs the sync pipeline end to end: fetch the recent
// measurement window from the vendor, normalize it, optionally export
// it to a local file, and upload whatever the destination has not seen.
package service

import (
	"context"
	"time"

	"github.com/kallio/physync/internal/dest"
	"github.com/kallio/physync/internal/domain/model"
	"github.com/kallio/physync/internal/domain/transform"
	"github.com/kallio/physync/pkg/logger"
	"github.com/kallio/physync/pkg/metrics"
)

const defaultLookback = 24 * time.Hour

// Source fetches raw measurement inputs for a time window.
type Source interface {
	Fetch(ctx context.Context, from, to time.Time) ([]transform.Input, error)
}

// Destination uploads normalized records.
type Destination interface {
	Upload(ctx context.Context, records []model.MeasurementRecord) (dest.Result, error)
}

// Exporter writes records to a local file.
type Exporter func(path string, records []model.MeasurementRecord) error

// Summary reports what one run did at each pipeline stage.
type Summary struct {
	Fetched     int
	Transformed int
	Matched     int
	Duplicates  int
	Uploaded    int
	Failed      int
}

// Service wires the pipeline stages together. Stages run sequentially;
// a single run moves little enough data that concurrency would only
// complicate the failure handling.
type Service struct {
	source      Source
	destination Destination
	exporter    Exporter
	exportPath  string
	lookback    time.Duration
	dryRun      bool
	now         func() time.Time
	logger      logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSource sets the measurement source.
func WithSource(src Source) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
		}
	}
}

// WithDestination sets the upload target.
func WithDestination(dst Destination) Option {
	return func(s *Service) {
		if dst != nil {
			s.destination = dst
		}
	}
}

// WithExport writes fetched records to path before uploading.
func WithExport(path string, exporter Exporter) Option {
	return func(s *Service) {
		if path != "" && exporter != nil {
			s.exportPath = path
			s.exporter = exporter
		}
	}
}

// WithLookback sets how far back the fetch window reaches.
func WithLookback(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.lookback = d
		}
	}
}

// WithDryRun stops the pipeline after transform and export.
func WithDryRun(dryRun bool) Option {
	return func(s *Service) {
		s.dryRun = dryRun
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// NewService creates a Service with the given options. Source and
// destination must be provided; Run fails without them.
func NewService(opts ...Option) *Service {
	s := &Service{
		lookback: defaultLookback,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("pipeline")
	}
	return s
}

// Run executes one sync pass and reports per-stage counts. Errors from
// the roster fetch, user resolution, or the dedup scan abort the run;
// per-record problems are logged and skipped.
func (s *Service) Run(ctx context.Context) (Summary, error) {
	var sum Summary

	if s.source == nil || (s.destination == nil && !s.dryRun) {
		return sum, ErrNotConfigured
	}

	to := s.now().UTC()
	from := to.Add(-s.lookback)
	s.logger.Info(ctx, "sync run starting",
		logger.Duration("lookback", s.lookback),
		logger.Bool("dryRun", s.dryRun))

	inputs, err := s.source.Fetch(ctx, from, to)
	if err != nil {
		return sum, err
	}
	sum.Fetched = len(inputs)

	records := make([]model.MeasurementRecord, 0, len(inputs))
	for _, in := range inputs {
		record, err := transform.Build(in)
		if err != nil {
			s.logger.Warn(ctx, "measurement failed to normalize, skipping",
				logger.String("measurementId", in.MeasurementID),
				logger.String("athleteId", in.Athlete.ID),
				logger.Error(err))
			metrics.RecordMeasurementSkipped()
			continue
		}
		metrics.RecordTransformed()
		records = append(records, record)
	}
	sum.Transformed = len(records)

	if s.exportPath != "" {
		if err := s.exporter(s.exportPath, records); err != nil {
			// Export is a side channel; a failed file never blocks the sync.
			s.logger.Warn(ctx, "export failed",
				logger.String("path", s.exportPath),
				logger.Error(err))
		} else {
			s.logger.Info(ctx, "records exported",
				logger.String("path", s.exportPath),
				logger.Int("records", len(records)))
		}
	}

	if s.dryRun {
		s.logger.Info(ctx, "dry run, skipping upload",
			logger.Int("records", len(records)))
		return sum, nil
	}

	res, err := s.destination.Upload(ctx, records)
	if err != nil {
		return sum, err
	}
	sum.Matched = res.Matched
	sum.Duplicates = res.Duplicates
	sum.Uploaded = res.Uploaded
	sum.Failed = res.Failed

	s.logger.Info(ctx, "sync run finished",
		logger.Int("fetched", sum.Fetched),
		logger.Int("transformed", sum.Transformed),
		logger.Int("matched", sum.Matched),
		logger.Int("duplicates", sum.Duplicates),
		logger.Int("uploaded", sum.Uploaded),
		logger.Int("failed", sum.Failed))
	return sum, nil
}
