package download

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ytget/streamflare/internal/artifact"
	"github.com/ytget/streamflare/internal/convert"
	"github.com/ytget/streamflare/internal/extract"
	"github.com/ytget/streamflare/internal/model"
	"github.com/ytget/streamflare/internal/platform"
	"github.com/ytget/streamflare/internal/progress"
)

// Retry defaults
const (
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 5 * time.Second
)

// Options configures a Service. Extractor and Converter are required.
// MaxAttempts below one means DefaultMaxAttempts; a negative RetryDelay
// means DefaultRetryDelay.
type Options struct {
	Extractor   extract.Extractor
	Converter   convert.Converter
	Tagger      Tagger // nil disables tagging
	Sink        progress.Sink
	Logger      *zap.Logger
	MaxAttempts int
	RetryDelay  time.Duration
}

// Service handles download operations
type Service struct {
	extractor   extract.Extractor
	converter   convert.Converter
	tagger      Tagger
	sink        progress.Sink
	log         *zap.Logger
	maxAttempts int
	retryDelay  time.Duration
	wait        func(ctx context.Context, d time.Duration) error
}

// NewService creates a new download service
func NewService(opts Options) *Service {
	s := &Service{
		extractor:   opts.Extractor,
		converter:   opts.Converter,
		tagger:      opts.Tagger,
		sink:        opts.Sink,
		log:         opts.Logger,
		maxAttempts: opts.MaxAttempts,
		retryDelay:  opts.RetryDelay,
		wait:        sleepContext,
	}
	if s.sink == nil {
		s.sink = progress.Discard
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.maxAttempts < 1 {
		s.maxAttempts = DefaultMaxAttempts
	}
	if s.retryDelay < 0 {
		s.retryDelay = DefaultRetryDelay
	}
	return s
}

// Download runs job with bounded retries. The returned item carries the
// final path and size on success, or the last failure otherwise.
func (s *Service) Download(ctx context.Context, job model.DownloadJob) model.ReportItem {
	return s.download(ctx, job, 1, 1)
}

func (s *Service) download(ctx context.Context, job model.DownloadJob, index, total int) model.ReportItem {
	item := model.ReportItem{JobID: job.ID, Link: job.Link, Status: model.TaskStatusPending}
	events := publisher{sink: s.sink, base: progress.Event{
		JobID: job.ID,
		Link:  job.Link,
		Index: index,
		Total: total,
	}}

	fail := func(err error) model.ReportItem {
		item.Err = err
		item.Status = model.StatusForError(err)
		events.failed(item.Attempts, item.String(), err, true)
		return item
	}

	if err := job.Validate(); err != nil {
		return fail(err)
	}
	if err := platform.CreateDirectoryIfNotExists(job.OutputDir); err != nil {
		return fail(fmt.Errorf("failed to create output directory: %w", err))
	}
	artifacts := artifact.NewManager(job.OutputDir, s.log)

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			lastErr = model.NewError(model.KindCanceled, "download", err)
			break
		}

		item.Attempts = attempt
		outcome := s.attempt(ctx, job, artifacts, events.at(attempt))
		if outcome.IsSuccess() {
			item.Status = model.TaskStatusCompleted
			item.Path = outcome.Artifact.Path
			item.Size = outcome.Artifact.Size
			events.finished(attempt, item.String())
			return item
		}

		lastErr = outcome.Err
		s.log.Warn("download attempt failed",
			zap.String("job", job.ID),
			zap.String("link", job.Link),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", s.maxAttempts),
			zap.String("kind", model.KindOf(lastErr).String()),
			zap.Error(lastErr))

		if outcome.Status == model.OutcomeFatal || attempt == s.maxAttempts {
			break
		}

		events.failed(attempt, fmt.Sprintf("Attempt %d failed, retrying in %s", attempt, s.retryDelay), lastErr, false)
		if err := s.wait(ctx, s.retryDelay); err != nil {
			lastErr = model.NewError(model.KindCanceled, "download", err)
			break
		}
	}
	return fail(lastErr)
}

// sleepContext waits for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// publisher stamps job identity onto events
type publisher struct {
	sink progress.Sink
	base progress.Event
}

func (p publisher) at(attempt int) publisher {
	p.base.Attempt = attempt
	return p
}

func (p publisher) emit(phase progress.Phase, percent float64, eta time.Duration, message string) {
	e := p.base
	e.Phase = phase
	e.Percent = percent
	e.ETA = eta
	e.Message = message
	p.sink.Publish(e)
}

func (p publisher) finished(attempt int, message string) {
	e := p.base
	e.Phase = progress.PhaseFinished
	e.Percent = 100
	e.Attempt = attempt
	e.Final = true
	e.Message = message
	p.sink.Publish(e)
}

func (p publisher) failed(attempt int, message string, err error, final bool) {
	e := p.base
	e.Phase = progress.PhaseError
	e.Percent = progress.UnknownPercent
	e.Attempt = attempt
	e.Final = final
	e.Message = message
	e.Err = err
	p.sink.Publish(e)
}
