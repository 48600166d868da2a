package download

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ytget/streamflare/internal/model"
	"github.com/ytget/streamflare/internal/progress"
)

// MaxParallel caps RunConcurrent workers.
const MaxParallel = 10

// ErrFilenameWithBatch is returned when one custom filename is given for
// several links, which would make every job overwrite the same file.
var ErrFilenameWithBatch = errors.New("a custom filename can only be used with a single link")

// BuildJobs turns CLI-level input into validated jobs. Every link shares
// format, output directory and options.
func BuildJobs(links []string, formatToken, outputDir string, opts model.JobOptions) ([]model.DownloadJob, error) {
	format, err := model.ParseFormat(formatToken)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, errors.New("no links given")
	}
	if opts.Filename != "" && len(links) > 1 {
		return nil, ErrFilenameWithBatch
	}

	jobs := make([]model.DownloadJob, 0, len(links))
	var errs []error
	for _, link := range links {
		job, err := model.NewDownloadJob(link, format, outputDir, opts)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", link, err))
			continue
		}
		jobs = append(jobs, job)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return jobs, nil
}

// RunBatch processes jobs strictly in order on the calling goroutine. A
// failed job is recorded and the next one starts; the call itself never
// fails.
func (s *Service) RunBatch(ctx context.Context, jobs []model.DownloadJob) *model.BatchReport {
	report := model.NewBatchReport(len(jobs))
	for i, job := range jobs {
		report.Items[i] = s.download(ctx, job, i+1, len(jobs))
	}
	return report
}

// RunConcurrent processes up to parallel jobs at once. Events reach the sink
// serialized; report items stay in input order.
func (s *Service) RunConcurrent(ctx context.Context, jobs []model.DownloadJob, parallel int) *model.BatchReport {
	parallel = min(max(parallel, 1), MaxParallel)

	worker := *s
	worker.sink = progress.Safe(s.sink)

	report := model.NewBatchReport(len(jobs))
	var g errgroup.Group
	g.SetLimit(parallel)
	for i, job := range jobs {
		g.Go(func() error {
			report.Items[i] = worker.download(ctx, job, i+1, len(jobs))
			return nil
		})
	}
	_ = g.Wait()

	s.log.Debug("concurrent batch finished",
		zap.Int("jobs", len(jobs)),
		zap.Int("parallel", parallel),
		zap.String("summary", report.Summary()))
	return report
}
