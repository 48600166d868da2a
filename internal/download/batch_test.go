package download

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ytget/streamflare/internal/extract"
	"github.com/ytget/streamflare/internal/model"
)

func batchLinks(n int) []string {
	links := make([]string, n)
	for i := range links {
		links[i] = fmt.Sprintf("https://example.com/watch?v=%d", i+1)
	}
	return links
}

func TestBuildJobs(t *testing.T) {
	dir := t.TempDir()

	jobs, err := BuildJobs(batchLinks(3), "MP3", dir, model.JobOptions{Quality: "192"})
	require.NoError(t, err)
	require.Len(t, jobs, 3)

	seen := map[string]bool{}
	for i, job := range jobs {
		assert.Equal(t, batchLinks(3)[i], job.Link)
		assert.Equal(t, "mp3", job.Format.Token)
		assert.Equal(t, dir, job.OutputDir)
		assert.Equal(t, "192", job.Quality)
		assert.False(t, seen[job.ID], "duplicate job id %s", job.ID)
		seen[job.ID] = true
	}
}

func TestBuildJobsErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := BuildJobs(batchLinks(1), "exe", dir, model.JobOptions{})
	assert.ErrorIs(t, err, model.ErrUnsupportedFormat)

	_, err = BuildJobs(nil, "mp3", dir, model.JobOptions{})
	assert.Error(t, err)

	_, err = BuildJobs(batchLinks(2), "mp3", dir, model.JobOptions{Filename: "same"})
	assert.ErrorIs(t, err, ErrFilenameWithBatch)

	jobs, err := BuildJobs(batchLinks(1), "mp3", dir, model.JobOptions{Filename: "same"})
	require.NoError(t, err)
	assert.Equal(t, "same", jobs[0].Filename)

	_, err = BuildJobs([]string{"https://example.com/ok", "not a link"}, "mp3", dir, model.JobOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a link")
}

func TestRunBatchContinuesPastFatalFailure(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	jobs, err := BuildJobs(batchLinks(3), "mkv", dir, model.JobOptions{})
	require.NoError(t, err)

	var order []string
	f.extractor.EXPECT().Extract(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, req extract.Request) (*extract.Info, error) {
			order = append(order, req.Link)
			if req.Link == jobs[1].Link {
				return nil, model.Errorf(model.KindUnsupportedFormat, "extract", "no video stream")
			}
			return materialize("mkv", &extract.Info{Title: "Video " + req.Link[len(req.Link)-1:]})(ctx, req)
		}).Times(3)

	report := f.svc.RunBatch(context.Background(), jobs)

	require.Len(t, report.Items, 3)
	assert.Equal(t, []string{jobs[0].Link, jobs[1].Link, jobs[2].Link}, order)
	for i, item := range report.Items {
		assert.Equal(t, jobs[i].ID, item.JobID)
	}
	assert.True(t, report.Items[0].Succeeded())
	assert.False(t, report.Items[1].Succeeded())
	assert.Equal(t, 1, report.Items[1].Attempts)
	assert.True(t, report.Items[2].Succeeded())
	assert.Len(t, report.Succeeded(), 2)
	assert.Len(t, report.Failed(), 1)
	assert.FileExists(t, report.Items[0].Path)
	assert.FileExists(t, report.Items[2].Path)

	for i, job := range jobs {
		events := f.events.forJob(job.ID)
		require.NotEmpty(t, events)
		assert.Equal(t, i+1, events[0].Index)
		assert.Equal(t, 3, events[0].Total)
	}
}

func TestRunBatchCanceledRunsNothing(t *testing.T) {
	f := newFixture(t)
	jobs, err := BuildJobs(batchLinks(2), "mp3", t.TempDir(), model.JobOptions{})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := f.svc.RunBatch(ctx, jobs)

	require.Len(t, report.Items, 2)
	for _, item := range report.Items {
		assert.Equal(t, model.TaskStatusCanceled, item.Status)
		assert.Equal(t, 0, item.Attempts)
		assert.ErrorIs(t, item.Err, model.ErrCanceled)
	}
}

func TestRunConcurrentKeepsInputOrder(t *testing.T) {
	const jobCount, parallel = 6, 3
	f := newFixture(t)
	dir := t.TempDir()
	jobs, err := BuildJobs(batchLinks(jobCount), "webm", dir, model.JobOptions{})
	require.NoError(t, err)

	delays := sync.Map{}
	for i, job := range jobs {
		delays.Store(job.Link, time.Duration(jobCount-i)*5*time.Millisecond)
	}

	var inFlight, peak atomic.Int32
	f.extractor.EXPECT().Extract(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, req extract.Request) (*extract.Info, error) {
			n := inFlight.Add(1)
			defer inFlight.Add(-1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			d, _ := delays.Load(req.Link)
			time.Sleep(d.(time.Duration))
			return materialize("webm", &extract.Info{Title: req.Link})(ctx, req)
		}).Times(jobCount)

	report := f.svc.RunConcurrent(context.Background(), jobs, parallel)

	require.Len(t, report.Items, jobCount)
	for i, item := range report.Items {
		assert.Equal(t, jobs[i].ID, item.JobID)
		assert.Equal(t, jobs[i].Link, item.Link)
		assert.True(t, item.Succeeded(), "job %d failed: %v", i, item.Err)
	}
	assert.LessOrEqual(t, peak.Load(), int32(parallel))
	assert.Len(t, listDir(t, dir), jobCount)
}

func TestRunConcurrentFailureDoesNotStopOthers(t *testing.T) {
	f := newFixture(t)
	f.svc.maxAttempts = 2
	dir := t.TempDir()
	jobs, err := BuildJobs(batchLinks(3), "mp4", dir, model.JobOptions{})
	require.NoError(t, err)

	f.extractor.EXPECT().Extract(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, req extract.Request) (*extract.Info, error) {
			if req.Link == jobs[0].Link {
				return nil, errors.New("video unavailable")
			}
			return materialize("mp4", &extract.Info{Title: req.Link})(ctx, req)
		}).Times(4)

	report := f.svc.RunConcurrent(context.Background(), jobs, 0)

	assert.False(t, report.Items[0].Succeeded())
	assert.Equal(t, 2, report.Items[0].Attempts)
	assert.True(t, report.Items[1].Succeeded())
	assert.True(t, report.Items[2].Succeeded())
	assert.Len(t, f.recordedWaits(), 1)
}
