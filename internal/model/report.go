package model

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// ReportItem is the terminal outcome of one job.
type ReportItem struct {
	JobID    string
	Link     string
	Status   TaskStatus
	Path     string
	Size     int64
	Attempts int
	Err      error
}

// Succeeded reports whether the job delivered a file.
func (r ReportItem) Succeeded() bool {
	return r.Status == TaskStatusCompleted
}

// String renders the user-facing report line.
func (r ReportItem) String() string {
	if r.Succeeded() {
		return fmt.Sprintf("Downloaded and saved as %s (%s)", r.Path, humanize.Bytes(uint64(r.Size)))
	}
	return fmt.Sprintf("Failed %s after %d attempt(s): %v", r.Link, r.Attempts, r.Err)
}

// BatchReport lists job outcomes in input order. It lives for one run.
type BatchReport struct {
	Items []ReportItem
}

// NewBatchReport allocates a report with one slot per job.
func NewBatchReport(size int) *BatchReport {
	return &BatchReport{Items: make([]ReportItem, size)}
}

// Succeeded returns the successful items.
func (b *BatchReport) Succeeded() []ReportItem {
	return b.filter(true)
}

// Failed returns the failed items.
func (b *BatchReport) Failed() []ReportItem {
	return b.filter(false)
}

// TotalSize sums the sizes of delivered files.
func (b *BatchReport) TotalSize() int64 {
	var total int64
	for _, item := range b.Items {
		if item.Succeeded() {
			total += item.Size
		}
	}
	return total
}

// Summary renders a one-line summary of the run.
func (b *BatchReport) Summary() string {
	return fmt.Sprintf("%d of %d downloaded (%s), %d failed",
		len(b.Succeeded()), len(b.Items), humanize.Bytes(uint64(b.TotalSize())), len(b.Failed()))
}

func (b *BatchReport) filter(succeeded bool) []ReportItem {
	var out []ReportItem
	for _, item := range b.Items {
		if item.Succeeded() == succeeded {
			out = append(out, item)
		}
	}
	return out
}
