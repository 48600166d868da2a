package download

import (
	"context"

	"github.com/ytget/streamflare/internal/model"
	"github.com/ytget/streamflare/internal/tagging"
)

//go:generate mockgen -destination=mock_extractor_test.go -package=download github.com/ytget/streamflare/internal/extract Extractor
//go:generate mockgen -destination=mock_converter_test.go -package=download github.com/ytget/streamflare/internal/convert Converter
//go:generate mockgen -source=interfaces.go -destination=mock_tagger_test.go -package=download -exclude_interfaces=Downloader

// Tagger writes metadata into finished audio files.
type Tagger interface {
	Tag(ctx context.Context, path string, meta tagging.Metadata) error
}

// Downloader defines the interface for the download service.
type Downloader interface {
	// Download runs one job through the retry controller
	Download(ctx context.Context, job model.DownloadJob) model.ReportItem

	// RunBatch runs jobs strictly one after another
	RunBatch(ctx context.Context, jobs []model.DownloadJob) *model.BatchReport

	// RunConcurrent runs up to parallel jobs at the same time
	RunConcurrent(ctx context.Context, jobs []model.DownloadJob, parallel int) *model.BatchReport
}

var _ Downloader = (*Service)(nil)
