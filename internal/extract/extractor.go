// Package extract is the boundary to the external media extraction tool.
// An Extractor fetches one link into a caller-chosen output template and
// reports the descriptive metadata it learned along the way. Locating the
// materialized file is left to the artifact manager.
package extract

import (
	"context"
	"time"

	"github.com/ytget/streamflare/internal/model"
)

// ProgressFunc receives download progress. percent is in [0,100], or -1
// while the total size is still unknown.
type ProgressFunc func(percent float64, eta time.Duration)

// Request is one extraction call.
type Request struct {
	Link           string
	Format         model.Format
	OutputTemplate string // absolute path with an extension placeholder
	Quality        string
	Proxy          string
	UserAgent      string
	SubtitleLang   string
	OnProgress     ProgressFunc
}

// Info is the metadata reported by the extractor. Missing fields are empty.
type Info struct {
	Title        string
	Uploader     string
	ThumbnailURL string
	UploadDate   string
}

// Extractor fetches media.
type Extractor interface {
	Extract(ctx context.Context, req Request) (*Info, error)
}

// RequestForJob builds the extraction request for job.
func RequestForJob(job model.DownloadJob, template string, onProgress ProgressFunc) Request {
	return Request{
		Link:           job.Link,
		Format:         job.Format,
		OutputTemplate: template,
		Quality:        job.Quality,
		Proxy:          job.Network.Proxy,
		UserAgent:      job.Network.UserAgent,
		SubtitleLang:   job.SubtitleLang,
		OnProgress:     onProgress,
	}
}
