package model

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
)

// JobIDPrefix prefixes every job identifier.
const JobIDPrefix = "job-"

// NetworkPolicy is forwarded to the extraction client.
type NetworkPolicy struct {
	UserAgent string
	Proxy     string
}

// Tags are optional metadata overrides for audio outputs. Empty fields are
// never written.
type Tags struct {
	Album string
	Genre string
	Year  string
}

// DownloadJob is one batch item. It is built once by NewDownloadJob and
// passed by value afterwards.
type DownloadJob struct {
	ID           string
	Link         string
	Format       Format
	Filename     string // optional custom name, without directory
	Network      NetworkPolicy
	SubtitleLang string // empty disables subtitles
	Quality      string // extractor quality tier, e.g. "192" for audio
	Tags         Tags
	OutputDir    string
}

// JobOptions carries the optional parts of a DownloadJob.
type JobOptions struct {
	Filename     string
	Network      NetworkPolicy
	SubtitleLang string
	Quality      string
	Tags         Tags
}

// NewDownloadJob validates its inputs and assigns a unique ID.
func NewDownloadJob(link string, format Format, outputDir string, opts JobOptions) (DownloadJob, error) {
	job := DownloadJob{
		ID:           generateJobID(),
		Link:         strings.TrimSpace(link),
		Format:       format,
		Filename:     strings.TrimSpace(opts.Filename),
		Network:      opts.Network,
		SubtitleLang: strings.TrimSpace(opts.SubtitleLang),
		Quality:      opts.Quality,
		Tags:         opts.Tags,
		OutputDir:    outputDir,
	}
	if err := job.Validate(); err != nil {
		return DownloadJob{}, err
	}
	return job, nil
}

// Validate checks the job before any I/O is attempted.
func (j DownloadJob) Validate() error {
	if _, err := Classify(j.Format.Token); err != nil {
		return err
	}
	err := validation.ValidateStruct(&j,
		validation.Field(&j.Link, validation.Required, is.URL),
		validation.Field(&j.OutputDir, validation.Required),
	)
	if err != nil {
		return fmt.Errorf("invalid download job: %w", err)
	}
	if err := validation.Validate(j.Tags.Year, validation.Length(4, 4), is.Digit); err != nil {
		return fmt.Errorf("invalid download job: year: %w", err)
	}
	return nil
}

// generateJobID generates a unique job ID using UUID v7, which keeps IDs
// ordered by creation time
func generateJobID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Sprintf(JobIDPrefix+"%d", time.Now().UnixNano())
	}
	return JobIDPrefix + id.String()
}
