package download

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ytget/streamflare/internal/artifact"
	"github.com/ytget/streamflare/internal/convert"
	"github.com/ytget/streamflare/internal/extract"
	"github.com/ytget/streamflare/internal/model"
	"github.com/ytget/streamflare/internal/platform"
	"github.com/ytget/streamflare/internal/progress"
	"github.com/ytget/streamflare/internal/tagging"
)

// attempt runs one acquisition and post-process pass for job
func (s *Service) attempt(ctx context.Context, job model.DownloadJob, artifacts *artifact.Manager, events publisher) model.AttemptOutcome {
	if err := artifacts.Cleanup(job.ID); err != nil {
		return model.Failed(err)
	}

	events.emit(progress.PhaseDownloading, 0, 0, "Downloading")
	req := extract.RequestForJob(job, artifacts.Template(job.ID), func(percent float64, eta time.Duration) {
		events.emit(progress.PhaseDownloading, percent, eta, "Downloading")
	})
	info, err := s.extractor.Extract(ctx, req)
	if err != nil {
		return s.abort(ctx, job, artifacts, withKind(err, model.KindExtraction, "extract"))
	}

	result := extractionResult(info)
	result.TempPath, result.Extension, err = artifacts.Locate(job.ID, job.Format.Token, job.Format.NativeContainer())
	if err != nil {
		return s.abort(ctx, job, artifacts, err)
	}

	name := job.Filename
	if name == "" {
		name = result.DisplayTitle()
	}
	finalPath := artifacts.FinalPath(name, job.Format)

	if job.Format.NeedsConversion(result.Extension) {
		events.emit(progress.PhaseConverting, 0, 0, "Converting "+result.Extension+" to "+job.Format.Token)
		err = s.converter.Convert(ctx, convert.Request{
			InputPath:  result.TempPath,
			OutputPath: finalPath,
			TempPath:   artifacts.TempPath(job.ID, "out."+job.Format.Extension()),
			Audio:      job.Format.IsAudio(),
			OnProgress: func(percent float64) {
				events.emit(progress.PhaseConverting, percent, 0, "Converting")
			},
		})
		if err != nil {
			return s.abort(ctx, job, artifacts, withKind(err, model.KindConversionFailed, "convert"))
		}
	} else if err := artifacts.Finalize(result.TempPath, finalPath); err != nil {
		return s.abort(ctx, job, artifacts, err)
	}

	if adopted, err := artifacts.AdoptSidecars(job.ID, finalPath); err != nil {
		s.log.Warn("failed to keep subtitles", zap.String("job", job.ID), zap.Error(err))
	} else if len(adopted) > 0 {
		s.log.Debug("kept subtitles", zap.String("job", job.ID), zap.Strings("paths", adopted))
	}
	if err := artifacts.Cleanup(job.ID); err != nil {
		s.log.Warn("failed to clean up temp artifacts", zap.String("job", job.ID), zap.Error(err))
	}

	if job.Format.IsAudio() && s.tagger != nil {
		events.emit(progress.PhaseTagging, progress.UnknownPercent, 0, "Writing tags")
		if err := s.tagger.Tag(ctx, finalPath, metadataFor(job, result)); err != nil {
			s.log.Warn("tagging failed, keeping untagged file",
				zap.String("job", job.ID),
				zap.String("path", finalPath),
				zap.Int("attempt", events.base.Attempt),
				zap.Error(err))
		}
	}

	size, err := platform.FileSize(finalPath)
	if err != nil {
		return model.Failed(model.NewError(model.KindMissingArtifact, "stat", err))
	}
	return model.Succeeded(model.FinalArtifact{Path: finalPath, Size: size}, result)
}

// abort ends a failed attempt. A canceled attempt purges its namespace;
// other failures leave the temp artifact for the next attempt's cleanup.
func (s *Service) abort(ctx context.Context, job model.DownloadJob, artifacts *artifact.Manager, err error) model.AttemptOutcome {
	if ctx.Err() != nil {
		if cleanupErr := artifacts.Cleanup(job.ID); cleanupErr != nil {
			s.log.Warn("failed to purge canceled attempt", zap.String("job", job.ID), zap.Error(cleanupErr))
		}
		if model.KindOf(err) != model.KindCanceled {
			err = model.NewError(model.KindCanceled, "download", errors.Join(ctx.Err(), err))
		}
	}
	return model.Failed(err)
}

// withKind types untyped errors from collaborators
func withKind(err error, kind model.ErrorKind, op string) error {
	if model.KindOf(err) != model.KindUnknown {
		return err
	}
	return model.NewError(kind, op, err)
}

func extractionResult(info *extract.Info) model.ExtractionResult {
	if info == nil {
		return model.ExtractionResult{}
	}
	return model.ExtractionResult{
		Title:        info.Title,
		Uploader:     info.Uploader,
		ThumbnailURL: info.ThumbnailURL,
		UploadDate:   info.UploadDate,
	}
}

// metadataFor merges extracted metadata with the job's tag overrides
func metadataFor(job model.DownloadJob, result model.ExtractionResult) tagging.Metadata {
	year := job.Tags.Year
	if year == "" {
		year = result.Year()
	}
	return tagging.Metadata{
		Title:        result.DisplayTitle(),
		Artist:       result.Artist(),
		Album:        job.Tags.Album,
		Genre:        job.Tags.Genre,
		Year:         year,
		ThumbnailURL: result.ThumbnailURL,
	}
}
