// Package convert invokes ffmpeg to turn a materialized temp artifact into
// the requested container, and to rewrite container metadata.
package convert

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ytget/streamflare/internal/model"
	"github.com/ytget/streamflare/internal/platform"
)

// Executable and I/O constants
const (
	FFmpegCommand       = "ffmpeg"
	FFprobeCommand      = "ffprobe"
	FFprobeLogLevel     = "error"
	FFprobeShowEntries  = "format=duration"
	FFprobeOutputFormat = "csv=p=0"
	ProgressPipeTarget  = "pipe:2"
	ProgressTimePrefix  = "out_time_us="
	MetadataTempInfix   = ".meta"
	ConvertTempInfix    = ".part"
)

// codecArgs pins encoders for containers whose ffmpeg defaults are missing
// from common builds or pick legacy codecs.
var codecArgs = map[string][]string{
	"mp3":  {"-c:a", "libmp3lame", "-q:a", "2"},
	"ogg":  {"-c:a", "libvorbis"},
	"opus": {"-c:a", "libopus"},
	"m4a":  {"-c:a", "aac"},
	"aac":  {"-c:a", "aac"},
	"3gp":  {"-c:v", "libx264", "-c:a", "aac"},
	"mp4":  {"-c:v", "libx264", "-c:a", "aac", "-movflags", "+faststart"},
	"mov":  {"-c:v", "libx264", "-c:a", "aac"},
}

// Request describes one conversion.
type Request struct {
	InputPath  string
	OutputPath string
	// TempPath receives the transcoder output before it is renamed onto
	// OutputPath. It must keep the target extension. Defaults to a sibling
	// of OutputPath.
	TempPath   string
	Audio      bool                  // drop video streams
	OnProgress func(percent float64) // optional
}

func (r Request) tempPath() string {
	if r.TempPath != "" {
		return r.TempPath
	}
	ext := filepath.Ext(r.OutputPath)
	return strings.TrimSuffix(r.OutputPath, ext) + ConvertTempInfix + ext
}

// Field is one container metadata key/value.
type Field struct {
	Key   string
	Value string
}

// Service handles ffmpeg invocations
type Service struct {
	ffmpeg  string
	ffprobe string
	log     *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithFFmpeg overrides the ffmpeg executable.
func WithFFmpeg(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.ffmpeg = path
		}
	}
}

// WithFFprobe overrides the ffprobe executable.
func WithFFprobe(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.ffprobe = path
		}
	}
}

// NewService creates a new conversion service
func NewService(log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		ffmpeg:  FFmpegCommand,
		ffprobe: FFprobeCommand,
		log:     log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Convert transcodes req.InputPath into req.OutputPath. On success the
// output exists and is non-empty and the input is deleted. On failure the
// input is kept and any partial output is removed. Every failure is a
// ConversionFailed error.
func (s *Service) Convert(ctx context.Context, req Request) error {
	if _, err := os.Stat(req.InputPath); err != nil {
		return model.Errorf(model.KindConversionFailed, "convert", "input file does not exist: %s", req.InputPath)
	}

	binary, err := exec.LookPath(s.ffmpeg)
	if err != nil {
		return model.NewError(model.KindConversionFailed, "convert", fmt.Errorf("ffmpeg not found: %w", err))
	}

	s.log.Info("converting",
		zap.String("input", req.InputPath), zap.String("output", req.OutputPath))

	// Duration is only needed for percentages
	duration, err := s.probeDuration(ctx, req.InputPath)
	if err != nil {
		s.log.Debug("duration probe failed, progress unavailable",
			zap.String("input", req.InputPath), zap.Error(err))
	}

	// The final path is only touched by the rename, so an existing file
	// there survives a failed run.
	tmp := req.tempPath()
	args := s.BuildFFmpegArgs(req.InputPath, tmp, req.Audio)
	if err := s.run(ctx, binary, args, duration, req.OnProgress); err != nil {
		_ = platform.RemoveIfExists(tmp)
		if ctx.Err() != nil {
			return model.NewError(model.KindCanceled, "convert", ctx.Err())
		}
		return model.NewError(model.KindConversionFailed, "convert", err)
	}

	if err := verifyOutput(tmp); err != nil {
		_ = platform.RemoveIfExists(tmp)
		return model.NewError(model.KindConversionFailed, "convert", err)
	}

	if err := os.Rename(tmp, req.OutputPath); err != nil {
		_ = platform.RemoveIfExists(tmp)
		return model.NewError(model.KindConversionFailed, "convert", err)
	}

	if err := os.Remove(req.InputPath); err != nil && !os.IsNotExist(err) {
		s.log.Warn("failed to remove converted input",
			zap.String("input", req.InputPath), zap.Error(err))
	}
	return nil
}

// BuildFFmpegArgs builds the ffmpeg command arguments
func (s *Service) BuildFFmpegArgs(inputPath, outputPath string, audio bool) []string {
	args := []string{
		"-y",            // Overwrite output file
		"-i", inputPath, // Input file
		"-map_metadata", "0", // Keep source tags
	}
	if audio {
		args = append(args, "-vn") // Drop video and cover streams
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(outputPath), "."))
	if codecs, ok := codecArgs[ext]; ok {
		if audio {
			codecs = audioOnly(codecs)
		}
		args = append(args, codecs...)
	}
	return append(args,
		"-progress", ProgressPipeTarget, // Progress to stderr
		"-nostats", // No stats output
		outputPath, // Output file
	)
}

// BuildMetadataArgs builds a stream-copy invocation that rewrites only the
// given metadata fields.
func (s *Service) BuildMetadataArgs(inputPath, outputPath string, fields []Field) []string {
	args := []string{
		"-y",
		"-i", inputPath,
		"-map", "0",
		"-c", "copy",
		"-map_metadata", "0",
	}
	for _, f := range fields {
		if f.Value == "" {
			continue
		}
		args = append(args, "-metadata", f.Key+"="+f.Value)
	}
	return append(args, outputPath)
}

// WriteMetadata sets metadata fields on path through a stream copy into a
// sibling file that then replaces path. Empty values are skipped so they
// never clear existing tags.
func (s *Service) WriteMetadata(ctx context.Context, path string, fields []Field) error {
	binary, err := exec.LookPath(s.ffmpeg)
	if err != nil {
		return fmt.Errorf("ffmpeg not found: %w", err)
	}

	ext := filepath.Ext(path)
	tmp := strings.TrimSuffix(path, ext) + MetadataTempInfix + ext
	args := s.BuildMetadataArgs(path, tmp, fields)
	if err := s.run(ctx, binary, args, 0, nil); err != nil {
		_ = platform.RemoveIfExists(tmp)
		return err
	}
	if err := verifyOutput(tmp); err != nil {
		_ = platform.RemoveIfExists(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// run executes ffmpeg and feeds progress to onProgress
func (s *Service) run(ctx context.Context, binary string, args []string, duration float64, onProgress func(float64)) error {
	cmd := exec.CommandContext(ctx, binary, args...)

	// Setup progress monitoring
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	tail := monitorProgress(stderr, duration, onProgress)

	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("ffmpeg failed: %w: %s", err, strings.Join(tail, " | "))
	}
	return nil
}

// probeDuration gets the duration of a media file using ffprobe
func (s *Service) probeDuration(ctx context.Context, filePath string) (float64, error) {
	cmd := exec.CommandContext(ctx, s.ffprobe, "-v", FFprobeLogLevel, "-show_entries", FFprobeShowEntries, "-of", FFprobeOutputFormat, filePath)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("failed to run ffprobe: %w", err)
	}

	durationStr := strings.TrimSpace(string(output))
	duration, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}

	return duration, nil
}

// tailSize is how many non-progress stderr lines are kept for errors
const tailSize = 5

// monitorProgress reads ffmpeg stderr until EOF, reporting out_time_us
// progress and returning the last diagnostic lines.
func monitorProgress(stderr io.Reader, totalDuration float64, onProgress func(float64)) []string {
	scanner := bufio.NewScanner(stderr)
	var tail []string

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Parse progress line: out_time_us=123456
		if strings.HasPrefix(line, ProgressTimePrefix) {
			if onProgress == nil || totalDuration <= 0 {
				continue
			}
			timeMicroseconds, err := strconv.ParseInt(strings.TrimPrefix(line, ProgressTimePrefix), 10, 64)
			if err != nil {
				continue
			}

			progress := float64(timeMicroseconds) / 1000000.0 / totalDuration
			if progress > 1.0 {
				progress = 1.0
			}
			onProgress(progress * 100)
			continue
		}

		if line == "" || strings.Contains(line, "=") {
			continue
		}
		tail = append(tail, line)
		if len(tail) > tailSize {
			tail = tail[1:]
		}
	}
	return tail
}

// verifyOutput checks the conversion postcondition
func verifyOutput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("output file %s was not created: %w", path, err)
	}
	if info.Size() == 0 {
		return errors.New("output file " + path + " is empty")
	}
	return nil
}

func audioOnly(codecs []string) []string {
	out := make([]string, 0, len(codecs))
	for i := 0; i < len(codecs); i++ {
		if codecs[i] == "-c:v" || codecs[i] == "-movflags" {
			i++
			continue
		}
		out = append(out, codecs[i])
	}
	return out
}
