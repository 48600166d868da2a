package extract

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"go.uber.org/zap"

	"github.com/ytget/streamflare/internal/model"
)

// Defaults for the yt-dlp adapter
const (
	DefaultAudioQuality     = "192"
	DefaultProgressInterval = 500 * time.Millisecond

	audioSelector = "bestaudio/best"
	videoSelector = "bestvideo+bestaudio/best"
)

// audioCodecs maps format tokens whose yt-dlp codec name differs.
var audioCodecs = map[string]string{
	"ogg": "vorbis",
}

// YTDLP extracts media by driving the yt-dlp executable.
type YTDLP struct {
	log      *zap.Logger
	interval time.Duration
}

// NewYTDLP creates a yt-dlp backed Extractor.
func NewYTDLP(log *zap.Logger) *YTDLP {
	return &YTDLP{log: log, interval: DefaultProgressInterval}
}

// Install makes sure a yt-dlp executable is available, downloading one into
// the user cache when none is found.
func Install(ctx context.Context, log *zap.Logger) error {
	resolved, err := ytdlp.Install(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to install yt-dlp: %w", err)
	}
	log.Debug("yt-dlp available",
		zap.String("path", resolved.Executable),
		zap.String("version", resolved.Version))
	return nil
}

// Extract runs yt-dlp for req.Link.
func (y *YTDLP) Extract(ctx context.Context, req Request) (*Info, error) {
	opts := buildOptions(req)
	dl := opts.command()

	if req.OnProgress != nil {
		dl.ProgressFunc(y.interval, func(update ytdlp.ProgressUpdate) {
			req.OnProgress(progressPercent(update.DownloadedBytes, update.TotalBytes), update.ETA())
		})
	}

	y.log.Debug("running yt-dlp",
		zap.String("link", req.Link),
		zap.String("selector", opts.Selector),
		zap.String("output", opts.Output))

	result, err := dl.Run(ctx, req.Link)
	if err != nil {
		return nil, classifyError(ctx, err)
	}

	extracted, err := result.GetExtractedInfo()
	if err != nil || len(extracted) == 0 {
		y.log.Warn("yt-dlp reported no metadata", zap.String("link", req.Link), zap.Error(err))
		return &Info{}, nil
	}
	return infoFrom(extracted[0]), nil
}

// options is the yt-dlp invocation derived from a Request.
type options struct {
	Output       string
	Selector     string
	AudioCodec   string // set for audio extraction only
	AudioQuality string
	MergeFormat  string // set for video only
	Proxy        string
	UserAgent    string
	SubtitleLang string
}

func buildOptions(req Request) options {
	opts := options{
		Output:       req.OutputTemplate,
		Proxy:        req.Proxy,
		UserAgent:    req.UserAgent,
		SubtitleLang: req.SubtitleLang,
	}

	if req.Format.IsAudio() {
		opts.Selector = audioSelector
		opts.AudioCodec = req.Format.Token
		if codec, ok := audioCodecs[req.Format.Token]; ok {
			opts.AudioCodec = codec
		}
		opts.AudioQuality = req.Quality
		if opts.AudioQuality == "" {
			opts.AudioQuality = DefaultAudioQuality
		}
		return opts
	}

	opts.Selector = videoSelector
	if height, err := strconv.Atoi(strings.TrimSuffix(req.Quality, "p")); err == nil && height > 0 {
		opts.Selector = fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best[height<=%d]", height, height)
	}
	opts.MergeFormat = req.Format.NativeContainer()
	return opts
}

func (o options) command() *ytdlp.Command {
	dl := ytdlp.New().
		NoPlaylist().
		ForceOverwrites().
		PrintJSON().
		Format(o.Selector).
		Output(o.Output)

	if o.AudioCodec != "" {
		dl.ExtractAudio().
			AudioFormat(o.AudioCodec).
			AudioQuality(o.AudioQuality)
	}
	if o.MergeFormat != "" {
		dl.MergeOutputFormat(o.MergeFormat)
	}
	if o.Proxy != "" {
		dl.Proxy(o.Proxy)
	}
	if o.UserAgent != "" {
		dl.AddHeaders("User-Agent:" + o.UserAgent)
	}
	if o.SubtitleLang != "" {
		dl.WriteSubs().SubLangs(o.SubtitleLang)
	}
	return dl
}

// classifyError maps a failed run onto the error kinds
func classifyError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return model.NewError(model.KindCanceled, "extract", errors.Join(ctxErr, err))
	}
	return model.NewError(model.KindExtraction, "extract", err)
}

func progressPercent(downloaded, total int) float64 {
	if total <= 0 {
		return -1
	}
	percent := float64(downloaded) / float64(total) * 100
	return min(max(percent, 0), 100)
}

func infoFrom(extracted *ytdlp.ExtractedInfo) *Info {
	if extracted == nil {
		return &Info{}
	}
	return &Info{
		Title:        deref(extracted.Title),
		Uploader:     deref(extracted.Uploader),
		ThumbnailURL: deref(extracted.Thumbnail),
		UploadDate:   deref(extracted.UploadDate),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
