package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"fyne.io/fyne/v2/app"
	"go.uber.org/zap"

	"github.com/ytget/streamflare/internal/artifact"
	"github.com/ytget/streamflare/internal/config"
	"github.com/ytget/streamflare/internal/convert"
	"github.com/ytget/streamflare/internal/download"
	"github.com/ytget/streamflare/internal/extract"
	"github.com/ytget/streamflare/internal/logger"
	"github.com/ytget/streamflare/internal/model"
	"github.com/ytget/streamflare/internal/platform"
	"github.com/ytget/streamflare/internal/progress"
	"github.com/ytget/streamflare/internal/tagging"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

const (
	AppID   = "com.ytget.streamflare"
	AppName = "StreamFlare"
)

// Exit codes
const (
	exitOK      = 0
	exitFailed  = 1
	exitUsage   = 2
	exitAborted = 130
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	settings := config.NewSettings(app.NewWithID(AppID))

	opts, err := parseFlags(args, settings.Load(), stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	if opts.version {
		fmt.Fprintf(stdout, "%s v%s\n", AppName, version)
		return exitOK
	}

	if opts.needsPrompt() {
		fmt.Fprintf(stdout, "%s v%s\n", AppName, version)
		if err := opts.prompt(newPrompter(stdin, stdout)); err != nil {
			fmt.Fprintln(stderr, err)
			return exitUsage
		}
	}

	log, err := logger.New(logger.Options{Level: opts.logLevel, Development: opts.devLog})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	defer func() { _ = log.Sync() }()

	if opts.save {
		opts.persist(settings)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := execute(ctx, opts, settings, stdout, log)
	if err != nil {
		log.Error("run failed", zap.Error(err))
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	fmt.Fprintln(stdout)
	for _, item := range report.Items {
		fmt.Fprintln(stdout, item.String())
	}
	fmt.Fprintln(stdout, report.Summary())

	if opts.open {
		for _, item := range report.Succeeded() {
			if err := platform.OpenFileWithDefaultApp(item.Path); err != nil {
				log.Warn("failed to open file", zap.String("path", item.Path), zap.Error(err))
			}
		}
	}

	switch {
	case ctx.Err() != nil:
		return exitAborted
	case len(report.Failed()) > 0:
		return exitFailed
	default:
		return exitOK
	}
}

// execute builds the jobs and runs them
func execute(ctx context.Context, opts *cliOptions, settings *config.Settings, stdout io.Writer, log *zap.Logger) (*model.BatchReport, error) {
	format, err := model.ParseFormat(opts.format)
	if err != nil {
		return nil, err
	}

	if opts.install {
		if err := extract.Install(ctx, log); err != nil {
			return nil, err
		}
	}

	links := opts.links
	if opts.expand {
		links = platform.NewPlaylistExpander(log).Expand(ctx, links)
	}

	quality := opts.quality
	if quality == "" {
		quality = settings.QualityFor(format.IsAudio())
	}

	jobs, err := download.BuildJobs(links, format.Token, opts.output, model.JobOptions{
		Filename:     opts.name,
		Network:      model.NetworkPolicy{UserAgent: opts.userAgent, Proxy: opts.proxy},
		SubtitleLang: opts.subs,
		Quality:      quality,
		Tags:         model.Tags{Album: opts.album, Genre: opts.genre, Year: opts.year},
	})
	if err != nil {
		return nil, err
	}

	if err := platform.CreateDirectoryIfNotExists(opts.output); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if _, err := artifact.NewManager(opts.output, log).SweepStale(artifact.StaleAge); err != nil {
		log.Warn("failed to sweep stale temp artifacts", zap.Error(err))
	}

	converter := convert.NewService(log, converterOptions(opts.ffmpeg)...)
	svc := download.NewService(download.Options{
		Extractor:   extract.NewYTDLP(log),
		Converter:   converter,
		Tagger:      tagging.NewTagger(nil, converter, log),
		Sink:        progress.Multi(progress.NewTerminal(stdout), progress.NewLog(log)),
		Logger:      log,
		MaxAttempts: opts.attempts,
		RetryDelay:  time.Duration(opts.delay) * time.Second,
	})

	log.Info("starting batch",
		zap.Int("jobs", len(jobs)),
		zap.String("format", format.Token),
		zap.String("output", opts.output),
		zap.Int("parallel", opts.parallel))

	if opts.parallel > 1 {
		return svc.RunConcurrent(ctx, jobs, opts.parallel), nil
	}
	return svc.RunBatch(ctx, jobs), nil
}

// converterOptions points ffprobe at the directory of a custom ffmpeg
func converterOptions(ffmpeg string) []convert.Option {
	if ffmpeg == "" {
		return nil
	}
	opts := []convert.Option{convert.WithFFmpeg(ffmpeg)}
	if dir := filepath.Dir(ffmpeg); dir != "." {
		opts = append(opts, convert.WithFFprobe(filepath.Join(dir, convert.FFprobeCommand)))
	}
	return opts
}
