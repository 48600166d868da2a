package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/ytget/streamflare/internal/config"
	"github.com/ytget/streamflare/internal/model"
)

// cliOptions is one run's configuration: stored settings overridden by flags
type cliOptions struct {
	format    string
	links     []string
	output    string
	outputSet bool // given by -o or typed at the prompt
	name      string
	open      bool
	parallel  int
	attempts  int
	delay     int
	quality   string
	proxy     string
	userAgent string
	subs      string
	album     string
	genre     string
	year      string
	expand    bool
	ffmpeg    string
	logLevel  string
	devLog    bool
	install   bool
	save      bool
	version   bool
}

func parseFlags(args []string, defaults config.Values, stderr io.Writer) (*cliOptions, error) {
	opts := &cliOptions{}
	fs := flag.NewFlagSet(AppName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: streamflare -f <format> [flags] <link>...\n\nFormats: %s\n\nFlags:\n",
			strings.Join(model.SupportedFormats(), ", "))
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.format, "f", "", "output format")
	fs.StringVar(&opts.output, "o", defaults.OutputDir, "output directory")
	fs.StringVar(&opts.name, "name", "", "custom filename (single link only)")
	fs.BoolVar(&opts.open, "open", defaults.OpenOnFinish, "open files after download")
	fs.IntVar(&opts.parallel, "parallel", defaults.MaxParallel, "jobs to run at the same time (1-10)")
	fs.IntVar(&opts.attempts, "attempts", defaults.MaxAttempts, "attempts per link (1-10)")
	fs.IntVar(&opts.delay, "delay", defaults.RetryDelay, "seconds to wait between attempts (0-300)")
	fs.StringVar(&opts.quality, "quality", "", "quality tier: audio bitrate like 192, or video height like 720")
	fs.StringVar(&opts.proxy, "proxy", defaults.Proxy, "proxy URL")
	fs.StringVar(&opts.userAgent, "user-agent", defaults.UserAgent, "user agent override")
	fs.StringVar(&opts.subs, "subs", defaults.SubtitleLang, "subtitle language to keep, e.g. en")
	fs.StringVar(&opts.album, "album", "", "album tag for audio")
	fs.StringVar(&opts.genre, "genre", "", "genre tag for audio")
	fs.StringVar(&opts.year, "year", "", "year tag for audio (defaults to the upload year)")
	fs.BoolVar(&opts.expand, "expand-playlists", defaults.ExpandLists, "download every entry of playlist links")
	fs.StringVar(&opts.ffmpeg, "ffmpeg", defaults.FFmpegPath, "ffmpeg executable")
	fs.StringVar(&opts.logLevel, "log-level", defaults.LogLevel, "log level: debug, info, warn, error")
	fs.BoolVar(&opts.devLog, "dev-log", false, "human readable logs")
	fs.BoolVar(&opts.install, "install-ytdlp", false, "download yt-dlp when it is not installed")
	fs.BoolVar(&opts.save, "save", false, "store the given flags as new defaults")
	fs.BoolVar(&opts.version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.links = splitLinks(fs.Args()...)
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "o" {
			opts.outputSet = true
		}
	})

	if opts.parallel < config.MinMaxParallel || opts.parallel > config.MaxMaxParallel {
		return nil, fmt.Errorf("-parallel must be between %d and %d", config.MinMaxParallel, config.MaxMaxParallel)
	}
	if opts.attempts < config.MinMaxAttempts || opts.attempts > config.MaxMaxAttempts {
		return nil, fmt.Errorf("-attempts must be between %d and %d", config.MinMaxAttempts, config.MaxMaxAttempts)
	}
	if opts.delay < config.MinRetryDelay || opts.delay > config.MaxRetryDelay {
		return nil, fmt.Errorf("-delay must be between %d and %d", config.MinRetryDelay, config.MaxRetryDelay)
	}
	return opts, nil
}

// needsPrompt reports whether the run lacks a format or links
func (o *cliOptions) needsPrompt() bool {
	return o.format == "" || len(o.links) == 0
}

// prompt asks for everything the interactive menu covers
func (o *cliOptions) prompt(p *prompter) error {
	if o.format == "" {
		format, err := p.choose("What format do you want?", model.SupportedFormats())
		if err != nil {
			return err
		}
		o.format = format
	}
	if len(o.links) == 0 {
		links, err := p.ask("Enter links (comma-separated for batch processing)", "")
		if err != nil {
			return err
		}
		o.links = splitLinks(links)
		if len(o.links) == 0 {
			return errors.New("no links given")
		}
	}

	output, err := p.ask("Enter the output directory", o.output)
	if err != nil {
		return err
	}
	if output != o.output {
		o.output = output
		o.outputSet = true
	}

	if len(o.links) == 1 && o.name == "" {
		o.name, err = p.ask("Enter a custom filename (optional)", "")
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
			return err
		}
	}

	o.open, err = p.confirm("Open file after download?", o.open)
	return err
}

// persist stores the run's settings as defaults. The output directory is
// only stored when the user chose one, never the working directory fallback.
func (o *cliOptions) persist(settings *config.Settings) {
	if o.outputSet {
		settings.SetOutputDirectory(o.output)
	}
	settings.SetMaxParallelDownloads(o.parallel)
	settings.SetMaxAttempts(o.attempts)
	settings.SetRetryDelay(o.delay)
	settings.SetProxy(o.proxy)
	settings.SetUserAgent(o.userAgent)
	settings.SetSubtitleLanguage(o.subs)
	settings.SetFFmpegPath(o.ffmpeg)
	settings.SetLogLevel(o.logLevel)
	settings.SetOpenOnFinish(o.open)
	settings.SetExpandPlaylists(o.expand)
	if format, err := model.ParseFormat(o.format); err == nil && o.quality != "" {
		if format.IsAudio() {
			settings.SetAudioQuality(o.quality)
		} else {
			settings.SetVideoQuality(o.quality)
		}
	}
}

// splitLinks accepts links separated by commas or given as separate args
func splitLinks(values ...string) []string {
	var links []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if link := strings.TrimSpace(part); link != "" {
				links = append(links, link)
			}
		}
	}
	return links
}
