package config

import (
	"os"
	"strings"

	"fyne.io/fyne/v2"
)

// Settings keys for Fyne preferences
const (
	KeyOutputDir    = "output_directory"
	KeyMaxAttempts  = "max_attempts"
	KeyRetryDelay   = "retry_delay_seconds"
	KeyMaxParallel  = "max_parallel_downloads"
	KeyAudioQuality = "audio_quality"
	KeyVideoQuality = "video_quality"
	KeyUserAgent    = "user_agent"
	KeyProxy        = "proxy"
	KeySubtitleLang = "subtitle_language"
	KeyLogLevel     = "log_level"
	KeyFFmpegPath   = "ffmpeg_path"
	KeyOpenOnFinish = "open_on_finish"
	KeyExpandLists  = "expand_playlists"
)

// Default values
const (
	DefaultMaxAttempts  = 3
	DefaultRetryDelay   = 5
	DefaultMaxParallel  = 1
	DefaultAudioQuality = "192"
	DefaultVideoQuality = "best"
	DefaultLogLevel     = "info"
	DefaultFFmpegPath   = "ffmpeg"
	DefaultOpenOnFinish = false
	DefaultExpandLists  = false
)

// Limits for numeric settings
const (
	MinMaxAttempts = 1
	MaxMaxAttempts = 10
	MinRetryDelay  = 0
	MaxRetryDelay  = 300
	MinMaxParallel = 1
	MaxMaxParallel = 10
)

// Values is a snapshot of every setting, used to seed a run.
type Values struct {
	OutputDir    string
	MaxAttempts  int
	RetryDelay   int // seconds
	MaxParallel  int
	AudioQuality string
	VideoQuality string
	UserAgent    string
	Proxy        string
	SubtitleLang string
	LogLevel     string
	FFmpegPath   string
	OpenOnFinish bool
	ExpandLists  bool
}

// Settings manages application configuration
type Settings struct {
	app fyne.App
}

// NewSettings creates a new settings manager
func NewSettings(app fyne.App) *Settings {
	return &Settings{app: app}
}

// Load reads every setting.
func (s *Settings) Load() Values {
	return Values{
		OutputDir:    s.GetOutputDirectory(),
		MaxAttempts:  s.GetMaxAttempts(),
		RetryDelay:   s.GetRetryDelay(),
		MaxParallel:  s.GetMaxParallelDownloads(),
		AudioQuality: s.GetAudioQuality(),
		VideoQuality: s.GetVideoQuality(),
		UserAgent:    s.GetUserAgent(),
		Proxy:        s.GetProxy(),
		SubtitleLang: s.GetSubtitleLanguage(),
		LogLevel:     s.GetLogLevel(),
		FFmpegPath:   s.GetFFmpegPath(),
		OpenOnFinish: s.GetOpenOnFinish(),
		ExpandLists:  s.GetExpandPlaylists(),
	}
}

// GetOutputDirectory returns the configured output directory. When none is
// stored the current working directory is used and nothing is persisted.
func (s *Settings) GetOutputDirectory() string {
	dir := s.app.Preferences().String(KeyOutputDir)
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "."
		}
		return wd
	}
	return dir
}

// SetOutputDirectory sets the output directory; empty resets to the working directory
func (s *Settings) SetOutputDirectory(dir string) {
	s.app.Preferences().SetString(KeyOutputDir, strings.TrimSpace(dir))
}

// GetMaxAttempts returns how many attempts a job gets
func (s *Settings) GetMaxAttempts() int {
	value := s.app.Preferences().IntWithFallback(KeyMaxAttempts, DefaultMaxAttempts)
	if value < MinMaxAttempts || value > MaxMaxAttempts {
		s.SetMaxAttempts(value)
		return clamp(value, MinMaxAttempts, MaxMaxAttempts)
	}
	return value
}

// SetMaxAttempts sets the attempt bound, clamped to [1,10]
func (s *Settings) SetMaxAttempts(count int) {
	s.app.Preferences().SetInt(KeyMaxAttempts, clamp(count, MinMaxAttempts, MaxMaxAttempts))
}

// GetRetryDelay returns the delay between attempts in seconds
func (s *Settings) GetRetryDelay() int {
	value := s.app.Preferences().IntWithFallback(KeyRetryDelay, DefaultRetryDelay)
	if value < MinRetryDelay || value > MaxRetryDelay {
		s.SetRetryDelay(value)
		return clamp(value, MinRetryDelay, MaxRetryDelay)
	}
	return value
}

// SetRetryDelay sets the delay between attempts, clamped to [0,300] seconds
func (s *Settings) SetRetryDelay(seconds int) {
	s.app.Preferences().SetInt(KeyRetryDelay, clamp(seconds, MinRetryDelay, MaxRetryDelay))
}

// GetMaxParallelDownloads returns the maximum number of parallel downloads
func (s *Settings) GetMaxParallelDownloads() int {
	value := s.app.Preferences().Int(KeyMaxParallel)
	if value <= 0 {
		s.SetMaxParallelDownloads(DefaultMaxParallel)
		return DefaultMaxParallel
	}
	return min(value, MaxMaxParallel)
}

// SetMaxParallelDownloads sets the maximum number of parallel downloads
func (s *Settings) SetMaxParallelDownloads(count int) {
	s.app.Preferences().SetInt(KeyMaxParallel, clamp(count, MinMaxParallel, MaxMaxParallel))
}

// GetAudioQuality returns the audio quality tier passed to the extractor
func (s *Settings) GetAudioQuality() string {
	return s.stringWithDefault(KeyAudioQuality, DefaultAudioQuality)
}

// SetAudioQuality sets the audio quality tier, e.g. "192" or "320"
func (s *Settings) SetAudioQuality(quality string) {
	s.app.Preferences().SetString(KeyAudioQuality, strings.TrimSpace(quality))
}

// GetVideoQuality returns the video quality tier, "best" or a height like "720"
func (s *Settings) GetVideoQuality() string {
	return s.stringWithDefault(KeyVideoQuality, DefaultVideoQuality)
}

// SetVideoQuality sets the video quality tier
func (s *Settings) SetVideoQuality(quality string) {
	s.app.Preferences().SetString(KeyVideoQuality, strings.TrimSpace(quality))
}

// QualityFor returns the quality tier matching the output class
func (s *Settings) QualityFor(audio bool) string {
	if audio {
		return s.GetAudioQuality()
	}
	return s.GetVideoQuality()
}

// GetUserAgent returns the user agent override, empty for the extractor default
func (s *Settings) GetUserAgent() string {
	return s.app.Preferences().String(KeyUserAgent)
}

// SetUserAgent sets the user agent override
func (s *Settings) SetUserAgent(ua string) {
	s.app.Preferences().SetString(KeyUserAgent, strings.TrimSpace(ua))
}

// GetProxy returns the proxy URL, empty for a direct connection
func (s *Settings) GetProxy() string {
	return s.app.Preferences().String(KeyProxy)
}

// SetProxy sets the proxy URL
func (s *Settings) SetProxy(proxy string) {
	s.app.Preferences().SetString(KeyProxy, strings.TrimSpace(proxy))
}

// GetSubtitleLanguage returns the subtitle language, empty when disabled
func (s *Settings) GetSubtitleLanguage() string {
	return s.app.Preferences().String(KeySubtitleLang)
}

// SetSubtitleLanguage sets the subtitle language
func (s *Settings) SetSubtitleLanguage(lang string) {
	s.app.Preferences().SetString(KeySubtitleLang, strings.TrimSpace(lang))
}

// GetLogLevel returns the configured log level
func (s *Settings) GetLogLevel() string {
	return s.stringWithDefault(KeyLogLevel, DefaultLogLevel)
}

// SetLogLevel sets the log level
func (s *Settings) SetLogLevel(level string) {
	s.app.Preferences().SetString(KeyLogLevel, strings.ToLower(strings.TrimSpace(level)))
}

// GetFFmpegPath returns the ffmpeg executable
func (s *Settings) GetFFmpegPath() string {
	return s.stringWithDefault(KeyFFmpegPath, DefaultFFmpegPath)
}

// SetFFmpegPath sets the ffmpeg executable
func (s *Settings) SetFFmpegPath(path string) {
	s.app.Preferences().SetString(KeyFFmpegPath, strings.TrimSpace(path))
}

// GetOpenOnFinish returns whether finished files are opened with the default app
func (s *Settings) GetOpenOnFinish() bool {
	return s.app.Preferences().BoolWithFallback(KeyOpenOnFinish, DefaultOpenOnFinish)
}

// SetOpenOnFinish sets whether finished files are opened with the default app
func (s *Settings) SetOpenOnFinish(open bool) {
	s.app.Preferences().SetBool(KeyOpenOnFinish, open)
}

// GetExpandPlaylists returns whether playlist links are expanded into entries
func (s *Settings) GetExpandPlaylists() bool {
	return s.app.Preferences().BoolWithFallback(KeyExpandLists, DefaultExpandLists)
}

// SetExpandPlaylists sets whether playlist links are expanded into entries
func (s *Settings) SetExpandPlaylists(expand bool) {
	s.app.Preferences().SetBool(KeyExpandLists, expand)
}

// stringWithDefault returns the stored value, writing back def when unset
func (s *Settings) stringWithDefault(key, def string) string {
	value := s.app.Preferences().String(key)
	if value == "" {
		s.app.Preferences().SetString(key, def)
		return def
	}
	return value
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
