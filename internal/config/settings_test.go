package config

import (
	"os"
	"testing"

	"fyne.io/fyne/v2/test"
)

func TestNewSettings(t *testing.T) {
	app := test.NewApp()
	settings := NewSettings(app)

	if settings.app != app {
		t.Error("Settings app reference should match provided app")
	}
}

func TestOutputDirectory(t *testing.T) {
	settings := NewSettings(test.NewApp())

	// Unset falls back to the working directory
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if dir := settings.GetOutputDirectory(); dir != wd {
		t.Errorf("Expected working directory %s, got %s", wd, dir)
	}

	settings.SetOutputDirectory("  /custom/downloads ")
	if dir := settings.GetOutputDirectory(); dir != "/custom/downloads" {
		t.Errorf("Expected /custom/downloads, got %s", dir)
	}

	settings.SetOutputDirectory("")
	if dir := settings.GetOutputDirectory(); dir != wd {
		t.Errorf("Expected reset to working directory, got %s", dir)
	}
}

func TestMaxAttempts(t *testing.T) {
	settings := NewSettings(test.NewApp())

	if got := settings.GetMaxAttempts(); got != DefaultMaxAttempts {
		t.Errorf("Expected default attempts %d, got %d", DefaultMaxAttempts, got)
	}

	settings.SetMaxAttempts(5)
	if got := settings.GetMaxAttempts(); got != 5 {
		t.Errorf("Expected 5 attempts, got %d", got)
	}

	settings.SetMaxAttempts(0)
	if got := settings.GetMaxAttempts(); got != MinMaxAttempts {
		t.Errorf("Attempts should be clamped to %d, got %d", MinMaxAttempts, got)
	}

	settings.SetMaxAttempts(99)
	if got := settings.GetMaxAttempts(); got != MaxMaxAttempts {
		t.Errorf("Attempts should be clamped to %d, got %d", MaxMaxAttempts, got)
	}
}

func TestMaxAttemptsRepairsStoredValue(t *testing.T) {
	app := test.NewApp()
	settings := NewSettings(app)

	app.Preferences().SetInt(KeyMaxAttempts, -4)
	if got := settings.GetMaxAttempts(); got != MinMaxAttempts {
		t.Errorf("Expected %d, got %d", MinMaxAttempts, got)
	}
	if stored := app.Preferences().Int(KeyMaxAttempts); stored != MinMaxAttempts {
		t.Errorf("Expected stored value to be repaired to %d, got %d", MinMaxAttempts, stored)
	}
}

func TestRetryDelay(t *testing.T) {
	settings := NewSettings(test.NewApp())

	if got := settings.GetRetryDelay(); got != DefaultRetryDelay {
		t.Errorf("Expected default delay %d, got %d", DefaultRetryDelay, got)
	}

	// Zero is a valid delay and must not fall back to the default
	settings.SetRetryDelay(0)
	if got := settings.GetRetryDelay(); got != 0 {
		t.Errorf("Expected delay 0, got %d", got)
	}

	settings.SetRetryDelay(-1)
	if got := settings.GetRetryDelay(); got != MinRetryDelay {
		t.Errorf("Delay should be clamped to %d, got %d", MinRetryDelay, got)
	}

	settings.SetRetryDelay(1000)
	if got := settings.GetRetryDelay(); got != MaxRetryDelay {
		t.Errorf("Delay should be clamped to %d, got %d", MaxRetryDelay, got)
	}
}

func TestMaxParallelDownloads(t *testing.T) {
	settings := NewSettings(test.NewApp())

	if got := settings.GetMaxParallelDownloads(); got != DefaultMaxParallel {
		t.Errorf("Expected default max parallel %d, got %d", DefaultMaxParallel, got)
	}

	settings.SetMaxParallelDownloads(5)
	if got := settings.GetMaxParallelDownloads(); got != 5 {
		t.Errorf("Expected max parallel 5, got %d", got)
	}

	settings.SetMaxParallelDownloads(0)
	if settings.GetMaxParallelDownloads() != 1 {
		t.Error("Max parallel should be clamped to minimum 1")
	}

	settings.SetMaxParallelDownloads(15)
	if settings.GetMaxParallelDownloads() != 10 {
		t.Error("Max parallel should be clamped to maximum 10")
	}
}

func TestQuality(t *testing.T) {
	settings := NewSettings(test.NewApp())

	if got := settings.QualityFor(true); got != DefaultAudioQuality {
		t.Errorf("Expected default audio quality %s, got %s", DefaultAudioQuality, got)
	}
	if got := settings.QualityFor(false); got != DefaultVideoQuality {
		t.Errorf("Expected default video quality %s, got %s", DefaultVideoQuality, got)
	}

	settings.SetAudioQuality("320")
	settings.SetVideoQuality(" 720 ")
	if got := settings.QualityFor(true); got != "320" {
		t.Errorf("Expected audio quality 320, got %s", got)
	}
	if got := settings.QualityFor(false); got != "720" {
		t.Errorf("Expected video quality 720, got %s", got)
	}
}

func TestNetworkAndSubtitles(t *testing.T) {
	settings := NewSettings(test.NewApp())

	if settings.GetUserAgent() != "" || settings.GetProxy() != "" || settings.GetSubtitleLanguage() != "" {
		t.Error("Network and subtitle settings should be empty by default")
	}

	settings.SetUserAgent("Mozilla/5.0")
	settings.SetProxy("socks5://127.0.0.1:9050")
	settings.SetSubtitleLanguage("en")

	if got := settings.GetUserAgent(); got != "Mozilla/5.0" {
		t.Errorf("Expected user agent Mozilla/5.0, got %s", got)
	}
	if got := settings.GetProxy(); got != "socks5://127.0.0.1:9050" {
		t.Errorf("Expected proxy, got %s", got)
	}
	if got := settings.GetSubtitleLanguage(); got != "en" {
		t.Errorf("Expected subtitle language en, got %s", got)
	}
}

func TestLogLevelAndFFmpeg(t *testing.T) {
	settings := NewSettings(test.NewApp())

	if got := settings.GetLogLevel(); got != DefaultLogLevel {
		t.Errorf("Expected default log level %s, got %s", DefaultLogLevel, got)
	}
	settings.SetLogLevel(" DEBUG ")
	if got := settings.GetLogLevel(); got != "debug" {
		t.Errorf("Expected log level debug, got %s", got)
	}

	if got := settings.GetFFmpegPath(); got != DefaultFFmpegPath {
		t.Errorf("Expected default ffmpeg path %s, got %s", DefaultFFmpegPath, got)
	}
	settings.SetFFmpegPath("/opt/ffmpeg/bin/ffmpeg")
	if got := settings.GetFFmpegPath(); got != "/opt/ffmpeg/bin/ffmpeg" {
		t.Errorf("Expected custom ffmpeg path, got %s", got)
	}
}

func TestBooleanSettings(t *testing.T) {
	settings := NewSettings(test.NewApp())

	if settings.GetOpenOnFinish() != DefaultOpenOnFinish {
		t.Error("Unexpected default for open on finish")
	}
	if settings.GetExpandPlaylists() != DefaultExpandLists {
		t.Error("Unexpected default for playlist expansion")
	}

	settings.SetOpenOnFinish(true)
	settings.SetExpandPlaylists(true)
	if !settings.GetOpenOnFinish() || !settings.GetExpandPlaylists() {
		t.Error("Boolean settings should be persisted")
	}
}

func TestLoad(t *testing.T) {
	settings := NewSettings(test.NewApp())
	settings.SetOutputDirectory("/music")
	settings.SetMaxAttempts(4)
	settings.SetRetryDelay(10)
	settings.SetMaxParallelDownloads(3)
	settings.SetSubtitleLanguage("de")

	values := settings.Load()

	if values.OutputDir != "/music" || values.MaxAttempts != 4 || values.RetryDelay != 10 ||
		values.MaxParallel != 3 || values.SubtitleLang != "de" {
		t.Errorf("Unexpected snapshot: %+v", values)
	}
	if values.AudioQuality != DefaultAudioQuality || values.LogLevel != DefaultLogLevel {
		t.Errorf("Snapshot should carry defaults: %+v", values)
	}
}
