package model

import (
	"fmt"
	"slices"
	"strings"
)

// FormatClass is the branch a format token belongs to.
type FormatClass string

const (
	FormatClassAudio FormatClass = "audio"
	FormatClassVideo FormatClass = "video"
)

// String returns the string representation of FormatClass
func (c FormatClass) String() string {
	return string(c)
}

// Supported format tokens in menu order.
var (
	AudioFormats = []string{"mp3", "flac", "m4a", "wav", "aac", "ogg", "opus"}
	VideoFormats = []string{"mp4", "mkv", "avi", "webm", "mov", "flv", "wmv", "3gp"}
)

// mergeContainers are the video containers the extractor can merge into
// without a separate conversion pass.
var mergeContainers = []string{"mp4", "mkv", "webm", "mov", "flv", "avi"}

// FallbackVideoContainer is requested from the extractor when the target
// video container cannot be produced natively.
const FallbackVideoContainer = "mkv"

// Format is a validated output format token.
type Format struct {
	Token string
	Class FormatClass
}

// SupportedFormats returns every accepted token, audio first.
func SupportedFormats() []string {
	out := make([]string, 0, len(AudioFormats)+len(VideoFormats))
	out = append(out, AudioFormats...)
	return append(out, VideoFormats...)
}

// Classify maps a token to its class. Unknown tokens yield an
// UnsupportedFormat error.
func Classify(token string) (FormatClass, error) {
	normalized := normalizeToken(token)
	switch {
	case slices.Contains(AudioFormats, normalized):
		return FormatClassAudio, nil
	case slices.Contains(VideoFormats, normalized):
		return FormatClassVideo, nil
	}
	return "", NewError(KindUnsupportedFormat, "classify",
		fmt.Errorf("%q is not one of %s", token, strings.Join(SupportedFormats(), ", ")))
}

// ParseFormat normalizes and classifies a token.
func ParseFormat(token string) (Format, error) {
	class, err := Classify(token)
	if err != nil {
		return Format{}, err
	}
	return Format{Token: normalizeToken(token), Class: class}, nil
}

// MustParseFormat is ParseFormat for tokens known at compile time.
func MustParseFormat(token string) Format {
	f, err := ParseFormat(token)
	if err != nil {
		panic(err)
	}
	return f
}

// IsAudio reports whether the format is audio-class.
func (f Format) IsAudio() bool {
	return f.Class == FormatClassAudio
}

// Extension returns the final file extension without the leading dot.
func (f Format) Extension() string {
	return f.Token
}

// NativeContainer returns the extension the extractor is asked to produce
// directly. Audio tokens are always extracted natively; video tokens outside
// mergeContainers fall back to FallbackVideoContainer.
func (f Format) NativeContainer() string {
	if f.IsAudio() || slices.Contains(mergeContainers, f.Token) {
		return f.Token
	}
	return FallbackVideoContainer
}

// NeedsConversion reports whether an artifact with the given extension must
// go through the conversion engine to become this format.
func (f Format) NeedsConversion(ext string) bool {
	return normalizeToken(strings.TrimPrefix(ext, ".")) != f.Token
}

// String returns the token
func (f Format) String() string {
	return f.Token
}

// IsMediaExtension reports whether ext (with or without dot) is one of the
// recognized media extensions.
func IsMediaExtension(ext string) bool {
	ext = normalizeToken(strings.TrimPrefix(ext, "."))
	return slices.Contains(AudioFormats, ext) || slices.Contains(VideoFormats, ext)
}

func normalizeToken(token string) string {
	return strings.ToLower(strings.TrimSpace(token))
}
