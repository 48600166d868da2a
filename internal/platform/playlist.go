package platform

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ytget/ytdlp/v2"
	"go.uber.org/zap"
)

// Timeout constants
const (
	DefaultParseTimeout = 60 * time.Second
)

// URL parameters
const (
	PlaylistParam = "list"
)

// URL templates
const (
	YouTubeVideoURLTemplate = "https://www.youtube.com/watch?v=%s"
)

// PlaylistEntry is one video of an expanded playlist.
type PlaylistEntry struct {
	VideoID string
	Title   string
}

// URL returns the watch link of the entry.
func (e PlaylistEntry) URL() string {
	return fmt.Sprintf(YouTubeVideoURLTemplate, e.VideoID)
}

type playlistFetcher func(ctx context.Context, playlistID string) ([]PlaylistEntry, error)

// PlaylistExpander turns playlist links into one link per video so every
// video becomes its own batch item.
type PlaylistExpander struct {
	timeout time.Duration
	fetch   playlistFetcher
	log     *zap.Logger
}

// NewPlaylistExpander creates an expander backed by the ytdlp library.
func NewPlaylistExpander(log *zap.Logger) *PlaylistExpander {
	return &PlaylistExpander{
		timeout: DefaultParseTimeout,
		fetch:   fetchPlaylistItems,
		log:     log,
	}
}

// SetTimeout sets the timeout for each playlist lookup.
func (p *PlaylistExpander) SetTimeout(timeout time.Duration) {
	p.timeout = timeout
}

// Expand replaces every playlist link with the links of its videos and
// keeps other links unchanged, preserving order. A playlist that cannot be
// read is kept as a single link so the batch reports it like any other
// failing item.
func (p *PlaylistExpander) Expand(ctx context.Context, links []string) []string {
	out := make([]string, 0, len(links))
	for _, link := range links {
		playlistID := ExtractPlaylistID(link)
		if playlistID == "" {
			out = append(out, link)
			continue
		}

		entries, err := p.lookup(ctx, playlistID)
		if err != nil || len(entries) == 0 {
			p.log.Warn("playlist expansion failed, keeping link as is",
				zap.String("link", link), zap.Error(err))
			out = append(out, link)
			continue
		}

		p.log.Info("expanded playlist",
			zap.String("playlist", playlistID), zap.Int("videos", len(entries)))
		for _, entry := range entries {
			out = append(out, entry.URL())
		}
	}
	return out
}

func (p *PlaylistExpander) lookup(ctx context.Context, playlistID string) ([]PlaylistEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.fetch(ctx, playlistID)
}

// fetchPlaylistItems uses the ytdlp library to list playlist items
func fetchPlaylistItems(ctx context.Context, playlistID string) ([]PlaylistEntry, error) {
	d := ytdlp.New()
	items, err := d.GetPlaylistItemsAll(ctx, playlistID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist items: %w", err)
	}

	entries := make([]PlaylistEntry, 0, len(items))
	for _, it := range items {
		if it.VideoID == "" {
			continue
		}
		entries = append(entries, PlaylistEntry{VideoID: it.VideoID, Title: it.Title})
	}
	return entries, nil
}

// ExtractPlaylistID returns the list= parameter of a link, or "" when the
// link does not reference a playlist.
func ExtractPlaylistID(link string) string {
	parsed, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return ""
	}
	return parsed.Query().Get(PlaylistParam)
}
