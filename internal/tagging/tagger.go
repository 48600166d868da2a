// Package tagging writes descriptive metadata and cover art into finished
// audio files. Tagging is an enhancement: every failure is reported as a
// TaggingError and callers never fail a job because of it.
package tagging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/bogem/id3v2/v2"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/ytget/streamflare/internal/convert"
	"github.com/ytget/streamflare/internal/model"
)

// Cover fetch limits
const (
	DefaultFetchTimeout = 15 * time.Second
	MaxCoverSize        = 10 << 20 // 10mb
	CoverDescription    = "Cover"
)

// Metadata is what gets written. Title and Artist are always written; the
// other fields only when non-empty.
type Metadata struct {
	Title        string
	Artist       string
	Album        string
	Genre        string
	Year         string
	ThumbnailURL string
}

// Tagger writes tags into audio files.
type Tagger struct {
	client   *http.Client
	metadata convert.MetadataWriter
	log      *zap.Logger
}

// NewTagger creates a tagger. metadata handles containers without ID3
// support and may be nil, in which case those files are left untouched.
func NewTagger(client *http.Client, metadata convert.MetadataWriter, log *zap.Logger) *Tagger {
	if client == nil {
		client = &http.Client{Timeout: DefaultFetchTimeout}
	}
	return &Tagger{client: client, metadata: metadata, log: log}
}

// Tag writes meta into path. Text tags are written even when the cover
// cannot be fetched; the returned error then reports the cover failure.
func (t *Tagger) Tag(ctx context.Context, path string, meta Metadata) error {
	var cover *coverImage
	var coverErr error
	if meta.ThumbnailURL != "" {
		cover, coverErr = t.fetchCover(ctx, meta.ThumbnailURL)
	}

	var writeErr error
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "mp3":
		writeErr = writeID3(path, meta, cover)
	default:
		writeErr = t.writeContainerMetadata(ctx, path, meta)
		if cover != nil {
			t.log.Debug("cover art embedding is only supported for mp3", zap.String("path", path))
		}
	}

	if err := errors.Join(coverErr, writeErr); err != nil {
		return model.NewError(model.KindTagging, "tag", err)
	}
	return nil
}

type coverImage struct {
	data []byte
	mime string
}

// fetchCover downloads the thumbnail and sniffs its MIME type
func (t *Tagger) fetchCover(ctx context.Context, url string) (*coverImage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid thumbnail url: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch thumbnail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch thumbnail: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxCoverSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read thumbnail: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("thumbnail is empty")
	}
	if len(data) > MaxCoverSize {
		return nil, fmt.Errorf("thumbnail exceeds %d bytes", MaxCoverSize)
	}

	detected := mimetype.Detect(data)
	if !strings.HasPrefix(detected.String(), "image/") {
		return nil, fmt.Errorf("thumbnail is %s, not an image", detected.String())
	}
	return &coverImage{data: data, mime: detected.String()}, nil
}

// writeID3 writes an ID3v2.4 tag block, replacing any previous cover
func writeID3(path string, meta Metadata, cover *coverImage) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open tags of %s: %w", path, err)
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetTitle(meta.Title)
	tag.SetArtist(meta.Artist)
	if meta.Album != "" {
		tag.SetAlbum(meta.Album)
	}
	if meta.Genre != "" {
		tag.SetGenre(meta.Genre)
	}
	if meta.Year != "" {
		tag.SetYear(meta.Year)
	}

	if cover != nil {
		tag.DeleteFrames(tag.CommonID("Attached picture"))
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    cover.mime,
			PictureType: id3v2.PTFrontCover,
			Description: CoverDescription,
			Picture:     cover.data,
		})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("failed to save tags of %s: %w", path, err)
	}
	return nil
}

// writeContainerMetadata tags non-mp3 containers through ffmpeg
func (t *Tagger) writeContainerMetadata(ctx context.Context, path string, meta Metadata) error {
	if t.metadata == nil {
		return fmt.Errorf("no metadata writer for %s", filepath.Ext(path))
	}
	return t.metadata.WriteMetadata(ctx, path, []convert.Field{
		{Key: "title", Value: meta.Title},
		{Key: "artist", Value: meta.Artist},
		{Key: "album", Value: meta.Album},
		{Key: "genre", Value: meta.Genre},
		{Key: "date", Value: meta.Year},
	})
}
