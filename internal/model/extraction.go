package model

// Defaults used when the extractor omits descriptive fields.
const (
	DefaultTitle    = "Unknown Title"
	DefaultUploader = "Unknown Uploader"
)

// ExtractionResult is what one successful extraction leaves behind: the
// descriptive metadata plus the materialized temp artifact. It belongs to the
// job that requested it.
type ExtractionResult struct {
	Title        string
	Uploader     string
	ThumbnailURL string
	UploadDate   string // YYYYMMDD when known
	TempPath     string
	Extension    string // actual container of TempPath, without dot
}

// DisplayTitle returns the title or DefaultTitle.
func (r ExtractionResult) DisplayTitle() string {
	if r.Title == "" {
		return DefaultTitle
	}
	return r.Title
}

// Artist returns the uploader or DefaultUploader.
func (r ExtractionResult) Artist() string {
	if r.Uploader == "" {
		return DefaultUploader
	}
	return r.Uploader
}

// Year returns the first four digits of UploadDate, or "".
func (r ExtractionResult) Year() string {
	if len(r.UploadDate) < 4 {
		return ""
	}
	for _, c := range r.UploadDate[:4] {
		if c < '0' || c > '9' {
			return ""
		}
	}
	return r.UploadDate[:4]
}

// FinalArtifact is the delivered file.
type FinalArtifact struct {
	Path string
	Size int64
}
