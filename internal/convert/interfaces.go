package convert

import "context"

// Converter defines the interface for the conversion engine.
type Converter interface {
	Convert(ctx context.Context, req Request) error
}

// MetadataWriter rewrites container metadata in place.
type MetadataWriter interface {
	WriteMetadata(ctx context.Context, path string, fields []Field) error
}
