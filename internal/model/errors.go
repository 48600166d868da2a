package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures. Whether a failure is retried is a
// property of its kind, never of the message.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// KindUnsupportedFormat is an input validation failure.
	KindUnsupportedFormat
	// KindMissingArtifact means extraction returned but left no media file.
	KindMissingArtifact
	// KindConversionFailed means the external transcoder failed.
	KindConversionFailed
	// KindExtraction covers network, site and availability problems.
	KindExtraction
	// KindTagging is logged and never fails a job.
	KindTagging
	// KindCanceled means the caller gave up.
	KindCanceled
)

// Sentinels usable with errors.Is.
var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrMissingArtifact   = errors.New("missing artifact")
	ErrConversionFailed  = errors.New("conversion failed")
	ErrExtraction        = errors.New("extraction error")
	ErrTagging           = errors.New("tagging error")
	ErrCanceled          = errors.New("canceled")
)

var kindSentinels = map[ErrorKind]error{
	KindUnsupportedFormat: ErrUnsupportedFormat,
	KindMissingArtifact:   ErrMissingArtifact,
	KindConversionFailed:  ErrConversionFailed,
	KindExtraction:        ErrExtraction,
	KindTagging:           ErrTagging,
	KindCanceled:          ErrCanceled,
}

// String returns the string representation of ErrorKind
func (k ErrorKind) String() string {
	switch k {
	case KindUnsupportedFormat:
		return "UnsupportedFormat"
	case KindMissingArtifact:
		return "MissingArtifact"
	case KindConversionFailed:
		return "ConversionFailed"
	case KindExtraction:
		return "ExtractionError"
	case KindTagging:
		return "TaggingError"
	case KindCanceled:
		return "Canceled"
	default:
		return "Unknown"
	}
}

// Retryable reports whether a failure of this kind may succeed on another
// attempt. Unknown failures are treated as transient.
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindMissingArtifact, KindConversionFailed, KindExtraction, KindUnknown:
		return true
	default:
		return false
	}
}

// Error is a classified pipeline failure.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// NewError wraps err with a kind and the operation that failed.
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a classified error from a format string.
func Errorf(kind ErrorKind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinel, so errors.Is(err, ErrMissingArtifact) works
// for any *Error of that kind.
func (e *Error) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && sentinel == target
}

// KindOf returns the kind of the outermost classified error in err's chain.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return KindUnknown
}

// IsRetryable is the single retry predicate used by the retry controller.
func IsRetryable(err error) bool {
	return err != nil && KindOf(err).Retryable()
}
