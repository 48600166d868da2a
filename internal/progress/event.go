package progress

import (
	"fmt"
	"time"
)

// Phase is the pipeline stage an event belongs to.
type Phase string

const (
	PhaseDownloading Phase = "downloading"
	PhaseConverting  Phase = "converting"
	PhaseTagging     Phase = "tagging"
	PhaseFinished    Phase = "finished"
	PhaseError       Phase = "error"
)

// UnknownPercent marks events without a known completion ratio.
const UnknownPercent = -1

// Event is one status update of one job.
type Event struct {
	JobID   string
	Link    string
	Index   int // position of the job in its batch, starting at 1
	Total   int // batch size
	Phase   Phase
	Percent float64       // 0-100, or UnknownPercent
	ETA     time.Duration // zero when unknown
	Attempt int
	Final   bool // last event of the job
	Message string
	Err     error
}

// HasPercent reports whether the event carries a completion ratio.
func (e Event) HasPercent() bool {
	return e.Percent >= 0
}

// ETAString returns ETA formatted as hh:mm:ss or mm:ss, or "—" if unknown
func (e Event) ETAString() string {
	seconds := int(e.ETA.Seconds())
	if seconds <= 0 {
		return "—"
	}

	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}

// Position renders the batch position, e.g. "[2/5]".
func (e Event) Position() string {
	if e.Total <= 0 {
		return ""
	}
	return fmt.Sprintf("[%d/%d]", e.Index, e.Total)
}
