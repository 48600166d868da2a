package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Bar settings
const (
	barMax      = 100
	barWidth    = 30
	barThrottle = 100 * time.Millisecond
)

// Terminal renders progress bars on a terminal. Each job keeps its own bar
// until its final event, so interleaved events from concurrent workers
// update their bars in place instead of replacing them.
type Terminal struct {
	mu   sync.Mutex
	out  io.Writer
	bars map[string]*progressbar.ProgressBar
}

// NewTerminal creates a terminal sink writing to out.
func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out, bars: make(map[string]*progressbar.ProgressBar)}
}

// Publish implements Sink.
func (t *Terminal) Publish(e Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch e.Phase {
	case PhaseDownloading, PhaseConverting, PhaseTagging:
		bar := t.ensureBar(e)
		bar.Describe(describe(e))
		if e.HasPercent() {
			_ = bar.Set(int(e.Percent))
		}
	case PhaseFinished:
		if bar, ok := t.bars[e.JobID]; ok {
			_ = bar.Set(barMax)
		}
		t.finishBar(e.JobID)
		fmt.Fprintf(t.out, "\n%s\n", e.Message)
	case PhaseError:
		if bar, ok := t.bars[e.JobID]; ok {
			_ = bar.Clear()
		}
		fmt.Fprintf(t.out, "\n%s %s\n", e.Position(), e.Message)
		if e.Final {
			t.finishBar(e.JobID)
		}
	}
}

func (t *Terminal) ensureBar(e Event) *progressbar.ProgressBar {
	bar, ok := t.bars[e.JobID]
	if !ok {
		bar = progressbar.NewOptions(barMax,
			progressbar.OptionSetWriter(t.out),
			progressbar.OptionSetWidth(barWidth),
			progressbar.OptionSetDescription(describe(e)),
			progressbar.OptionThrottle(barThrottle),
			progressbar.OptionSetPredictTime(false),
		)
		t.bars[e.JobID] = bar
	}
	return bar
}

func (t *Terminal) finishBar(jobID string) {
	if bar, ok := t.bars[jobID]; ok {
		_ = bar.Finish()
		delete(t.bars, jobID)
	}
}

func describe(e Event) string {
	desc := fmt.Sprintf("%s %s", e.Position(), e.Phase)
	if e.ETA > 0 {
		desc += " eta " + e.ETAString()
	}
	return desc
}
