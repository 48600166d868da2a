package progress

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestEvent_ETAString(t *testing.T) {
	tests := []struct {
		eta      time.Duration
		expected string
	}{
		{-time.Second, "—"},
		{0, "—"},
		{30 * time.Second, "00:30"},
		{90 * time.Second, "01:30"},
		{time.Hour, "01:00:00"},
		{3661 * time.Second, "01:01:01"},
		{7323 * time.Second, "02:02:03"},
	}

	for _, test := range tests {
		e := Event{ETA: test.eta}
		if got := e.ETAString(); got != test.expected {
			t.Errorf("ETAString() with ETA=%v = %s, expected %s", test.eta, got, test.expected)
		}
	}
}

func TestEvent_Position(t *testing.T) {
	assert.Equal(t, "", Event{}.Position())
	assert.Equal(t, "[2/5]", Event{Index: 2, Total: 5}.Position())
}

func TestMulti(t *testing.T) {
	var a, b []Phase
	sink := Multi(
		SinkFunc(func(e Event) { a = append(a, e.Phase) }),
		nil,
		SinkFunc(func(e Event) { b = append(b, e.Phase) }),
	)

	sink.Publish(Event{Phase: PhaseDownloading})
	sink.Publish(Event{Phase: PhaseFinished})

	assert.Equal(t, []Phase{PhaseDownloading, PhaseFinished}, a)
	assert.Equal(t, a, b)
}

func TestSafe_ConcurrentDelivery(t *testing.T) {
	count := 0
	sink := Safe(SinkFunc(func(Event) { count++ }))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				sink.Publish(Event{Phase: PhaseDownloading})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 800, count)
}

func TestChannel_DropsProgressButKeepsPhaseChanges(t *testing.T) {
	ch := NewChannel(1)

	ch.Publish(Event{Phase: PhaseDownloading, Percent: 10})
	ch.Publish(Event{Phase: PhaseDownloading, Percent: 20}) // buffer full, dropped

	done := make(chan struct{})
	go func() {
		ch.Publish(Event{Phase: PhaseFinished, Final: true})
		ch.Close()
		close(done)
	}()

	var got []Event
	for e := range ch.Events() {
		got = append(got, e)
	}
	<-done

	require.Len(t, got, 2)
	assert.Equal(t, 10.0, got[0].Percent)
	assert.Equal(t, PhaseFinished, got[1].Phase)

	// Publishing after close is ignored.
	ch.Publish(Event{Phase: PhaseError})
}

func TestChannel_CloseReleasesBlockedPublisher(t *testing.T) {
	ch := NewChannel(1)
	ch.Publish(Event{Phase: PhaseTagging})

	published := make(chan struct{})
	go func() {
		ch.Publish(Event{Phase: PhaseFinished, Final: true}) // blocks, nobody drains
		close(published)
	}()

	closed := make(chan struct{})
	go func() {
		time.Sleep(20 * time.Millisecond)
		ch.Close()
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return while a publisher was blocked")
	}
	<-published

	var got []Event
	for e := range ch.Events() {
		got = append(got, e)
	}
	require.Len(t, got, 1)
	assert.Equal(t, PhaseTagging, got[0].Phase)
}

func TestLog_Publish(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sink := NewLog(zap.New(core))

	sink.Publish(Event{JobID: "job-1", Phase: PhaseDownloading, Percent: 50, Message: "progress"})
	sink.Publish(Event{JobID: "job-1", Phase: PhaseError, Attempt: 2, Message: "attempt failed", Err: errors.New("boom")})
	sink.Publish(Event{JobID: "job-1", Phase: PhaseFinished, Message: "done"})

	entries := logs.AllUntimed()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, int64(2), entries[1].ContextMap()["attempt"])
	assert.Equal(t, zapcore.InfoLevel, entries[2].Level)
}

func TestTerminal_Publish(t *testing.T) {
	var out bytes.Buffer
	sink := NewTerminal(&out)

	sink.Publish(Event{JobID: "job-1", Index: 1, Total: 2, Phase: PhaseDownloading, Percent: 40})
	sink.Publish(Event{JobID: "job-1", Index: 1, Total: 2, Phase: PhaseFinished, Final: true, Message: "Downloaded and saved as a.mp3"})
	sink.Publish(Event{JobID: "job-2", Index: 2, Total: 2, Phase: PhaseError, Final: true, Message: "giving up"})

	assert.Contains(t, out.String(), "Downloaded and saved as a.mp3")
	assert.Contains(t, out.String(), "[2/2] giving up")
}

func TestTerminal_InterleavedJobsKeepTheirBars(t *testing.T) {
	var out bytes.Buffer
	sink := NewTerminal(&out)

	sink.Publish(Event{JobID: "job-1", Index: 1, Total: 2, Phase: PhaseDownloading, Percent: 10})
	first := sink.bars["job-1"]
	require.NotNil(t, first)

	sink.Publish(Event{JobID: "job-2", Index: 2, Total: 2, Phase: PhaseDownloading, Percent: 20})
	sink.Publish(Event{JobID: "job-1", Index: 1, Total: 2, Phase: PhaseDownloading, Percent: 30})
	sink.Publish(Event{JobID: "job-2", Index: 2, Total: 2, Phase: PhaseConverting, Percent: 50})

	assert.Len(t, sink.bars, 2)
	assert.Same(t, first, sink.bars["job-1"])

	sink.Publish(Event{JobID: "job-1", Index: 1, Total: 2, Phase: PhaseFinished, Final: true, Message: "Downloaded and saved as a.mp3"})
	assert.NotContains(t, sink.bars, "job-1")
	assert.Contains(t, sink.bars, "job-2")

	sink.Publish(Event{JobID: "job-2", Index: 2, Total: 2, Phase: PhaseError, Message: "retrying"})
	assert.Contains(t, sink.bars, "job-2")
	sink.Publish(Event{JobID: "job-2", Index: 2, Total: 2, Phase: PhaseError, Final: true, Message: "giving up"})
	assert.Empty(t, sink.bars)
}
