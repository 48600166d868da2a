package progress

import (
	"sync"
)

// Sink receives pipeline events. Implementations used from concurrent
// workers must be safe for concurrent use; wrap others with Safe.
type Sink interface {
	Publish(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Publish calls f(e).
func (f SinkFunc) Publish(e Event) {
	f(e)
}

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

type multiSink []Sink

// Multi fans every event out to all sinks in order.
func Multi(sinks ...Sink) Sink {
	out := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (m multiSink) Publish(e Event) {
	for _, s := range m {
		s.Publish(e)
	}
}

type safeSink struct {
	mu   sync.Mutex
	next Sink
}

// Safe serializes delivery to next.
func Safe(next Sink) Sink {
	return &safeSink{next: next}
}

func (s *safeSink) Publish(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next.Publish(e)
}

// Channel hands events to a consumer running on its own goroutine, such as
// a UI event loop. Intermediate progress events are dropped when the buffer
// is full; phase changes and terminal events always get through unless the
// channel is closed while they wait.
type Channel struct {
	mu     sync.RWMutex
	ch     chan Event
	done   chan struct{}
	once   sync.Once
	closed bool
}

// NewChannel creates a channel sink with the given buffer size.
func NewChannel(buffer int) *Channel {
	return &Channel{ch: make(chan Event, buffer), done: make(chan struct{})}
}

// Events returns the receive side.
func (c *Channel) Events() <-chan Event {
	return c.ch
}

// Publish enqueues e. Events published after Close are dropped, and a
// Publish blocked on a full buffer gives up when Close is called.
func (c *Channel) Publish(e Event) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}

	if e.Phase == PhaseDownloading || e.Phase == PhaseConverting {
		select {
		case c.ch <- e:
		default:
		}
		return
	}
	select {
	case c.ch <- e:
	case <-c.done:
	}
}

// Close ends the stream; the consumer's range loop terminates. It does not
// wait for the consumer to drain.
func (c *Channel) Close() {
	// Release publishers blocked on a full buffer before taking the lock.
	c.once.Do(func() { close(c.done) })

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.ch)
	}
}
