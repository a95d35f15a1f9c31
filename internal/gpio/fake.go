package gpio

import (
	"sync"

	"github.com/sweeney/rf433/internal/rf"
)

// FakeEdgeSource is a test double fed with scripted edges.
type FakeEdgeSource struct {
	mu      sync.Mutex
	edges   chan rf.Edge
	dropped uint64

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeEdgeSource creates a FakeEdgeSource with the given channel capacity.
func NewFakeEdgeSource(buffer int) *FakeEdgeSource {
	return &FakeEdgeSource{edges: make(chan rf.Edge, buffer)}
}

// Push queues one edge. Like the real source it never blocks: an edge that
// does not fit is counted as dropped and false is returned.
func (f *FakeEdgeSource) Push(e rf.Edge) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Closed {
		return false
	}
	select {
	case f.edges <- e:
		return true
	default:
		f.dropped++
		return false
	}
}

// PushTrain queues the edges a receiver would see for train, preceded by the
// edge starting its first pulse at tick start. It returns the tick of the
// last edge.
func (f *FakeEdgeSource) PushTrain(start uint32, train rf.PulseTrain) uint32 {
	f.Push(rf.Edge{Level: train.StartLevel, Tick: start})
	last := start
	for _, e := range train.Edges(start) {
		f.Push(e)
		last = e.Tick
	}
	return last
}

// Edges returns the edge channel.
func (f *FakeEdgeSource) Edges() <-chan rf.Edge {
	return f.edges
}

// Dropped returns the number of edges that did not fit.
func (f *FakeEdgeSource) Dropped() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dropped
}

// Close marks the source as closed and closes the channel.
func (f *FakeEdgeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.Closed {
		f.Closed = true
		close(f.edges)
	}
	return nil
}

// FakePulseWriter is a test double that records written trains.
type FakePulseWriter struct {
	mu sync.Mutex

	// Writes contains every successfully written train.
	Writes []rf.PulseTrain

	// WriteError, if set, will be returned by WritePulses()
	WriteError error

	// Closed tracks if Close was called
	Closed bool

	// OnWrite, if set, is called with each train before it is recorded.
	OnWrite func(rf.PulseTrain)
}

// WritePulses records a copy of the train.
func (f *FakePulseWriter) WritePulses(start rf.Level, durations []uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WriteError != nil {
		return f.WriteError
	}
	d := make([]uint32, len(durations))
	copy(d, durations)
	train := rf.PulseTrain{StartLevel: start, Durations: d}
	if f.OnWrite != nil {
		f.OnWrite(train)
	}
	f.Writes = append(f.Writes, train)
	return nil
}

// Trains returns a copy of the recorded trains.
func (f *FakePulseWriter) Trains() []rf.PulseTrain {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]rf.PulseTrain(nil), f.Writes...)
}

// Close marks the writer as closed.
func (f *FakePulseWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// Reset drops recorded trains and reopens the writer.
func (f *FakePulseWriter) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Writes = nil
	f.Closed = false
}
