// Package rf contains the edge and pulse types shared by the 433 MHz protocol
// decoders and encoders.
// This package has NO external dependencies (no GPIO, MQTT, OS, or clocks).
// Ticks and durations are plain microsecond counters supplied by the caller.
package rf

// Level is the logical level of the RF data pin.
type Level uint8

const (
	Low  Level = 0
	High Level = 1
)

// Invert returns the opposite level.
func (l Level) Invert() Level {
	return l ^ 1
}

// Edge is a single level transition on the receiver pin.
// Tick is a microsecond counter that wraps at 32 bits.
type Edge struct {
	Level Level
	Tick  uint32
}

// EdgeHandler consumes edges.
//
// Decoders in this module expect tick to be the duration in microseconds
// since the previous edge; wrap them in an Interval when the source delivers
// absolute ticks. HandleEdge must return quickly and is not safe for
// concurrent use.
type EdgeHandler interface {
	HandleEdge(level Level, tick uint32)
}

// EdgeHandlerFunc adapts a function to the EdgeHandler interface.
type EdgeHandlerFunc func(level Level, tick uint32)

// HandleEdge calls f(level, tick).
func (f EdgeHandlerFunc) HandleEdge(level Level, tick uint32) {
	f(level, tick)
}

// Chain fans one edge out to several handlers, synchronously and in
// registration order. A panicking handler stops the remaining ones.
type Chain []EdgeHandler

// NewChain returns a Chain over the given handlers.
// E.g.:
//
//	chain := rf.NewChain(remoteReceiver, sensorReceiver)
//	src := rf.NewInterval(chain)
func NewChain(handlers ...EdgeHandler) Chain {
	return Chain(handlers)
}

// Dispatch delivers the edge to every handler in the chain.
func (c Chain) Dispatch(level Level, tick uint32) {
	for i := range c {
		c[i].HandleEdge(level, tick)
	}
}

// HandleEdge makes a Chain usable as a handler itself, so chains nest.
func (c Chain) HandleEdge(level Level, tick uint32) {
	c.Dispatch(level, tick)
}

// Elapsed returns the number of microseconds from one tick to the next,
// correct across a 32-bit wrap.
func Elapsed(from, to uint32) uint32 {
	return to - from
}

// Interval converts absolute ticks into durations since the previous edge
// before handing them on. The first edge after construction or Reset is
// measured from tick 0; decoders treat that value like any other noise.
type Interval struct {
	next EdgeHandler
	last uint32
}

// NewInterval returns an Interval feeding next.
func NewInterval(next EdgeHandler) *Interval {
	return &Interval{next: next}
}

// HandleEdge forwards the duration since the previous edge.
func (iv *Interval) HandleEdge(level Level, tick uint32) {
	d := Elapsed(iv.last, tick)
	iv.last = tick
	iv.next.HandleEdge(level, d)
}

// Reset sets the reference tick for the next edge.
func (iv *Interval) Reset(tick uint32) {
	iv.last = tick
}
