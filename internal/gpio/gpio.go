// Package gpio connects the RF receiver and transmitter modules to GPIO
// lines. The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "github.com/sweeney/rf433/internal/rf"

// EdgeSource delivers edges of the receiver data pin with absolute
// microsecond ticks.
type EdgeSource interface {
	// Edges returns the channel edges are delivered on. It is closed by Close.
	Edges() <-chan rf.Edge

	// Dropped returns the number of edges lost because the channel was full.
	Dropped() uint64

	// Close releases GPIO resources.
	Close() error
}

// PulseWriter drives the transmitter data pin.
type PulseWriter interface {
	// WritePulses holds start for durations[0] microseconds, toggles, and so
	// on. The pin is low when it returns.
	WritePulses(start rf.Level, durations []uint32) error

	// Close releases GPIO resources.
	Close() error
}

// Pin definitions (BCM numbering)
const (
	PinRX = 27 // 433 MHz receiver data
	PinTX = 17 // 433 MHz transmitter data
)

// DefaultEdgeBuffer is the edge channel capacity. A sensor frame is about
// 130 edges and remotes repeat a frame of 132 edges several times.
const DefaultEdgeBuffer = 4096
