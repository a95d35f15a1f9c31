//go:build !linux

package gpio

import (
	"errors"

	"github.com/sweeney/rf433/internal/rf"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealEdgeSource is not available on non-Linux platforms.
type RealEdgeSource struct{}

// NewRealEdgeSource returns an error on non-Linux platforms.
func NewRealEdgeSource(chipName string, pin, buffer int) (*RealEdgeSource, error) {
	return nil, errUnsupported
}

// Edges returns nil on non-Linux platforms.
func (s *RealEdgeSource) Edges() <-chan rf.Edge { return nil }

// Dropped returns 0 on non-Linux platforms.
func (s *RealEdgeSource) Dropped() uint64 { return 0 }

// Close is not implemented on non-Linux platforms.
func (s *RealEdgeSource) Close() error { return nil }

// RealPulseWriter is not available on non-Linux platforms.
type RealPulseWriter struct{}

// NewRealPulseWriter returns an error on non-Linux platforms.
func NewRealPulseWriter(chipName string, pin int) (*RealPulseWriter, error) {
	return nil, errUnsupported
}

// WritePulses is not implemented on non-Linux platforms.
func (w *RealPulseWriter) WritePulses(start rf.Level, durations []uint32) error {
	return errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (w *RealPulseWriter) Close() error { return nil }
