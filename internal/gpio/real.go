//go:build linux

package gpio

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/rf433/internal/rf"
)

// RealEdgeSource watches both edges of the receiver pin using the kernel's
// edge events.
type RealEdgeSource struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line

	mu      sync.Mutex
	closed  bool
	edges   chan rf.Edge
	dropped atomic.Uint64
}

// NewRealEdgeSource requests pin on chip as an input with both edge
// detection. buffer is the edge channel capacity.
func NewRealEdgeSource(chipName string, pin, buffer int) (*RealEdgeSource, error) {
	if buffer <= 0 {
		buffer = DefaultEdgeBuffer
	}

	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer("rf433-rx"))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	s := &RealEdgeSource{
		chip:  chip,
		edges: make(chan rf.Edge, buffer),
	}

	// Pull-down keeps the line quiet when the receiver module is unplugged.
	line, err := chip.RequestLine(pin,
		gpiocdev.AsInput,
		gpiocdev.WithPullDown,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(s.handleEvent))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request RX pin %d: %w", pin, err)
	}
	s.line = line

	return s, nil
}

// handleEvent runs on the gpiocdev watcher goroutine and must not block.
func (s *RealEdgeSource) handleEvent(evt gpiocdev.LineEvent) {
	level := rf.Low
	if evt.Type == gpiocdev.LineEventRisingEdge {
		level = rf.High
	}
	e := rf.Edge{
		Level: level,
		Tick:  uint32(evt.Timestamp / time.Microsecond),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.edges <- e:
	default:
		s.dropped.Add(1)
	}
}

// Edges returns the edge channel.
func (s *RealEdgeSource) Edges() <-chan rf.Edge {
	return s.edges
}

// Dropped returns the number of edges lost to a full channel.
func (s *RealEdgeSource) Dropped() uint64 {
	return s.dropped.Load()
}

// Close releases GPIO resources and closes the edge channel.
// Reconfigures the pin to input with pull-down (matching Pi boot defaults)
// before closing.
func (s *RealEdgeSource) Close() error {
	var errs []error

	if s.line != nil {
		if err := s.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure RX pin: %w", err))
		}
		if err := s.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close RX pin: %w", err))
		}
	}
	if s.chip != nil {
		if err := s.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.edges)
	}
	s.mu.Unlock()

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealPulseWriter drives the transmitter pin. Pulses are timed by spinning
// against absolute deadlines on a locked OS thread, so an overrun of one
// pulse does not accumulate.
type RealPulseWriter struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
	mu   sync.Mutex
}

// NewRealPulseWriter requests pin on chip as an output, initially low.
func NewRealPulseWriter(chipName string, pin int) (*RealPulseWriter, error) {
	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer("rf433-tx"))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request TX pin %d: %w", pin, err)
	}

	return &RealPulseWriter{chip: chip, line: line}, nil
}

var errWriterClosed = errors.New("gpio: pulse writer closed")

// WritePulses transmits one pulse train and leaves the pin low.
func (w *RealPulseWriter) WritePulses(start rf.Level, durations []uint32) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.line == nil {
		return errWriterClosed
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	level := start
	deadline := time.Now()
	for _, d := range durations {
		if err := w.line.SetValue(int(level)); err != nil {
			w.line.SetValue(0)
			return fmt.Errorf("set TX pin: %w", err)
		}
		deadline = deadline.Add(time.Duration(d) * time.Microsecond)
		for time.Now().Before(deadline) {
		}
		level = level.Invert()
	}

	if err := w.line.SetValue(0); err != nil {
		return fmt.Errorf("set TX pin: %w", err)
	}
	return nil
}

// Close releases GPIO resources.
// Reconfigures the pin to input with pull-down (matching Pi boot defaults) so
// the transmitter is not keyed while the system reboots.
func (w *RealPulseWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var errs []error

	if w.line != nil {
		if err := w.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure TX pin: %w", err))
		}
		if err := w.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close TX pin: %w", err))
		}
		w.line = nil
	}
	if w.chip != nil {
		if err := w.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		w.chip = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
