package gpio

import (
	"errors"
	"testing"

	"github.com/sweeney/rf433/internal/rf"
)

func TestFakeEdgeSourcePush(t *testing.T) {
	f := NewFakeEdgeSource(4)

	if !f.Push(rf.Edge{Level: rf.High, Tick: 100}) {
		t.Fatal("push into empty source failed")
	}
	e := <-f.Edges()
	if e.Level != rf.High || e.Tick != 100 {
		t.Errorf("expected (High, 100), got (%d, %d)", e.Level, e.Tick)
	}
}

func TestFakeEdgeSourceDropsWhenFull(t *testing.T) {
	f := NewFakeEdgeSource(2)

	for i := 0; i < 5; i++ {
		f.Push(rf.Edge{Tick: uint32(i)})
	}
	if f.Dropped() != 3 {
		t.Errorf("expected 3 dropped, got %d", f.Dropped())
	}

	// The oldest edges are kept.
	if e := <-f.Edges(); e.Tick != 0 {
		t.Errorf("expected tick 0, got %d", e.Tick)
	}
}

func TestFakeEdgeSourcePushTrain(t *testing.T) {
	f := NewFakeEdgeSource(16)
	train := rf.PulseTrain{StartLevel: rf.High, Durations: []uint32{300, 900, 300}}

	last := f.PushTrain(1000, train)
	if last != 2500 {
		t.Errorf("expected last tick 2500, got %d", last)
	}
	f.Close()

	want := []rf.Edge{
		{Level: rf.High, Tick: 1000},
		{Level: rf.Low, Tick: 1300},
		{Level: rf.High, Tick: 2200},
		{Level: rf.Low, Tick: 2500},
	}
	var got []rf.Edge
	for e := range f.Edges() {
		got = append(got, e)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d edges, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("edge %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestFakeEdgeSourceClose(t *testing.T) {
	f := NewFakeEdgeSource(1)

	if f.Closed {
		t.Error("should not be closed initially")
	}
	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !f.Closed {
		t.Error("should be closed after Close()")
	}

	// Second close and pushes after close are harmless.
	if err := f.Close(); err != nil {
		t.Errorf("unexpected error on second close: %v", err)
	}
	if f.Push(rf.Edge{}) {
		t.Error("push after close should fail")
	}
	if _, ok := <-f.Edges(); ok {
		t.Error("channel should be closed")
	}
}

func TestFakePulseWriterRecords(t *testing.T) {
	f := &FakePulseWriter{}
	d := []uint32{260, 2730}

	if err := f.WritePulses(rf.High, d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d[0] = 1

	trains := f.Trains()
	if len(trains) != 1 {
		t.Fatalf("expected 1 train, got %d", len(trains))
	}
	if trains[0].StartLevel != rf.High || trains[0].Durations[0] != 260 {
		t.Errorf("unexpected train: %+v", trains[0])
	}
}

func TestFakePulseWriterError(t *testing.T) {
	f := &FakePulseWriter{WriteError: errors.New("simulated error")}

	err := f.WritePulses(rf.High, []uint32{1})
	if err == nil {
		t.Fatal("expected error to be returned")
	}
	if err.Error() != "simulated error" {
		t.Errorf("unexpected error: %v", err)
	}
	if len(f.Writes) != 0 {
		t.Errorf("failed write recorded: %d", len(f.Writes))
	}
}

func TestFakePulseWriterOnWrite(t *testing.T) {
	var seen int
	f := &FakePulseWriter{OnWrite: func(p rf.PulseTrain) { seen += p.Len() }}

	f.WritePulses(rf.Low, []uint32{1, 2, 3})
	if seen != 3 {
		t.Errorf("expected OnWrite with 3 pulses, got %d", seen)
	}
}

func TestFakePulseWriterCloseAndReset(t *testing.T) {
	f := &FakePulseWriter{}
	f.WritePulses(rf.High, []uint32{1})

	f.Close()
	if !f.Closed {
		t.Error("should be closed after Close()")
	}

	f.Reset()
	if f.Closed || len(f.Writes) != 0 {
		t.Error("Reset should clear writes and closed flag")
	}
}
