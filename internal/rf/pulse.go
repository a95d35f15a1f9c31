package rf

// PulseTrain is a sequence of level durations in microseconds. The output
// starts at StartLevel and toggles after each duration.
type PulseTrain struct {
	StartLevel Level
	Durations  []uint32
}

// Len returns the number of pulses in the train.
func (p PulseTrain) Len() int {
	return len(p.Durations)
}

// Total returns the length of the whole train in microseconds.
func (p PulseTrain) Total() uint64 {
	var sum uint64
	for _, d := range p.Durations {
		sum += uint64(d)
	}
	return sum
}

// Edges returns the edges a receiver would observe for the train, with the
// first pulse starting at tick start. Each edge ends one pulse, so its level
// is the level of the following pulse.
func (p PulseTrain) Edges(start uint32) []Edge {
	edges := make([]Edge, 0, len(p.Durations))
	level := p.StartLevel
	tick := start
	for _, d := range p.Durations {
		tick += d
		level = level.Invert()
		edges = append(edges, Edge{Level: level, Tick: tick})
	}
	return edges
}

// PulseSink drives a transmitter: it holds startLevel for durations[0]
// microseconds, toggles, holds for durations[1], and so on. Implementations
// own timing; encoders only build the durations.
type PulseSink func(startLevel Level, durations []uint32)

// Replay feeds a pulse train to a duration-based handler, one edge per pulse.
// It is the loopback path between the encoders and the decoders.
func Replay(h EdgeHandler, p PulseTrain) {
	level := p.StartLevel
	for _, d := range p.Durations {
		level = level.Invert()
		h.HandleEdge(level, d)
	}
}

// Recorder is a PulseSink that keeps every delivered train.
type Recorder struct {
	Trains []PulseTrain
}

// Sink records one delivery. The durations are copied.
func (r *Recorder) Sink(startLevel Level, durations []uint32) {
	d := make([]uint32, len(durations))
	copy(d, durations)
	r.Trains = append(r.Trains, PulseTrain{StartLevel: startLevel, Durations: d})
}

// Reset drops recorded trains.
func (r *Recorder) Reset() {
	r.Trains = nil
}
