package events

// Event represents a structured state change emitted by the engine.
type Event interface {
	EventType() string
	// WireType is the stable numeric tag consumed by the host's indexer.
	WireType() uint32
	// Fields is the u64 payload mirroring the command's semantic result.
	Fields() []uint64
}

// Emitter broadcasts events to downstream subscribers (e.g. RPC, indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter satisfies the Emitter interface while discarding all events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Recorder accumulates emitted events in order; the engine drains it once per
// command so the host can persist the batch alongside the state commit.
type Recorder struct {
	events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Emit(e Event) {
	r.events = append(r.events, e)
}

// Drain returns the recorded events and resets the recorder.
func (r *Recorder) Drain() []Event {
	out := r.events
	r.events = nil
	return out
}

func (r *Recorder) Len() int {
	return len(r.events)
}
