package swap

// EventType names the state transitions external observers care about.
type EventType string

const (
	EventOpenDeposit   EventType = "open_deposit"
	EventOpenWithdraw  EventType = "open_withdraw"
	EventCloseDeposit  EventType = "close_deposit"
	EventCloseWithdraw EventType = "close_withdraw"
)

// Event carries the lock box identifier and a copy of the full record as
// it was at emission time. Events are the only channel by which a manager
// learns that cross-network action is needed, so they are emitted only
// after the triggering operation was fully committed.
type Event struct {
	Type  EventType
	BoxID []byte
	Box   LockBox
}

// Emitter receives events from an engine. Emit is called synchronously
// from within the operation, after its state change was written.
type Emitter interface {
	Emit(Event)
}

// EmitterFunc allows a plain function to be used as an Emitter
type EmitterFunc func(Event)

// Emit implements the Emitter interface
func (f EmitterFunc) Emit(ev Event) {
	f(ev)
}

// Recorder is an Emitter that remembers every event, in order. Useful for
// tests and for manager processes that poll instead of reacting.
type Recorder struct {
	Events []Event
}

// Emit implements the Emitter interface
func (r *Recorder) Emit(ev Event) {
	r.Events = append(r.Events, ev)
}
