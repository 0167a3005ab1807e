package ops

import "github.com/sandialabs/faodel-sub005/internal/concurrency"

// Dispatcher runs Op state machines on a Backburner (§5): ops tagged with
// the same key stay ordered relative to one another, while ops on
// different keys run concurrently, matching §9's "pick one concurrency
// model and stay consistent" directive.
type Dispatcher struct {
	bb *concurrency.Backburner
}

// NewDispatcher starts a Dispatcher backed by workers goroutines.
func NewDispatcher(workers, queueDepth int) *Dispatcher {
	return &Dispatcher{bb: concurrency.NewBackburner(workers, queueDepth)}
}

// Submit drives op through Start on the worker owning tag (normally the
// target key's Primary, so same-key ops serialize).
func (d *Dispatcher) Submit(tag string, op Op) {
	d.bb.Submit(tag, func() {
		op.Update(Start)
	})
}

// Complete re-enters op's state machine with a completion event, on the
// same tag as the op's original Submit so it stays ordered relative to
// other ops on that key. Ops whose Start returns WaitingOnCQ (because the
// underlying work runs on its own goroutine, e.g. a transport round trip)
// call this once that goroutine finishes.
func (d *Dispatcher) Complete(tag string, op Op, ev Event) {
	d.bb.Submit(tag, func() {
		op.Update(ev)
	})
}

// Close stops accepting new ops and waits for queued ones to drain.
func (d *Dispatcher) Close() {
	d.bb.Close()
}
