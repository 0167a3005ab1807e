// Package ops implements the short-lived per-request state machines from
// §4.9: each Op is driven by a single Update(event) method returning the
// next Action, run on a worker drawn from a Backburner (§5) so same-key
// ops stay ordered relative to one another, per §9's "pick one
// concurrency model and stay consistent" guidance.
package ops

import (
	"sync/atomic"

	"github.com/sandialabs/faodel-sub005/internal/common"
)

// Event is one of the inputs an Op's Update method reacts to.
type Event int

const (
	Start Event = iota
	IncomingMessage
	UserTrigger
	SendSuccess
	GetSuccess
	PutSuccess
	AtomicSuccess
	Timeout
	SendError
	GetError
	PutError
	AtomicError
)

// IsTransientError reports whether e is one of the *_error events. It does
// not distinguish what the transport reported: every *_error event returns
// true, and every other event, Timeout included, returns false.
func (e Event) IsTransientError() bool {
	switch e {
	case SendError, GetError, PutError, AtomicError:
		return true
	default:
		return false
	}
}

// Action is what an Op's dispatcher should do after an Update call.
type Action int

const (
	WaitingOnCQ Action = iota
	WaitOnUser
	DoneAndDestroy
)

// Op is a short-lived state machine driving one client request (§4.9).
type Op interface {
	ID() uint32
	Update(event Event) Action
}

var opSeq uint32

// OpID assigns a stable 32-bit identifier from name's djb2 hash, combined
// with a per-process sequence number so two ops of the same kind never
// collide (the original's op_id is the hash of the op's type name; this
// mirrors that while still disambiguating concurrent instances).
func OpID(name string) uint32 {
	return uint32(common.NewBucket(name)) ^ atomic.AddUint32(&opSeq, 1)
}
