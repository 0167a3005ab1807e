package ops

import (
	"context"

	"github.com/sandialabs/faodel-sub005/internal/dataobject"
	"github.com/sandialabs/faodel-sub005/internal/localkv"
	"github.com/sandialabs/faodel-sub005/internal/pool"
)

// The canonical ops of §4.9 (Publish, GetBounded, GetUnbounded, List, Meta,
// Drop) are genuine two-phase state machines: Start launches the
// underlying pool.Pool call on its own goroutine — since the target may
// be a DhtPool member resolved to a transport-backed remote proxy, this
// can be a real network round trip rather than an in-process call — and
// returns WaitingOnCQ immediately, freeing the dispatcher's worker for
// other same-key ops queued behind it. The goroutine reports the outcome
// back through Dispatcher.Complete on the same tag once it finishes, and
// that second Update call tears the op down. List, Meta and Drop have no
// dedicated success/error Event pair of their own in §4.9's enum, so they
// complete through AtomicSuccess/AtomicError, the same catch-all the
// enum uses for non-get/put control operations.
//
// GetBounded and GetUnbounded are both expressed as a single GetOp here —
// Go's slice-backed DataObject has no manual RDMA buffer-size negotiation
// to distinguish a bounded inline reply from an unbounded two-phase pull,
// so the split that matters on the wire collapses at this layer (see
// DESIGN.md).

// PublishOp publishes a DataObject into a pool under key.
type PublishOp struct {
	id   uint32
	ctx  context.Context
	disp *Dispatcher
	tag  string
	p    pool.Pool
	key  localkv.Key
	do   dataobject.DO
	err  error
	done chan struct{}
}

// NewPublishOp builds a Publish op ready to Submit on disp under tag (the
// same tag the caller passes to Dispatcher.Submit).
func NewPublishOp(ctx context.Context, disp *Dispatcher, tag string, p pool.Pool, key localkv.Key, do dataobject.DO) *PublishOp {
	return &PublishOp{id: OpID("Publish"), ctx: ctx, disp: disp, tag: tag, p: p, key: key, do: do, done: make(chan struct{})}
}

func (o *PublishOp) ID() uint32 { return o.id }

func (o *PublishOp) Update(event Event) Action {
	if event == Start {
		go func() {
			err := o.p.Publish(o.ctx, o.key, o.do)
			ev := PutSuccess
			if err != nil {
				ev = PutError
			}
			o.err = err
			o.disp.Complete(o.tag, o, ev)
		}()
		return WaitingOnCQ
	}
	close(o.done)
	return DoneAndDestroy
}

// Wait blocks until the op completes and returns its result.
func (o *PublishOp) Wait() error {
	<-o.done
	return o.err
}

// GetOp fetches a DataObject from a pool by key (covers both the bounded
// inline-reply and unbounded RDMA-pull cases — see the package comment).
type GetOp struct {
	id     uint32
	ctx    context.Context
	disp   *Dispatcher
	tag    string
	p      pool.Pool
	key    localkv.Key
	result dataobject.DO
	err    error
	done   chan struct{}
}

// NewGetOp builds a Get op ready to Submit on disp under tag.
func NewGetOp(ctx context.Context, disp *Dispatcher, tag string, p pool.Pool, key localkv.Key) *GetOp {
	return &GetOp{id: OpID("Get"), ctx: ctx, disp: disp, tag: tag, p: p, key: key, done: make(chan struct{})}
}

func (o *GetOp) ID() uint32 { return o.id }

func (o *GetOp) Update(event Event) Action {
	if event == Start {
		go func() {
			result, err := o.p.Want(o.ctx, o.key)
			ev := GetSuccess
			if err != nil {
				ev = GetError
			}
			o.result, o.err = result, err
			o.disp.Complete(o.tag, o, ev)
		}()
		return WaitingOnCQ
	}
	close(o.done)
	return DoneAndDestroy
}

// Wait blocks until the op completes and returns its result.
func (o *GetOp) Wait() (dataobject.DO, error) {
	<-o.done
	return o.result, o.err
}

// ListOp enumerates entries matching a (primary prefix, column pattern).
type ListOp struct {
	id            uint32
	ctx           context.Context
	disp          *Dispatcher
	tag           string
	p             pool.Pool
	primaryPrefix string
	colPattern    string
	result        []localkv.ListEntry
	err           error
	done          chan struct{}
}

// NewListOp builds a List op ready to Submit on disp under tag.
func NewListOp(ctx context.Context, disp *Dispatcher, tag string, p pool.Pool, primaryPrefix, colPattern string) *ListOp {
	return &ListOp{id: OpID("List"), ctx: ctx, disp: disp, tag: tag, p: p, primaryPrefix: primaryPrefix, colPattern: colPattern, done: make(chan struct{})}
}

func (o *ListOp) ID() uint32 { return o.id }

func (o *ListOp) Update(event Event) Action {
	if event == Start {
		go func() {
			result, err := o.p.List(o.ctx, o.primaryPrefix, o.colPattern)
			ev := AtomicSuccess
			if err != nil {
				ev = AtomicError
			}
			o.result, o.err = result, err
			o.disp.Complete(o.tag, o, ev)
		}()
		return WaitingOnCQ
	}
	close(o.done)
	return DoneAndDestroy
}

// Wait blocks until the op completes and returns its result.
func (o *ListOp) Wait() ([]localkv.ListEntry, error) {
	<-o.done
	return o.result, o.err
}

// MetaOp fetches object_info_t for a key (or a whole row if key.Secondary
// is empty).
type MetaOp struct {
	id     uint32
	ctx    context.Context
	disp   *Dispatcher
	tag    string
	p      pool.Pool
	key    localkv.Key
	result localkv.ObjectInfo
	err    error
	done   chan struct{}
}

// NewMetaOp builds a Meta op ready to Submit on disp under tag.
func NewMetaOp(ctx context.Context, disp *Dispatcher, tag string, p pool.Pool, key localkv.Key) *MetaOp {
	return &MetaOp{id: OpID("Meta"), ctx: ctx, disp: disp, tag: tag, p: p, key: key, done: make(chan struct{})}
}

func (o *MetaOp) ID() uint32 { return o.id }

func (o *MetaOp) Update(event Event) Action {
	if event == Start {
		go func() {
			var result localkv.ObjectInfo
			var err error
			if o.key.Secondary == "" {
				result, err = o.p.RowInfo(o.ctx, o.key.Primary)
			} else {
				result, err = o.p.Info(o.ctx, o.key)
			}
			ev := AtomicSuccess
			if err != nil {
				ev = AtomicError
			}
			o.result, o.err = result, err
			o.disp.Complete(o.tag, o, ev)
		}()
		return WaitingOnCQ
	}
	close(o.done)
	return DoneAndDestroy
}

// Wait blocks until the op completes and returns its result.
func (o *MetaOp) Wait() (localkv.ObjectInfo, error) {
	<-o.done
	return o.result, o.err
}

// DropOp removes a key from a pool.
type DropOp struct {
	id   uint32
	ctx  context.Context
	disp *Dispatcher
	tag  string
	p    pool.Pool
	key  localkv.Key
	err  error
	done chan struct{}
}

// NewDropOp builds a Drop op ready to Submit on disp under tag.
func NewDropOp(ctx context.Context, disp *Dispatcher, tag string, p pool.Pool, key localkv.Key) *DropOp {
	return &DropOp{id: OpID("Drop"), ctx: ctx, disp: disp, tag: tag, p: p, key: key, done: make(chan struct{})}
}

func (o *DropOp) ID() uint32 { return o.id }

func (o *DropOp) Update(event Event) Action {
	if event == Start {
		go func() {
			err := o.p.Drop(o.ctx, o.key)
			ev := AtomicSuccess
			if err != nil {
				ev = AtomicError
			}
			o.err = err
			o.disp.Complete(o.tag, o, ev)
		}()
		return WaitingOnCQ
	}
	close(o.done)
	return DoneAndDestroy
}

// Wait blocks until the op completes and returns its result.
func (o *DropOp) Wait() error {
	<-o.done
	return o.err
}
