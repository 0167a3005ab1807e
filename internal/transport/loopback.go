package transport

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/sandialabs/faodel-sub005/internal/common"
	"github.com/sandialabs/faodel-sub005/internal/ferr"
)

var (
	registryMu sync.RWMutex
	registry   = map[common.NodeID]*LoopbackTransport{}
)

// LoopbackTransport resolves every peer to an in-process inbox, so a whole
// cluster can be exercised inside one test binary (§6). Multiple instances
// in the same process register themselves under their NodeID and can Send
// to one another.
type LoopbackTransport struct {
	self    common.NodeID
	inbox   chan Event
	handles sync.Map // Handle -> []byte
	nextH   uint64
}

// NewLoopbackTransport registers self in the process-wide loopback
// registry, replacing any prior transport registered under the same id.
func NewLoopbackTransport(self common.NodeID) *LoopbackTransport {
	t := &LoopbackTransport{self: self, inbox: make(chan Event, 256)}
	registryMu.Lock()
	registry[self] = t
	registryMu.Unlock()
	return t
}

func lookup(peer common.NodeID) (*LoopbackTransport, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	t, ok := registry[peer]
	return t, ok
}

// Connect only checks that peer is registered in the loopback registry;
// there is no connection to set up, and an unregistered peer is an error.
func (t *LoopbackTransport) Connect(_ context.Context, peer common.NodeID) error {
	if _, ok := lookup(peer); !ok {
		return ferr.New(ferr.Transport, "transport.loopback", "unknown peer "+peer.String())
	}
	return nil
}

// RegisterMemory hands back a process-unique handle for buf.
func (t *LoopbackTransport) RegisterMemory(buf []byte) (Handle, error) {
	h := Handle(atomic.AddUint64(&t.nextH, 1))
	t.handles.Store(h, buf)
	return h, nil
}

// UnregisterMemory forgets a previously registered handle.
func (t *LoopbackTransport) UnregisterMemory(h Handle) error {
	t.handles.Delete(h)
	return nil
}

type resolvedFuture struct {
	ev  Event
	err error
}

func (f resolvedFuture) Wait(_ context.Context) (Event, error) { return f.ev, f.err }

// Send delivers wr.Payload into peer's inbox, tagging the Event with this
// transport's own NodeID as the sender.
func (t *LoopbackTransport) Send(ctx context.Context, peer common.NodeID, wr WorkRequest) (EventFuture, error) {
	dst, ok := lookup(peer)
	if !ok {
		return nil, ferr.New(ferr.Transport, "transport.loopback", "unknown peer "+peer.String())
	}
	ev := Event{Peer: t.self, Payload: wr.Payload}
	select {
	case dst.inbox <- ev:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return resolvedFuture{ev: ev}, nil
}

// Get copies Length bytes from peer's RemoteHandle into this transport's
// own LocalHandle buffer.
func (t *LoopbackTransport) Get(_ context.Context, peer common.NodeID, wr WorkRequest) (EventFuture, error) {
	dst, ok := lookup(peer)
	if !ok {
		return nil, ferr.New(ferr.Transport, "transport.loopback", "unknown peer "+peer.String())
	}
	remote, ok := dst.handles.Load(wr.RemoteHandle)
	if !ok {
		return nil, ferr.New(ferr.Transport, "transport.loopback", "unknown remote handle")
	}
	local, ok := t.handles.Load(wr.LocalHandle)
	if !ok {
		return nil, ferr.New(ferr.Transport, "transport.loopback", "unknown local handle")
	}
	n := copy(local.([]byte), remote.([]byte)[:wr.Length])
	return resolvedFuture{ev: Event{Peer: peer, Payload: local.([]byte)[:n]}}, nil
}

// Put copies Length bytes from this transport's own LocalHandle buffer into
// peer's RemoteHandle.
func (t *LoopbackTransport) Put(_ context.Context, peer common.NodeID, wr WorkRequest) (EventFuture, error) {
	dst, ok := lookup(peer)
	if !ok {
		return nil, ferr.New(ferr.Transport, "transport.loopback", "unknown peer "+peer.String())
	}
	local, ok := t.handles.Load(wr.LocalHandle)
	if !ok {
		return nil, ferr.New(ferr.Transport, "transport.loopback", "unknown local handle")
	}
	remote, ok := dst.handles.Load(wr.RemoteHandle)
	if !ok {
		return nil, ferr.New(ferr.Transport, "transport.loopback", "unknown remote handle")
	}
	n := copy(remote.([]byte), local.([]byte)[:wr.Length])
	return resolvedFuture{ev: Event{Peer: peer, Payload: remote.([]byte)[:n]}}, nil
}

// EqWait blocks for the next inbound Event (a delivered Send).
func (t *LoopbackTransport) EqWait(ctx context.Context) (Event, error) {
	select {
	case ev := <-t.inbox:
		return ev, nil
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

// Alloc returns a plain heap buffer; loopback has no special memory class.
func (t *LoopbackTransport) Alloc(size int) ([]byte, error) {
	return make([]byte, size), nil
}

// Free is a no-op for heap-backed buffers.
func (t *LoopbackTransport) Free(_ []byte) error { return nil }
