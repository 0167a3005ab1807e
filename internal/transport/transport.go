// Package transport defines the wire-transport seam (§6): the rest of the
// system is built and tested against this interface, never against a
// concrete network stack. Production transports are an external
// collaborator and out of scope; LoopbackTransport is the only shipped
// implementation.
package transport

import (
	"context"

	"github.com/sandialabs/faodel-sub005/internal/common"
)

// Handle identifies a block of memory registered for RDMA-style transfer.
type Handle uint64

// OpCode distinguishes the kind of work a WorkRequest describes.
type OpCode int

const (
	OpSend OpCode = iota
	OpGet
	OpPut
)

// WorkRequest describes one transfer: Payload for a Send, or a
// (LocalHandle, RemoteHandle, Length) triple for a Get/Put.
type WorkRequest struct {
	Op           OpCode
	Payload      []byte
	LocalHandle  Handle
	RemoteHandle Handle
	Length       int
}

// Event reports the completion of a previously submitted WorkRequest.
type Event struct {
	Peer    common.NodeID
	Payload []byte
	Err     error
}

// EventFuture resolves to an Event once the underlying transfer completes.
type EventFuture interface {
	Wait(ctx context.Context) (Event, error)
}

// Transport is the minimal RDMA-flavored interface the rest of the system
// programs against (§6).
type Transport interface {
	Connect(ctx context.Context, peer common.NodeID) error
	RegisterMemory(buf []byte) (Handle, error)
	UnregisterMemory(h Handle) error
	Send(ctx context.Context, peer common.NodeID, wr WorkRequest) (EventFuture, error)
	Get(ctx context.Context, peer common.NodeID, wr WorkRequest) (EventFuture, error)
	Put(ctx context.Context, peer common.NodeID, wr WorkRequest) (EventFuture, error)
	EqWait(ctx context.Context) (Event, error)
	Alloc(size int) ([]byte, error)
	Free(buf []byte) error
}
