package ops

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/sandialabs/faodel-sub005/internal/common"
	"github.com/sandialabs/faodel-sub005/internal/ferr"
	"github.com/sandialabs/faodel-sub005/internal/transport"
)

// RequestHandler answers one inbound request of a given kind and returns
// the raw JSON body to echo back.
type RequestHandler func(ctx context.Context, body json.RawMessage) (json.RawMessage, error)

// frame is the envelope carried over every Send on a Router-owned
// transport. Kind dispatches an inbound request to its RequestHandler;
// RequestID correlates an IsReply frame back to the Call that sent it.
type frame struct {
	Kind      string          `json:"kind"`
	RequestID string          `json:"request_id"`
	IsReply   bool            `json:"is_reply"`
	Body      json.RawMessage `json:"body,omitempty"`
	ErrMsg    string          `json:"err_msg,omitempty"`
}

// Router is the one thing in a node allowed to call EqWait on a given
// transport. A transport has a single inbox channel, so a second
// independent Serve loop (or a caller blocking its own EqWait) competing
// for the same channel can steal another goroutine's reply; Router
// demuxes every inbound frame by Kind (requests, dispatched to a
// registered handler) or RequestID (replies, routed back to the pending
// Call that is waiting on them), so dirman RPCs and KV RPCs can share one
// transport safely.
type Router struct {
	t transport.Transport

	mu       sync.Mutex
	handlers map[string]RequestHandler
	pending  map[string]chan frame
}

// NewRouter builds a Router over t. Call Serve in its own goroutine before
// issuing or expecting any Call/Handle traffic.
func NewRouter(t transport.Transport) *Router {
	return &Router{
		t:        t,
		handlers: make(map[string]RequestHandler),
		pending:  make(map[string]chan frame),
	}
}

// Handle registers h to answer every inbound request of the given kind.
// Must be called before Serve starts delivering that kind's traffic.
func (r *Router) Handle(kind string, h RequestHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = h
}

// Serve owns the transport's single EqWait loop until ctx is cancelled or
// EqWait returns an error.
func (r *Router) Serve(ctx context.Context) error {
	for {
		ev, err := r.t.EqWait(ctx)
		if err != nil {
			return err
		}
		var f frame
		if err := json.Unmarshal(ev.Payload, &f); err != nil {
			continue
		}
		if f.IsReply {
			r.deliverReply(f)
			continue
		}
		go r.serveRequest(ctx, ev.Peer, f)
	}
}

func (r *Router) deliverReply(f frame) {
	r.mu.Lock()
	ch, ok := r.pending[f.RequestID]
	if ok {
		delete(r.pending, f.RequestID)
	}
	r.mu.Unlock()
	if ok {
		ch <- f
	}
}

func (r *Router) serveRequest(ctx context.Context, peer common.NodeID, f frame) {
	r.mu.Lock()
	h, ok := r.handlers[f.Kind]
	r.mu.Unlock()

	reply := frame{Kind: f.Kind, RequestID: f.RequestID, IsReply: true}
	if !ok {
		reply.ErrMsg = "ops.router: no handler registered for kind " + f.Kind
	} else if body, err := h(ctx, f.Body); err != nil {
		reply.ErrMsg = err.Error()
	} else {
		reply.Body = body
	}

	payload, err := json.Marshal(reply)
	if err != nil {
		return
	}
	fut, err := r.t.Send(ctx, peer, transport.WorkRequest{Op: transport.OpSend, Payload: payload})
	if err != nil {
		return
	}
	_, _ = fut.Wait(ctx)
}

// Call sends a request of kind to peer and waits for its matching reply,
// demuxed by Router.Serve off the shared inbox.
func (r *Router) Call(ctx context.Context, peer common.NodeID, kind string, body json.RawMessage) (json.RawMessage, error) {
	id := uuid.NewString()
	ch := make(chan frame, 1)

	r.mu.Lock()
	r.pending[id] = ch
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.pending, id)
		r.mu.Unlock()
	}()

	req := frame{Kind: kind, RequestID: id, Body: body}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, ferr.Wrap(ferr.InvalidArg, "ops.router", err)
	}
	if _, err := r.t.Send(ctx, peer, transport.WorkRequest{Op: transport.OpSend, Payload: payload}); err != nil {
		return nil, ferr.Wrap(ferr.Transport, "ops.router", err)
	}

	select {
	case f := <-ch:
		if f.ErrMsg != "" {
			return nil, errors.New(f.ErrMsg)
		}
		return f.Body, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
