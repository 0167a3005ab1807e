package pool

import (
	"context"
	"fmt"
	"sync"

	"github.com/sandialabs/faodel-sub005/internal/common"
	"github.com/sandialabs/faodel-sub005/internal/dataobject"
	"github.com/sandialabs/faodel-sub005/internal/localkv"
)

// TracePool delegates every call to a wrapped Pool and records it, for
// tests and introspection (§4.5).
type TracePool struct {
	inner Pool
	mu    sync.Mutex
	calls []string
}

// NewTracePool wraps inner.
func NewTracePool(inner Pool) *TracePool {
	return &TracePool{inner: inner}
}

func (p *TracePool) record(call string) {
	p.mu.Lock()
	p.calls = append(p.calls, call)
	p.mu.Unlock()
}

// Calls returns a copy of every call recorded so far, in order.
func (p *TracePool) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.calls))
	copy(out, p.calls)
	return out
}

func (p *TracePool) URL() common.ResourceURL { return p.inner.URL() }

func (p *TracePool) Publish(ctx context.Context, key localkv.Key, do dataobject.DO) error {
	p.record(fmt.Sprintf("Publish(%s/%s)", key.Primary, key.Secondary))
	return p.inner.Publish(ctx, key, do)
}

func (p *TracePool) Want(ctx context.Context, key localkv.Key) (dataobject.DO, error) {
	p.record(fmt.Sprintf("Want(%s/%s)", key.Primary, key.Secondary))
	return p.inner.Want(ctx, key)
}

func (p *TracePool) Info(ctx context.Context, key localkv.Key) (localkv.ObjectInfo, error) {
	p.record(fmt.Sprintf("Info(%s/%s)", key.Primary, key.Secondary))
	return p.inner.Info(ctx, key)
}

func (p *TracePool) RowInfo(ctx context.Context, primary string) (localkv.ObjectInfo, error) {
	p.record("RowInfo(" + primary + ")")
	return p.inner.RowInfo(ctx, primary)
}

func (p *TracePool) List(ctx context.Context, primaryPrefix, colPattern string) ([]localkv.ListEntry, error) {
	p.record(fmt.Sprintf("List(%s,%s)", primaryPrefix, colPattern))
	return p.inner.List(ctx, primaryPrefix, colPattern)
}

func (p *TracePool) Drop(ctx context.Context, key localkv.Key) error {
	p.record(fmt.Sprintf("Drop(%s/%s)", key.Primary, key.Secondary))
	return p.inner.Drop(ctx, key)
}
