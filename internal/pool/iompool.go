package pool

import (
	"context"

	"github.com/sandialabs/faodel-sub005/internal/common"
	"github.com/sandialabs/faodel-sub005/internal/dataobject"
	"github.com/sandialabs/faodel-sub005/internal/iom"
	"github.com/sandialabs/faodel-sub005/internal/localkv"
)

// IomPool wraps a Pool so that a Want missing from local/remote memory
// falls through to backing, matching DefaultCachingIOM (§4.5 [NEW]): a
// successful IOM hit is republished into the wrapped pool (subject to the
// wrapped pool's own flags; a failed republish is ignored) before being
// returned, so the next Want for the same key is served from memory.
type IomPool struct {
	inner   Pool
	backing iom.IOM
	bucket  common.Bucket
}

// NewIomPool wraps inner with backing as its fall-through store.
func NewIomPool(inner Pool, backing iom.IOM, bucket common.Bucket) *IomPool {
	return &IomPool{inner: inner, backing: backing, bucket: bucket}
}

func (p *IomPool) URL() common.ResourceURL { return p.inner.URL() }

func (p *IomPool) Publish(ctx context.Context, key localkv.Key, do dataobject.DO) error {
	if err := p.inner.Publish(ctx, key, do); err != nil {
		return err
	}
	return p.backing.Put(p.bucket, key, do)
}

func (p *IomPool) Want(ctx context.Context, key localkv.Key) (dataobject.DO, error) {
	do, err := p.inner.Want(ctx, key)
	if err == nil {
		return do, nil
	}
	do, ioErr := p.backing.Get(p.bucket, key)
	if ioErr != nil {
		return dataobject.DO{}, err
	}
	_ = p.inner.Publish(ctx, key, do)
	return do, nil
}

func (p *IomPool) Info(ctx context.Context, key localkv.Key) (localkv.ObjectInfo, error) {
	return p.inner.Info(ctx, key)
}

func (p *IomPool) RowInfo(ctx context.Context, primary string) (localkv.ObjectInfo, error) {
	return p.inner.RowInfo(ctx, primary)
}

func (p *IomPool) List(ctx context.Context, primaryPrefix, colPattern string) ([]localkv.ListEntry, error) {
	local, err := p.inner.List(ctx, primaryPrefix, colPattern)
	if err != nil {
		return nil, err
	}
	remote, err := p.backing.List(p.bucket, primaryPrefix, colPattern)
	if err != nil {
		return local, nil
	}
	return append(local, remote...), nil
}

func (p *IomPool) Drop(ctx context.Context, key localkv.Key) error {
	_ = p.backing.Drop(p.bucket, key)
	return p.inner.Drop(ctx, key)
}
