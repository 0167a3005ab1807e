package pool

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/sandialabs/faodel-sub005/internal/common"
	"github.com/sandialabs/faodel-sub005/internal/dataobject"
	"github.com/sandialabs/faodel-sub005/internal/localkv"
)

// CachingPool wraps any Pool with a bounded TTL front cache of recently
// resolved DOs (§4.5 [NEW]), using patrickmn/go-cache the way rclone's
// backends keep a local TTL cache in front of a slower directory listing.
type CachingPool struct {
	inner Pool
	ttl   *gocache.Cache
}

// NewCachingPool wraps inner with a TTL cache (entries expire after ttl,
// swept every cleanup interval).
func NewCachingPool(inner Pool, ttl, cleanup time.Duration) *CachingPool {
	return &CachingPool{inner: inner, ttl: gocache.New(ttl, cleanup)}
}

func cacheKey(key localkv.Key) string { return key.Primary + "\x00" + key.Secondary }

func (p *CachingPool) URL() common.ResourceURL { return p.inner.URL() }

func (p *CachingPool) Publish(ctx context.Context, key localkv.Key, do dataobject.DO) error {
	if err := p.inner.Publish(ctx, key, do); err != nil {
		return err
	}
	p.ttl.SetDefault(cacheKey(key), do)
	return nil
}

func (p *CachingPool) Want(ctx context.Context, key localkv.Key) (dataobject.DO, error) {
	if v, found := p.ttl.Get(cacheKey(key)); found {
		return v.(dataobject.DO).Copy(), nil
	}
	do, err := p.inner.Want(ctx, key)
	if err != nil {
		return dataobject.DO{}, err
	}
	p.ttl.SetDefault(cacheKey(key), do)
	return do, nil
}

func (p *CachingPool) Info(ctx context.Context, key localkv.Key) (localkv.ObjectInfo, error) {
	return p.inner.Info(ctx, key)
}

func (p *CachingPool) RowInfo(ctx context.Context, primary string) (localkv.ObjectInfo, error) {
	return p.inner.RowInfo(ctx, primary)
}

func (p *CachingPool) List(ctx context.Context, primaryPrefix, colPattern string) ([]localkv.ListEntry, error) {
	return p.inner.List(ctx, primaryPrefix, colPattern)
}

func (p *CachingPool) Drop(ctx context.Context, key localkv.Key) error {
	p.ttl.Delete(cacheKey(key))
	return p.inner.Drop(ctx, key)
}
