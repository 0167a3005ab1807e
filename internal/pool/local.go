package pool

import (
	"context"

	"github.com/sandialabs/faodel-sub005/internal/common"
	"github.com/sandialabs/faodel-sub005/internal/dataobject"
	"github.com/sandialabs/faodel-sub005/internal/ferr"
	"github.com/sandialabs/faodel-sub005/internal/localkv"
)

// LocalPool always operates on the LocalKV of the current process (§4.5).
type LocalPool struct {
	url    common.ResourceURL
	bucket common.Bucket
	flags  Flags
	kv     *localkv.LocalKV
}

// NewLocalPool builds a LocalPool bound to kv.
func NewLocalPool(url common.ResourceURL, bucket common.Bucket, flags Flags, kv *localkv.LocalKV) *LocalPool {
	return &LocalPool{url: url, bucket: bucket, flags: flags, kv: kv}
}

func (p *LocalPool) URL() common.ResourceURL { return p.url }

func (p *LocalPool) Publish(_ context.Context, key localkv.Key, do dataobject.DO) error {
	if !p.flags.Has(WriteToLocal) {
		return ferr.New(ferr.Unconfigured, "pool.local", "pool is not configured to write locally")
	}
	return p.kv.Put(p.bucket, key, do, p.flags.Has(EnableOverwrites))
}

func (p *LocalPool) Want(_ context.Context, key localkv.Key) (dataobject.DO, error) {
	if !p.flags.Has(ReadToLocal) {
		return dataobject.DO{}, ferr.New(ferr.Unconfigured, "pool.local", "pool is not configured to read locally")
	}
	do, avail, err := p.kv.Get(p.bucket, key)
	if err != nil {
		return dataobject.DO{}, err
	}
	if avail != localkv.InLocalMemory {
		return dataobject.DO{}, ferr.New(ferr.NotFound, "pool.local", "not yet in local memory: "+key.Primary)
	}
	return do, nil
}

func (p *LocalPool) Info(_ context.Context, key localkv.Key) (localkv.ObjectInfo, error) {
	return p.kv.Info(p.bucket, key)
}

func (p *LocalPool) RowInfo(_ context.Context, primary string) (localkv.ObjectInfo, error) {
	return p.kv.RowInfo(p.bucket, primary)
}

func (p *LocalPool) List(_ context.Context, primaryPrefix, colPattern string) ([]localkv.ListEntry, error) {
	return p.kv.List(p.bucket, primaryPrefix, colPattern), nil
}

func (p *LocalPool) Drop(_ context.Context, key localkv.Key) error {
	return p.kv.Drop(p.bucket, key)
}
