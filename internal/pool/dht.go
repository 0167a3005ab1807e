package pool

import (
	"context"

	"github.com/sandialabs/faodel-sub005/internal/common"
	"github.com/sandialabs/faodel-sub005/internal/dataobject"
	"github.com/sandialabs/faodel-sub005/internal/ferr"
	"github.com/sandialabs/faodel-sub005/internal/localkv"
)

// DhtPool routes a key to member djb2(bucket‖key_primary) mod N (§4.5).
// Membership is a fixed, ordered list of nodes; resolve maps a member node
// id to the Pool that should actually run the operation — a LocalPool
// when the mapped node is this process, or a remote-backed Pool (an ops
// package RPC proxy, in production) otherwise. Keeping routing and
// execution separate means this type needs no transport/ops dependency of
// its own.
//
// flags/local give a non-owning member a write-through and read-through
// cache of its own: Publish additionally writes into local when
// WriteToLocal is set, and Want tries local before falling through to the
// owner when ReadToLocal is set (§8 scenario 3).
type DhtPool struct {
	url      common.ResourceURL
	bucket   common.Bucket
	members  []common.NodeID
	selfNode common.NodeID
	flags    Flags
	local    Pool
	resolve  func(node common.NodeID) (Pool, error)
}

// NewDhtPool builds a DhtPool over members, with selfNode identifying
// which member (if any) is this process, flags controlling the local
// dual-write/read-cache behavior below, local the Pool to use for that
// cache (nil disables it), and resolve supplying the Pool to use for a
// given member node (the actual owner of a key).
func NewDhtPool(url common.ResourceURL, bucket common.Bucket, members []common.NodeID, selfNode common.NodeID, flags Flags, local Pool, resolve func(common.NodeID) (Pool, error)) *DhtPool {
	return &DhtPool{url: url, bucket: bucket, members: members, selfNode: selfNode, flags: flags, local: local, resolve: resolve}
}

func (p *DhtPool) URL() common.ResourceURL { return p.url }

// MemberFor returns the node id a key_primary routes to.
func (p *DhtPool) MemberFor(keyPrimary string) common.NodeID {
	idx := int(common.HashBucketKey(p.bucket, keyPrimary) % uint32(len(p.members)))
	return p.members[idx]
}

// IsLocal reports whether keyPrimary maps to this process.
func (p *DhtPool) IsLocal(keyPrimary string) bool {
	return p.MemberFor(keyPrimary) == p.selfNode
}

func (p *DhtPool) target(keyPrimary string) (Pool, error) {
	if len(p.members) == 0 {
		return nil, ferr.New(ferr.Unconfigured, "pool.dht", "no members configured")
	}
	return p.resolve(p.MemberFor(keyPrimary))
}

// Publish always writes through the key's owner. When the owner is not
// this process and WriteToLocal is set, it additionally writes into local
// so a later Want against the same key can be served from the cache
// instead of a remote round trip.
func (p *DhtPool) Publish(ctx context.Context, key localkv.Key, do dataobject.DO) error {
	t, err := p.target(key.Primary)
	if err != nil {
		return err
	}
	if err := t.Publish(ctx, key, do); err != nil {
		return err
	}
	if !p.IsLocal(key.Primary) && p.flags.Has(WriteToLocal) && p.local != nil {
		_ = p.local.Publish(ctx, key, do)
	}
	return nil
}

// Want tries local first (when ReadToLocal is set and the key is not
// already owned by this process), falling back to the owner on a miss and
// seeding local with the result so subsequent reads hit the cache.
func (p *DhtPool) Want(ctx context.Context, key localkv.Key) (dataobject.DO, error) {
	tryLocal := !p.IsLocal(key.Primary) && p.flags.Has(ReadToLocal) && p.local != nil
	if tryLocal {
		if do, err := p.local.Want(ctx, key); err == nil {
			return do, nil
		}
	}
	t, err := p.target(key.Primary)
	if err != nil {
		return dataobject.DO{}, err
	}
	do, err := t.Want(ctx, key)
	if err != nil {
		return dataobject.DO{}, err
	}
	if tryLocal && p.flags.Has(WriteToLocal) {
		_ = p.local.Publish(ctx, key, do)
	}
	return do, nil
}

func (p *DhtPool) Info(ctx context.Context, key localkv.Key) (localkv.ObjectInfo, error) {
	t, err := p.target(key.Primary)
	if err != nil {
		return localkv.ObjectInfo{}, err
	}
	return t.Info(ctx, key)
}

func (p *DhtPool) RowInfo(ctx context.Context, primary string) (localkv.ObjectInfo, error) {
	t, err := p.target(primary)
	if err != nil {
		return localkv.ObjectInfo{}, err
	}
	return t.RowInfo(ctx, primary)
}

// List fans out to every member and concatenates the results: there is no
// single node that knows the whole DHT's contents.
func (p *DhtPool) List(ctx context.Context, primaryPrefix, colPattern string) ([]localkv.ListEntry, error) {
	var out []localkv.ListEntry
	for _, m := range p.members {
		t, err := p.resolve(m)
		if err != nil {
			return nil, err
		}
		entries, err := t.List(ctx, primaryPrefix, colPattern)
		if err != nil {
			return nil, err
		}
		out = append(out, entries...)
	}
	return out, nil
}

// Drop removes key from its owner, and best-effort from the local cache
// too (a cache-drop failure, e.g. because it was never cached, is not
// reported).
func (p *DhtPool) Drop(ctx context.Context, key localkv.Key) error {
	t, err := p.target(key.Primary)
	if err != nil {
		return err
	}
	if err := t.Drop(ctx, key); err != nil {
		return err
	}
	if !p.IsLocal(key.Primary) && p.local != nil {
		_ = p.local.Drop(ctx, key)
	}
	return nil
}
