package pool

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sandialabs/faodel-sub005/internal/common"
	"github.com/sandialabs/faodel-sub005/internal/dataobject"
	"github.com/sandialabs/faodel-sub005/internal/iom"
	"github.com/sandialabs/faodel-sub005/internal/localkv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustURL(t *testing.T, s string) common.ResourceURL {
	t.Helper()
	u, err := common.ParseResourceURL(s)
	require.NoError(t, err)
	return u
}

func mustDO(t *testing.T, n int) dataobject.DO {
	t.Helper()
	do, err := dataobject.New(n, 0, n, dataobject.Lazy, 0, nil)
	require.NoError(t, err)
	return do
}

func TestLocalPoolPublishWant(t *testing.T) {
	ctx := context.Background()
	kv := localkv.New("test")
	b := common.NewBucket("t")
	p := NewLocalPool(mustURL(t, "ref:/pool/a"), b, DefaultLocal, kv)

	key := localkv.Key{Primary: "k1"}
	require.NoError(t, p.Publish(ctx, key, mustDO(t, 4)))
	do, err := p.Want(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 4, do.UserCapacity())
}

func TestLocalPoolWantMissing(t *testing.T) {
	ctx := context.Background()
	kv := localkv.New("test")
	p := NewLocalPool(mustURL(t, "ref:/pool/a"), common.NewBucket("t"), DefaultLocal, kv)
	_, err := p.Want(ctx, localkv.Key{Primary: "nope"})
	assert.Error(t, err)
}

func TestNullPoolAlwaysEmpty(t *testing.T) {
	ctx := context.Background()
	p := NewNullPool(mustURL(t, "ref:/pool/null"))
	require.NoError(t, p.Publish(ctx, localkv.Key{Primary: "x"}, mustDO(t, 4)))
	_, err := p.Want(ctx, localkv.Key{Primary: "x"})
	assert.Error(t, err)
}

func TestUnconfiguredPoolFailsEverything(t *testing.T) {
	ctx := context.Background()
	p := NewUnconfiguredPool(mustURL(t, "ref:/pool/x"))
	assert.Error(t, p.Publish(ctx, localkv.Key{Primary: "x"}, mustDO(t, 4)))
	_, err := p.Want(ctx, localkv.Key{Primary: "x"})
	assert.Error(t, err)
}

func TestTracePoolRecordsCalls(t *testing.T) {
	ctx := context.Background()
	kv := localkv.New("test")
	inner := NewLocalPool(mustURL(t, "ref:/pool/a"), common.NewBucket("t"), DefaultLocal, kv)
	tp := NewTracePool(inner)

	key := localkv.Key{Primary: "k1"}
	require.NoError(t, tp.Publish(ctx, key, mustDO(t, 4)))
	_, _ = tp.Want(ctx, key)

	calls := tp.Calls()
	require.Len(t, calls, 2)
	assert.Contains(t, calls[0], "Publish")
	assert.Contains(t, calls[1], "Want")
}

func TestDhtPoolRoutesToMappedMember(t *testing.T) {
	ctx := context.Background()
	n1 := common.NewNodeID(1, 100)
	n2 := common.NewNodeID(2, 200)
	members := []common.NodeID{n1, n2}

	kv1 := localkv.New("kv1")
	kv2 := localkv.New("kv2")
	b := common.NewBucket("t")
	url := mustURL(t, "ref:/pool/dht")

	resolve := func(n common.NodeID) (Pool, error) {
		if n == n1 {
			return NewLocalPool(url, b, DefaultLocal, kv1), nil
		}
		return NewLocalPool(url, b, DefaultLocal, kv2), nil
	}

	dht := NewDhtPool(url, b, members, n1, ReadToNone, nil, resolve)
	key := localkv.Key{Primary: "some-key"}
	require.NoError(t, dht.Publish(ctx, key, mustDO(t, 4)))

	target := dht.MemberFor(key.Primary)
	var expectKV *localkv.LocalKV
	if target == n1 {
		expectKV = kv1
	} else {
		expectKV = kv2
	}
	_, avail, err := expectKV.Get(b, key)
	require.NoError(t, err)
	assert.Equal(t, localkv.InLocalMemory, avail)
}

// TestDhtPoolDualWritesAndReadsLocalCache exercises §8 scenario 3: when a
// key's owner is a different member, WriteToLocal makes Publish also land
// a copy in this member's own local pool, and ReadToLocal makes Want find
// it there instead of going back out to the owner.
func TestDhtPoolDualWritesAndReadsLocalCache(t *testing.T) {
	ctx := context.Background()
	a := common.NewNodeID(1, 100)
	b2 := common.NewNodeID(2, 200)
	c := common.NewNodeID(3, 300)
	members := []common.NodeID{a, b2, c}

	ownerKV := make(map[common.NodeID]*localkv.LocalKV)
	for _, m := range members {
		ownerKV[m] = localkv.New("owner")
	}
	bucket := common.NewBucket("t")
	url := mustURL(t, "ref:/pool/dht")

	resolve := func(n common.NodeID) (Pool, error) {
		return NewLocalPool(url, bucket, DefaultLocal, ownerKV[n]), nil
	}

	localCache := localkv.New("a-local-cache")
	dht := NewDhtPool(url, bucket, members, a, DefaultLocal, NewLocalPool(url, bucket, DefaultLocal, localCache), resolve)

	// Find a key that does NOT map to A, so the dual-write path is live.
	var key localkv.Key
	for i := 0; ; i++ {
		key = localkv.Key{Primary: fmt.Sprintf("k%d", i)}
		if !dht.IsLocal(key.Primary) {
			break
		}
	}
	owner := dht.MemberFor(key.Primary)
	require.NotEqual(t, a, owner)

	require.NoError(t, dht.Publish(ctx, key, mustDO(t, 4)))

	// The owner really has it...
	_, avail, err := ownerKV[owner].Get(bucket, key)
	require.NoError(t, err)
	assert.Equal(t, localkv.InLocalMemory, avail)
	// ...and so does A's local cache, because WriteToLocal was set.
	_, avail, err = localCache.Get(bucket, key)
	require.NoError(t, err)
	assert.Equal(t, localkv.InLocalMemory, avail)

	// Drop it from the owner directly: Want should still be served from A's
	// local cache rather than failing, since ReadToLocal is set.
	require.NoError(t, ownerKV[owner].Drop(bucket, key))
	do, err := dht.Want(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 4, do.UserCapacity())
}

func TestCachingPoolServesFromCacheAfterPublish(t *testing.T) {
	ctx := context.Background()
	kv := localkv.New("test")
	b := common.NewBucket("t")
	inner := NewLocalPool(mustURL(t, "ref:/pool/a"), b, DefaultLocal, kv)
	cp := NewCachingPool(inner, time.Minute, time.Minute)

	key := localkv.Key{Primary: "k1"}
	require.NoError(t, cp.Publish(ctx, key, mustDO(t, 4)))
	require.NoError(t, kv.Drop(b, key)) // remove from the wrapped pool entirely

	do, err := cp.Want(ctx, key)
	require.NoError(t, err, "cache should still answer after the backing store forgot the key")
	assert.Equal(t, 4, do.UserCapacity())
}

func TestIomPoolFallsThroughOnMiss(t *testing.T) {
	ctx := context.Background()
	kv := localkv.New("test")
	b := common.NewBucket("t")
	inner := NewLocalPool(mustURL(t, "ref:/pool/a"), b, DefaultLocal, kv)
	backing, err := iom.NewDiscardIOM("d", nil)
	require.NoError(t, err)
	ip := NewIomPool(inner, backing, b)

	_, err = ip.Want(ctx, localkv.Key{Primary: "nope"})
	assert.Error(t, err, "discard IOM has nothing either, so the miss propagates")
}

func TestPoolRegistryConnect(t *testing.T) {
	r := NewRegistry()
	url := mustURL(t, "ref:/pool/a")
	_, ok := r.Connect(url).(*UnconfiguredPool)
	assert.True(t, ok)

	kv := localkv.New("test")
	lp := NewLocalPool(url, common.NewBucket("t"), DefaultLocal, kv)
	r.Register(url, lp)
	got := r.Connect(url)
	assert.Same(t, lp, got)
}
