package ops

import (
	"context"
	"testing"

	"github.com/sandialabs/faodel-sub005/internal/common"
	"github.com/sandialabs/faodel-sub005/internal/dataobject"
	"github.com/sandialabs/faodel-sub005/internal/localkv"
	"github.com/sandialabs/faodel-sub005/internal/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T) pool.Pool {
	t.Helper()
	u, err := common.ParseResourceURL("ref:/pool/a")
	require.NoError(t, err)
	kv := localkv.New("test")
	return pool.NewLocalPool(u, common.NewBucket("t"), pool.DefaultLocal, kv)
}

func mustDO(t *testing.T, n int) dataobject.DO {
	t.Helper()
	do, err := dataobject.New(n, 0, n, dataobject.Lazy, 0, nil)
	require.NoError(t, err)
	return do
}

func TestDispatcherPublishThenGet(t *testing.T) {
	ctx := context.Background()
	p := newTestPool(t)
	d := NewDispatcher(2, 4)
	defer d.Close()

	key := localkv.Key{Primary: "k1"}
	pub := NewPublishOp(ctx, d, key.Primary, p, key, mustDO(t, 4))
	d.Submit(key.Primary, pub)
	require.NoError(t, pub.Wait())

	get := NewGetOp(ctx, d, key.Primary, p, key)
	d.Submit(key.Primary, get)
	do, err := get.Wait()
	require.NoError(t, err)
	assert.Equal(t, 4, do.UserCapacity())
}

func TestDispatcherListAndMetaAndDrop(t *testing.T) {
	ctx := context.Background()
	p := newTestPool(t)
	d := NewDispatcher(2, 4)
	defer d.Close()

	key := localkv.Key{Primary: "row1", Secondary: "c1"}
	pub := NewPublishOp(ctx, d, key.Primary, p, key, mustDO(t, 8))
	d.Submit(key.Primary, pub)
	require.NoError(t, pub.Wait())

	list := NewListOp(ctx, d, key.Primary, p, "row1", "*")
	d.Submit(key.Primary, list)
	entries, err := list.Wait()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "c1", entries[0].Key.Secondary)

	meta := NewMetaOp(ctx, d, key.Primary, p, key)
	d.Submit(key.Primary, meta)
	info, err := meta.Wait()
	require.NoError(t, err)
	assert.Equal(t, 8, info.ColUserBytes)

	drop := NewDropOp(ctx, d, key.Primary, p, key)
	d.Submit(key.Primary, drop)
	require.NoError(t, drop.Wait())

	get := NewGetOp(ctx, d, key.Primary, p, key)
	d.Submit(key.Primary, get)
	_, err = get.Wait()
	assert.Error(t, err)
}

// TestOpUpdateReturnsWaitingOnCQThenCompletes checks the two-phase
// protocol directly, without a Dispatcher: Start must return WaitingOnCQ
// (the underlying call runs on its own goroutine), and only the
// subsequent completion event tears the op down.
func TestOpUpdateReturnsWaitingOnCQThenCompletes(t *testing.T) {
	ctx := context.Background()
	p := newTestPool(t)
	d := NewDispatcher(1, 1)
	defer d.Close()

	key := localkv.Key{Primary: "wait1"}
	pub := NewPublishOp(ctx, d, key.Primary, p, key, mustDO(t, 2))
	assert.Equal(t, WaitingOnCQ, pub.Update(Start))
	require.NoError(t, pub.Wait())
}

func TestOpIDsAreDistinctPerInstance(t *testing.T) {
	ctx := context.Background()
	p := newTestPool(t)
	d := NewDispatcher(1, 1)
	defer d.Close()
	a := NewPublishOp(ctx, d, "a", p, localkv.Key{Primary: "a"}, mustDO(t, 1))
	b := NewPublishOp(ctx, d, "b", p, localkv.Key{Primary: "b"}, mustDO(t, 1))
	assert.NotEqual(t, a.ID(), b.ID())
}
