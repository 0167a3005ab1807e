package main

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sandialabs/faodel-sub005/internal/common"
	"github.com/sandialabs/faodel-sub005/internal/config"
	"github.com/sandialabs/faodel-sub005/internal/dataobject"
	"github.com/sandialabs/faodel-sub005/internal/localkv"
	"github.com/sandialabs/faodel-sub005/internal/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRuntimeAsRoot(t *testing.T) {
	cfg := config.NewFromString("node_role root\nnode.listen 127.0.0.5:9123")
	rt, err := NewRuntime(cfg)
	require.NoError(t, err)
	require.NotNil(t, rt.Root)
	require.NotNil(t, rt.DirClient)

	rr := httptest.NewRecorder()
	rt.whookie.Router().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rr.Code)
}

func TestNewRuntimeAsClientRequiresRootNode(t *testing.T) {
	cfg := config.NewFromString("node_role client\nnode.listen 127.0.0.6:9123")
	_, err := NewRuntime(cfg)
	assert.Error(t, err)
}

func TestNewRuntimeAsClientWithRootNode(t *testing.T) {
	cfg := config.NewFromString("node_role client\nnode.listen 127.0.0.7:9123\ndirman.root_node 127.0.0.5:9123")
	rt, err := NewRuntime(cfg)
	require.NoError(t, err)
	assert.Nil(t, rt.Root)
	require.NotNil(t, rt.DirClient)
}

func TestNewRuntimeRegistersConfiguredIOM(t *testing.T) {
	cfg := config.NewFromString(strings.Join([]string{
		"node_role root",
		"node.listen 127.0.0.8:9123",
		"ioms.names[] scratch",
		"iom.scratch.type discard",
	}, "\n"))
	rt, err := NewRuntime(cfg)
	require.NoError(t, err)

	inst, ok := rt.IOMs.Lookup("scratch")
	require.True(t, ok, "NewRuntime must register the ioms.names[] entries it finds in config")
	assert.Equal(t, "scratch", inst.Name())
}

func dhtPoolConfig(nodeAddr, rootAddr string, members []string) *config.Configuration {
	lines := []string{
		"node_role client",
		"node.listen " + nodeAddr,
		"dirman.root_node " + rootAddr,
		"pools.names[] kv",
		"pool.kv.type dht",
		"pool.kv.url ref:/pool/kv",
		"pool.kv.bucket t",
		"pool.kv.flags writetolocal_writetoremote_readtolocal_readtoremote",
	}
	for _, m := range members {
		lines = append(lines, "pool.kv.members[] "+m)
	}
	return config.NewFromString(strings.Join(lines, "\n"))
}

// TestNewRuntimeDhtPoolRoutesAcrossNodes drives a real cross-node DHT
// publish/want through two independently constructed Runtimes talking
// over their own LoopbackTransports, exercising the path the shipped
// binary previously never registered: Pools.Connect resolving to a
// DhtPool whose non-local members are ops.RemoteKVProxy instances.
func TestNewRuntimeDhtPoolRoutesAcrossNodes(t *testing.T) {
	rootAddr := "127.0.0.30:9000"
	addrA := "127.0.0.31:9000"
	addrB := "127.0.0.32:9000"

	_, err := NewRuntime(config.NewFromString("node_role root\nnode.listen " + rootAddr))
	require.NoError(t, err)

	rtA, err := NewRuntime(dhtPoolConfig(addrA, rootAddr, []string{addrA, addrB}))
	require.NoError(t, err)
	rtB, err := NewRuntime(dhtPoolConfig(addrB, rootAddr, []string{addrA, addrB}))
	require.NoError(t, err)

	url, err := common.ParseResourceURL("ref:/pool/kv")
	require.NoError(t, err)
	dhtA, ok := rtA.Pools.Connect(url).(*pool.DhtPool)
	require.True(t, ok, "pools.names[] kv of type dht must register a *pool.DhtPool")

	var key localkv.Key
	for i := 0; ; i++ {
		key = localkv.Key{Primary: fmt.Sprintf("x%d", i)}
		if !dhtA.IsLocal(key.Primary) {
			break
		}
	}

	ctx := context.Background()
	do, err := dataobject.New(4, 0, 4, dataobject.Lazy, 0, nil)
	require.NoError(t, err)
	require.NoError(t, dhtA.Publish(ctx, key, do))

	bucket := common.NewBucket("t")
	_, avail, err := rtB.KV.Get(bucket, key)
	require.NoError(t, err, "Publish on A must reach the owning node B over the shared Router")
	assert.Equal(t, localkv.InLocalMemory, avail)

	// Force the read-cache miss so Want has to go back out to B.
	require.NoError(t, rtA.KV.Drop(bucket, key))
	got, err := dhtA.Want(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 4, got.UserCapacity())
}
