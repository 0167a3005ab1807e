package dirman

import (
	"context"
	"testing"

	"github.com/sandialabs/faodel-sub005/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootServerJoinScenario(t *testing.T) {
	// One root, three joiners each auto-joining /things/a: Locate resolves
	// to the root node, and the final directory has 3 unique auto-names.
	ctx := context.Background()
	rootNode, _ := common.NewNodeIDFromString("10.0.0.1:9999")
	r := NewRootServer(rootNode)

	parent := mustParse(t, "ref:/things/a")
	require.NoError(t, r.HostNewDir(ctx, common.NewDirectoryInfo(parent)))

	var last common.DirectoryInfo
	for i := 0; i < 3; i++ {
		n, _ := common.NewNodeIDFromString("10.0.0.2:1000")
		joinerURL := parent
		joinerURL.ReferenceNode = common.NodeID(uint64(n) + uint64(i))
		di, err := r.JoinDirWithoutName(ctx, joinerURL)
		require.NoError(t, err)
		last = di
	}
	require.Len(t, last.Children, 3)
	seen := map[string]bool{}
	for _, c := range last.Children {
		require.NotEmpty(t, c.Name)
		assert.False(t, seen[c.Name])
		seen[c.Name] = true
	}

	n, err := r.Locate(ctx, parent)
	require.NoError(t, err)
	assert.Equal(t, rootNode, n)
}

func TestRootServerHostNewDirIdempotent(t *testing.T) {
	ctx := context.Background()
	r := NewRootServer(common.NodeID(1))
	di := common.NewDirectoryInfo(mustParse(t, "ref:/a"))
	require.NoError(t, r.HostNewDir(ctx, di))
	require.NoError(t, r.HostNewDir(ctx, di), "re-hosting an identical dir is idempotent")

	other := di
	other.Info = "different"
	err := r.HostNewDir(ctx, other)
	assert.Error(t, err, "re-hosting a conflicting dir must fail")
}

func TestRootServerRemoveSubtreeScenario(t *testing.T) {
	// Create /a, /a/b, /a/b/c then remove "/a": every descendant becomes
	// not-found.
	ctx := context.Background()
	r := NewRootServer(common.NodeID(1))
	for _, s := range []string{"ref:/a", "ref:/a/b", "ref:/a/b/c"} {
		u := mustParse(t, s)
		require.True(t, r.cache.CreateAndLinkParents(common.NewDirectoryInfo(u)))
	}
	require.True(t, r.cache.Remove(mustParse(t, "ref:/a")))

	for _, s := range []string{"ref:/a", "ref:/a/b", "ref:/a/b/c"} {
		_, err := r.GetDirectoryInfo(ctx, mustParse(t, s), false, false)
		assert.Error(t, err)
	}
}

func TestRootServerGetDirectoryInfoAllowCreate(t *testing.T) {
	ctx := context.Background()
	r := NewRootServer(common.NodeID(1))
	u := mustParse(t, "ref:/fresh")
	_, err := r.GetDirectoryInfo(ctx, u, true, false)
	require.Error(t, err)

	di, err := r.GetDirectoryInfo(ctx, u, true, true)
	require.NoError(t, err)
	assert.True(t, di.URL.Equals(u))

	again, err := r.GetDirectoryInfo(ctx, u, true, false)
	require.NoError(t, err)
	assert.True(t, again.URL.Equals(u))
}
