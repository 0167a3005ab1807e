package dirman

import (
	"testing"

	"github.com/sandialabs/faodel-sub005/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOwnerCacheRegisterAndLookup(t *testing.T) {
	oc := NewOwnerCache("test.owner")
	u := mustParse(t, "ref:/a/b")
	n, _ := common.NewNodeIDFromString("10.0.0.1:99")
	u.ReferenceNode = n
	require.True(t, oc.Register(u))

	got, found := oc.Lookup(mustParse(t, "ref:/a/b"))
	require.True(t, found)
	assert.Equal(t, n, got)
}

func TestOwnerCacheLookupMiss(t *testing.T) {
	oc := NewOwnerCache("test.owner")
	_, found := oc.Lookup(mustParse(t, "ref:/nope"))
	assert.False(t, found)
}

func TestOwnerCacheRegisterManyAllOrNothing(t *testing.T) {
	oc := NewOwnerCache("test.owner")
	valid := mustParse(t, "ref:/a")
	n, _ := common.NewNodeIDFromString("10.0.0.1:1")
	valid.ReferenceNode = n
	invalid := mustParse(t, "ref:/b") // no reference node set

	ok := oc.RegisterMany([]common.ResourceURL{valid, invalid})
	assert.False(t, ok)
	_, found := oc.Lookup(valid)
	assert.False(t, found, "a failing batch registers nothing")
}
