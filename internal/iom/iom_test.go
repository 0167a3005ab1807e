package iom

import (
	"path/filepath"
	"testing"

	"github.com/sandialabs/faodel-sub005/internal/common"
	"github.com/sandialabs/faodel-sub005/internal/dataobject"
	"github.com/sandialabs/faodel-sub005/internal/localkv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscardIOMDropsWrites(t *testing.T) {
	inst, err := NewDiscardIOM("d1", nil)
	require.NoError(t, err)
	b := common.NewBucket("t")
	do, err := dataobject.New(4, 0, 4, dataobject.Lazy, 0, nil)
	require.NoError(t, err)
	require.NoError(t, inst.Put(b, localkv.Key{Primary: "k"}, do))
	_, err = inst.Get(b, localkv.Key{Primary: "k"})
	assert.Error(t, err)
}

func TestRegistryRegisterIOMFromURL(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterType("discard", NewDiscardIOM, nil))
	r.Start()

	u, err := common.ParseResourceURL("ref:/x&iom=mystore&iom_type=discard")
	require.NoError(t, err)
	inst, err := r.RegisterIOMFromURL(u)
	require.NoError(t, err)
	assert.Equal(t, "mystore", inst.Name())

	found, ok := r.Lookup("mystore")
	require.True(t, ok)
	assert.Same(t, inst.(*DiscardIOM), found.(*DiscardIOM))
}

func TestRegistryUnknownTypeFails(t *testing.T) {
	r := NewRegistry()
	_, err := r.RegisterNamed("n", "nope", nil)
	assert.Error(t, err)
}

func TestBoltIOMPutGetDropList(t *testing.T) {
	dir := t.TempDir()
	inst, err := NewBoltIOM("b1", Settings{"path": filepath.Join(dir, "test.db")})
	require.NoError(t, err)
	defer inst.(*BoltIOM).Close()

	bucket := common.NewBucket("tenant")
	key := localkv.Key{Primary: "row", Secondary: "col"}
	do, err := dataobject.New(10, 2, 8, dataobject.Lazy, 0, nil)
	require.NoError(t, err)
	copy(do.MetaPtr(), []byte("hi"))
	copy(do.DataPtr(), []byte("payload!"))

	require.NoError(t, inst.Put(bucket, key, do))

	got, err := inst.Get(bucket, key)
	require.NoError(t, err)
	assert.Equal(t, "hi", string(got.MetaPtr()))
	assert.Equal(t, "payload!", string(got.DataPtr()))

	entries, err := inst.List(bucket, "row", "*")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, key, entries[0].Key)

	require.NoError(t, inst.Drop(bucket, key))
	_, err = inst.Get(bucket, key)
	assert.Error(t, err)
}

func TestValidBoltSettingsRequiresPath(t *testing.T) {
	assert.Error(t, ValidBoltSettings(Settings{}))
	assert.NoError(t, ValidBoltSettings(Settings{"path": "/tmp/x.db"}))
}
