package dataobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegistrar struct {
	registered   int
	unregistered int
}

func (f *fakeRegistrar) RegisterMemory(buf []byte) (Handle, error) {
	f.registered++
	return Handle(f.registered), nil
}

func (f *fakeRegistrar) UnregisterMemory(h Handle) error {
	f.unregistered++
	return nil
}

func TestNewAndSegments(t *testing.T) {
	do, err := New(100, 10, 20, Lazy, 7, nil)
	require.NoError(t, err)
	assert.False(t, do.IsNull())
	assert.Len(t, do.MetaPtr(), 10)
	assert.Len(t, do.DataPtr(), 20)
	assert.Equal(t, 100, do.UserCapacity())
	assert.Equal(t, uint16(7), do.TypeID())
}

func TestZeroCapacityIsValidNull(t *testing.T) {
	do, err := New(0, 0, 0, Lazy, 0, nil)
	require.NoError(t, err)
	assert.False(t, do.IsNull(), "a zero-capacity DO is still a valid, non-null handle")
	assert.Equal(t, 0, do.UserCapacity())
}

func TestConstructRejectsOversizedSegments(t *testing.T) {
	_, err := New(10, 6, 6, Lazy, 0, nil)
	assert.Error(t, err)
}

func TestModifyUserSizes(t *testing.T) {
	do, err := New(100, 10, 10, Lazy, 0, nil)
	require.NoError(t, err)
	require.NoError(t, do.ModifyUserSizes(50, 50))
	assert.Equal(t, 50, do.MetaSize())
	assert.Equal(t, 50, do.DataSize())
	assert.Error(t, do.ModifyUserSizes(60, 60))
}

func TestRefCountAfterCopiesAndDrops(t *testing.T) {
	do, err := New(10, 0, 0, Lazy, 0, nil)
	require.NoError(t, err)
	c1 := do.Copy()
	c2 := do.Copy()
	assert.Equal(t, int32(3), do.RefCount())
	c1.Drop()
	assert.Equal(t, int32(2), do.RefCount())
	c2.Drop()
	do.Drop()
	assert.Equal(t, int32(0), do.RefCount())
}

func TestEagerAllocatorRegistersImmediately(t *testing.T) {
	reg := &fakeRegistrar{}
	do, err := New(16, 0, 0, Eager, 0, reg)
	require.NoError(t, err)
	assert.Equal(t, 1, reg.registered)

	do.Drop()
	assert.Equal(t, 1, reg.unregistered)
}

func TestLazyAllocatorDefersRegistration(t *testing.T) {
	reg := &fakeRegistrar{}
	do, err := New(16, 0, 0, Lazy, 0, reg)
	require.NoError(t, err)
	assert.Equal(t, 0, reg.registered)

	h, err := do.RegistrationHandle()
	require.NoError(t, err)
	assert.NotZero(t, h)
	assert.Equal(t, 1, reg.registered)
}

func TestDumper(t *testing.T) {
	RegisterDumper(42, func(d DO) string { return "dumped" })
	do, err := New(4, 0, 0, Lazy, 42, nil)
	require.NoError(t, err)
	s, ok := do.Dump()
	require.True(t, ok)
	assert.Equal(t, "dumped", s)

	other, err := New(4, 0, 0, Lazy, 99, nil)
	require.NoError(t, err)
	_, ok = other.Dump()
	assert.False(t, ok)
}
