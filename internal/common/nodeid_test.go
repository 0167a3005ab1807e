package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeIDPacking(t *testing.T) {
	n := NewNodeID(0x0A000001, 1234)
	assert.Equal(t, uint32(0x0A000001), n.Addr())
	assert.Equal(t, uint16(1234), n.Port())
	assert.Equal(t, "10.0.0.1:1234", n.String())
}

func TestNodeIDFromString(t *testing.T) {
	n, err := NewNodeIDFromString("192.168.1.2:9999")
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.2:9999", n.String())
}

func TestNodeIDFromStringBadPort(t *testing.T) {
	_, err := NewNodeIDFromString("192.168.1.2:99999999")
	assert.Error(t, err)
}

func TestNodeIDUnspecified(t *testing.T) {
	assert.True(t, NodeIDUnspecified.IsUnspecified())
	n, _ := NewNodeIDFromString("1.2.3.4:1")
	assert.False(t, n.IsUnspecified())
}

func TestLocalhostRegistration(t *testing.T) {
	n, _ := NewNodeIDFromString("127.0.0.1:1234")
	SetLocalhost(n)
	defer SetLocalhost(NodeIDUnspecified)
	assert.Equal(t, n, Localhost())
}
