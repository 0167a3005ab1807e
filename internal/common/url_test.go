package common

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLParseBasic(t *testing.T) {
	u, err := ParseResourceURL("ref:/things/a")
	require.NoError(t, err)
	assert.Equal(t, "ref", u.Type)
	assert.Equal(t, "things", u.Path)
	assert.Equal(t, "a", u.Name)
}

func TestURLDefaultType(t *testing.T) {
	u, err := ParseResourceURL("/things/a")
	require.NoError(t, err)
	assert.Equal(t, "ref", u.Type)
}

func TestURLLocalPathImpliesType(t *testing.T) {
	u, err := ParseResourceURL("/local/tmp/a")
	require.NoError(t, err)
	assert.Equal(t, "local", u.Type)
	assert.Equal(t, "tmp", u.Path)
	assert.Equal(t, "a", u.Name)
}

func TestURLBucketHex(t *testing.T) {
	u, err := ParseResourceURL("ref:[0x1234abcd]/x/y")
	require.NoError(t, err)
	assert.Equal(t, Bucket(0x1234abcd), u.Bucket)
}

func TestURLBucketHashedName(t *testing.T) {
	u, err := ParseResourceURL("ref:[mybucket]/x/y")
	require.NoError(t, err)
	assert.Equal(t, NewBucket("mybucket"), u.Bucket)
}

func TestURLNodeAndOptions(t *testing.T) {
	u, err := ParseResourceURL("ref:<0x1>/x/y&k1=v1&k2=v2")
	require.NoError(t, err)
	assert.Equal(t, NodeID(1), u.ReferenceNode)
	v, ok := u.GetOption("k1")
	assert.True(t, ok)
	assert.Equal(t, "v1", v)
	v2, ok2 := u.GetOption("k2")
	assert.True(t, ok2)
	assert.Equal(t, "v2", v2)
}

func TestURLRoundTrip(t *testing.T) {
	cases := []string{
		"ref:/things/a",
		"ref:[0xdeadbeef]/a/b/c&opt1=val1",
		"local:/tmp/x",
		"ref:<0xabc>[0x1]/root",
	}
	for _, s := range cases {
		u, err := ParseResourceURL(s)
		require.NoError(t, err, s)
		u2, err := ParseResourceURL(u.Format())
		require.NoError(t, err, u.Format())
		assert.True(t, u.Equals(u2), "round trip mismatch for %s: %s vs %s", s, u.Format(), u2.Format())
		// options round trip too (order-insensitively, per §3)
		assert.ElementsMatch(t, optionKeys(u), optionKeys(u2))
	}
}

func optionKeys(u ResourceURL) []string {
	var out []string
	for _, kv := range u.Options {
		out = append(out, kv.Key+"="+kv.Value)
	}
	return out
}

func TestURLMalformedScheme(t *testing.T) {
	_, err := ParseResourceURL("ba d:/x/y")
	assert.Error(t, err)
}

func TestURLMalformedHexNodeOverflow(t *testing.T) {
	_, err := ParseResourceURL("ref:<0xFFFFFFFFFFFFFFFFF>/x")
	assert.Error(t, err)
}

func TestURLMalformedUnbalancedBucket(t *testing.T) {
	_, err := ParseResourceURL("ref:[abc/x")
	assert.Error(t, err)
}

func TestURLMalformedPortOverflow(t *testing.T) {
	_, err := ParseResourceURL("ref:<10.0.0.1:999999>/x")
	assert.Error(t, err)
}

func TestURLIsRootLevel(t *testing.T) {
	u, _ := ParseResourceURL("ref:/things")
	assert.True(t, u.IsRootLevel())
	u2, _ := ParseResourceURL("ref:/things/a")
	assert.False(t, u2.IsRootLevel())
}

func TestURLGetParent(t *testing.T) {
	u, _ := ParseResourceURL("ref:/things/a")
	p := u.GetParent()
	assert.Equal(t, "things", p.Name)
	assert.True(t, p.IsRootLevel())
}

func TestURLPopDirEmpty(t *testing.T) {
	var u ResourceURL
	_, popped := u.PopDir()
	assert.Equal(t, "", popped)
}

func TestURLGetLineageReferenceSaturates(t *testing.T) {
	u, _ := ParseResourceURL("ref:/a/b/c")
	v := u.GetLineageReference(100)
	assert.Equal(t, "", v.Name)
}

func TestURLDeepPath64Levels(t *testing.T) {
	segs := make([]string, 64)
	for i := range segs {
		segs[i] = fmt.Sprintf("lvl%02d", i)
	}
	s := "ref:/" + strings.Join(segs, "/")
	u, err := ParseResourceURL(s)
	require.NoError(t, err)
	assert.Equal(t, "lvl63", u.Name)
	assert.Equal(t, strings.Join(segs[:63], "/"), u.Path)
}

func TestURLBucketPathNameIgnoresOptions(t *testing.T) {
	u1, _ := ParseResourceURL("ref:[0x1]/a/b&x=1")
	u2, _ := ParseResourceURL("ref:[0x1]/a/b&y=2&z=3")
	assert.Equal(t, u1.BucketPathName(), u2.BucketPathName())
}

func TestURLEqualsIgnoresOptions(t *testing.T) {
	u1, _ := ParseResourceURL("ref:[0x1]/a/b&x=1")
	u2, _ := ParseResourceURL("ref:[0x1]/a/b&y=2")
	assert.True(t, u1.Equals(u2))
}
