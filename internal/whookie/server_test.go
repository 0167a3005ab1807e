package whookie

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sandialabs/faodel-sub005/internal/common"
	"github.com/sandialabs/faodel-sub005/internal/dataobject"
	"github.com/sandialabs/faodel-sub005/internal/dirman"
	"github.com/sandialabs/faodel-sub005/internal/localkv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirmanAndEntryEndpoints(t *testing.T) {
	dc := dirman.NewCache("test")
	u, err := common.ParseResourceURL("ref:/things/a")
	require.NoError(t, err)
	di := common.NewDirectoryInfo(u)
	di.Info = "a directory"
	require.True(t, dc.Create(di))

	s := New(dc, nil)

	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dirman", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), u.GetFullURL())

	rr2 := httptest.NewRecorder()
	s.Router().ServeHTTP(rr2, httptest.NewRequest(http.MethodGet, "/dirman/entry?name=ref:/things/a", nil))
	assert.Equal(t, http.StatusOK, rr2.Code)
	assert.Contains(t, rr2.Body.String(), "a directory")
}

func TestLocalKVEndpoint(t *testing.T) {
	kv := localkv.New("test")
	b := common.NewBucket("t")
	do, err := dataobject.New(4, 0, 4, dataobject.Lazy, 0, nil)
	require.NoError(t, err)
	require.NoError(t, kv.Put(b, localkv.Key{Primary: "row1", Secondary: "c1"}, do, false))

	s := New(nil, kv)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/kelpie/localkv", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "row1")
	assert.Contains(t, rr.Body.String(), "c1")
}

func TestMetricsEndpointServesPrometheusFormat(t *testing.T) {
	s := New(nil, nil)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "go_goroutines")
}

func TestDirmanWithoutCacheIsNotFound(t *testing.T) {
	s := New(nil, nil)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dirman", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
