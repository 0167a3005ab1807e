package dirman

import (
	"sync"

	"github.com/sandialabs/faodel-sub005/internal/common"
	"github.com/sandialabs/faodel-sub005/internal/logging"
)

// OwnerCache records, for each known resource, only "who is authoritative"
// for it (§4.3). Clients consult this to shortcut a DirMan RPC.
type OwnerCache struct {
	*logging.Interface
	mu    sync.RWMutex
	known map[string]common.NodeID
}

// NewOwnerCache constructs an empty OwnerCache.
func NewOwnerCache(fullName string) *OwnerCache {
	return &OwnerCache{
		Interface: logging.New(fullName),
		known:     make(map[string]common.NodeID),
	}
}

// Register records url's owner. Fails if the url or its reference node is
// unset.
func (o *OwnerCache) Register(url common.ResourceURL) bool {
	o.Dbg("Register URL " + url.GetFullURL())
	if !url.Valid() {
		return false
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.known[url.BucketPathName()] = url.ReferenceNode
	return true
}

// RegisterMany registers a batch, all-or-nothing on validity: every url
// must carry a valid name and a specified reference node.
func (o *OwnerCache) RegisterMany(urls []common.ResourceURL) bool {
	for _, u := range urls {
		if !u.Valid() || u.ReferenceNode.IsUnspecified() {
			return false
		}
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, u := range urls {
		o.known[u.BucketPathName()] = u.ReferenceNode
	}
	return true
}

// Lookup returns the owner node for url, if known.
func (o *OwnerCache) Lookup(url common.ResourceURL) (common.NodeID, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	n, ok := o.known[url.BucketPathName()]
	return n, ok
}

// LookupMany returns owners for a batch of urls, plus all-found.
func (o *OwnerCache) LookupMany(urls []common.ResourceURL) ([]common.NodeID, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]common.NodeID, 0, len(urls))
	allFound := true
	for _, u := range urls {
		n, found := o.known[u.BucketPathName()]
		out = append(out, n)
		allFound = allFound && found
	}
	return out, allFound
}
