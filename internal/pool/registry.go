package pool

import (
	"sync"

	"github.com/sandialabs/faodel-sub005/internal/common"
)

// Registry maps a pool's bucket_path_name to its connected Pool handle,
// the process-wide table Connect consults/populates.
type Registry struct {
	mu    sync.RWMutex
	pools map[string]Pool
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{pools: make(map[string]Pool)}
}

// Connect returns the Pool registered for url, or an UnconfiguredPool if
// nothing has been registered yet.
func (r *Registry) Connect(url common.ResourceURL) Pool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.pools[url.BucketPathName()]; ok {
		return p
	}
	return NewUnconfiguredPool(url)
}

// Register binds url's bucket_path_name to p, replacing any prior binding.
func (r *Registry) Register(url common.ResourceURL, p Pool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pools[url.BucketPathName()] = p
}
