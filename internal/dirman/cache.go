// Package dirman implements the directory/pool layer: a per-node
// DirectoryCache and DirectoryOwnerCache (§4.2, §4.3), plus a centralized
// DirMan root (§4.4). It is grounded on dirman/common/DirectoryCache.cpp
// and DirectoryOwnerCache.cpp from the original source.
package dirman

import (
	"sync"

	"github.com/sandialabs/faodel-sub005/internal/common"
	"github.com/sandialabs/faodel-sub005/internal/logging"
)

// Cache is a per-node cache of known directories, keyed by
// ResourceURL.BucketPathName under a single reader-writer lock (§4.2).
type Cache struct {
	*logging.Interface
	mu    sync.RWMutex
	known map[string]*common.DirectoryInfo
}

// NewCache constructs an empty Cache.
func NewCache(fullName string) *Cache {
	return &Cache{
		Interface: logging.New(fullName),
		known:     make(map[string]*common.DirectoryInfo),
	}
}

// Create inserts di iff its key is absent and its url is valid.
func (c *Cache) Create(di common.DirectoryInfo) bool {
	c.Dbg("Create " + di.URL.GetFullURL())
	return c.write(di, false)
}

// CreateAndLinkParents inserts di and every missing ancestor, joining child
// links bottom-up until an existing ancestor (or the root) is reached.
func (c *Cache) CreateAndLinkParents(di common.DirectoryInfo) bool {
	c.Dbg("CreateAndLinkParents " + di.URL.GetFullURL())
	if !di.URL.Valid() {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	ok := c.writeLocked(di, false)
	if !ok {
		return false
	}

	childURL := di.URL
	for !childURL.IsRootLevel() {
		parentURL := childURL.GetParent()
		r, found := c.lookupLocked(parentURL)
		if !found {
			nd := common.NewDirectoryInfo(parentURL)
			r = &nd
			c.known[parentURL.BucketPathName()] = r
		}
		if err := r.Join(childURL.ReferenceNode, childURL.Name); err != nil {
			// Name collision against an already-linked parent: leave the
			// existing link alone and stop climbing, matching "an
			// ancestor found" in §4.2's contract.
			break
		}
		childURL = parentURL
	}
	return true
}

// Update upserts di.
func (c *Cache) Update(di common.DirectoryInfo) bool {
	c.Dbg("Update " + di.URL.GetFullURL())
	return c.write(di, true)
}

// Remove erases the subtree rooted at url and updates the parent's member
// list. Returns false if url was not present.
func (c *Cache) Remove(url common.ResourceURL) bool {
	c.Dbg("Remove " + url.GetFullURL())
	c.mu.Lock()
	defer c.mu.Unlock()

	_, found := c.lookupLocked(url)
	if !found {
		return false
	}

	if !url.IsRootLevel() {
		parentURL := url.GetParent()
		if rp, ok := c.lookupLocked(parentURL); ok {
			rp.LeaveByName(url.Name)
		}
	}

	pending := []common.ResourceURL{url}
	for len(pending) > 0 {
		u := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		c.removeSingleLocked(u, &pending)
	}
	return true
}

// Join adds child_url.Name to the parent directory, or, if its "ag" option
// is "1", an auto-named slot to the directory child_url itself names,
// returning the updated DirectoryInfo.
func (c *Cache) Join(childURL common.ResourceURL) (common.DirectoryInfo, bool) {
	c.Dbg("Join resource " + childURL.GetURL())
	autogen, _ := childURL.GetOption("ag")
	needsAutogen := autogen == "1"

	var parentURL common.ResourceURL
	if needsAutogen {
		parentURL = childURL
	} else {
		parentURL = childURL.GetParent()
		if childURL.IsRootLevel() {
			c.Dbg("Attempted join using a root url " + childURL.GetURL())
			return common.DirectoryInfo{}, false
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	r, found := c.lookupLocked(parentURL)
	if !found {
		return common.DirectoryInfo{}, false
	}
	name := ""
	if !needsAutogen {
		name = childURL.Name
	}
	if err := r.Join(childURL.ReferenceNode, name); err != nil {
		return common.DirectoryInfo{}, false
	}
	return *r, true
}

// Leave removes a child by name (else by node) from its parent directory.
func (c *Cache) Leave(childURL common.ResourceURL) (common.DirectoryInfo, bool) {
	c.Dbg("Leave resource " + childURL.GetURL())
	if childURL.IsRootLevel() {
		c.Dbg("Attempted leave using a root url " + childURL.GetURL())
		return common.DirectoryInfo{}, false
	}
	parentURL := childURL.GetParent()

	c.mu.Lock()
	defer c.mu.Unlock()
	r, found := c.lookupLocked(parentURL)
	if !found {
		return common.DirectoryInfo{}, false
	}
	removed := r.Leave(childURL)
	if !removed {
		return common.DirectoryInfo{}, false
	}
	return *r, true
}

// Lookup returns a copy of the DirectoryInfo for url, if known.
func (c *Cache) Lookup(url common.ResourceURL) (common.DirectoryInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, found := c.lookupLocked(url)
	if !found {
		return common.DirectoryInfo{}, false
	}
	return *r, true
}

// LookupMany looks up a batch of urls, returning all-found and the copies
// found (empty DirectoryInfo for misses, matching the original's vector
// form).
func (c *Cache) LookupMany(urls []common.ResourceURL) ([]common.DirectoryInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]common.DirectoryInfo, 0, len(urls))
	allFound := true
	for _, u := range urls {
		r, found := c.lookupLocked(u)
		if found {
			out = append(out, *r)
		} else {
			out = append(out, common.DirectoryInfo{})
		}
		allFound = allFound && found
	}
	return out, allFound
}

// GetAllURLs returns every known directory's URL.
func (c *Cache) GetAllURLs() []common.ResourceURL {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]common.ResourceURL, 0, len(c.known))
	for _, r := range c.known {
		out = append(out, r.URL)
	}
	return out
}

// GetAllNames returns every known bucket_path_name key.
func (c *Cache) GetAllNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.known))
	for k := range c.known {
		out = append(out, k)
	}
	return out
}

func (c *Cache) write(di common.DirectoryInfo, overwrite bool) bool {
	if !di.URL.Valid() {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writeLocked(di, overwrite)
}

func (c *Cache) writeLocked(di common.DirectoryInfo, overwrite bool) bool {
	_, found := c.lookupLocked(di.URL)
	if found && !overwrite {
		return false
	}
	cp := di
	c.known[di.URL.BucketPathName()] = &cp
	return true
}

func (c *Cache) lookupLocked(url common.ResourceURL) (*common.DirectoryInfo, bool) {
	r, ok := c.known[url.BucketPathName()]
	return r, ok
}

// removeSingleLocked deletes one directory and schedules its named
// children for removal too, matching _removeSingleDir's transitive sweep.
func (c *Cache) removeSingleLocked(url common.ResourceURL, pending *[]common.ResourceURL) bool {
	bpn := url.BucketPathName()
	r, ok := c.known[bpn]
	if !ok {
		return false
	}
	delete(c.known, bpn)
	for _, child := range r.Children {
		if child.Name == "" {
			continue
		}
		*pending = append(*pending, r.URL.PushDir(child.Name))
	}
	return true
}
