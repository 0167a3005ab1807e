package dirman

import (
	"context"

	"github.com/sandialabs/faodel-sub005/internal/common"
	"github.com/sandialabs/faodel-sub005/internal/ferr"
	"github.com/sandialabs/faodel-sub005/internal/logging"
	"github.com/sandialabs/faodel-sub005/internal/retry"
)

// Client is the per-node view of DirMan: a local read-through Cache and
// OwnerCache sitting in front of a RootCaller (§4.4). A co-located root
// wires itself in directly; any other node wires in a transport-backed
// RootCaller supplied by the ops package.
type Client struct {
	*logging.Interface
	cache    *Cache
	owners   *OwnerCache
	root     RootCaller
	rootNode common.NodeID
	pacer    *retry.Pacer
}

// NewClient builds a Client that reaches the root through caller, reporting
// rootNode as the authoritative owner of everything it resolves. Extra
// retry.Options (e.g. retry.RateLimit, to cap how hard a busy client
// hammers a remote root) are applied to the underlying Pacer.
func NewClient(fullName string, rootNode common.NodeID, caller RootCaller, opts ...retry.Option) *Client {
	return &Client{
		Interface: logging.New(fullName),
		cache:     NewCache(fullName + ".cache"),
		owners:    NewOwnerCache(fullName + ".owners"),
		root:      caller,
		rootNode:  rootNode,
		pacer:     retry.New(opts...),
	}
}

// HostNewDir registers di with the root, retrying on transient transport
// errors, and caches the result locally on success.
func (c *Client) HostNewDir(ctx context.Context, di common.DirectoryInfo) error {
	err := c.pacer.Call(ctx, func() (bool, error) {
		e := c.root.HostNewDir(ctx, di)
		return ferr.IsTransient(e), e
	})
	if err != nil {
		return err
	}
	c.cache.Update(di)
	c.owners.Register(withNode(di.URL, c.rootNode))
	return nil
}

// JoinDirWithName joins parent under the given name.
func (c *Client) JoinDirWithName(ctx context.Context, parent common.ResourceURL, name string) (common.DirectoryInfo, error) {
	var di common.DirectoryInfo
	err := c.pacer.Call(ctx, func() (bool, error) {
		var e error
		di, e = c.root.JoinDirWithName(ctx, parent, name)
		return ferr.IsTransient(e), e
	})
	if err != nil {
		return common.DirectoryInfo{}, err
	}
	c.cache.Update(di)
	c.owners.Register(withNode(di.URL, c.rootNode))
	return di, nil
}

// JoinDirWithoutName joins parent under an auto-assigned name.
func (c *Client) JoinDirWithoutName(ctx context.Context, parent common.ResourceURL) (common.DirectoryInfo, error) {
	var di common.DirectoryInfo
	err := c.pacer.Call(ctx, func() (bool, error) {
		var e error
		di, e = c.root.JoinDirWithoutName(ctx, parent)
		return ferr.IsTransient(e), e
	})
	if err != nil {
		return common.DirectoryInfo{}, err
	}
	c.cache.Update(di)
	c.owners.Register(withNode(di.URL, c.rootNode))
	return di, nil
}

// LeaveDir removes child from its parent's member list.
func (c *Client) LeaveDir(ctx context.Context, child common.ResourceURL) (common.DirectoryInfo, error) {
	var di common.DirectoryInfo
	err := c.pacer.Call(ctx, func() (bool, error) {
		var e error
		di, e = c.root.LeaveDir(ctx, child)
		return ferr.IsTransient(e), e
	})
	if err != nil {
		return common.DirectoryInfo{}, err
	}
	parent := child.GetParent()
	c.cache.Update(di)
	c.owners.Register(withNode(parent, c.rootNode))
	return di, nil
}

// Locate resolves url's owning node, consulting the OwnerCache before
// falling back to an RPC.
func (c *Client) Locate(ctx context.Context, url common.ResourceURL) (common.NodeID, error) {
	if n, found := c.owners.Lookup(url); found {
		return n, nil
	}
	var n common.NodeID
	err := c.pacer.Call(ctx, func() (bool, error) {
		var e error
		n, e = c.root.Locate(ctx, url)
		return ferr.IsTransient(e), e
	})
	if err != nil {
		return common.NodeID(0), err
	}
	c.owners.Register(withNode(url, n))
	return n, nil
}

// GetDirectoryInfo is a read-through lookup: local cache first, then an RPC
// to the root, optionally caching the reply and/or requesting creation.
func (c *Client) GetDirectoryInfo(ctx context.Context, url common.ResourceURL, cacheIfFound, allowCreate bool) (common.DirectoryInfo, error) {
	if di, found := c.cache.Lookup(url); found {
		return di, nil
	}
	var di common.DirectoryInfo
	err := c.pacer.Call(ctx, func() (bool, error) {
		var e error
		di, e = c.root.GetDirectoryInfo(ctx, url, cacheIfFound, allowCreate)
		return ferr.IsTransient(e), e
	})
	if err != nil {
		return common.DirectoryInfo{}, err
	}
	if cacheIfFound {
		c.cache.Update(di)
		c.owners.Register(withNode(di.URL, c.rootNode))
	}
	return di, nil
}

func withNode(url common.ResourceURL, n common.NodeID) common.ResourceURL {
	url.ReferenceNode = n
	return url
}
