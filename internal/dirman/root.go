package dirman

import (
	"context"

	"github.com/sandialabs/faodel-sub005/internal/common"
	"github.com/sandialabs/faodel-sub005/internal/ferr"
)

// RootCaller is the RPC surface a DirMan client uses to reach the
// authoritative root (§4.4). RootServer implements it directly for a
// co-located root; a remote implementation is provided by the ops package,
// which drives the actual request over the transport.
type RootCaller interface {
	HostNewDir(ctx context.Context, di common.DirectoryInfo) error
	JoinDirWithName(ctx context.Context, parent common.ResourceURL, name string) (common.DirectoryInfo, error)
	JoinDirWithoutName(ctx context.Context, parent common.ResourceURL) (common.DirectoryInfo, error)
	LeaveDir(ctx context.Context, child common.ResourceURL) (common.DirectoryInfo, error)
	Locate(ctx context.Context, url common.ResourceURL) (common.NodeID, error)
	GetDirectoryInfo(ctx context.Context, url common.ResourceURL, cacheIfFound, allowCreate bool) (common.DirectoryInfo, error)
}

// RootServer is the centralized DirMan variant: a single node hosting the
// authoritative DirectoryCache (§4.4, "Root death is fatal for this
// variant" — a documented non-goal, so RootServer does not attempt any
// failover).
type RootServer struct {
	cache    *Cache
	selfNode common.NodeID
}

// NewRootServer constructs a root bound to selfNode's identity.
func NewRootServer(selfNode common.NodeID) *RootServer {
	return &RootServer{cache: NewCache("dirman.root"), selfNode: selfNode}
}

// HostNewDir inserts di at the root. Idempotent on an exact match; fails
// with AlreadyExists on conflict.
func (r *RootServer) HostNewDir(_ context.Context, di common.DirectoryInfo) error {
	if r.cache.Create(di) {
		return nil
	}
	existing, found := r.cache.Lookup(di.URL)
	if found && sameMembership(existing, di) {
		return nil
	}
	return ferr.New(ferr.AlreadyExists, "dirman.root", "HostNewDir: "+di.URL.GetFullURL()+" already exists with different contents")
}

func sameMembership(a, b common.DirectoryInfo) bool {
	if len(a.Children) != len(b.Children) || a.Info != b.Info {
		return false
	}
	for i := range a.Children {
		if a.Children[i] != b.Children[i] {
			return false
		}
	}
	return true
}

// JoinDirWithName inserts (name, parent.ReferenceNode) into parent's
// member list if the name is free.
func (r *RootServer) JoinDirWithName(_ context.Context, parent common.ResourceURL, name string) (common.DirectoryInfo, error) {
	child := parent.PushDir(name)
	child.ReferenceNode = parent.ReferenceNode
	di, ok := r.cache.Join(child)
	if !ok {
		return common.DirectoryInfo{}, ferr.New(ferr.AlreadyExists, "dirman.root", "JoinDirWithName: "+name+" already exists in "+parent.GetFullURL())
	}
	return di, nil
}

// JoinDirWithoutName assigns a unique auto-name among existing members.
func (r *RootServer) JoinDirWithoutName(_ context.Context, parent common.ResourceURL) (common.DirectoryInfo, error) {
	child := parent
	child.SetOption("ag", "1")
	di, ok := r.cache.Join(child)
	if !ok {
		return common.DirectoryInfo{}, ferr.New(ferr.NotFound, "dirman.root", "JoinDirWithoutName: parent not found "+parent.GetFullURL())
	}
	return di, nil
}

// LeaveDir removes a member, returning the updated directory.
func (r *RootServer) LeaveDir(_ context.Context, child common.ResourceURL) (common.DirectoryInfo, error) {
	di, ok := r.cache.Leave(child)
	if !ok {
		return common.DirectoryInfo{}, ferr.New(ferr.NotFound, "dirman.root", "LeaveDir: not found "+child.GetFullURL())
	}
	return di, nil
}

// Locate always resolves to the root node: the centralized variant hosts
// every directory at the single authoritative root.
func (r *RootServer) Locate(_ context.Context, _ common.ResourceURL) (common.NodeID, error) {
	return r.selfNode, nil
}

// GetDirectoryInfo is a read-through lookup against the root's own cache,
// optionally creating an empty entry when allowCreate is set and nothing
// was found.
func (r *RootServer) GetDirectoryInfo(_ context.Context, url common.ResourceURL, _ bool, allowCreate bool) (common.DirectoryInfo, error) {
	di, found := r.cache.Lookup(url)
	if found {
		return di, nil
	}
	if !allowCreate {
		return common.DirectoryInfo{}, ferr.New(ferr.NotFound, "dirman.root", "GetDirectoryInfo: not found "+url.GetFullURL())
	}
	nd := common.NewDirectoryInfo(url)
	if !r.cache.CreateAndLinkParents(nd) {
		return common.DirectoryInfo{}, ferr.New(ferr.InvalidArg, "dirman.root", "GetDirectoryInfo: could not create "+url.GetFullURL())
	}
	return nd, nil
}

// Cache exposes the root's authoritative cache for introspection.
func (r *RootServer) Cache() *Cache { return r.cache }
