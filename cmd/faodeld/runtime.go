package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sandialabs/faodel-sub005/internal/common"
	"github.com/sandialabs/faodel-sub005/internal/config"
	"github.com/sandialabs/faodel-sub005/internal/dirman"
	"github.com/sandialabs/faodel-sub005/internal/iom"
	"github.com/sandialabs/faodel-sub005/internal/localkv"
	"github.com/sandialabs/faodel-sub005/internal/logging"
	"github.com/sandialabs/faodel-sub005/internal/ops"
	"github.com/sandialabs/faodel-sub005/internal/pool"
	"github.com/sandialabs/faodel-sub005/internal/retry"
	"github.com/sandialabs/faodel-sub005/internal/transport"
	"github.com/sandialabs/faodel-sub005/internal/whookie"
)

// Runtime bundles the components one faodeld process owns, threaded
// through as an explicit value rather than reached for as package-level
// globals (§9's redesign away from the original's process-wide
// singletons).
type Runtime struct {
	*logging.Interface

	Config *config.Configuration
	Self   common.NodeID

	Transport  transport.Transport
	Router     *ops.Router
	KV         *localkv.LocalKV
	DirCache   *dirman.Cache
	IOMs       *iom.Registry
	Pools      *pool.Registry
	Dispatcher *ops.Dispatcher

	// Root is non-nil only when this node hosts the centralized DirMan
	// root (node_role == "root").
	Root *dirman.RootServer
	// DirClient is non-nil on every node and is how callers resolve
	// directories, whether the root is local or reached over transport.
	DirClient *dirman.Client

	whookie *whookie.Server
}

// NewRuntime wires every component per cfg, matching the object graph
// cmd/faodeld assembles at startup.
func NewRuntime(cfg *config.Configuration) (*Runtime, error) {
	nodeStr, _ := cfg.GetString("node.listen", "127.0.0.1:9999")
	self, err := common.NewNodeIDFromString(nodeStr)
	if err != nil {
		return nil, fmt.Errorf("parsing node.listen %q: %w", nodeStr, err)
	}
	common.SetLocalhost(self)

	r := &Runtime{
		Interface: logging.New("faodeld"),
		Config:    cfg,
		Self:      self,
		Transport: transport.NewLoopbackTransport(self),
		KV:        localkv.New("kelpie.localkv"),
		DirCache:  dirman.NewCache("dirman.client"),
		IOMs:      iom.NewRegistry(),
		Pools:     pool.NewRegistry(),
	}
	r.Router = ops.NewRouter(r.Transport)

	// Every node can be asked to serve a kv op for whatever bucket a
	// remote DhtPool member maps to it, regardless of this node's own
	// role, so the KV side is always registered.
	ops.RegisterKVRPCServer(r.Router, r.KV)

	workers, _ := cfg.GetInt("dispatcher.workers", 4)
	queueDepth, _ := cfg.GetInt("dispatcher.queue_depth", 64)
	r.Dispatcher = ops.NewDispatcher(int(workers), int(queueDepth))

	rootNodeStr, hasRoot := cfg.GetString("dirman.root_node")
	switch cfg.GetRole() {
	case "root":
		r.Root = dirman.NewRootServer(self)
		ops.RegisterDirmanRPCServer(r.Router, r.Root)
		r.DirClient = dirman.NewClient("dirman.client", self, r.Root)
	default:
		if !hasRoot {
			return nil, fmt.Errorf("node_role %q requires dirman.root_node to be set", cfg.GetRole())
		}
		rootNode, err := common.NewNodeIDFromString(rootNodeStr)
		if err != nil {
			return nil, fmt.Errorf("parsing dirman.root_node %q: %w", rootNodeStr, err)
		}
		caller := ops.NewRemoteRootCaller(r.Router, rootNode)
		var clientOpts []retry.Option
		if rps, ok := cfg.GetInt("dirman.client.max_requests_per_sec"); ok {
			clientOpts = append(clientOpts, retry.RateLimit(float64(rps), int(rps)))
		}
		r.DirClient = dirman.NewClient("dirman.client", rootNode, caller, clientOpts...)
	}

	go func() { _ = r.Router.Serve(context.Background()) }()

	if err := r.registerIOMs(cfg); err != nil {
		return nil, err
	}
	if err := r.registerPools(cfg); err != nil {
		return nil, err
	}

	r.whookie = whookie.New(r.DirCache, r.KV)

	return r, nil
}

// registerIOMs installs the shipped IOM backend constructors and then
// brings up whatever named instances "ioms.names" configures (§4.6),
// using GetComponentSettings to read each instance's own settings block.
func (r *Runtime) registerIOMs(cfg *config.Configuration) error {
	if err := r.IOMs.RegisterType("bolt", iom.NewBoltIOM, iom.ValidBoltSettings); err != nil {
		return fmt.Errorf("registering iom type bolt: %w", err)
	}
	if err := r.IOMs.RegisterType("discard", iom.NewDiscardIOM, nil); err != nil {
		return fmt.Errorf("registering iom type discard: %w", err)
	}

	for _, name := range cfg.GetStringVector("ioms.names") {
		settings := cfg.GetComponentSettings("iom." + name)
		iomType := settings["type"]
		delete(settings, "type")
		if iomType == "" {
			return fmt.Errorf("iom %q: missing iom.%s.type", name, name)
		}
		if _, err := r.IOMs.RegisterNamed(name, iomType, iom.Settings(settings)); err != nil {
			return fmt.Errorf("registering iom %q: %w", name, err)
		}
	}
	r.IOMs.Start()
	return nil
}

// registerPools builds and connects one Pool per "pools.names" entry
// (§4.5): a "local" pool reads/writes this node's own LocalKV directly, a
// "dht" pool routes by key across pool.<name>.members, resolving the
// member that maps to this process to a local cache and every other
// member to an ops.RemoteKVProxy driven over the shared Router.
func (r *Runtime) registerPools(cfg *config.Configuration) error {
	for _, name := range cfg.GetStringVector("pools.names") {
		settings := cfg.GetComponentSettings("pool." + name)

		url, err := common.ParseResourceURL(settings["url"])
		if err != nil {
			return fmt.Errorf("pool %q: parsing pool.%s.url: %w", name, name, err)
		}
		bucketName := settings["bucket"]
		if bucketName == "" {
			bucketName = "default"
		}
		bucket := common.NewBucket(bucketName)
		flags, err := pool.ParseFlags(settings["flags"])
		if err != nil {
			return fmt.Errorf("pool %q: parsing pool.%s.flags: %w", name, name, err)
		}

		switch settings["type"] {
		case "dht":
			memberStrs := cfg.GetStringVector("pool." + name + ".members")
			if len(memberStrs) == 0 {
				return fmt.Errorf("pool %q: dht pool requires pool.%s.members[]", name, name)
			}
			members := make([]common.NodeID, len(memberStrs))
			for i, m := range memberStrs {
				members[i], err = common.NewNodeIDFromString(m)
				if err != nil {
					return fmt.Errorf("pool %q: parsing member %q: %w", name, m, err)
				}
			}
			local := pool.NewLocalPool(url, bucket, flags, r.KV)
			resolve := func(n common.NodeID) (pool.Pool, error) {
				if n == r.Self {
					return local, nil
				}
				return ops.NewRemoteKVProxy(url, bucket, flags, r.Router, n), nil
			}
			r.Pools.Register(url, pool.NewDhtPool(url, bucket, members, r.Self, flags, local, resolve))
		default:
			r.Pools.Register(url, pool.NewLocalPool(url, bucket, flags, r.KV))
		}
	}
	return nil
}

// ServeWhookie starts the introspection/metrics HTTP server on addr,
// blocking until it exits.
func (r *Runtime) ServeWhookie(addr string) error {
	r.Info("whookie listening on " + addr)
	return http.ListenAndServe(addr, r.whookie.Router())
}
