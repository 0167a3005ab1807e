// Package iom implements the pluggable persistent-store backend registry
// from §4.6: IOMs are addressed by a 32-bit hash of their name, with a
// constructor map (populated before start) feeding a single instance map;
// instances registered before and after Start share that map and are not
// told apart.
package iom

import (
	"sync"

	"github.com/sandialabs/faodel-sub005/internal/common"
	"github.com/sandialabs/faodel-sub005/internal/dataobject"
	"github.com/sandialabs/faodel-sub005/internal/ferr"
	"github.com/sandialabs/faodel-sub005/internal/localkv"
)

// Hash computes the iom_hash_t for name, reusing the same djb2 hash that
// backs common.Bucket so the registry's two maps share one hash family.
func Hash(name string) uint32 { return uint32(common.NewBucket(name)) }

// IOM is a persistent backend for (bucket,key,DO) triples.
type IOM interface {
	Name() string
	Get(bucket common.Bucket, key localkv.Key) (dataobject.DO, error)
	Put(bucket common.Bucket, key localkv.Key, do dataobject.DO) error
	List(bucket common.Bucket, primaryPrefix, colPattern string) ([]localkv.ListEntry, error)
	Drop(bucket common.Bucket, key localkv.Key) error
}

// Settings is the remaining key=value option set passed to a Constructor
// after "iom" and "iom_type" are consumed.
type Settings map[string]string

// Constructor builds an IOM instance named name from settings.
type Constructor func(name string, settings Settings) (IOM, error)

// ValidSettingsFunc reports whether settings are acceptable for a type,
// without constructing an instance.
type ValidSettingsFunc func(settings Settings) error

type ctorEntry struct {
	ctor  Constructor
	valid ValidSettingsFunc
}

// Registry holds the constructor map and the instance map described in
// §4.6. Registrations made after Start requires the registry mutex; this
// implementation takes the same lock either way, since Go has no reason
// to special-case the pre-start, single-goroutine window the original
// exploited for lock-free boot-time registration.
type Registry struct {
	mu        sync.RWMutex
	ctors     map[uint32]ctorEntry
	instances map[uint32]IOM
	started   bool
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		ctors:     make(map[uint32]ctorEntry),
		instances: make(map[uint32]IOM),
	}
}

// RegisterType adds a constructor for iomType, callable by
// RegisterIOMFromURL and RegisterNamed. Must be called before Start.
func (r *Registry) RegisterType(iomType string, ctor Constructor, valid ValidSettingsFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return ferr.New(ferr.InvalidArg, "iom", "cannot register a type after Start")
	}
	r.ctors[Hash(iomType)] = ctorEntry{ctor: ctor, valid: valid}
	return nil
}

// Start freezes the constructor map: RegisterType fails from this point
// on. Instance registrations are accepted before and after Start alike,
// under the same lock and into the same map; the registry does not record
// which side of Start an instance was registered on.
func (r *Registry) Start() {
	r.mu.Lock()
	r.started = true
	r.mu.Unlock()
}

// RegisterNamed constructs and registers an IOM instance under name, using
// the constructor registered for iomType.
func (r *Registry) RegisterNamed(name, iomType string, settings Settings) (IOM, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.ctors[Hash(iomType)]
	if !ok {
		return nil, ferr.New(ferr.Unconfigured, "iom", "no constructor registered for type "+iomType)
	}
	if entry.valid != nil {
		if err := entry.valid(settings); err != nil {
			return nil, ferr.Wrap(ferr.InvalidArg, "iom", err)
		}
	}
	inst, err := entry.ctor(name, settings)
	if err != nil {
		return nil, ferr.Wrap(ferr.Fatal, "iom", err)
	}
	r.instances[Hash(name)] = inst
	return inst, nil
}

// RegisterIOMFromURL interprets url's "iom" option as the instance name and
// "iom_type" as the constructor type, passing the remaining options as
// settings.
func (r *Registry) RegisterIOMFromURL(url common.ResourceURL) (IOM, error) {
	name, ok := url.GetOption("iom")
	if !ok || name == "" {
		return nil, ferr.New(ferr.InvalidArg, "iom", "url carries no 'iom' option")
	}
	iomType, ok := url.GetOption("iom_type")
	if !ok || iomType == "" {
		return nil, ferr.New(ferr.InvalidArg, "iom", "url carries no 'iom_type' option")
	}
	settings := make(Settings)
	for _, kv := range url.Options {
		if kv.Key == "iom" || kv.Key == "iom_type" {
			continue
		}
		settings[kv.Key] = kv.Value
	}
	return r.RegisterNamed(name, iomType, settings)
}

// Lookup finds a previously registered instance by name.
func (r *Registry) Lookup(name string) (IOM, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.instances[Hash(name)]
	return inst, ok
}
