// Package dataobject implements the DataObject (DO), the RDMA-registrable
// triple-segment buffer from §4.8 (meta + data + unused user capacity),
// reference counted and carrying at most one outstanding transport
// registration for its whole lifetime (§3's DO invariants), grounded on
// rclone's io.ReaderAt/Closer buffer wrappers for the "thin handle over a
// shared core" shape.
package dataobject

import (
	"sync"
	"sync/atomic"

	"github.com/sandialabs/faodel-sub005/internal/ferr"
)

// Allocator is a hint for when the underlying memory is registered with
// the transport.
type Allocator int

const (
	// Eager pre-registers memory with the transport at allocation time,
	// for buffers that will be an RDMA target.
	Eager Allocator = iota
	// Lazy defers registration until first use.
	Lazy
)

// Handle is an opaque transport registration handle, kept lifetime-tied to
// the DO that owns it.
type Handle uint64

// Registrar is the subset of transport.Transport a DataObject needs to
// eagerly or lazily register its buffer; kept as its own small interface so
// this package does not need to import transport.
type Registrar interface {
	RegisterMemory(buf []byte) (Handle, error)
	UnregisterMemory(h Handle) error
}

// Dumper renders a DO's contents for introspection, registered per type_id.
type Dumper func(do DO) string

var (
	dumperMu sync.RWMutex
	dumpers  = map[uint16]Dumper{}
)

// RegisterDumper installs a Dumper for typeID, overwriting any previous one.
func RegisterDumper(typeID uint16, d Dumper) {
	dumperMu.Lock()
	dumpers[typeID] = d
	dumperMu.Unlock()
}

type core struct {
	refcount   int32
	capacity   int
	metaSize   int
	dataSize   int
	typeID     uint16
	buf        []byte
	allocator  Allocator
	registrar  Registrar
	regMu      sync.Mutex
	handle     Handle
	registered bool
}

// DO is a cheap-to-copy handle sharing one atomic-refcounted core (§9's
// guidance to replace the hand-rolled refcount with an atomic-ref
// container while still exposing a raw buffer for transport registration).
type DO struct {
	c *core
}

// New constructs a DO of the given capacity, with metaSize+dataSize bytes
// already claimed for the meta and data segments. capacity=0 is a valid
// boundary case: it yields a non-null DO with an empty buffer (§8).
func New(capacity, metaSize, dataSize int, allocator Allocator, typeID uint16, registrar Registrar) (DO, error) {
	if capacity < 0 || metaSize < 0 || dataSize < 0 {
		return DO{}, ferr.New(ferr.InvalidArg, "dataobject", "negative size")
	}
	if metaSize+dataSize > capacity {
		return DO{}, ferr.New(ferr.InvalidArg, "dataobject", "meta_size+data_size exceeds capacity")
	}
	c := &core{
		refcount:  1,
		capacity:  capacity,
		metaSize:  metaSize,
		dataSize:  dataSize,
		typeID:    typeID,
		buf:       make([]byte, capacity),
		allocator: allocator,
		registrar: registrar,
	}
	do := DO{c: c}
	if allocator == Eager && registrar != nil && capacity > 0 {
		if err := do.ensureRegistered(); err != nil {
			return DO{}, err
		}
	}
	return do, nil
}

// IsNull reports whether this handle carries no core at all (a zero-value
// DO, as opposed to a valid DO of capacity 0).
func (d DO) IsNull() bool { return d.c == nil }

// Copy returns a new handle sharing the same core, incrementing the
// refcount atomically.
func (d DO) Copy() DO {
	if d.c == nil {
		return DO{}
	}
	atomic.AddInt32(&d.c.refcount, 1)
	return DO{c: d.c}
}

// Drop releases this handle's reference; when the count reaches zero the
// buffer is unregistered (if registered) and released to the garbage
// collector.
func (d DO) Drop() {
	if d.c == nil {
		return
	}
	if atomic.AddInt32(&d.c.refcount, -1) == 0 {
		d.c.regMu.Lock()
		if d.c.registered && d.c.registrar != nil {
			_ = d.c.registrar.UnregisterMemory(d.c.handle)
			d.c.registered = false
		}
		d.c.buf = nil
		d.c.regMu.Unlock()
	}
}

// RefCount returns the current reference count (internal::get_ref_count).
func (d DO) RefCount() int32 {
	if d.c == nil {
		return 0
	}
	return atomic.LoadInt32(&d.c.refcount)
}

// MetaPtr returns the meta segment.
func (d DO) MetaPtr() []byte { return d.c.buf[:d.c.metaSize] }

// DataPtr returns the data segment.
func (d DO) DataPtr() []byte { return d.c.buf[d.c.metaSize : d.c.metaSize+d.c.dataSize] }

// MetaSize returns the current meta segment length.
func (d DO) MetaSize() int { return d.c.metaSize }

// DataSize returns the current data segment length.
func (d DO) DataSize() int { return d.c.dataSize }

// UserCapacity returns the total allocation size.
func (d DO) UserCapacity() int { return d.c.capacity }

// TypeID returns the DO's type tag.
func (d DO) TypeID() uint16 { return d.c.typeID }

// ModifyUserSizes resizes the meta/data segments within the existing
// capacity.
func (d DO) ModifyUserSizes(newMeta, newData int) error {
	if newMeta < 0 || newData < 0 || newMeta+newData > d.c.capacity {
		return ferr.New(ferr.InvalidArg, "dataobject", "modify_user_sizes exceeds capacity")
	}
	d.c.metaSize = newMeta
	d.c.dataSize = newData
	return nil
}

// ensureRegistered registers the buffer with the transport if it has not
// been already; idempotent and safe to call from Get/Put paths that need
// the handle lazily.
func (d DO) ensureRegistered() error {
	d.c.regMu.Lock()
	defer d.c.regMu.Unlock()
	if d.c.registered || d.c.registrar == nil {
		return nil
	}
	h, err := d.c.registrar.RegisterMemory(d.c.buf)
	if err != nil {
		return ferr.Wrap(ferr.Transport, "dataobject", err)
	}
	d.c.handle = h
	d.c.registered = true
	return nil
}

// RegistrationHandle lazily registers (for Lazy allocator DOs) and returns
// the transport handle backing this DO's buffer.
func (d DO) RegistrationHandle() (Handle, error) {
	if err := d.ensureRegistered(); err != nil {
		return 0, err
	}
	return d.c.handle, nil
}

// Dump renders this DO via its type's registered Dumper, if any.
func (d DO) Dump() (string, bool) {
	dumperMu.RLock()
	fn, ok := dumpers[d.c.typeID]
	dumperMu.RUnlock()
	if !ok {
		return "", false
	}
	return fn(d), true
}
