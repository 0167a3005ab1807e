// Package localkv implements the per-node row/column key-value store from
// §4.7: rows keyed by a (bucket, Key) pair, holding an ordered set of
// columns, each tracking availability state and a wait-list of
// continuations. Grounded on rclone's lib/kv (a small bbolt-backed KV
// wrapper) for the shape of a named, bucketed store, with the waiter/
// availability state machine itself grounded on the original's
// LocalKV-over-LunasaDataObject design described in
// original_source/src/kelpie.
package localkv

import (
	"fmt"
	"sync"

	"github.com/sandialabs/faodel-sub005/internal/common"
	"github.com/sandialabs/faodel-sub005/internal/dataobject"
	"github.com/sandialabs/faodel-sub005/internal/ferr"
	"github.com/sandialabs/faodel-sub005/internal/logging"
	"golang.org/x/sync/singleflight"
)

// MaxKeyPartBytes bounds Key.Primary and Key.Secondary (Open Question
// resolved in §3/§9: mirrors the 16-bit length-prefixed fields used
// throughout the original's wire serializers).
const MaxKeyPartBytes = 1<<16 - 1

// Key identifies a row (Primary) and, via Secondary, a column within it.
// Secondary may be empty, denoting the row's default column.
type Key struct {
	Primary   string
	Secondary string
}

// ValidateKey enforces MaxKeyPartBytes on both parts of key.
func ValidateKey(key Key) error {
	if len(key.Primary) > MaxKeyPartBytes || len(key.Secondary) > MaxKeyPartBytes {
		return ferr.New(ferr.InvalidArg, "localkv", "key part exceeds MaxKeyPartBytes")
	}
	return nil
}

// Availability is a column's lifecycle state.
type Availability int

const (
	Unavailable Availability = iota
	Requested
	InLocalMemory
	InRemoteMemory
	InNVM
	InDisk
)

// ObjectInfo answers info/row_info queries (§4.7).
type ObjectInfo struct {
	RowUserBytes    int
	RowNumColumns   int
	ColUserBytes    int
	ColDependencies int32
	Availability    Availability
}

// ListEntry is one match returned by List: a fully-qualified key and its
// column's claimed capacity.
type ListEntry struct {
	Key      Key
	Capacity int
}

// Continuation is invoked by GetAwaitable once a column reaches
// InLocalMemory, or with a non-nil err if the row/column was dropped while
// still pending.
type Continuation func(do dataobject.DO, err error)

type column struct {
	availability Availability
	do           dataobject.DO
	dependencies int32
	userBytes    int
	waiters      []Continuation
}

type row struct {
	mu        sync.RWMutex
	colNames  []string
	cols      map[string]*column
	userBytes int
}

func newRow() *row {
	return &row{cols: make(map[string]*column)}
}

// LocalKV is the per-process, per-bucket row/column store.
type LocalKV struct {
	*logging.Interface
	mu      sync.RWMutex
	buckets map[common.Bucket]map[string]*row
	fetches singleflight.Group
}

// New constructs an empty LocalKV.
func New(fullName string) *LocalKV {
	return &LocalKV{
		Interface: logging.New(fullName),
		buckets:   make(map[common.Bucket]map[string]*row),
	}
}

func (kv *LocalKV) rowFor(bucket common.Bucket, primary string, create bool) *row {
	kv.mu.RLock()
	rows, ok := kv.buckets[bucket]
	if ok {
		r, ok := rows[primary]
		kv.mu.RUnlock()
		if ok {
			return r
		}
		if !create {
			return nil
		}
	} else {
		kv.mu.RUnlock()
		if !create {
			return nil
		}
	}
	kv.mu.Lock()
	defer kv.mu.Unlock()
	rows = kv.buckets[bucket]
	if rows == nil {
		rows = make(map[string]*row)
		kv.buckets[bucket] = rows
	}
	r, ok := rows[primary]
	if !ok {
		r = newRow()
		rows[primary] = r
	}
	return r
}

// Put stores do under (bucket,key). Rejects an existing column with
// AlreadyExists unless enableOverwrites is set (the EnableOverwrites
// behavior flag, applied by the caller from its Pool's flag set). K2:
// waiters are drained atomically with the transition to InLocalMemory,
// under the row's exclusive lock.
func (kv *LocalKV) Put(bucket common.Bucket, key Key, do dataobject.DO, enableOverwrites bool) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	r := kv.rowFor(bucket, key.Primary, true)
	r.mu.Lock()
	defer r.mu.Unlock()

	col, ok := r.cols[key.Secondary]
	if !ok {
		col = &column{}
		r.cols[key.Secondary] = col
		r.colNames = append(r.colNames, key.Secondary)
	} else if col.availability == InLocalMemory && !enableOverwrites {
		return ferr.New(ferr.AlreadyExists, "localkv", "key already present: "+key.Primary)
	}

	col.do = do
	col.userBytes = do.UserCapacity()
	col.availability = InLocalMemory
	r.userBytes += col.userBytes

	waiters := col.waiters
	col.waiters = nil
	for _, w := range waiters {
		w(do.Copy(), nil)
	}
	return nil
}

// Get is the synchronous lookup: it never blocks. A caller that receives
// (zero DO, Requested, nil) must use GetAwaitable to be woken on arrival.
func (kv *LocalKV) Get(bucket common.Bucket, key Key) (dataobject.DO, Availability, error) {
	r := kv.rowFor(bucket, key.Primary, false)
	if r == nil {
		return dataobject.DO{}, Unavailable, ferr.New(ferr.NotFound, "localkv", "no such row: "+key.Primary)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	col, ok := r.cols[key.Secondary]
	if !ok {
		return dataobject.DO{}, Unavailable, ferr.New(ferr.NotFound, "localkv", "no such column: "+key.Secondary)
	}
	if col.availability == InLocalMemory {
		return col.do.Copy(), InLocalMemory, nil
	}
	return dataobject.DO{}, col.availability, nil
}

// GetAwaitable registers cont to be called once (bucket,key) reaches
// InLocalMemory. If it is already there, cont fires synchronously. If the
// column is absent or pending, cont is appended to the waiter list; the
// first caller to observe a genuinely Unavailable column also triggers
// fetch exactly once, deduplicated via singleflight across concurrent
// GetAwaitable calls for the same key (§4.7 [NEW]).
func (kv *LocalKV) GetAwaitable(bucket common.Bucket, key Key, fetch func(), cont Continuation) {
	r := kv.rowFor(bucket, key.Primary, true)
	r.mu.Lock()
	col, ok := r.cols[key.Secondary]
	if !ok {
		col = &column{availability: Unavailable}
		r.cols[key.Secondary] = col
		r.colNames = append(r.colNames, key.Secondary)
	}
	if col.availability == InLocalMemory {
		do := col.do.Copy()
		r.mu.Unlock()
		cont(do, nil)
		return
	}
	needsFetch := col.availability == Unavailable
	col.availability = Requested
	col.waiters = append(col.waiters, cont)
	r.mu.Unlock()

	if needsFetch && fetch != nil {
		dedupKey := dedupKeyFor(bucket, key)
		go func() {
			_, _, _ = kv.fetches.Do(dedupKey, func() (interface{}, error) {
				fetch()
				return nil, nil
			})
		}()
	}
}

func dedupKeyFor(bucket common.Bucket, key Key) string {
	return fmt.Sprintf("0x%08x/%s/%s", uint32(bucket), key.Primary, key.Secondary)
}

// Drop releases a column's DO reference and wakes any pending waiters with
// NotFound. K3: this takes the row's exclusive lock, so it can never run
// concurrently with a waiter-list walk (which holds at least a shared
// lock via Get/GetAwaitable).
func (kv *LocalKV) Drop(bucket common.Bucket, key Key) error {
	r := kv.rowFor(bucket, key.Primary, false)
	if r == nil {
		return ferr.New(ferr.NotFound, "localkv", "no such row: "+key.Primary)
	}
	r.mu.Lock()
	col, ok := r.cols[key.Secondary]
	if !ok {
		r.mu.Unlock()
		return ferr.New(ferr.NotFound, "localkv", "no such column: "+key.Secondary)
	}
	hadDO := col.availability == InLocalMemory
	r.userBytes -= col.userBytes
	delete(r.cols, key.Secondary)
	for i, n := range r.colNames {
		if n == key.Secondary {
			r.colNames = append(r.colNames[:i], r.colNames[i+1:]...)
			break
		}
	}
	waiters := col.waiters
	empty := len(r.cols) == 0
	r.mu.Unlock()

	if hadDO {
		col.do.Drop()
	}
	for _, w := range waiters {
		w(dataobject.DO{}, ferr.New(ferr.NotFound, "localkv", "dropped while pending: "+key.Primary))
	}
	if empty {
		kv.mu.Lock()
		if rows := kv.buckets[bucket]; rows != nil {
			if cur, ok := rows[key.Primary]; ok && cur == r {
				delete(rows, key.Primary)
			}
		}
		kv.mu.Unlock()
	}
	return nil
}

// Buckets returns every bucket with at least one row, for introspection
// (the whookie KV table walks this to build its per-bucket sections).
func (kv *LocalKV) Buckets() []common.Bucket {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	out := make([]common.Bucket, 0, len(kv.buckets))
	for b := range kv.buckets {
		out = append(out, b)
	}
	return out
}

// Info answers a single column's object_info_t.
func (kv *LocalKV) Info(bucket common.Bucket, key Key) (ObjectInfo, error) {
	r := kv.rowFor(bucket, key.Primary, false)
	if r == nil {
		return ObjectInfo{}, ferr.New(ferr.NotFound, "localkv", "no such row: "+key.Primary)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	col, ok := r.cols[key.Secondary]
	if !ok {
		return ObjectInfo{}, ferr.New(ferr.NotFound, "localkv", "no such column: "+key.Secondary)
	}
	return ObjectInfo{
		RowUserBytes:    r.userBytes,
		RowNumColumns:   len(r.cols),
		ColUserBytes:    col.userBytes,
		ColDependencies: col.dependencies,
		Availability:    col.availability,
	}, nil
}

// RowInfo answers a row-level summary (no specific column).
func (kv *LocalKV) RowInfo(bucket common.Bucket, primary string) (ObjectInfo, error) {
	r := kv.rowFor(bucket, primary, false)
	if r == nil {
		return ObjectInfo{}, ferr.New(ferr.NotFound, "localkv", "no such row: "+primary)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return ObjectInfo{RowUserBytes: r.userBytes, RowNumColumns: len(r.cols)}, nil
}

// List matches primary keys by literal prefix and column names against
// colPattern, where "*" matches any column name.
func (kv *LocalKV) List(bucket common.Bucket, primaryPrefix, colPattern string) []ListEntry {
	kv.mu.RLock()
	rows := kv.buckets[bucket]
	primaries := make([]string, 0, len(rows))
	rowPtrs := make([]*row, 0, len(rows))
	for p, r := range rows {
		if len(p) >= len(primaryPrefix) && p[:len(primaryPrefix)] == primaryPrefix {
			primaries = append(primaries, p)
			rowPtrs = append(rowPtrs, r)
		}
	}
	kv.mu.RUnlock()

	var out []ListEntry
	for i, p := range primaries {
		r := rowPtrs[i]
		r.mu.RLock()
		for _, name := range r.colNames {
			if colPattern != "*" && name != colPattern {
				continue
			}
			col := r.cols[name]
			out = append(out, ListEntry{Key: Key{Primary: p, Secondary: name}, Capacity: col.userBytes})
		}
		r.mu.RUnlock()
	}
	return out
}
