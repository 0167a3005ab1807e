package iom

import (
	"encoding/binary"
	"fmt"
	"strings"

	bolt "go.etcd.io/bbolt"

	"github.com/sandialabs/faodel-sub005/internal/common"
	"github.com/sandialabs/faodel-sub005/internal/dataobject"
	"github.com/sandialabs/faodel-sub005/internal/ferr"
	"github.com/sandialabs/faodel-sub005/internal/localkv"
)

// BoltIOM is a persistent IOM backend on top of a single shared
// go.etcd.io/bbolt handle, grounded on rclone's lib/kv: a named facility
// sharing one on-disk database file, with one bbolt bucket per FAODEL
// bucket and a single flat key inside it per (primary,secondary) pair.
type BoltIOM struct {
	name string
	db   *bolt.DB
}

// NewBoltIOM opens (or creates) settings["path"] as the backing bbolt
// file. It matches the iom.Constructor signature.
func NewBoltIOM(name string, settings Settings) (IOM, error) {
	path, ok := settings["path"]
	if !ok || path == "" {
		return nil, ferr.New(ferr.InvalidArg, "iom.bolt", "missing required setting 'path'")
	}
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, ferr.Wrap(ferr.Fatal, "iom.bolt", err)
	}
	return &BoltIOM{name: name, db: db}, nil
}

// ValidBoltSettings is the ValidSettingsFunc for iom_type=bolt.
func ValidBoltSettings(settings Settings) error {
	if settings["path"] == "" {
		return fmt.Errorf("bolt IOM requires a non-empty 'path' setting")
	}
	return nil
}

func (b *BoltIOM) Name() string { return b.name }

func boltBucketName(bucket common.Bucket) []byte {
	return []byte(fmt.Sprintf("0x%08x", uint32(bucket)))
}

func flatKey(key localkv.Key) []byte {
	return []byte(key.Primary + "\x00" + key.Secondary)
}

func encodeDO(do dataobject.DO) []byte {
	meta := do.MetaPtr()
	data := do.DataPtr()
	buf := make([]byte, 8+len(meta)+len(data))
	binary.BigEndian.PutUint32(buf[0:4], uint32(len(meta)))
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(data)))
	copy(buf[8:8+len(meta)], meta)
	copy(buf[8+len(meta):], data)
	return buf
}

func decodeDO(raw []byte) (dataobject.DO, error) {
	if len(raw) < 8 {
		return dataobject.DO{}, ferr.New(ferr.Fatal, "iom.bolt", "corrupt record: too short")
	}
	metaLen := int(binary.BigEndian.Uint32(raw[0:4]))
	dataLen := int(binary.BigEndian.Uint32(raw[4:8]))
	if len(raw) != 8+metaLen+dataLen {
		return dataobject.DO{}, ferr.New(ferr.Fatal, "iom.bolt", "corrupt record: length mismatch")
	}
	do, err := dataobject.New(metaLen+dataLen, metaLen, dataLen, dataobject.Lazy, 0, nil)
	if err != nil {
		return dataobject.DO{}, err
	}
	copy(do.MetaPtr(), raw[8:8+metaLen])
	copy(do.DataPtr(), raw[8+metaLen:])
	return do, nil
}

func (b *BoltIOM) Get(bucket common.Bucket, key localkv.Key) (dataobject.DO, error) {
	var do dataobject.DO
	var derr error
	err := b.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(boltBucketName(bucket))
		if bkt == nil {
			return ferr.New(ferr.NotFound, "iom.bolt", "no such bucket")
		}
		raw := bkt.Get(flatKey(key))
		if raw == nil {
			return ferr.New(ferr.NotFound, "iom.bolt", "no such key: "+key.Primary)
		}
		do, derr = decodeDO(raw)
		return derr
	})
	if err != nil {
		return dataobject.DO{}, err
	}
	return do, nil
}

func (b *BoltIOM) Put(bucket common.Bucket, key localkv.Key, do dataobject.DO) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bkt, err := tx.CreateBucketIfNotExists(boltBucketName(bucket))
		if err != nil {
			return ferr.Wrap(ferr.Fatal, "iom.bolt", err)
		}
		if err := bkt.Put(flatKey(key), encodeDO(do)); err != nil {
			return ferr.Wrap(ferr.Fatal, "iom.bolt", err)
		}
		return nil
	})
}

func (b *BoltIOM) Drop(bucket common.Bucket, key localkv.Key) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(boltBucketName(bucket))
		if bkt == nil {
			return ferr.New(ferr.NotFound, "iom.bolt", "no such bucket")
		}
		return bkt.Delete(flatKey(key))
	})
}

func (b *BoltIOM) List(bucket common.Bucket, primaryPrefix, colPattern string) ([]localkv.ListEntry, error) {
	var out []localkv.ListEntry
	err := b.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(boltBucketName(bucket))
		if bkt == nil {
			return nil
		}
		c := bkt.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			parts := strings.SplitN(string(k), "\x00", 2)
			primary, secondary := parts[0], ""
			if len(parts) == 2 {
				secondary = parts[1]
			}
			if !strings.HasPrefix(primary, primaryPrefix) {
				continue
			}
			if colPattern != "*" && secondary != colPattern {
				continue
			}
			out = append(out, localkv.ListEntry{
				Key:      localkv.Key{Primary: primary, Secondary: secondary},
				Capacity: len(v) - 8,
			})
		}
		return nil
	})
	return out, err
}

// Close releases the underlying bbolt file handle.
func (b *BoltIOM) Close() error {
	return b.db.Close()
}
