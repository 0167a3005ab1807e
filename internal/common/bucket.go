// Package common holds the identifiers shared by every FAODEL layer:
// buckets, node ids, and resource URLs.
package common

// Bucket is a 32-bit tenant tag. The zero value is the unspecified bucket,
// which every lookup treats as "no tenant scoping".
type Bucket uint32

// BucketUnspecified is the sentinel bucket used when a caller doesn't care
// about tenant isolation.
const BucketUnspecified Bucket = 0

// NewBucket hashes a name into a Bucket using the djb2 algorithm, matching
// the original hash_dbj2(string) used throughout the C++ source so that
// buckets computed from the same name are stable across processes.
func NewBucket(name string) Bucket {
	if name == "" {
		return BucketUnspecified
	}
	return Bucket(hashDJB2(name))
}

// hashDJB2 is Dan Bernstein's djb2 string hash, reproduced byte for byte
// from faodel-common/StringHelpers.cpp's hash_dbj2(const string&).
func hashDJB2(s string) uint32 {
	var hash uint32 = 5381
	for i := 0; i < len(s); i++ {
		hash = ((hash << 5) + hash) + uint32(s[i])
	}
	return hash
}

// hashDJB2Bucket is the bucket-salted variant, used for DHT routing
// (PoolDht routes a key by hash(bucket || key) mod N). It mirrors
// hash_dbj2(const bucket_t&, const string&): the bucket's 4 bytes are
// folded in low-byte first before the string bytes.
func hashDJB2Bucket(b Bucket, s string) uint32 {
	var hash uint32 = 5381
	bval := uint32(b)
	for i := 0; i < 4; i++ {
		hash = ((hash << 5) + hash) + (bval & 0xFF)
		bval >>= 8
	}
	for i := 0; i < len(s); i++ {
		hash = ((hash << 5) + hash) + uint32(s[i])
	}
	return hash
}

// HashBucketKey computes the DHT routing hash for (bucket,key).
func HashBucketKey(b Bucket, key string) uint32 {
	return hashDJB2Bucket(b, key)
}
