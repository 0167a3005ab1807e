package common

import (
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedURL reports a ResourceURL that failed to parse.
type ErrMalformedURL struct {
	Input  string
	Reason string
}

func (e *ErrMalformedURL) Error() string {
	return fmt.Sprintf("malformed resource url %q: %s", e.Input, e.Reason)
}

// KV is a single insertion-ordered option pair carried by a ResourceURL.
type KV struct {
	Key   string
	Value string
}

// ResourceURL is the canonical resource identifier used across dirman,
// pool, and kelpie: type:<node>[bucket]/path/name&k1=v1&k2=v2.
//
// Equality of two URLs (Equals) compares Type+Bucket+Path+Name only;
// Options are side data and are ignored, matching §3's invariant.
type ResourceURL struct {
	Type          string
	ReferenceNode NodeID
	Bucket        Bucket
	// Path is the "/"-joined sequence of ancestor directory names, NOT
	// including Name. The empty string means Name is a top-level
	// directory (its parent is the implicit, unnamed root).
	Path    string
	Name    string
	Options []KV
}

// DefaultURLType is used when a URL carries no explicit "type:" prefix and
// its path does not trigger the "/local/..." special case.
const DefaultURLType = "ref"

// ParseResourceURL parses the grammar:
//
//	[type ':'] ['<' hexnode '>'] ['[' bucket_or_hex ']'] ['/' path_segments] ['&' options]
func ParseResourceURL(s string) (ResourceURL, error) {
	var u ResourceURL
	rest := s

	// type:
	if idx := strings.IndexByte(rest, ':'); idx >= 0 {
		// Only treat the ':' as a type separator if nothing before it
		// looks like it belongs to a later grammar element.
		candidate := rest[:idx]
		if candidate != "" && !strings.ContainsAny(candidate, "<[/&") {
			for i := 0; i < len(candidate); i++ {
				c := candidate[i]
				if !(isAlnum(c) || c == '_' || c == '-') {
					return ResourceURL{}, &ErrMalformedURL{s, "unknown scheme characters in type"}
				}
			}
			u.Type = candidate
			rest = rest[idx+1:]
		}
	}

	// <hexnode>
	if strings.HasPrefix(rest, "<") {
		end := strings.IndexByte(rest, '>')
		if end < 0 {
			return ResourceURL{}, &ErrMalformedURL{s, "unbalanced '<' for reference node"}
		}
		nodeStr := rest[1:end]
		n, err := parseNodeToken(nodeStr)
		if err != nil {
			return ResourceURL{}, &ErrMalformedURL{s, err.Error()}
		}
		u.ReferenceNode = n
		rest = rest[end+1:]
	}

	// [bucket_or_hex]
	if strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return ResourceURL{}, &ErrMalformedURL{s, "unbalanced '[' for bucket"}
		}
		bstr := rest[1:end]
		b, err := parseBucketToken(bstr)
		if err != nil {
			return ResourceURL{}, &ErrMalformedURL{s, err.Error()}
		}
		u.Bucket = b
		rest = rest[end+1:]
	}

	// ['/' path_segments] ['&' options]
	pathPart := rest
	optPart := ""
	if idx := strings.IndexByte(rest, '&'); idx >= 0 {
		pathPart = rest[:idx]
		optPart = rest[idx+1:]
	}

	if pathPart != "" {
		if pathPart[0] != '/' {
			return ResourceURL{}, &ErrMalformedURL{s, "path must start with '/'"}
		}
		segs := SplitNonEmpty(pathPart, '/', true)
		if len(segs) > 0 {
			u.Name = segs[len(segs)-1]
			u.Path = JoinStrings(segs[:len(segs)-1], '/')
		}
		// /local/... implies type=local when no explicit type was given
		if u.Type == "" && len(segs) > 0 && segs[0] == "local" {
			u.Type = "local"
			segs = segs[1:]
			if len(segs) > 0 {
				u.Name = segs[len(segs)-1]
				u.Path = JoinStrings(segs[:len(segs)-1], '/')
			} else {
				u.Name = ""
				u.Path = ""
			}
		}
	}

	if u.Type == "" {
		u.Type = DefaultURLType
	}

	if optPart != "" {
		for _, tok := range SplitNonEmpty(optPart, '&', true) {
			eq := strings.IndexByte(tok, '=')
			if eq < 0 {
				u.Options = append(u.Options, KV{Key: tok, Value: ""})
			} else {
				u.Options = append(u.Options, KV{Key: tok[:eq], Value: tok[eq+1:]})
			}
		}
	}

	return u, nil
}

func parseNodeToken(tok string) (NodeID, error) {
	if strings.HasPrefix(tok, "0x") || strings.HasPrefix(tok, "0X") {
		v, err := strconv.ParseUint(tok[2:], 16, 64)
		if err != nil {
			return NodeIDUnspecified, fmt.Errorf("hex node overflows 64 bits: %s", tok)
		}
		return NodeID(v), nil
	}
	if strings.Contains(tok, ":") {
		return NewNodeIDFromString(tok)
	}
	v, err := strconv.ParseUint(tok, 16, 64)
	if err != nil {
		return NodeIDUnspecified, fmt.Errorf("hex node overflows 64 bits: %s", tok)
	}
	return NodeID(v), nil
}

func parseBucketToken(tok string) (Bucket, error) {
	if strings.HasPrefix(tok, "0x") || strings.HasPrefix(tok, "0X") {
		v, err := strconv.ParseUint(tok[2:], 16, 32)
		if err != nil {
			return BucketUnspecified, fmt.Errorf("bucket hex value out of range: %s", tok)
		}
		return Bucket(v), nil
	}
	return NewBucket(tok), nil
}

// Format renders the canonical string form: type:<node>[0xHEX]/path/name&opts
func (u ResourceURL) Format() string {
	var b strings.Builder
	typ := u.Type
	if typ == "" {
		typ = DefaultURLType
	}
	b.WriteString(typ)
	b.WriteByte(':')
	if !u.ReferenceNode.IsUnspecified() {
		b.WriteByte('<')
		b.WriteString(u.ReferenceNode.Hex())
		b.WriteByte('>')
	}
	if u.Bucket != BucketUnspecified {
		fmt.Fprintf(&b, "[0x%08x]", uint32(u.Bucket))
	}
	if u.Path != "" || u.Name != "" {
		if u.Path != "" {
			b.WriteByte('/')
			b.WriteString(u.Path)
		}
		b.WriteByte('/')
		b.WriteString(u.Name)
	}
	for _, kv := range u.Options {
		b.WriteByte('&')
		b.WriteString(kv.Key)
		if kv.Value != "" {
			b.WriteByte('=')
			b.WriteString(kv.Value)
		}
	}
	return b.String()
}

// GetFullURL is an alias for Format matching the original's naming.
func (u ResourceURL) GetFullURL() string { return u.Format() }

// GetURL renders the URL without options (type+node+bucket+path+name).
func (u ResourceURL) GetURL() string {
	v := u
	v.Options = nil
	return v.Format()
}

// BucketPathName is the canonical lookup key used by every cache:
// "[0xHEX]/path/name", ignoring type, node, and options.
func (u ResourceURL) BucketPathName() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[0x%08x]", uint32(u.Bucket))
	if u.Path != "" {
		b.WriteByte('/')
		b.WriteString(u.Path)
	}
	b.WriteByte('/')
	b.WriteString(u.Name)
	return b.String()
}

// Valid reports whether this URL is well-formed enough to be used as a
// cache key: it must at least have a non-empty Name.
func (u ResourceURL) Valid() bool {
	return u.Name != ""
}

// Equals compares type+bucket+path+name only, per §3.
func (u ResourceURL) Equals(o ResourceURL) bool {
	return u.Type == o.Type && u.Bucket == o.Bucket && u.Path == o.Path && u.Name == o.Name
}

// IsRootLevel reports whether this resource is an immediate child of the
// implicit, unnamed root (i.e., it has no ancestor directories).
func (u ResourceURL) IsRootLevel() bool {
	return u.Path == ""
}

// GetParent returns the URL of the directory that would contain this one.
// Calling GetParent on an already root-level URL returns an empty URL
// (pop_dir on an empty URL yields the empty string), and the caller should
// check IsRootLevel first.
func (u ResourceURL) GetParent() ResourceURL {
	if u.IsRootLevel() {
		return ResourceURL{Type: u.Type, Bucket: u.Bucket}
	}
	segs := SplitNonEmpty(u.Path, '/', true)
	parent := ResourceURL{
		Type:          u.Type,
		ReferenceNode: u.ReferenceNode,
		Bucket:        u.Bucket,
		Name:          segs[len(segs)-1],
		Path:          JoinStrings(segs[:len(segs)-1], '/'),
	}
	return parent
}

// PushDir appends a directory name to Name, sliding the current Name down
// into Path.
func (u ResourceURL) PushDir(name string) ResourceURL {
	v := u
	if v.Name != "" {
		if v.Path == "" {
			v.Path = v.Name
		} else {
			v.Path = v.Path + "/" + v.Name
		}
	}
	v.Name = name
	return v
}

// PopDir is the inverse of GetParent that also returns the popped name; an
// empty URL yields an empty string per §4.1's edge case.
func (u ResourceURL) PopDir() (parent ResourceURL, popped string) {
	if u.Name == "" {
		return u, ""
	}
	return u.GetParent(), u.Name
}

// GetLineageReference strips k trailing path components (deepest first),
// saturating at the root once exhausted.
func (u ResourceURL) GetLineageReference(k int) ResourceURL {
	v := u
	for i := 0; i < k; i++ {
		if v.Name == "" {
			break
		}
		v = v.GetParent()
	}
	return v
}

// GetOption returns the value of the first option with the given key, and
// whether it was present.
func (u ResourceURL) GetOption(key string) (string, bool) {
	for _, kv := range u.Options {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// SetOption sets (or appends) an option, preserving insertion order on
// first use and updating in place thereafter.
func (u *ResourceURL) SetOption(key, value string) {
	for i, kv := range u.Options {
		if kv.Key == key {
			u.Options[i].Value = value
			return
		}
	}
	u.Options = append(u.Options, KV{Key: key, Value: value})
}

// RemoveOption deletes the option, if present.
func (u *ResourceURL) RemoveOption(key string) {
	for i, kv := range u.Options {
		if kv.Key == key {
			u.Options = append(u.Options[:i], u.Options[i+1:]...)
			return
		}
	}
}
