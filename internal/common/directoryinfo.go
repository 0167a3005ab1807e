package common

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxDirectoryInfoLen bounds the Info free-text field carried by a
// DirectoryInfo, per §3.
const MaxDirectoryInfoLen = 256

// NameAndNode is one member of a DirectoryInfo's ordered membership list.
// An empty Name denotes an auto-named participant; in that case list order
// is the authority for identifying it (§3).
type NameAndNode struct {
	Name string
	Node NodeID
}

// DirectoryInfo is the value stored for a directory resource: its URL,
// a short free-text description, and its ordered member list.
type DirectoryInfo struct {
	URL      ResourceURL
	Info     string
	Children []NameAndNode
}

// NewDirectoryInfo builds an empty DirectoryInfo for url.
func NewDirectoryInfo(url ResourceURL) DirectoryInfo {
	return DirectoryInfo{URL: url}
}

// ReferenceNode returns the node this directory's own URL points at (the
// node that registered it), mirroring GetReferenceNode in the original.
func (d DirectoryInfo) ReferenceNode() NodeID {
	return d.URL.ReferenceNode
}

// IndexOfName returns the index of a named child, or -1.
func (d DirectoryInfo) IndexOfName(name string) int {
	if name == "" {
		return -1
	}
	for i, c := range d.Children {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// IndexOfNode returns the index of the first child with the given node id,
// used as the leave-by-node fallback when no name is given.
func (d DirectoryInfo) IndexOfNode(n NodeID) int {
	for i, c := range d.Children {
		if c.Node == n {
			return i
		}
	}
	return -1
}

// autoName synthesizes a never-colliding name for an unnamed join, using a
// monotonic counter over the current children. The policy resolves the
// Open Question in §9: joins against an existing auto-name are rejected
// rather than silently reused.
func (d DirectoryInfo) autoName() string {
	for i := 0; ; i++ {
		candidate := strconv.Itoa(i)
		if d.IndexOfName(candidate) < 0 {
			return candidate
		}
	}
}

// ErrAlreadyExists is returned when a named Join collides with an existing
// child name.
var ErrAlreadyExists = fmt.Errorf("child name already exists")

// Join adds a child by name (auto-generating one if name=="") to this
// directory. It mutates d in place and returns an error if a named join
// collides with an existing entry.
func (d *DirectoryInfo) Join(node NodeID, name string) error {
	if name == "" {
		name = d.autoName()
	} else if d.IndexOfName(name) >= 0 {
		return ErrAlreadyExists
	}
	d.Children = append(d.Children, NameAndNode{Name: name, Node: node})
	return nil
}

// Leave removes a child by name first, falling back to node id if no name
// is given on the url. Returns true if something was removed.
func (d *DirectoryInfo) Leave(childURL ResourceURL) bool {
	if childURL.Name != "" {
		if i := d.IndexOfName(childURL.Name); i >= 0 {
			d.Children = append(d.Children[:i], d.Children[i+1:]...)
			return true
		}
		return false
	}
	if i := d.IndexOfNode(childURL.ReferenceNode); i >= 0 {
		d.Children = append(d.Children[:i], d.Children[i+1:]...)
		return true
	}
	return false
}

// LeaveByName removes a child by name only, used when a parent directory is
// torn down and needs to unlink itself from its own parent's list.
func (d *DirectoryInfo) LeaveByName(name string) bool {
	if i := d.IndexOfName(name); i >= 0 {
		d.Children = append(d.Children[:i], d.Children[i+1:]...)
		return true
	}
	return false
}

// Serialize encodes this DirectoryInfo onto its own URL's options, per §3's
// wire form: num=N&ag0=0xNODE&ag1=...&info=PUNY.
func (d DirectoryInfo) Serialize() ResourceURL {
	u := d.URL
	u.Options = nil
	u.SetOption("num", strconv.Itoa(len(d.Children)))
	for i, c := range d.Children {
		u.SetOption(fmt.Sprintf("ag%d", i), c.Node.Hex())
	}
	if d.Info != "" {
		u.SetOption("info", MakePunycode(d.Info))
	}
	return u
}

func (d DirectoryInfo) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] Children: %d Info: %s", d.URL.BucketPathName(), len(d.Children), d.Info)
	return b.String()
}
