// Package pool implements the Pool abstraction from §4.5: a polymorphic
// client handle obtained from connect(url), with LocalPool/NullPool/
// TracePool/DhtPool/UnconfiguredPool variants routing Publish/Want/Info/
// RowInfo/List/Drop according to an 8-bit behavior flag set.
package pool

import (
	"sort"
	"strings"

	"github.com/sandialabs/faodel-sub005/internal/ferr"
)

// Flags is the 8-bit behavior bitset from §4.5.
type Flags uint8

const (
	WriteToLocal     Flags = 1 << 0
	WriteToRemote    Flags = 1 << 1
	WriteToIOM       Flags = 1 << 2
	ReadToLocal      Flags = 1 << 3
	ReadToRemote     Flags = 1 << 4
	EnableOverwrites Flags = 1 << 5
)

// Derived aliases, per §4.5.
const (
	WriteAround       = WriteToIOM
	WriteToMemory     = WriteToLocal | WriteToRemote
	WriteToAll        = WriteToMemory | WriteToIOM
	ReadToNone  Flags = 0
	DefaultLocal      = WriteToLocal | ReadToLocal
	DefaultRemote     = WriteToRemote | ReadToRemote
	DefaultCachingIOM = ReadToLocal | ReadToRemote | WriteToAll
)

// tokenTable lists every accepted token. String walks it in this order, so
// writetoall, writetomemory and writearound are taken ahead of the bits
// they combine, while the default* aliases, listed after their component
// bits, never appear in String's output.
var tokenTable = []struct {
	name string
	bits Flags
}{
	{"writetoall", WriteToAll},
	{"writetomemory", WriteToMemory},
	{"writearound", WriteAround},
	{"writetoiom", WriteToIOM},
	{"writetolocal", WriteToLocal},
	{"writetoremote", WriteToRemote},
	{"defaultcachingiom", DefaultCachingIOM},
	{"defaultlocal", DefaultLocal},
	{"defaultremote", DefaultRemote},
	{"readtolocal", ReadToLocal},
	{"readtoremote", ReadToRemote},
	{"enableoverwrites", EnableOverwrites},
}

// Has reports whether every bit in mask is set.
func (f Flags) Has(mask Flags) bool { return f&mask == mask }

// String renders f as a sorted, "_"-joined token list: it takes each
// tokenTable entry, in table order, whose bits are all still unclaimed. The
// result parses back to f but is not always the shortest spelling
// (DefaultLocal renders as "readtolocal_writetolocal").
func (f Flags) String() string {
	if f == 0 {
		return "readtonone"
	}
	remaining := f
	var tokens []string
	for _, tok := range tokenTable {
		if tok.bits != 0 && remaining.Has(tok.bits) {
			tokens = append(tokens, tok.name)
			remaining &^= tok.bits
		}
	}
	sort.Strings(tokens)
	return strings.Join(tokens, "_")
}

// ParseFlags parses a "_"-joined, case-insensitive token list into Flags.
// An unknown token is a parse error.
func ParseFlags(s string) (Flags, error) {
	if s == "" || strings.EqualFold(s, "readtonone") {
		return ReadToNone, nil
	}
	var f Flags
	for _, tok := range strings.Split(s, "_") {
		bits, ok := lookupToken(strings.ToLower(tok))
		if !ok {
			return 0, ferr.New(ferr.InvalidArg, "pool", "unknown behavior flag token: "+tok)
		}
		f |= bits
	}
	return f, nil
}

func lookupToken(tok string) (Flags, bool) {
	for _, t := range tokenTable {
		if t.name == tok {
			return t.bits, true
		}
	}
	return 0, false
}

// RemoteToLocal converts flags for an op that has arrived at its
// destination node: remote write/read bits become their local
// counterparts, and the remote bits themselves are cleared.
func RemoteToLocal(f Flags) Flags {
	out := f &^ (WriteToRemote | ReadToRemote)
	if f.Has(WriteToRemote) {
		out |= WriteToLocal
	}
	if f.Has(ReadToRemote) {
		out |= ReadToLocal
	}
	return out
}
