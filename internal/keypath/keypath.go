// Package keypath addresses elements of a layer and content tree by name.
//
// A key path is a list of names from the root layer down. "*" matches any
// single name and "**" matches any number of names, including zero.
package keypath

import "strings"

const (
	// Container is the name of the synthetic root composition. It matches
	// without consuming a key.
	Container = "__container"

	wildcard = "*"
	globstar = "**"
)

// Element is a node that can be addressed by a key path.
type Element interface {
	// ResolveKeyPath appends to acc every path below this element that kp
	// fully resolves to. depth is the index into kp being matched and
	// partial is the resolved prefix so far.
	ResolveKeyPath(kp KeyPath, depth int, acc *[]KeyPath, partial KeyPath)
	// ApplyValueCallback installs cb for prop. It reports false when the
	// element has no such property or cb has the wrong type.
	ApplyValueCallback(prop Property, cb any) bool
}

// KeyPath is an immutable list of keys, optionally bound to the element it
// resolved to.
type KeyPath struct {
	keys     []string
	resolved Element
}

// New returns a key path over keys.
func New(keys ...string) KeyPath {
	return KeyPath{keys: append([]string(nil), keys...)}
}

// Parse splits a dotted path such as "Layer.Group.Fill 1".
func Parse(s string) KeyPath {
	if s == "" {
		return KeyPath{}
	}
	return New(strings.Split(s, ".")...)
}

// Keys returns a copy of the keys.
func (k KeyPath) Keys() []string {
	return append([]string(nil), k.keys...)
}

// Len returns the number of keys.
func (k KeyPath) Len() int {
	return len(k.keys)
}

// AddKey returns a copy with key appended.
func (k KeyPath) AddKey(key string) KeyPath {
	keys := make([]string, len(k.keys), len(k.keys)+1)
	copy(keys, k.keys)
	return KeyPath{keys: append(keys, key)}
}

// Resolve returns a copy bound to el.
func (k KeyPath) Resolve(el Element) KeyPath {
	return KeyPath{keys: k.keys, resolved: el}
}

// Element returns the element the path resolved to, if any.
func (k KeyPath) Element() Element {
	return k.resolved
}

func (k KeyPath) String() string {
	return strings.Join(k.keys, ".")
}

// Matches reports whether key matches the key at depth.
func (k KeyPath) Matches(key string, depth int) bool {
	if key == Container {
		return true
	}
	if depth >= len(k.keys) {
		return false
	}
	at := k.keys[depth]
	return at == key || at == globstar || at == wildcard
}

// IncrementDepthBy returns how many keys matching key at depth consumes.
func (k KeyPath) IncrementDepthBy(key string, depth int) int {
	if key == Container {
		return 0
	}
	if k.keys[depth] != globstar {
		return 1
	}
	if depth == len(k.keys)-1 {
		return 0
	}
	if k.keys[depth+1] == key {
		return 2
	}
	return 0
}

// FullyResolvesTo reports whether key at depth is the final element the
// path addresses.
func (k KeyPath) FullyResolvesTo(key string, depth int) bool {
	if depth >= len(k.keys) {
		return false
	}
	last := depth == len(k.keys)-1
	at := k.keys[depth]

	if at != globstar {
		matches := at == key || at == wildcard
		return (last || (depth == len(k.keys)-2 && k.endsWithGlobstar())) && matches
	}

	if !last && k.keys[depth+1] == key {
		return depth == len(k.keys)-2 || (depth == len(k.keys)-3 && k.endsWithGlobstar())
	}
	if last {
		return true
	}
	if depth+1 < len(k.keys)-1 {
		return false
	}
	return k.keys[depth+1] == key
}

// PropagateToChildren reports whether children of key should be searched.
func (k KeyPath) PropagateToChildren(key string, depth int) bool {
	if key == Container {
		return true
	}
	return depth < len(k.keys)-1 || k.keys[depth] == globstar
}

func (k KeyPath) endsWithGlobstar() bool {
	return len(k.keys) > 0 && k.keys[len(k.keys)-1] == globstar
}

// ResolveLeaf handles elements without children.
func ResolveLeaf(kp KeyPath, depth int, acc *[]KeyPath, partial KeyPath, name string, el Element) {
	if kp.FullyResolvesTo(name, depth) {
		*acc = append(*acc, partial.AddKey(name).Resolve(el))
	}
}
