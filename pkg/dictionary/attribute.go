package dictionary

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxStackDepth is the deepest nesting an attribute may have below the root
const MaxStackDepth = 26

// Attribute is a node in the dictionary tree.
//
// Children are held in 256 bins keyed by the low byte of their number.
// Each bin is kept sorted: structural attributes first, then by vendor,
// then by number.
type Attribute struct {
	Name   string
	Attr   uint32
	Vendor uint32
	Type   Type
	Flags  Flags
	Parent *Attribute
	Depth  int

	children *[256][]*Attribute
}

// IsRoot reports whether the attribute is a dictionary root
func (a *Attribute) IsRoot() bool {
	return a.Flags.IsRoot
}

// IsUnknown reports whether the attribute was synthesized for data with no definition
func (a *Attribute) IsUnknown() bool {
	return a.Flags.IsUnknown
}

// String returns the attribute name
func (a *Attribute) String() string {
	return a.Name
}

// addChild inserts child into the sorted bin for its number
func (a *Attribute) addChild(child *Attribute) {
	child.Parent = a
	child.Depth = a.Depth + 1

	if a.children == nil {
		a.children = new([256][]*Attribute)
	}

	bin := child.Attr & 0xff
	chain := a.children[bin]

	i := 0
	for ; i < len(chain); i++ {
		entry := chain[i]
		childStructural := child.Type.IsStructural()
		entryStructural := entry.Type.IsStructural()

		// Structural attributes sort before everything else
		if childStructural && !entryStructural {
			break
		}
		if childStructural != entryStructural {
			continue
		}
		if child.Vendor < entry.Vendor {
			break
		}
		if child.Vendor == entry.Vendor && child.Attr <= entry.Attr {
			break
		}
	}

	chain = append(chain, nil)
	copy(chain[i+1:], chain[i:])
	chain[i] = child
	a.children[bin] = chain
}

// ChildByNumber returns the child of a structural attribute with the given number
func (a *Attribute) ChildByNumber(attr uint32) (*Attribute, bool) {
	if a == nil || a.children == nil || !a.Type.IsStructural() {
		return nil, false
	}

	for _, child := range a.children[attr&0xff] {
		if child.Attr == attr {
			return child, true
		}
	}

	return nil, false
}

// ChildByAttr reports whether child is itself a member of the attribute's children
func (a *Attribute) ChildByAttr(child *Attribute) (*Attribute, bool) {
	if a == nil || child == nil || a.children == nil || !a.Type.IsStructural() {
		return nil, false
	}

	for _, c := range a.children[child.Attr&0xff] {
		if c == child {
			return c, true
		}
	}

	return nil, false
}

// Children returns every child in bin order
func (a *Attribute) Children() []*Attribute {
	if a == nil || a.children == nil {
		return nil
	}

	var out []*Attribute
	for _, chain := range a.children {
		out = append(out, chain...)
	}
	return out
}

// Bin returns the sorted sibling chain for the given low byte
func (a *Attribute) Bin(b uint8) []*Attribute {
	if a == nil || a.children == nil {
		return nil
	}
	return a.children[b]
}

// Stack returns the path from the root to a, indexed by depth
func (a *Attribute) Stack() []*Attribute {
	stack := make([]*Attribute, a.Depth+1)
	for p := a; p != nil; p = p.Parent {
		if p.Depth < 0 || p.Depth >= len(stack) {
			break
		}
		stack[p.Depth] = p
	}
	return stack
}

// AncestorOfType returns a itself or its nearest ancestor of one of the given types
func (a *Attribute) AncestorOfType(types ...Type) *Attribute {
	for p := a; p != nil; p = p.Parent {
		for _, t := range types {
			if p.Type == t {
				return p
			}
		}
	}
	return nil
}

// CommonAncestor returns the closest attribute that is an ancestor of both a
// and b. When isAncestor is set, b must be deeper than a. Roots never
// have a common ancestor.
func CommonAncestor(a, b *Attribute, isAncestor bool) *Attribute {
	if a == nil || b == nil {
		return nil
	}

	// Either is at the root
	if a.Parent == nil || b.Parent == nil {
		return nil
	}

	if isAncestor && b.Depth <= a.Depth {
		return nil
	}

	// Find a common depth to work back from
	pa, pb := a, b
	for i := a.Depth - b.Depth; pa != nil && i > 0; i-- {
		pa = pa.Parent
	}
	for i := b.Depth - a.Depth; pb != nil && i > 0; i-- {
		pb = pb.Parent
	}

	for pa != nil && pb != nil {
		if pa == pb {
			return pa
		}
		pa = pa.Parent
		pb = pb.Parent
	}

	return nil
}

// Verify checks the depth chain of an attribute and panics if it is corrupt
func Verify(a *Attribute) {
	if a == nil {
		panic("dictionary: verify: nil attribute")
	}

	if !a.Flags.IsRoot && a.Depth == 0 {
		panic(fmt.Sprintf("dictionary: verify: attribute %q is not a root but has depth 0", a.Name))
	}

	if a.Depth > MaxStackDepth {
		panic(fmt.Sprintf("dictionary: verify: attribute %q depth %d exceeds maximum %d", a.Name, a.Depth, MaxStackDepth))
	}

	depth := a.Depth
	for p := a; p != nil; p = p.Parent {
		if p.Depth != depth {
			panic(fmt.Sprintf("dictionary: verify: attribute %q found at depth %d, expected %d", p.Name, p.Depth, depth))
		}
		depth--
	}
	if depth != -1 {
		panic(fmt.Sprintf("dictionary: verify: attribute %q has a broken parent chain", a.Name))
	}
}

// PrintOID renders the numeric path from ancestor (exclusive) to a.
// A nil ancestor means the dictionary root.
func PrintOID(ancestor, a *Attribute) string {
	if a == nil || ancestor == a || a.Depth == 0 {
		return ""
	}

	start := 1
	if ancestor != nil {
		start = ancestor.Depth + 1
	}

	stack := a.Stack()
	if start >= len(stack) || (ancestor != nil && stack[ancestor.Depth] != ancestor) {
		return ""
	}

	parts := make([]string, 0, len(stack)-start)
	for _, p := range stack[start:] {
		if p == nil {
			continue
		}
		parts = append(parts, strconv.FormatUint(uint64(p.Attr), 10))
	}

	return strings.Join(parts, ".")
}
