package encoder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vitalvas/radwire/pkg/dictionary"
	"github.com/vitalvas/radwire/pkg/value"
)

// TagNone marks a pair without a tag
const TagNone = 0

// MaxTag is the largest valid RFC 2868 tag
const MaxTag = 0x1f

// Pair is an attribute instance: a definition and a value of its type
type Pair struct {
	Attr  *dictionary.Attribute
	Value value.Value

	// Tag groups tunnel attributes; only used when the attribute has_tag
	Tag uint8
}

// NewPair returns a pair for attr holding v
func NewPair(attr *dictionary.Attribute, v value.Value) *Pair {
	return &Pair{Attr: attr, Value: v}
}

// ParsePair builds a pair from an attribute name and the text of its
// value. A ":N" suffix on the name sets the tag of tagged attributes.
func ParsePair(d *dictionary.Dictionary, name, text string, quote byte) (*Pair, error) {
	var tag uint64

	attr, ok := d.AttrByName(name)
	if !ok {
		i := strings.LastIndexByte(name, ':')
		if i < 0 {
			return nil, fmt.Errorf("%w: unknown attribute %s", dictionary.ErrNotFound, name)
		}

		var err error
		tag, err = strconv.ParseUint(name[i+1:], 10, 8)
		if err != nil || tag > MaxTag {
			return nil, fmt.Errorf("%w: invalid tag in %s", value.ErrInvalidValue, name)
		}

		attr, ok = d.AttrByName(name[:i])
		if !ok {
			return nil, fmt.Errorf("%w: unknown attribute %s", dictionary.ErrNotFound, name[:i])
		}
		if !attr.Flags.HasTag {
			return nil, fmt.Errorf("%w: attribute %s cannot have a tag", value.ErrInvalidValue, attr.Name)
		}
	}

	if attr.Type.IsStructural() {
		return nil, fmt.Errorf("%w: attribute %s of type %s has no value", value.ErrInvalidValue, attr.Name, attr.Type)
	}

	v, err := value.FromString(attr.Type, text, quote, value.Enums(d, attr))
	if err != nil {
		return nil, fmt.Errorf("attribute %s: %w", attr.Name, err)
	}

	return &Pair{Attr: attr, Value: v, Tag: uint8(tag)}, nil
}

// String renders the pair as "Name = value"
func (p *Pair) String() string {
	name := p.Attr.Name
	if p.Attr.Flags.HasTag && validTag(p.Tag) {
		name += ":" + strconv.Itoa(int(p.Tag))
	}
	return name + " = " + p.Value.Print(nil, '"')
}

func validTag(tag uint8) bool {
	return tag > 0 && tag <= MaxTag
}

// Cursor walks an ordered list of pairs. Encoders advance it past every
// pair they consume, which may be more than one per call.
type Cursor struct {
	pairs []*Pair
	pos   int
}

// NewCursor returns a cursor positioned at the first pair
func NewCursor(pairs []*Pair) *Cursor {
	return &Cursor{pairs: pairs}
}

// Current returns the pair under the cursor, or nil when exhausted
func (c *Cursor) Current() *Pair {
	if c.pos >= len(c.pairs) {
		return nil
	}
	return c.pairs[c.pos]
}

// Next advances the cursor and returns the new current pair
func (c *Cursor) Next() *Pair {
	if c.pos < len(c.pairs) {
		c.pos++
	}
	return c.Current()
}

// Done reports whether every pair has been consumed
func (c *Cursor) Done() bool {
	return c.pos >= len(c.pairs)
}

// Position returns the index of the current pair
func (c *Cursor) Position() int {
	return c.pos
}

// Seek moves the cursor to index i
func (c *Cursor) Seek(i int) {
	c.pos = max(0, min(i, len(c.pairs)))
}

// Remaining returns the pairs not yet consumed
func (c *Cursor) Remaining() []*Pair {
	return c.pairs[c.pos:]
}
