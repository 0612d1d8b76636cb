// Package stylesheet groups resolved declarations by responsive and pseudo
// axis and renders them as nested SCSS.
package stylesheet

// BaseAxis is the key component used when a token has no modifier on that axis.
const BaseAxis = "base"

// Key identifies a declaration group inside a Block.
type Key struct {
	Responsive string
	Pseudo     string
}

// IsBase reports whether the key has neither a responsive nor a pseudo modifier.
func (k Key) IsBase() bool {
	return k.Responsive == BaseAxis && k.Pseudo == BaseAxis
}

func newKey(responsive, pseudo string) Key {
	if responsive == "" {
		responsive = BaseAxis
	}
	if pseudo == "" {
		pseudo = BaseAxis
	}
	return Key{Responsive: responsive, Pseudo: pseudo}
}

// Block holds the declaration groups of one element. Keys and lines keep
// first-seen order.
type Block struct {
	keys  []Key
	lines map[Key][]string
}

// NewBlock returns an empty Block.
func NewBlock() *Block {
	return &Block{lines: make(map[Key][]string)}
}

// Touch registers a key without adding lines.
func (b *Block) Touch(responsive, pseudo string) Key {
	k := newKey(responsive, pseudo)
	if _, ok := b.lines[k]; !ok {
		b.keys = append(b.keys, k)
		b.lines[k] = nil
	}
	return k
}

// Add appends lines to the group for (responsive, pseudo).
func (b *Block) Add(responsive, pseudo string, lines ...string) {
	k := b.Touch(responsive, pseudo)
	b.lines[k] = append(b.lines[k], lines...)
}

// Keys returns the keys in first-seen order.
func (b *Block) Keys() []Key {
	out := make([]Key, len(b.keys))
	copy(out, b.keys)
	return out
}

// Lines returns the lines of a group.
func (b *Block) Lines(k Key) []string {
	return b.lines[k]
}

// Len returns the total number of lines across all groups.
func (b *Block) Len() int {
	n := 0
	for _, lines := range b.lines {
		n += len(lines)
	}
	return n
}

// Empty reports whether the block has no lines at all.
func (b *Block) Empty() bool {
	return b.Len() == 0
}
