package layout

import (
	"bridge-generator/internal/catalog"
	"bridge-generator/internal/ir"
)

// Supported word sizes in bytes.
const (
	Word32 uint64 = 4
	Word64 uint64 = 8
)

// Info is the size and alignment of a type.
type Info struct {
	Size  uint64
	Align uint64
}

// Calculator lays out types for one pointer width. Struct layouts are
// cached by name.
type Calculator struct {
	word  uint64
	cache map[string]ir.Layout
}

func NewCalculator(wordSize uint64) *Calculator {
	return &Calculator{
		word:  wordSize,
		cache: make(map[string]ir.Layout),
	}
}

// WordSize returns the pointer width in bytes.
func (c *Calculator) WordSize() uint64 {
	return c.word
}

// Ref lays out a type reference: borrows of sized types are one pointer.
func (c *Calculator) Ref(r ir.TypeRef) Info {
	if r.Mode.IsBorrow() && r.Type.Kind != catalog.BorrowedString && r.Type.Kind != catalog.BorrowedSlice {
		return c.words(1)
	}

	return c.Calculate(r.Type)
}

// Calculate lays out a by-value type.
func (c *Calculator) Calculate(t *ir.Type) Info {
	switch t.Kind {
	case catalog.Primitive:
		size := t.Prim.Size(c.word)
		return Info{Size: size, Align: size}
	case catalog.UserEnum:
		size := t.Enum.Repr.Size(c.word)
		return Info{Size: size, Align: size}
	case catalog.UserStruct:
		l := c.Struct(t.Struct)
		return Info{Size: l.Size, Align: l.Align}
	case catalog.Unit:
		return Info{Size: 0, Align: 1}
	}

	if n, ok := catalog.RuntimeWords(t.Kind, catalog.ByValue); ok {
		return c.words(uint64(n))
	}

	return Info{Size: 0, Align: 1}
}

// Struct lays out s with fields in declaration order, each at its natural
// alignment, and the total size rounded up to the largest alignment.
func (c *Calculator) Struct(s *ir.Struct) ir.Layout {
	if cached, ok := c.cache[s.Name]; ok {
		return cached
	}

	offsets := make([]uint64, len(s.Fields))
	maxAlign := uint64(1)
	offset := uint64(0)

	for i, field := range s.Fields {
		fieldLayout := c.Calculate(field.Type)

		offset = AlignTo(offset, fieldLayout.Align)
		offsets[i] = offset

		if fieldLayout.Align > maxAlign {
			maxAlign = fieldLayout.Align
		}

		offset += fieldLayout.Size
	}

	l := ir.Layout{
		Size:    AlignTo(offset, maxAlign),
		Align:   maxAlign,
		Offsets: offsets,
	}
	c.cache[s.Name] = l

	return l
}

func (c *Calculator) words(n uint64) Info {
	return Info{Size: n * c.word, Align: c.word}
}

// AlignTo rounds offset up to a multiple of align.
func AlignTo(offset, align uint64) uint64 {
	if align == 0 {
		return offset
	}

	return (offset + align - 1) / align * align
}
