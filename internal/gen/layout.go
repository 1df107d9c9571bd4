package gen

import (
	"slices"

	"bridge-generator/internal/ir"
)

// FieldOffset is one asserted field position.
type FieldOffset struct {
	Name   string
	Offset uint64
}

// StructLayout is the asserted layout of one struct on one target.
type StructLayout struct {
	Name   string
	Size   uint64
	Align  uint64
	Fields []FieldOffset
}

// EnumLayout is the asserted size of one enum.
type EnumLayout struct {
	Name string
	Size uint64
}

// TargetLayout groups the assertions for one pointer width.
type TargetLayout struct {
	Word    uint64
	Bits    uint64
	Structs []StructLayout
	Enums   []EnumLayout
}

// Layouts returns the layout facts both generators assert, widest target
// first. Both sides render exactly these numbers.
func Layouts(b *ir.Bridge) []TargetLayout {
	words := slices.Clone(b.WordSizes)
	slices.Sort(words)
	slices.Reverse(words)

	out := make([]TargetLayout, 0, len(words))

	for _, word := range words {
		target := TargetLayout{Word: word, Bits: word * 8}

		for _, s := range b.Structs {
			l := s.Layouts[word]
			sl := StructLayout{Name: s.Name, Size: l.Size, Align: l.Align}

			for i, f := range s.Fields {
				sl.Fields = append(sl.Fields, FieldOffset{Name: f.Name, Offset: l.Offsets[i]})
			}

			target.Structs = append(target.Structs, sl)
		}

		for _, e := range b.Enums {
			target.Enums = append(target.Enums, EnumLayout{Name: e.Name, Size: e.Repr.Size(word)})
		}

		out = append(out, target)
	}

	return out
}
