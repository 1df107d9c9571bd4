package catalog

// Prim identifies a primitive scalar type.
type Prim int

const (
	Bool Prim = iota
	U8
	U16
	U32
	U64
	Usize
	I8
	I16
	I32
	I64
	Isize
	F32
	F64
)

type primInfo struct {
	name string
	cxx  string
	// size in bytes; 0 means one machine word.
	size uint64
}

var prims = [...]primInfo{
	Bool:  {"bool", "bool", 1},
	U8:    {"u8", "::std::uint8_t", 1},
	U16:   {"u16", "::std::uint16_t", 2},
	U32:   {"u32", "::std::uint32_t", 4},
	U64:   {"u64", "::std::uint64_t", 8},
	Usize: {"usize", "::std::size_t", 0},
	I8:    {"i8", "::std::int8_t", 1},
	I16:   {"i16", "::std::int16_t", 2},
	I32:   {"i32", "::std::int32_t", 4},
	I64:   {"i64", "::std::int64_t", 8},
	Isize: {"isize", "::bridge::isize", 0},
	F32:   {"f32", "float", 4},
	F64:   {"f64", "double", 8},
}

var primByName = func() map[string]Prim {
	m := make(map[string]Prim, len(prims))
	for p, info := range prims {
		m[info.name] = Prim(p)
	}

	return m
}()

// Prims returns every primitive in declaration order.
func Prims() []Prim {
	out := make([]Prim, len(prims))
	for i := range prims {
		out[i] = Prim(i)
	}

	return out
}

// LookupPrim resolves a manifest spelling such as "usize".
func LookupPrim(name string) (Prim, bool) {
	p, ok := primByName[name]
	return p, ok
}

// String returns the manifest spelling, which is also the host spelling.
func (p Prim) String() string {
	return prims[p].name
}

// Cxx returns the native spelling.
func (p Prim) Cxx() string {
	return prims[p].cxx
}

// Size returns the byte size for a target with the given word size.
func (p Prim) Size(wordSize uint64) uint64 {
	if prims[p].size == 0 {
		return wordSize
	}

	return prims[p].size
}

// Unsigned reports whether p is an unsigned integer.
func (p Prim) Unsigned() bool {
	switch p {
	case U8, U16, U32, U64, Usize:
		return true
	default:
		return false
	}
}

// SmallestUnsigned returns the narrowest unsigned fixed-width primitive
// able to hold v.
func SmallestUnsigned(v uint64) Prim {
	switch {
	case v <= 0xff:
		return U8
	case v <= 0xffff:
		return U16
	case v <= 0xffffffff:
		return U32
	default:
		return U64
	}
}

// Builtin names that user items may not reuse.
var reserved = map[string]bool{
	"Box":       true,
	"UniquePtr": true,
	"Vec":       true,
	"String":    true,
	"str":       true,
	"Result":    true,
	"CxxString": true,
	"Self":      true,
}

// IsReserved reports whether name belongs to the catalog.
func IsReserved(name string) bool {
	if reserved[name] {
		return true
	}

	_, ok := primByName[name]

	return ok
}

// BuiltinNames lists every catalog spelling, used for suggestions.
func BuiltinNames() []string {
	names := make([]string, 0, len(prims)+len(reserved))
	for _, p := range prims {
		names = append(names, p.name)
	}

	names = append(names, "Box", "UniquePtr", "Vec", "String", "str", "Result")

	return names
}
