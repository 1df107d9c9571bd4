package ir

import (
	"fmt"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"gopkg.in/yaml.v3"
)

// Export is the reviewable YAML form of a Bridge.
type Export struct {
	Source    string           `yaml:"source"`
	Namespace string           `yaml:"namespace,omitempty"`
	Includes  []string         `yaml:"includes,omitempty"`
	Structs   []ExportStruct   `yaml:"structs,omitempty"`
	Enums     []ExportEnum     `yaml:"enums,omitempty"`
	Opaques   []ExportOpaque   `yaml:"opaque_types,omitempty"`
	Functions []ExportFunction `yaml:"functions,omitempty"`
	Instances []string         `yaml:"instantiations,omitempty"`
}

type ExportStruct struct {
	Name    string            `yaml:"name"`
	Trivial bool              `yaml:"trivial"`
	Fields  []ExportField     `yaml:"fields"`
	Layout  map[string]string `yaml:"layout"`
}

type ExportField struct {
	Name    string            `yaml:"name"`
	Type    string            `yaml:"type"`
	Offsets map[string]uint64 `yaml:"offsets"`
}

type ExportEnum struct {
	Name     string            `yaml:"name"`
	Repr     string            `yaml:"repr"`
	Variants map[string]uint64 `yaml:"variants"`
}

type ExportOpaque struct {
	Name string `yaml:"name"`
	Side string `yaml:"side"`
}

type ExportFunction struct {
	Name      string `yaml:"name"`
	Symbol    string `yaml:"symbol"`
	Direction string `yaml:"direction"`
	Signature string `yaml:"signature"`
}

// ToExport converts a Bridge to its export form.
func ToExport(b *Bridge) *Export {
	out := &Export{
		Source:    b.Source,
		Namespace: strings.Join(b.Namespace, "::"),
		Includes:  b.Includes,
	}

	for _, s := range b.Structs {
		es := ExportStruct{Name: s.Name, Trivial: s.Trivial, Layout: map[string]string{}}

		for i, f := range s.Fields {
			ef := ExportField{Name: f.Name, Type: f.Type.Key(), Offsets: map[string]uint64{}}
			for _, w := range b.WordSizes {
				ef.Offsets[wordKey(w)] = s.Layouts[w].Offsets[i]
			}

			es.Fields = append(es.Fields, ef)
		}

		for _, w := range b.WordSizes {
			l := s.Layouts[w]
			es.Layout[wordKey(w)] = fmt.Sprintf("size=%d align=%d", l.Size, l.Align)
		}

		out.Structs = append(out.Structs, es)
	}

	for _, e := range b.Enums {
		ee := ExportEnum{Name: e.Name, Repr: e.Repr.String(), Variants: map[string]uint64{}}
		for _, v := range e.Variants {
			ee.Variants[v.Name] = v.Value
		}

		out.Enums = append(out.Enums, ee)
	}

	for _, o := range b.Opaques {
		out.Opaques = append(out.Opaques, ExportOpaque{Name: o.Name, Side: o.Side.String()})
	}

	for _, fn := range b.Functions {
		out.Functions = append(out.Functions, ExportFunction{
			Name:      fn.Name,
			Symbol:    fn.Symbol,
			Direction: fn.Direction.String(),
			Signature: fn.Sig.String(),
		})
	}

	for _, t := range b.Vecs {
		out.Instances = append(out.Instances, "Vec<"+t.Key()+">")
	}

	for _, t := range b.Boxes {
		out.Instances = append(out.Instances, "Box<"+t.Key()+">")
	}

	for _, t := range b.UniquePtrs {
		out.Instances = append(out.Instances, t.Key())
	}

	return out
}

// ExportYAML renders the bridge as YAML for review.
func ExportYAML(b *Bridge) ([]byte, error) {
	data, err := yaml.Marshal(ToExport(b))
	if err != nil {
		return nil, fmt.Errorf("marshaling bridge %s: %w", b.Source, err)
	}

	return data, nil
}

// Dump returns a deep debug rendering of the bridge.
func Dump(b *Bridge) string {
	cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, SortKeys: true}
	return cfg.Sdump(b)
}

func wordKey(w uint64) string {
	return fmt.Sprintf("%dbit", w*8)
}
