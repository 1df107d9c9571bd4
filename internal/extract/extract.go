// Package extract locates bridge modules embedded in Rust source files.
package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"

	"bridge-generator/internal/diagnostic"
)

// Manifest is one bridge module cut out of a host source file.
type Manifest struct {
	// Module is the name of the `mod` item.
	Module string
	// Text runs from the module's first outer attribute to its closing brace.
	Text string
	// Base is where Text starts in the file.
	Base diagnostic.Position
}

// bridgeAttr matches #[bridge], #[bridge(...)] and path forms such as
// #[cxx::bridge].
var bridgeAttr = regexp.MustCompile(`^#\s*\[\s*(?:[A-Za-z_]\w*\s*::\s*)*bridge\s*(?:\(|\])`)

// IsBridgeAttr reports whether text is an outer attribute marking a
// bridge module.
func IsBridgeAttr(text string) bool {
	return bridgeAttr.MatchString(text)
}

// Manifests returns the bridge modules in src, in source order. Modules
// nested inside other modules are found too. A file with syntax errors
// elsewhere still yields the bridges tree-sitter could delimit.
func Manifests(ctx context.Context, src []byte) ([]Manifest, error) {
	if len(src) == 0 {
		return nil, nil
	}

	parser := sitter.NewParser()
	defer parser.Close()

	parser.SetLanguage(rust.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parsing rust source: %w", err)
	}
	defer tree.Close()

	var out []Manifest

	collect(tree.RootNode(), src, &out)

	return out, nil
}

func collect(node *sitter.Node, src []byte, out *[]Manifest) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)

		if child.Type() != "mod_item" {
			continue
		}

		body := child.ChildByFieldName("body")
		if body == nil {
			continue
		}

		if start, ok := bridgeStart(child, src); ok {
			*out = append(*out, Manifest{
				Module: nodeText(child.ChildByFieldName("name"), src),
				Text:   string(src[start:child.EndByte()]),
				Base:   position(src, start),
			})

			continue
		}

		collect(body, src, out)
	}
}

// bridgeStart scans the attributes preceding mod and returns the offset of
// the first one when any of them marks a bridge.
func bridgeStart(mod *sitter.Node, src []byte) (int, bool) {
	start := int(mod.StartByte())
	bridge := false

	for sib := mod.PrevNamedSibling(); sib != nil; sib = sib.PrevNamedSibling() {
		switch sib.Type() {
		case "attribute_item":
			if IsBridgeAttr(nodeText(sib, src)) {
				bridge = true
			}

			start = int(sib.StartByte())
		case "line_comment", "block_comment":
			// Comments may sit between attributes.
		default:
			return start, bridge
		}
	}

	return start, bridge
}

// position converts a byte offset into a line and a rune column, the
// coordinates the manifest lexer counts in.
func position(src []byte, offset int) diagnostic.Position {
	prefix := src[:offset]
	line := strings.Count(string(prefix), "\n") + 1

	lineStart := strings.LastIndexByte(string(prefix), '\n') + 1

	return diagnostic.Position{
		Offset: offset,
		Line:   line,
		Column: utf8.RuneCount(prefix[lineStart:]) + 1,
	}
}

func nodeText(node *sitter.Node, src []byte) string {
	if node == nil {
		return ""
	}

	return string(src[node.StartByte():node.EndByte()])
}
