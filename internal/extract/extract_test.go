package extract

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bridge-generator/internal/syntax"
)

const hostSource = `use std::fmt;

pub fn helper() -> usize { 1 }

/// The bridge.
#[bridge(namespace = demo)]
#[allow(dead_code)]
pub mod ffi {
    extern "C++" {
        fn ping() -> usize;
    }
}

#[cfg(test)]
mod tests {
    #[test]
    fn works() {}
}

mod outer {
    // résumé
    #[cxx::bridge]
    mod inner {
        extern "Rust" {
            fn pong();
        }
    }
}

mod declared;
`

func TestManifests(t *testing.T) {
	got, err := Manifests(context.Background(), []byte(hostSource))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "ffi", got[0].Module)
	assert.True(t, strings.HasPrefix(got[0].Text, "#[bridge(namespace = demo)]\n#[allow(dead_code)]\npub mod ffi {"))
	assert.True(t, strings.HasSuffix(got[0].Text, "    }\n}"))
	assert.Equal(t, 6, got[0].Base.Line)
	assert.Equal(t, 1, got[0].Base.Column)
	assert.Equal(t, strings.Index(hostSource, "#[bridge"), got[0].Base.Offset)

	assert.Equal(t, "inner", got[1].Module)
	assert.True(t, strings.HasPrefix(got[1].Text, "#[cxx::bridge]\n    mod inner {"))
	assert.Equal(t, 22, got[1].Base.Line)
	assert.Equal(t, 5, got[1].Base.Column)
}

func TestManifests_SpansAreFileRelative(t *testing.T) {
	got, err := Manifests(context.Background(), []byte(hostSource))
	require.NoError(t, err)
	require.NotEmpty(t, got)

	f, diags := syntax.ParseAt("lib.rs", got[0].Text, got[0].Base)
	require.False(t, diags.HasErrors(), "%v", diags.Error())

	assert.Equal(t, "ffi", f.Module)
	assert.Equal(t, []string{"demo"}, f.Namespace)
	assert.Equal(t, 6, f.Span.Start.Line)
	assert.Equal(t, "lib.rs", f.Span.File)

	require.Len(t, f.Items, 1)
	assert.Equal(t, 9, f.Items[0].ItemSpan().Start.Line)
	assert.Equal(t, 5, f.Items[0].ItemSpan().Start.Column)
}

func TestManifests_None(t *testing.T) {
	got, err := Manifests(context.Background(), []byte("fn main() {}\n"))
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = Manifests(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestIsBridgeAttr(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"#[bridge]", true},
		{"#[bridge(namespace = a::b)]", true},
		{"#[cxx::bridge]", true},
		{"#[ cxx :: bridge (namespace = x) ]", true},
		{"#[bridged]", false},
		{"#[derive(Debug)]", false},
		{"#[doc = \"bridge\"]", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, IsBridgeAttr(tt.text))
		})
	}
}
