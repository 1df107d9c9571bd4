package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bridge-generator/internal/bridgeerr"
)

const manifest = `#[bridge(namespace = demo)]
mod ffi {
    extern "Rust" {
        fn answer() -> u32;
    }
}
`

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer

	require.NoError(t, run([]string{"-version"}, &stdout, &stderr))
	assert.Equal(t, "bridgegen dev\n", stdout.String())
}

func TestRun_Help(t *testing.T) {
	var stdout, stderr bytes.Buffer

	require.NoError(t, run([]string{"-h"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "-emit-runtime")
	assert.Empty(t, stdout.String())
}

func TestRun_PrintSchema(t *testing.T) {
	var stdout, stderr bytes.Buffer

	require.NoError(t, run([]string{"-print-schema"}, &stdout, &stderr))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &doc))
	assert.Contains(t, doc, "properties")
}

func TestRun_Generate(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "ffi.bridge")
	out := filepath.Join(dir, "out")
	require.NoError(t, os.WriteFile(in, []byte(manifest), 0o644))

	var stdout, stderr bytes.Buffer

	err := run([]string{"-o", out, "-header-only", "-emit-runtime", in}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	assert.Equal(t, "ffi.bridge.rs\nffi.bridge.h\nbridge.h\nbridge_rt.rs\n", stdout.String())
	assert.FileExists(t, filepath.Join(out, "ffi.bridge.h"))
	assert.NoFileExists(t, filepath.Join(out, "ffi.bridge.cc"))
	assert.Empty(t, stderr.String())
}

func TestRun_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "ffi.bridge")
	out := filepath.Join(dir, "gen")
	cfgPath := filepath.Join(dir, "bridgegen.yaml")

	require.NoError(t, os.WriteFile(in, []byte(manifest), 0o644))
	require.NoError(t, os.WriteFile(cfgPath, []byte("output: "+out+"\ninputs: ["+in+"]\nsource_ext: .cpp\n"), 0o644))

	var stdout, stderr bytes.Buffer

	require.NoError(t, run([]string{"-config", cfgPath}, &stdout, &stderr), stderr.String())
	assert.FileExists(t, filepath.Join(out, "ffi.bridge.cpp"))
}

func TestRun_InvalidManifest(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "bad.bridge")
	out := filepath.Join(dir, "out")
	require.NoError(t, os.WriteFile(in, []byte("mod ffi {\n    extern \"Rust\" {\n        fn f(x: Strng);\n    }\n}\n"), 0o644))

	var stdout, stderr bytes.Buffer

	err := run([]string{"-o", out, in}, &stdout, &stderr)
	require.Error(t, err)
	assert.ErrorIs(t, err, bridgeerr.ErrInvalidManifest)

	assert.Contains(t, stderr.String(), in+":3:17: error[unknown_type]")
	assert.Contains(t, stderr.String(), "        fn f(x: Strng);\n")
	assert.Contains(t, stderr.String(), "1 error(s), 0 warning(s)")
	assert.Empty(t, stdout.String())
	assert.NoDirExists(t, out)
}

func TestRun_Errors(t *testing.T) {
	var stdout, stderr bytes.Buffer

	assert.ErrorContains(t, run(nil, &stdout, &stderr), "no inputs")
	assert.Error(t, run([]string{"-bogus"}, &stdout, &stderr))
	assert.ErrorContains(t, run([]string{"-namespace", "::x", "a.bridge"}, &stdout, &stderr), "namespace must be a C++ namespace")
}
