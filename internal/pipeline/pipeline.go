// Package pipeline turns manifests into generated glue: extract, parse,
// check, then generate both sides. Nothing is produced unless every input
// checks cleanly.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"bridge-generator/internal/bridgeerr"
	"bridge-generator/internal/check"
	"bridge-generator/internal/config"
	"bridge-generator/internal/diagnostic"
	"bridge-generator/internal/discover"
	"bridge-generator/internal/extract"
	"bridge-generator/internal/gen"
	"bridge-generator/internal/gen/host"
	"bridge-generator/internal/gen/native"
	"bridge-generator/internal/ir"
	"bridge-generator/internal/runtime"
	"bridge-generator/internal/syntax"
)

// RuntimeRustFile is the name of the emitted Rust runtime module.
const RuntimeRustFile = "bridge_rt.rs"

// Input is one source file: a standalone manifest or Rust source with
// embedded bridge modules.
type Input struct {
	Path string
	Src  []byte
}

// Output is the result of a run.
type Output struct {
	// Files are the generated artifacts, empty when any input failed.
	Files []gen.GeneratedFile
	// Sidecars are optional debug artifacts such as IR dumps.
	Sidecars []gen.GeneratedFile
	Bridges  []*ir.Bridge
	// Diagnostics holds every diagnostic from every input.
	Diagnostics diagnostic.Diagnostics
	// Sources maps file names to their text for diagnostic excerpts.
	Sources map[string]string
}

// Collect reads the inputs named by paths. Directories are scanned for
// bridge sources.
func Collect(paths []string) ([]Input, error) {
	var inputs []Input

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, bridgeerr.IO(bridgeerr.PhaseExtract, path, err)
		}

		files := []string{path}

		if info.IsDir() {
			files, err = discover.Sources(path)
			if err != nil {
				return nil, bridgeerr.IO(bridgeerr.PhaseExtract, path, err)
			}

			Logger().Debug("discovered bridge sources", zap.String("root", path), zap.Int("count", len(files)))
		}

		for _, f := range files {
			src, err := os.ReadFile(f)
			if err != nil {
				return nil, bridgeerr.IO(bridgeerr.PhaseExtract, f, err)
			}

			inputs = append(inputs, Input{Path: f, Src: src})
		}
	}

	if len(inputs) == 0 {
		return nil, bridgeerr.New(bridgeerr.PhaseExtract, bridgeerr.KindNotFound).
			Detail("no bridge sources in %s", strings.Join(paths, ", ")).
			Build()
	}

	return inputs, nil
}

type unit struct {
	stem string
	file *syntax.File
}

// Run processes every input with cfg. When any input has an error
// diagnostic the returned error matches bridgeerr.ErrInvalidManifest and
// Output carries the diagnostics but no files.
func Run(ctx context.Context, inputs []Input, cfg *config.Config) (*Output, error) {
	out := &Output{Sources: make(map[string]string, len(inputs))}

	var units []unit

	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		out.Sources[in.Path] = string(in.Src)

		parsed, err := parse(ctx, in, &out.Diagnostics)
		if err != nil {
			return nil, err
		}

		units = append(units, parsed...)
	}

	if out.Diagnostics.HasErrors() {
		return out, failure(bridgeerr.PhaseParse, &out.Diagnostics)
	}

	opts := cfg.CheckOptions()

	for _, u := range units {
		b, diags := check.Check(u.file, opts)
		out.Diagnostics.Merge(diags)

		if b != nil {
			out.Bridges = append(out.Bridges, b)
		}
	}

	if out.Diagnostics.HasErrors() {
		out.Bridges = nil
		return out, failure(bridgeerr.PhaseValidate, &out.Diagnostics)
	}

	files, sidecars, err := generate(units, out.Bridges, cfg)
	if err != nil {
		return nil, err
	}

	out.Files = files
	out.Sidecars = sidecars

	Logger().Info("generated bridge glue",
		zap.Int("bridges", len(out.Bridges)),
		zap.Int("files", len(out.Files)),
		zap.Int("warnings", len(out.Diagnostics.Warnings)))

	return out, nil
}

// parse splits an input into manifests and parses each one.
func parse(ctx context.Context, in Input, diags *diagnostic.Diagnostics) ([]unit, error) {
	stem := gen.Stem(in.Path)

	if filepath.Ext(in.Path) != ".rs" {
		f, d := syntax.Parse(in.Path, string(in.Src))
		diags.Merge(d)

		return []unit{{stem: stem, file: f}}, nil
	}

	manifests, err := extract.Manifests(ctx, in.Src)
	if err != nil {
		return nil, bridgeerr.New(bridgeerr.PhaseExtract, bridgeerr.KindInternal).File(in.Path).Cause(err).Build()
	}

	if len(manifests) == 0 {
		diags.AddError(diagnostic.ClassSyntax, "no_bridge", diagnostic.Span{File: in.Path},
			"no #[bridge] module in %s", in.Path)

		return nil, nil
	}

	units := make([]unit, 0, len(manifests))

	for _, m := range manifests {
		f, d := syntax.ParseAt(in.Path, m.Text, m.Base)
		diags.Merge(d)

		u := unit{stem: stem, file: f}
		if len(manifests) > 1 {
			u.stem = stem + "_" + m.Module

			diags.AddInfo(diagnostic.ClassSemantic, "split_outputs", diagnostic.Span{File: in.Path, Start: m.Base, End: m.Base},
				"bridge module `%s` generates %s.bridge.* files", m.Module, u.stem)
		}

		Logger().Debug("extracted bridge",
			zap.String("file", in.Path),
			zap.String("module", m.Module),
			zap.Int("line", m.Base.Line))

		units = append(units, u)
	}

	return units, nil
}

func failure(phase bridgeerr.Phase, diags *diagnostic.Diagnostics) error {
	file := ""
	if len(diags.Errors) > 0 {
		file = diags.Errors[0].Span.File
	}

	n := len(diags.Errors)

	Logger().Warn("manifest rejected", zap.String("phase", string(phase)), zap.Int("errors", n))

	return bridgeerr.InvalidManifest(phase, file, n, diags.Error())
}

func generate(units []unit, bridges []*ir.Bridge, cfg *config.Config) (files, sidecars []gen.GeneratedFile, err error) {
	owner := make(map[string]string)

	add := func(source string, fs ...gen.GeneratedFile) error {
		for _, f := range fs {
			if prev, dup := owner[f.Filename]; dup {
				return bridgeerr.New(bridgeerr.PhaseGenerate, bridgeerr.KindInvalidConfig).
					File(source).
					Detail("%s is also generated from %s", f.Filename, prev).
					Build()
			}

			owner[f.Filename] = source
			files = append(files, f)
		}

		return nil
	}

	for i, b := range bridges {
		opts := cfg.GenOptions(units[i].stem)

		rs, err := host.Generate(b, opts)
		if err != nil {
			return nil, nil, generateErr(b, err)
		}

		cc, err := native.Generate(b, opts)
		if err != nil {
			return nil, nil, generateErr(b, err)
		}

		if err := add(b.Source, append([]gen.GeneratedFile{rs}, cc...)...); err != nil {
			return nil, nil, err
		}

		if cfg.EmitIR {
			data, err := ir.ExportYAML(b)
			if err != nil {
				return nil, nil, generateErr(b, err)
			}

			sidecars = append(sidecars, gen.GeneratedFile{Filename: opts.Stem + ".bridge.ir.yaml", Content: data})
		}
	}

	if cfg.EmitRuntime {
		rt, err := runtime.Files(runtime.Options{Header: filepath.Base(cfg.RuntimeHeader), Rust: RuntimeRustFile})
		if err != nil {
			return nil, nil, bridgeerr.New(bridgeerr.PhaseGenerate, bridgeerr.KindInternal).Cause(err).Build()
		}

		if err := add("runtime", rt...); err != nil {
			return nil, nil, err
		}
	}

	return files, sidecars, nil
}

func generateErr(b *ir.Bridge, err error) error {
	return bridgeerr.New(bridgeerr.PhaseGenerate, bridgeerr.KindInternal).
		File(b.Source).
		Item(b.Module).
		Cause(err).
		Build()
}

// WriteOutput writes out's files into dir. Sidecars are best effort.
func WriteOutput(out *Output, dir string) error {
	if len(out.Files) == 0 {
		return nil
	}

	if err := gen.WriteFiles(out.Files, dir); err != nil {
		return bridgeerr.IO(bridgeerr.PhaseWrite, dir, err)
	}

	for _, s := range out.Sidecars {
		if err := gen.WriteSidecar(dir, s.Filename, s.Content); err != nil {
			Logger().Warn("writing sidecar", zap.String("file", s.Filename), zap.Error(err))
		}
	}

	Logger().Debug("wrote files", zap.String("dir", dir), zap.Int("count", len(out.Files)))

	return nil
}

// String summarizes the output for logs.
func (o *Output) String() string {
	names := make([]string, len(o.Files))
	for i, f := range o.Files {
		names[i] = f.Filename
	}

	return fmt.Sprintf("%d bridge(s): %s", len(o.Bridges), strings.Join(names, ", "))
}
