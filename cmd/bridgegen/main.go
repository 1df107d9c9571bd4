// bridgegen reads bridge manifests and writes the Rust and C++ glue that
// lets each side call the other.
//
// Usage:
//
//	bridgegen [flags] <manifest.bridge | file.rs | dir>...
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"go.uber.org/zap"
	"golang.org/x/term"

	"bridge-generator/internal/bridgeerr"
	"bridge-generator/internal/config"
	"bridge-generator/internal/diagnostic"
	"bridge-generator/internal/pipeline"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, bridgeerr.ErrInvalidManifest) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}

		os.Exit(1)
	}
}

type flags struct {
	configPath  string
	output      string
	namespace   string
	headerOnly  bool
	emitIR      bool
	emitRuntime bool
	verbose     bool
	printSchema bool
	showVersion bool
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("bridgegen", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var f flags

	fs.StringVar(&f.configPath, "config", "", "configuration file (default ./"+config.DefaultFile+" when present)")
	fs.StringVar(&f.output, "o", "", "output directory")
	fs.StringVar(&f.namespace, "namespace", "", "C++ namespace for manifests that declare none")
	fs.BoolVar(&f.headerOnly, "header-only", false, "emit only the C++ header")
	fs.BoolVar(&f.emitIR, "emit-ir", false, "also write a YAML dump of each checked bridge")
	fs.BoolVar(&f.emitRuntime, "emit-runtime", false, "also write the runtime header and Rust module")
	fs.BoolVar(&f.verbose, "v", false, "verbose logging")
	fs.BoolVar(&f.printSchema, "print-schema", false, "print the configuration JSON schema and exit")
	fs.BoolVar(&f.showVersion, "version", false, "show version and exit")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}

		return err
	}

	if f.showVersion {
		_, _ = fmt.Fprintf(stdout, "bridgegen %s\n", version)
		return nil
	}

	if f.printSchema {
		schema, err := config.Schema()
		if err != nil {
			return err
		}

		_, err = fmt.Fprintf(stdout, "%s\n", schema)

		return err
	}

	if f.verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		defer func() { _ = l.Sync() }()

		pipeline.SetLogger(l)
	}

	cfg, err := loadConfig(f.configPath)
	if err != nil {
		return err
	}

	override(fs, &f, cfg)

	if fs.NArg() > 0 {
		cfg.Inputs = fs.Args()
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	if len(cfg.Inputs) == 0 {
		fs.Usage()
		return errors.New("no inputs: pass manifests, Rust sources or directories")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	inputs, err := pipeline.Collect(cfg.Inputs)
	if err != nil {
		return err
	}

	out, runErr := pipeline.Run(ctx, inputs, cfg)
	if out != nil && out.Diagnostics.Len() > 0 {
		r := diagnostic.Renderer{Color: isTerminal(stderr), Sources: out.Sources}
		if err := r.Render(stderr, &out.Diagnostics); err != nil {
			return err
		}
	}

	if runErr != nil {
		return runErr
	}

	if err := pipeline.WriteOutput(out, cfg.Output); err != nil {
		return err
	}

	for _, file := range out.Files {
		_, _ = fmt.Fprintln(stdout, file.Filename)
	}

	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}

	if _, err := os.Stat(config.DefaultFile); err == nil {
		return config.LoadFile(config.DefaultFile)
	}

	return config.Default(), nil
}

// override applies the flags given on the command line over cfg.
func override(fs *flag.FlagSet, f *flags, cfg *config.Config) {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "o":
			cfg.Output = f.output
		case "namespace":
			cfg.Namespace = f.namespace
		case "header-only":
			cfg.HeaderOnly = f.headerOnly
		case "emit-ir":
			cfg.EmitIR = f.emitIR
		case "emit-runtime":
			cfg.EmitRuntime = f.emitRuntime
		}
	})
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
