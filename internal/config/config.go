// Package config loads and validates bridgegen.yaml.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"

	"bridge-generator/internal/bridgeerr"
	"bridge-generator/internal/check"
	"bridge-generator/internal/gen"
)

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = "bridgegen.yaml"

// Config controls one generator run.
type Config struct {
	// Output is the directory receiving generated files.
	Output string `yaml:"output" json:"output" validate:"required" jsonschema:"description=Directory receiving generated files,default=."`
	// Inputs are manifest files, Rust sources or directories to scan.
	Inputs []string `yaml:"inputs,omitempty" json:"inputs,omitempty" validate:"dive,required"`
	// Namespace applies to manifests that do not declare one.
	Namespace string `yaml:"namespace,omitempty" json:"namespace,omitempty" validate:"omitempty,cxxpath" jsonschema:"example=app::ffi"`

	HeaderOnly    bool   `yaml:"header_only,omitempty" json:"header_only,omitempty" jsonschema:"description=Emit only the C++ header"`
	HeaderExt     string `yaml:"header_ext" json:"header_ext" validate:"oneof=.h .hpp .hh .hxx" jsonschema:"enum=.h,enum=.hpp,enum=.hh,enum=.hxx,default=.h"`
	SourceExt     string `yaml:"source_ext" json:"source_ext" validate:"oneof=.cc .cpp .cxx" jsonschema:"enum=.cc,enum=.cpp,enum=.cxx,default=.cc"`
	HostRuntime   string `yaml:"host_runtime" json:"host_runtime" validate:"required,rustpath" jsonschema:"description=Rust path of the runtime module,default=::bridge"`
	RuntimeHeader string `yaml:"runtime_header" json:"runtime_header" validate:"required" jsonschema:"default=bridge.h"`

	// ClassKey forward-declares opaque native types; match how they are defined.
	ClassKey string `yaml:"class_key" json:"class_key" validate:"oneof=struct class" jsonschema:"enum=struct,enum=class,default=struct"`

	// Targets are the pointer widths, in bits, layouts are asserted for.
	Targets []int `yaml:"targets" json:"targets" validate:"min=1,unique,dive,oneof=32 64" jsonschema:"minItems=1,uniqueItems=true"`

	// EmitRuntime writes the runtime header and Rust module next to the glue.
	EmitRuntime bool `yaml:"emit_runtime,omitempty" json:"emit_runtime,omitempty"`
	// EmitIR writes a YAML rendering of each checked bridge.
	EmitIR bool `yaml:"emit_ir,omitempty" json:"emit_ir,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	applyDefaults(c)

	return c
}

// LoadFile loads, defaults and validates a configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, bridgeerr.IO(bridgeerr.PhaseConfig, path, err)
	}

	c, err := Parse(data)
	if err != nil {
		var be *bridgeerr.Error
		if errors.As(err, &be) {
			be.File = path
		}

		return nil, err
	}

	return c, nil
}

// Parse decodes YAML, applies defaults and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (*Config, error) {
	var c Config

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, bridgeerr.New(bridgeerr.PhaseConfig, bridgeerr.KindInvalidConfig).
			Detail("decoding YAML").
			Cause(err).
			Build()
	}

	applyDefaults(&c)

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

func applyDefaults(c *Config) {
	if c.Output == "" {
		c.Output = "."
	}

	if c.HeaderExt == "" {
		c.HeaderExt = ".h"
	}

	if c.SourceExt == "" {
		c.SourceExt = ".cc"
	}

	if c.HostRuntime == "" {
		c.HostRuntime = "::bridge"
	}

	if c.RuntimeHeader == "" {
		c.RuntimeHeader = "bridge.h"
	}

	if c.ClassKey == "" {
		c.ClassKey = "struct"
	}

	if len(c.Targets) == 0 {
		c.Targets = []int{64, 32}
	}
}

var (
	rustPath = regexp.MustCompile(`^(::)?[A-Za-z_]\w*(::[A-Za-z_]\w*)*$`)
	cxxPath  = regexp.MustCompile(`^[A-Za-z_]\w*(::[A-Za-z_]\w*)*$`)
)

var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	_ = v.RegisterValidation("rustpath", func(fl validator.FieldLevel) bool {
		return rustPath.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("cxxpath", func(fl validator.FieldLevel) bool {
		return cxxPath.MatchString(fl.Field().String())
	})

	return v
}()

// Validate checks field constraints and reports every violation at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return bridgeerr.New(bridgeerr.PhaseConfig, bridgeerr.KindInternal).Cause(err).Build()
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}

	return bridgeerr.New(bridgeerr.PhaseConfig, bridgeerr.KindInvalidConfig).
		Detail("%s", strings.Join(msgs, "; ")).
		Build()
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", field, fe.Param(), fe.Value())
	case "rustpath":
		return fmt.Sprintf("%s must be a Rust path such as ::bridge, got %q", field, fe.Value())
	case "cxxpath":
		return fmt.Sprintf("%s must be a C++ namespace such as app::ffi, got %q", field, fe.Value())
	case "unique":
		return field + " must not repeat entries"
	case "min":
		return fmt.Sprintf("%s needs at least %s entries", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %q", field, fe.Tag())
	}
}

// Schema returns the JSON schema of the configuration file.
func Schema() ([]byte, error) {
	r := jsonschema.Reflector{ExpandedStruct: true}

	s := r.Reflect(&Config{})
	s.Title = "bridgegen configuration"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling schema: %w", err)
	}

	return data, nil
}

// GenOptions returns the generator options for a manifest with stem.
func (c *Config) GenOptions(stem string) gen.Options {
	opts := gen.DefaultOptions(stem)
	opts.HeaderOnly = c.HeaderOnly
	opts.HeaderExt = c.HeaderExt
	opts.SourceExt = c.SourceExt
	opts.HostRuntime = c.HostRuntime
	opts.RuntimeHeader = c.RuntimeHeader
	opts.ClassKey = c.ClassKey

	return opts
}

// CheckOptions returns the validator options, widest target first.
func (c *Config) CheckOptions() check.Options {
	opts := check.Options{}

	if c.Namespace != "" {
		opts.Namespace = strings.Split(c.Namespace, "::")
	}

	for _, bits := range []int{64, 32} {
		for _, t := range c.Targets {
			if t == bits {
				opts.WordSizes = append(opts.WordSizes, uint64(bits/8))
			}
		}
	}

	return opts
}
