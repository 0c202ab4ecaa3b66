package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/jsvensson/kamfmt/internal/format"
)

// File names searched for, in order, in every directory.
const (
	HCLFile  = "kamfmt.hcl"
	TOMLFile = "kamfmt.toml"
)

// Config is the resolved project configuration.
type Config struct {
	Path   string // file the config was loaded from; empty for defaults
	Dir    string // directory that relative globs are resolved against
	Files  Files
	Format Format
	LSP    LSP
}

// Files selects which files in a directory are configuration sources.
type Files struct {
	Include []string
	Exclude []string
}

// Format configures the fmt command and the language server.
type Format struct {
	Strategy string
	Validate bool
}

// LSP configures the language server.
type LSP struct {
	Diagnostics bool
}

// Formatter returns the formatter selected by Strategy.
func (c *Config) Formatter() (format.Formatter, error) {
	return format.ByName(c.Format.Strategy)
}

// Default returns the configuration used when no project file exists.
func Default() *Config {
	return &Config{
		Files: Files{
			Include: []string{"*.cfg"},
		},
		Format: Format{Strategy: format.StrategyRules},
		LSP:    LSP{Diagnostics: true},
	}
}

// fileConfig mirrors the on-disk layout. Pointers distinguish absent blocks
// and attributes from zero values. Unknown blocks and attributes are decode
// errors.
type fileConfig struct {
	Files  *filesBlock  `hcl:"files,block" toml:"files"`
	Format *formatBlock `hcl:"format,block" toml:"format"`
	LSP    *lspBlock    `hcl:"lsp,block" toml:"lsp"`
}

type filesBlock struct {
	Include []string `hcl:"include,optional" toml:"include"`
	Exclude []string `hcl:"exclude,optional" toml:"exclude"`
}

type formatBlock struct {
	Strategy *string `hcl:"strategy,optional" toml:"strategy"`
	Validate *bool   `hcl:"validate,optional" toml:"validate"`
}

type lspBlock struct {
	Diagnostics *bool `hcl:"diagnostics,optional" toml:"diagnostics"`
}

// Load reads a config file. The format is chosen by extension.
func Load(path string) (*Config, error) {
	var raw fileConfig
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		err = decodeHCL(path, &raw)
	case ".toml":
		err = decodeTOML(path, &raw)
	default:
		return nil, fmt.Errorf("unsupported config file %s: expected .hcl or .toml", path)
	}
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving config path: %w", err)
	}

	cfg := Default()
	cfg.Path = abs
	cfg.Dir = filepath.Dir(abs)
	if err := cfg.merge(&raw); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func decodeHCL(path string, raw *fileConfig) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	file, diags := hclsyntax.ParseConfig(src, path, hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return fmt.Errorf("parsing HCL: %s", diags.Error())
	}

	if diags := gohcl.DecodeBody(file.Body, evalContext(), raw); diags.HasErrors() {
		return fmt.Errorf("decoding config: %s", diags.Error())
	}
	return nil
}

func decodeTOML(path string, raw *fileConfig) error {
	meta, err := toml.DecodeFile(path, raw)
	if err != nil {
		return fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	return nil
}

func (c *Config) merge(raw *fileConfig) error {
	if raw.Files != nil {
		if raw.Files.Include != nil {
			c.Files.Include = raw.Files.Include
		}
		if len(raw.Files.Exclude) > 0 {
			c.Files.Exclude = raw.Files.Exclude
		}
	}
	if raw.Format != nil {
		if raw.Format.Strategy != nil {
			c.Format.Strategy = *raw.Format.Strategy
		}
		if raw.Format.Validate != nil {
			c.Format.Validate = *raw.Format.Validate
		}
	}
	if raw.LSP != nil && raw.LSP.Diagnostics != nil {
		c.LSP.Diagnostics = *raw.LSP.Diagnostics
	}

	if _, err := format.ByName(c.Format.Strategy); err != nil {
		return fmt.Errorf("format.strategy: %w", err)
	}
	for _, pattern := range append(append([]string{}, c.Files.Include...), c.Files.Exclude...) {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("files: bad pattern %q: %w", pattern, err)
		}
	}
	return nil
}

// Discover walks up from startDir looking for kamfmt.hcl or kamfmt.toml.
func Discover(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		for _, name := range []string{HCLFile, TOMLFile} {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, true, nil
			} else if !errors.Is(err, os.ErrNotExist) {
				return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Resolve loads the project config governing startDir, or the defaults
// rooted at startDir when there is none.
func Resolve(startDir string) (*Config, error) {
	path, ok, err := Discover(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		cfg := Default()
		dir, err := filepath.Abs(startDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve start directory: %w", err)
		}
		cfg.Dir = dir
		return cfg, nil
	}
	return Load(path)
}

// evalContext exposes env("NAME") to HCL expressions.
func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Functions: map[string]function.Function{
			"env": makeEnvFunc(),
		},
	}
}

// makeEnvFunc creates an HCL function returning an environment variable, or
// the empty string when it is unset.
func makeEnvFunc() function.Function {
	return function.New(&function.Spec{
		Description: "Returns the value of an environment variable",
		Params: []function.Parameter{
			{Name: "name", Type: cty.String},
		},
		Type: function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			return cty.StringVal(os.Getenv(args[0].AsString())), nil
		},
	})
}
