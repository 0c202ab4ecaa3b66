package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleHCL = `
files {
  include = ["*.cfg", "routing/*.cfg"]
  exclude = ["*.local.cfg"]
}

format {
  strategy = "braces"
  validate = true
}

lsp {
  diagnostics = false
}
`

const sampleTOML = `
[files]
include = ["kamailio.cfg"]

[format]
validate = true
`

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadHCL(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, HCLFile, sampleHCL)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"*.cfg", "routing/*.cfg"}, cfg.Files.Include)
	assert.Equal(t, []string{"*.local.cfg"}, cfg.Files.Exclude)
	assert.Equal(t, "braces", cfg.Format.Strategy)
	assert.True(t, cfg.Format.Validate)
	assert.False(t, cfg.LSP.Diagnostics)
	assert.Equal(t, filepath.Dir(cfg.Path), cfg.Dir)
}

func TestLoadHCLDefaultsForMissingBlocks(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, HCLFile, "format {\n  validate = true\n}\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"*.cfg"}, cfg.Files.Include)
	assert.Equal(t, "rules", cfg.Format.Strategy)
	assert.True(t, cfg.Format.Validate)
	assert.True(t, cfg.LSP.Diagnostics)
}

func TestLoadHCLEnvFunction(t *testing.T) {
	t.Setenv("KAMFMT_TEST_STRATEGY", "braces")
	dir := t.TempDir()
	path := writeTemp(t, dir, HCLFile, "format {\n  strategy = env(\"KAMFMT_TEST_STRATEGY\")\n}\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "braces", cfg.Format.Strategy)
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, TOMLFile, sampleTOML)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"kamailio.cfg"}, cfg.Files.Include)
	assert.Equal(t, "rules", cfg.Format.Strategy)
	assert.True(t, cfg.Format.Validate)
	assert.True(t, cfg.LSP.Diagnostics)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unknown strategy", HCLFile, "format {\n  strategy = \"tabs\"\n}\n"},
		{"unknown block", HCLFile, "theme {\n}\n"},
		{"unknown attribute", HCLFile, "format {\n  width = 4\n}\n"},
		{"syntax error", HCLFile, "format {\n"},
		{"bad glob", HCLFile, "files {\n  include = [\"[\"]\n}\n"},
		{"unknown toml key", TOMLFile, "[format]\nwidth = 4\n"},
		{"bad toml", TOMLFile, "[format\n"},
		{"unsupported extension", "kamfmt.yaml", "format: {}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTemp(t, t.TempDir(), tt.file, tt.content)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), HCLFile))
	assert.Error(t, err)
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	writeTemp(t, root, TOMLFile, sampleTOML)
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	path, ok, err := Discover(nested)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, TOMLFile), path)
}

func TestDiscoverPrefersHCL(t *testing.T) {
	root := t.TempDir()
	writeTemp(t, root, TOMLFile, sampleTOML)
	writeTemp(t, root, HCLFile, sampleHCL)

	path, ok, err := Discover(root)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, HCLFile), path)
}

func TestResolveWithoutConfig(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Resolve(dir)
	require.NoError(t, err)

	if cfg.Path != "" {
		// Some parent of the temp directory carries a config; nothing to assert.
		t.Skipf("found ambient config at %s", cfg.Path)
	}
	assert.Equal(t, Default().Files, cfg.Files)
	assert.Equal(t, dir, cfg.Dir)
}

func TestHCLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Files.Exclude = []string{"old/*.cfg"}
	cfg.Format.Validate = true

	dir := t.TempDir()
	path := writeTemp(t, dir, HCLFile, string(cfg.HCL()))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Files, loaded.Files)
	assert.Equal(t, cfg.Format, loaded.Format)
	assert.Equal(t, cfg.LSP, loaded.LSP)
}

func TestDefaultHCLRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, HCLFile, string(Default().HCL()))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Files, loaded.Files)
	assert.Equal(t, Default().Format, loaded.Format)
}

func TestLoadEmptyExcludeKeepsDefault(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, TOMLFile, "[files]\nexclude = []\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Files, cfg.Files)
}

func TestFormatter(t *testing.T) {
	cfg := Default()
	f, err := cfg.Formatter()
	require.NoError(t, err)
	assert.NotNil(t, f)
}
