package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clintonboys/lit/internal/errs"
)

func TestParse_Basic(t *testing.T) {
	raw := "---\n" +
		"outputs = [\"src/user.py\"]\n" +
		"imports = [\"prompts/base.prompt.md\"]\n" +
		"---\n" +
		"Generate a User model.\n"

	p, err := Parse("prompts/user.prompt.md", raw, "direct")
	require.NoError(t, err)
	assert.Equal(t, []string{"src/user.py"}, p.Outputs)
	assert.Equal(t, []string{"prompts/base.prompt.md"}, p.Imports)
	assert.Equal(t, "Generate a User model.\n", p.Body)
	assert.Nil(t, p.Model)
	assert.Nil(t, p.Language)
	assert.Empty(t, p.Warnings)
}

func TestParse_ModelAndLanguageOverride(t *testing.T) {
	raw := "---\n" +
		"outputs = [\"src/user.py\"]\n" +
		"imports = []\n" +
		"language = \"python\"\n" +
		"[model]\n" +
		"provider = \"anthropic\"\n" +
		"model = \"claude-sonnet-4-5\"\n" +
		"temperature = 0.2\n" +
		"seed = 7\n" +
		"---\n" +
		"Body text.\n"

	p, err := Parse("p.prompt.md", raw, "direct")
	require.NoError(t, err)
	require.NotNil(t, p.Model)
	assert.Equal(t, "anthropic", p.Model.Provider)
	assert.Equal(t, "claude-sonnet-4-5", p.Model.Model)
	assert.Equal(t, 0.2, p.Model.Temperature)
	require.NotNil(t, p.Model.Seed)
	assert.EqualValues(t, 7, *p.Model.Seed)
	require.NotNil(t, p.Language)
	assert.Equal(t, "python", *p.Language)
}

func TestParse_HeaderMissing(t *testing.T) {
	_, err := Parse("p.prompt.md", "no header here\n", "direct")
	require.Error(t, err)
	var target *errs.HeaderMissing
	assert.ErrorAs(t, err, &target)
}

func TestParse_HeaderUnterminated(t *testing.T) {
	raw := "---\noutputs = []\nimports = []\n"
	_, err := Parse("p.prompt.md", raw, "direct")
	require.Error(t, err)
	var target *errs.HeaderUnterminated
	assert.ErrorAs(t, err, &target)
}

func TestParse_EmptyHeaderPayload(t *testing.T) {
	// Degenerate case: closing delimiter immediately follows the opener,
	// leaving an empty payload. Empty is valid TOML (zero outputs/imports).
	raw := "---\n---\nbody\n"
	p, err := Parse("p.prompt.md", raw, "direct")
	require.NoError(t, err)
	assert.Empty(t, p.Outputs)
	assert.Empty(t, p.Imports)
	assert.Equal(t, "body\n", p.Body)
}

func TestParse_HeaderMalformed(t *testing.T) {
	raw := "---\noutputs = [1,\n---\nbody\n"
	_, err := Parse("p.prompt.md", raw, "direct")
	require.Error(t, err)
	var target *errs.HeaderMalformed
	assert.ErrorAs(t, err, &target)
}

func TestParse_BodyPreservesLeadingBlankLine(t *testing.T) {
	// A blank line right after the closing delimiter is part of the body,
	// not an artifact of the header syntax - it must survive byte-for-byte.
	raw := "---\n" +
		"outputs = [\"a.py\"]\n" +
		"imports = []\n" +
		"---\n" +
		"\n" +
		"Body text after a blank line.\n"

	p, err := Parse("p.prompt.md", raw, "direct")
	require.NoError(t, err)
	assert.Equal(t, "\nBody text after a blank line.\n", p.Body)
}

func TestParse_InvalidImportExtension(t *testing.T) {
	raw := "---\n" +
		"outputs = [\"a.py\"]\n" +
		"imports = [\"prompts/base.txt\"]\n" +
		"---\n" +
		"body\n"
	_, err := Parse("p.prompt.md", raw, "direct")
	require.Error(t, err)
	var target *errs.InvalidImportExtension
	assert.ErrorAs(t, err, &target)
}

func TestParse_NoOutputsInManifestMode(t *testing.T) {
	raw := "---\noutputs = []\nimports = []\n---\nbody\n"
	_, err := Parse("p.prompt.md", raw, "manifest")
	require.Error(t, err)
	var target *errs.NoOutputsInManifestMode
	assert.ErrorAs(t, err, &target)

	// Non-manifest modes tolerate zero outputs.
	_, err = Parse("p.prompt.md", raw, "direct")
	assert.NoError(t, err)
}

func TestParse_BodyImportWarningNonFatal(t *testing.T) {
	raw := "---\n" +
		"outputs = [\"a.py\"]\n" +
		"imports = []\n" +
		"---\n" +
		"See @import(prompts/other.prompt.md) for context.\n"
	p, err := Parse("p.prompt.md", raw, "direct")
	require.NoError(t, err)
	require.Len(t, p.Warnings, 1)
	assert.Contains(t, p.Warnings[0], "prompts/other.prompt.md")
	// The body reference must never be synthesized into header imports.
	assert.Empty(t, p.Imports)
}

func TestParse_BodyImportDeclaredInHeaderNoWarning(t *testing.T) {
	raw := "---\n" +
		"outputs = [\"a.py\"]\n" +
		"imports = [\"prompts/other.prompt.md\"]\n" +
		"---\n" +
		"See @import(prompts/other.prompt.md) for context.\n"
	p, err := Parse("p.prompt.md", raw, "direct")
	require.NoError(t, err)
	assert.Empty(t, p.Warnings)
}

func TestIsPromptFile(t *testing.T) {
	assert.True(t, IsPromptFile("user.prompt.md"))
	assert.False(t, IsPromptFile("user.md"))
	assert.False(t, IsPromptFile("readme.txt"))
}

func TestDiscoverPrompts_SortedRecursive(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		"b/second.prompt.md",
		"a/first.prompt.md",
		"top.prompt.md",
		"ignored.md",
	}
	for _, p := range paths {
		full := filepath.Join(dir, p)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte("---\noutputs=[]\nimports=[]\n---\nx\n"), 0o644))
	}

	found, err := DiscoverPrompts(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a/first.prompt.md", "b/second.prompt.md", "top.prompt.md"}, found)
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	rel := "prompts/user.prompt.md"
	full := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte("---\noutputs=[\"a.py\"]\nimports=[]\n---\nhi\n"), 0o644))

	p, err := ParseFile(dir, rel, "direct")
	require.NoError(t, err)
	assert.Equal(t, rel, p.Path)
	assert.Equal(t, []string{"a.py"}, p.Outputs)
}
