package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptrU64(v uint64) *uint64 { return &v }
func ptrStr(v string) *string { return &v }

func TestCompute_SameInputsSameHash(t *testing.T) {
	h1 := Compute("prompt content", []Import{{"a.prompt.md", "hash_a"}}, "claude-sonnet-4-5", 0.0, ptrU64(42), "python", ptrStr("fastapi"))
	h2 := Compute("prompt content", []Import{{"a.prompt.md", "hash_a"}}, "claude-sonnet-4-5", 0.0, ptrU64(42), "python", ptrStr("fastapi"))
	assert.Equal(t, h1, h2)
}

func TestCompute_ChangedPromptDifferentHash(t *testing.T) {
	h1 := Compute("prompt v1", nil, "claude-sonnet-4-5", 0.0, nil, "python", nil)
	h2 := Compute("prompt v2", nil, "claude-sonnet-4-5", 0.0, nil, "python", nil)
	assert.NotEqual(t, h1, h2)
}

func TestCompute_ChangedImportDifferentHash(t *testing.T) {
	h1 := Compute("prompt", []Import{{"dep.prompt.md", "v1"}}, "m", 0.0, nil, "python", nil)
	h2 := Compute("prompt", []Import{{"dep.prompt.md", "v2"}}, "m", 0.0, nil, "python", nil)
	assert.NotEqual(t, h1, h2)
}

func TestCompute_ChangedModelDifferentHash(t *testing.T) {
	h1 := Compute("prompt", nil, "claude-sonnet-4-5", 0.0, nil, "python", nil)
	h2 := Compute("prompt", nil, "gpt-4", 0.0, nil, "python", nil)
	assert.NotEqual(t, h1, h2)
}

func TestCompute_ChangedTemperatureDifferentHash(t *testing.T) {
	h1 := Compute("p", nil, "m", 0.0, nil, "py", nil)
	h2 := Compute("p", nil, "m", 0.5, nil, "py", nil)
	assert.NotEqual(t, h1, h2)
}

func TestCompute_ChangedSeedDifferentHash(t *testing.T) {
	h1 := Compute("p", nil, "m", 0.0, ptrU64(42), "py", nil)
	h2 := Compute("p", nil, "m", 0.0, ptrU64(99), "py", nil)
	assert.NotEqual(t, h1, h2)
}

func TestCompute_ChangedLanguageDifferentHash(t *testing.T) {
	h1 := Compute("p", nil, "m", 0.0, nil, "python", nil)
	h2 := Compute("p", nil, "m", 0.0, nil, "go", nil)
	assert.NotEqual(t, h1, h2)
}

func TestCompute_ChangedFrameworkDifferentHash(t *testing.T) {
	h1 := Compute("p", nil, "m", 0.0, nil, "python", ptrStr("fastapi"))
	h2 := Compute("p", nil, "m", 0.0, nil, "python", ptrStr("django"))
	assert.NotEqual(t, h1, h2)
}

func TestCompute_ImportOrderDoesNotMatter(t *testing.T) {
	h1 := Compute("prompt", []Import{{"b.prompt.md", "hash_b"}, {"a.prompt.md", "hash_a"}}, "model", 0.0, nil, "python", nil)
	h2 := Compute("prompt", []Import{{"a.prompt.md", "hash_a"}, {"b.prompt.md", "hash_b"}}, "model", 0.0, nil, "python", nil)
	assert.Equal(t, h1, h2, "import order should not affect hash")
}

func TestCompute_CascadeOnAncestorChange(t *testing.T) {
	// Linear chain A -> B: B's fingerprint must change when A's fingerprint
	// changes, even though B's own text is untouched.
	aHash1 := Compute("A body v1", nil, "m", 0.0, nil, "py", nil)
	aHash2 := Compute("A body v2", nil, "m", 0.0, nil, "py", nil)
	require := assert.New(t)
	require.NotEqual(aHash1, aHash2)

	bHash1 := Compute("B body", []Import{{"a.prompt.md", aHash1}}, "m", 0.0, nil, "py", nil)
	bHash2 := Compute("B body", []Import{{"a.prompt.md", aHash2}}, "m", 0.0, nil, "py", nil)
	require.NotEqual(bHash1, bHash2)
}
