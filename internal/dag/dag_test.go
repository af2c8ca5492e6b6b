package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clintonboys/lit/internal/errs"
	"github.com/clintonboys/lit/internal/prompt"
)

func mkPrompt(path string, outputs, imports []string) *prompt.Prompt {
	return &prompt.Prompt{Path: path, Outputs: outputs, Imports: imports}
}

func TestBuild_LinearChain(t *testing.T) {
	a := mkPrompt("a.prompt.md", []string{"a.py"}, nil)
	b := mkPrompt("b.prompt.md", []string{"b.py"}, []string{"a.prompt.md"})
	c := mkPrompt("c.prompt.md", []string{"c.py"}, []string{"b.prompt.md"})

	d, err := Build([]*prompt.Prompt{c, a, b})
	require.NoError(t, err)

	assert.Equal(t, []string{"a.prompt.md", "b.prompt.md", "c.prompt.md"}, d.Order())
	assert.Equal(t, []string{"a.prompt.md", "b.prompt.md", "c.prompt.md"},
		d.RegenerationSet([]string{"a.prompt.md"}))
	assert.Equal(t, []string{"c.prompt.md"}, d.RegenerationSet([]string{"c.prompt.md"}))
}

func TestBuild_Diamond(t *testing.T) {
	a := mkPrompt("a.prompt.md", []string{"a.py"}, nil)
	b := mkPrompt("b.prompt.md", []string{"b.py"}, []string{"a.prompt.md"})
	c := mkPrompt("c.prompt.md", []string{"c.py"}, []string{"a.prompt.md"})
	dd := mkPrompt("d.prompt.md", []string{"d.py"}, []string{"b.prompt.md", "c.prompt.md"})

	g, err := Build([]*prompt.Prompt{dd, c, b, a})
	require.NoError(t, err)

	order := g.Order()
	require.Len(t, order, 4)
	assert.Equal(t, "a.prompt.md", order[0])
	assert.Equal(t, "d.prompt.md", order[3])

	regen := g.RegenerationSet([]string{"c.prompt.md"})
	assert.Equal(t, []string{"c.prompt.md", "d.prompt.md"}, regen)
}

func TestBuild_Cycle(t *testing.T) {
	a := mkPrompt("a.prompt.md", []string{"a.py"}, []string{"b.prompt.md"})
	b := mkPrompt("b.prompt.md", []string{"b.py"}, []string{"a.prompt.md"})

	_, err := Build([]*prompt.Prompt{a, b})
	require.Error(t, err)
	var cycleErr *errs.Cycle
	require.ErrorAs(t, err, &cycleErr)
	assert.Contains(t, cycleErr.Path, "a.prompt.md")
	assert.Contains(t, cycleErr.Path, "b.prompt.md")
}

func TestBuild_OutputConflict(t *testing.T) {
	a := mkPrompt("a.prompt.md", []string{"src/shared.py"}, nil)
	b := mkPrompt("b.prompt.md", []string{"src/shared.py"}, nil)

	_, err := Build([]*prompt.Prompt{a, b})
	require.Error(t, err)
	var conflictErr *errs.OutputConflicts
	require.ErrorAs(t, err, &conflictErr)
	assert.ElementsMatch(t, []string{"a.prompt.md", "b.prompt.md"}, conflictErr.Conflicts["src/shared.py"])
}

func TestBuild_MissingImport(t *testing.T) {
	a := mkPrompt("a.prompt.md", []string{"a.py"}, []string{"missing.prompt.md"})

	_, err := Build([]*prompt.Prompt{a})
	require.Error(t, err)
	var missingErr *errs.MissingImports
	require.ErrorAs(t, err, &missingErr)
	assert.Contains(t, missingErr.Pairs[0], "missing.prompt.md")
}

func TestRootsAndLeaves(t *testing.T) {
	a := mkPrompt("a.prompt.md", []string{"a.py"}, nil)
	b := mkPrompt("b.prompt.md", []string{"b.py"}, []string{"a.prompt.md"})

	g, err := Build([]*prompt.Prompt{a, b})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.prompt.md"}, g.Roots())
	assert.Equal(t, []string{"b.prompt.md"}, g.Leaves())
}

func TestRegenerationSet_IndependentPromptsNotPulledIn(t *testing.T) {
	a := mkPrompt("a.prompt.md", []string{"a.py"}, nil)
	b := mkPrompt("b.prompt.md", []string{"b.py"}, nil)

	g, err := Build([]*prompt.Prompt{a, b})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.prompt.md"}, g.RegenerationSet([]string{"a.prompt.md"}))
}

func TestRegenerationSet_UnknownPathIgnored(t *testing.T) {
	a := mkPrompt("a.prompt.md", []string{"a.py"}, nil)
	g, err := Build([]*prompt.Prompt{a})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.prompt.md"}, g.RegenerationSet([]string{"a.prompt.md", "nonexistent.prompt.md"}))
}

func TestEmptyDag(t *testing.T) {
	g, err := Build(nil)
	require.NoError(t, err)
	assert.True(t, g.IsEmpty())
	assert.Equal(t, 0, g.Len())
}

func TestDisplayFormat(t *testing.T) {
	a := mkPrompt("a.prompt.md", []string{"a.py"}, nil)
	g, err := Build([]*prompt.Prompt{a})
	require.NoError(t, err)
	s := g.String()
	assert.Contains(t, s, "DAG (1 nodes)")
	assert.Contains(t, s, "1. a.prompt.md")
}
