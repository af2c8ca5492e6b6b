package patch

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectPatches_OnlyChangedAndSorted(t *testing.T) {
	generated := map[string]string{
		"b.py": "b gen\n",
		"a.py": "a gen\n",
		"c.py": "same\n",
	}
	actual := map[string]string{
		"b.py": "b user\n",
		"a.py": "a gen\n",
		"c.py": "same\n",
	}
	infos := DetectPatches(generated, actual)
	require.Len(t, infos, 1)
	assert.Equal(t, "b.py", infos[0].OutputPath)
	assert.Contains(t, infos[0].Diff, "-b gen")
	assert.Contains(t, infos[0].Diff, "+b user")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	require.NoError(t, store.Save("src/user.py", "orig\n", "manual\n"))

	sp, ok, err := store.Load("src/user.py")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "orig\n", sp.OriginalContent)
	assert.Equal(t, "manual\n", sp.ManualContent)
	assert.NotEmpty(t, sp.Diff)

	assert.Equal(t, filepath.Join(dir, "src", "user.py"+patchSuffix), store.patchFilePath("src/user.py"))
}

func TestLoad_Missing(t *testing.T) {
	store := NewStore(t.TempDir())
	_, ok, err := store.Load("nope.py")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListAndDrop(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	require.NoError(t, store.Save("src/a.py", "o\n", "m\n"))
	require.NoError(t, store.Save("src/nested/b.py", "o\n", "m\n"))

	list, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.py", "src/nested/b.py"}, list)

	assert.True(t, store.HasPatch("src/a.py"))
	require.NoError(t, store.Drop("src/nested/b.py"))
	assert.False(t, store.HasPatch("src/nested/b.py"))

	list, err = store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.py"}, list)
}

func TestApply_NoChange(t *testing.T) {
	res := Apply("same\n", "same\n", "manual edits\n")
	assert.False(t, res.Conflict)
	assert.Equal(t, "manual edits\n", res.Content)
}

func TestApply_NonOverlapping(t *testing.T) {
	original := "L1\nL2\nL3\nL4\nL5\n"
	manual := "L1\nL2_user\nL3\nL4\nL5\n"
	newGen := "L1\nL2\nL3\nL4_llm\nL5\n"

	res := Apply(original, newGen, manual)
	require.False(t, res.Conflict)
	assert.Contains(t, res.Content, "L2_user")
	assert.Contains(t, res.Content, "L4_llm")
}

func TestApply_Conflict(t *testing.T) {
	original := "L1\nL2\nL3\n"
	manual := "L1\nL2_user\nL3\n"
	newGen := "L1\nL2_llm\nL3\n"

	res := Apply(original, newGen, manual)
	require.True(t, res.Conflict)
	assert.Contains(t, res.Content, "<<<<<<<")
	assert.Contains(t, res.Content, "=======")
	assert.Contains(t, res.Content, ">>>>>>>")
	assert.Contains(t, res.Content, "manual-patch")
	assert.Contains(t, res.Content, "generated")
}

func TestApply_EmptyInputsNormalizeTrailingNewline(t *testing.T) {
	res := Apply("", "", "no newline at all")
	assert.False(t, res.Conflict)
	assert.Equal(t, "no newline at all\n", res.Content)
}
