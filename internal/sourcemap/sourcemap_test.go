package sourcemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseRoundTrip(t *testing.T) {
	gen := NewGenerator("src/user.py", "prompts/user.prompt.md")
	gen.AddLines(5, 2)

	data, err := gen.Generate()
	require.NoError(t, err)

	consumer, err := Parse("src/user.py", data)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		promptPath, sourceLine, ok := consumer.SourceLine(i)
		require.True(t, ok)
		assert.Equal(t, "prompts/user.prompt.md", promptPath)
		assert.Equal(t, 2+i, sourceLine)
	}
}

func TestEncodeVLQ_NonEmptyForBoundaryValues(t *testing.T) {
	// Encoding then decoding through the go-sourcemap consumer is the real
	// assertion (above); here we just check the encoder never panics on
	// boundary values and always emits at least one character.
	for _, v := range []int{0, 1, -1, 31, 32, -32, 1000000} {
		out := encodeVLQ(v)
		assert.NotEmpty(t, out)
	}
}

func TestMapFilePath(t *testing.T) {
	assert.Equal(t, "src/user.py.lit-map.json", MapFilePath("src/user.py"))
}
