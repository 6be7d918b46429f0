package compress

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressors(t *testing.T) {
	content := []byte(`{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"` +
		strings.Repeat("Hello world ", 200) + `"}]}]}`)

	for _, name := range []string{NameNop, NameGZip, NameBrotli, NameLZ4} {
		t.Run(name, func(t *testing.T) {
			c, err := Lookup(name)
			require.NoError(t, err)
			assert.Equal(t, name, c.Name())

			encoded, err := c.Encode(content)
			require.NoError(t, err)
			if name != NameNop {
				assert.Less(t, len(encoded), len(content))
			}

			decoded, err := c.Decode(encoded)
			require.NoError(t, err)
			assert.Equal(t, content, decoded)
		})
	}
}

func TestLookup(t *testing.T) {
	c, err := Lookup("")
	require.NoError(t, err)
	assert.Equal(t, NameNop, c.Name())

	_, err = Lookup("zstd")
	assert.ErrorIs(t, err, ErrUnknownCompression)
}
