package shortcode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	t.Run("fixed length", func(t *testing.T) {
		code, err := Generate()

		require.NoError(t, err)
		assert.Len(t, code, Length)
	})

	t.Run("url-safe alphabet", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			code, err := Generate()

			require.NoError(t, err)
			for _, r := range code {
				assert.True(t, strings.ContainsRune(Alphabet, r),
					"code %q contains character outside alphabet", code)
			}
		}
	})

	t.Run("distinct draws", func(t *testing.T) {
		seen := make(map[string]struct{}, 1000)

		for i := 0; i < 1000; i++ {
			code, err := Generate()

			require.NoError(t, err)
			_, dup := seen[code]
			require.False(t, dup, "duplicate code %q", code)
			seen[code] = struct{}{}
		}
	})
}
