package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStdLogger(t *testing.T) {
	lg := StdLogger()
	require.NotNil(t, lg)

	// Must be usable as the process logger without further setup.
	lg.Info().Str(CategoryField, CategoryExec).Msg("console logger ready")
}

func TestCategoriesDistinct(t *testing.T) {
	cats := []string{CategoryQuote, CategoryExec, CategoryChain, CategoryVolume, CategoryAudit, CategoryRetry}
	seen := make(map[string]bool, len(cats))
	for _, c := range cats {
		assert.NotEmpty(t, c)
		assert.False(t, seen[c], c)
		seen[c] = true
	}
}
