package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePassword(t *testing.T) {
	for _, n := range []int{8, 9, 16, 64} {
		for i := 0; i < 50; i++ {
			pw, err := GeneratePassword(n)
			require.NoError(t, err)
			assert.Len(t, pw, n)
			assert.True(t, ValidatePassword(pw), "generated %q fails policy", pw)
		}
	}
}

func TestGeneratePassword_TooShort(t *testing.T) {
	_, err := GeneratePassword(7)
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestGeneratePassword_Varies(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		pw, err := GeneratePassword(DefaultPasswordLength)
		require.NoError(t, err)
		seen[pw] = true
	}
	assert.Len(t, seen, 20)
}
