package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dappkit/internal/store"
)

func TestCheckPassphrase(t *testing.T) {
	require.NoError(t, store.CheckPassphrase("Correct-Horse-42"))

	err := store.CheckPassphrase("short")
	assert.ErrorIs(t, err, store.ErrWeakPassphrase)
	assert.Contains(t, err.Error(), "7 more characters")

	err = store.CheckPassphrase("alllowercaseletters")
	assert.ErrorIs(t, err, store.ErrWeakPassphrase)
	assert.Contains(t, err.Error(), "an upper case letter")
	assert.Contains(t, err.Error(), "a digit")
	assert.NotContains(t, err.Error(), "more characters")
}
