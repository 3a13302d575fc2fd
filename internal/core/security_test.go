// AngelaMos | 2026
// security_test.go

package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/accounts-api/internal/config"
)

func fastHasher(t *testing.T, memory uint32) *PasswordHasher {
	t.Helper()
	h, err := NewPasswordHasher(config.SecurityConfig{
		ArgonTime:    1,
		ArgonMemory:  memory,
		ArgonThreads: 1,
	})
	require.NoError(t, err)
	return h
}

func TestNewPasswordHasherRejectsZeroParams(t *testing.T) {
	_, err := NewPasswordHasher(config.SecurityConfig{ArgonTime: 1, ArgonThreads: 1})
	assert.Error(t, err)
}

func TestHashAndVerify(t *testing.T) {
	h := fastHasher(t, 1024)

	hash, err := h.Hash("pass1234")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$"))

	again, err := h.Hash("pass1234")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "salt must differ per call")

	ok, err := h.Verify("pass1234", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("pass12345", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = h.Verify("pass1234", "not-a-hash")
	assert.Error(t, err)
}

func TestVerifyTimingSafe(t *testing.T) {
	h := fastHasher(t, 1024)
	hash, err := h.Hash("pass1234")
	require.NoError(t, err)

	ok, _, err := h.VerifyTimingSafe("pass1234", &hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _, err = h.VerifyTimingSafe("dummy_password_for_timing_attack_prevention", nil)
	require.NoError(t, err)
	assert.False(t, ok, "missing hash never verifies")
}

func TestRehashOnParameterChange(t *testing.T) {
	old := fastHasher(t, 1024)
	current := fastHasher(t, 2048)

	hash, err := old.Hash("pass1234")
	require.NoError(t, err)
	assert.True(t, current.NeedsRehash(hash))
	assert.False(t, old.NeedsRehash(hash))

	ok, upgraded, err := current.VerifyWithRehash("pass1234", hash)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NotEmpty(t, upgraded)
	assert.False(t, current.NeedsRehash(upgraded))
}

func TestResetTokens(t *testing.T) {
	token, err := GenerateResetToken()
	require.NoError(t, err)
	assert.Len(t, token, 2*ResetTokenBytes)

	other, err := GenerateResetToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)

	hash := HashToken(token)
	assert.Len(t, hash, 64)
	assert.NotEqual(t, token, hash)
	assert.Equal(t, hash, HashToken(token))
	assert.NotEqual(t, hash, HashToken(other))
}
