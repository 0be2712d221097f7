package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHasher() *PasswordHasher {
	return NewPasswordHasher(PasswordConfig{
		TimeCost:    1,
		MemoryCost:  8 * 1024,
		Parallelism: 1,
	})
}

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	hasher := testHasher()

	hash, err := hasher.Hash("correct horse battery staple")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$")
	assert.NotContains(t, hash, "correct horse battery staple")

	ok, err := hasher.Verify("correct horse battery staple", hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPasswordHasher_WrongPassword(t *testing.T) {
	hasher := testHasher()

	hash, err := hasher.Hash("p1")
	require.NoError(t, err)

	ok, err := hasher.Verify("p2", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHasher_SaltedDigestsDiffer(t *testing.T) {
	hasher := testHasher()

	first, err := hasher.Hash("same-password")
	require.NoError(t, err)
	second, err := hasher.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)

	for _, hash := range []string{first, second} {
		ok, err := hasher.Verify("same-password", hash)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestPasswordHasher_MalformedDigest(t *testing.T) {
	hasher := testHasher()

	ok, err := hasher.Verify("password", "not-a-phc-hash")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestPasswordHasher_ZeroConfigUsesDefaults(t *testing.T) {
	hasher := NewPasswordHasher(PasswordConfig{})

	assert.NotZero(t, hasher.config.TimeCost)
	assert.NotZero(t, hasher.config.MemoryCost)
	assert.NotZero(t, hasher.config.Parallelism)
}
