package password

import (
	"testing"

	"github.com/alexedwards/argon2id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastHashers() []Hasher {
	return []Hasher{
		NewBcrypt(4),
		NewArgon2id(&argon2id.Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}),
	}
}

func TestHasher_RoundTrip(t *testing.T) {
	for _, h := range fastHashers() {
		t.Run(h.Name(), func(t *testing.T) {
			hash, err := h.Hash("secret")
			require.NoError(t, err)
			assert.NotEqual(t, "secret", hash)

			assert.True(t, h.Verify("secret", hash))
			assert.False(t, h.Verify("Secret", hash))
		})
	}
}

func TestHasher_SaltedHashesDiffer(t *testing.T) {
	for _, h := range fastHashers() {
		a, err := h.Hash("secret")
		require.NoError(t, err)
		b, err := h.Hash("secret")
		require.NoError(t, err)
		assert.NotEqual(t, a, b, h.Name())
	}
}

func TestHasher_MalformedHashIsFalse(t *testing.T) {
	for _, h := range fastHashers() {
		t.Run(h.Name(), func(t *testing.T) {
			assert.False(t, h.Verify("secret", ""))
			assert.False(t, h.Verify("secret", "secret"))
			assert.False(t, h.Verify("secret", "$argon2id$v=19$garbage"))
			assert.False(t, h.Verify("secret", "$2a$10$short"))
		})
	}
}

func TestNew(t *testing.T) {
	h, err := New("")
	require.NoError(t, err)
	assert.Equal(t, AlgorithmBcrypt, h.Name())

	h, err = New(AlgorithmArgon2id)
	require.NoError(t, err)
	assert.Equal(t, AlgorithmArgon2id, h.Name())

	_, err = New("md5")
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)
}
