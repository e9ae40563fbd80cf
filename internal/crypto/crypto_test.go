package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecrypt(t *testing.T) {
	c, err := NewCipher("correct horse")
	require.NoError(t, err)

	sealed, err := c.Encrypt("s3cret")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "s3cret")

	plain, err := c.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", plain)

	again, err := c.Encrypt("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "salt and nonce must differ per value")
}

func TestDecryptWrongPassphrase(t *testing.T) {
	a, _ := NewCipher("one")
	b, _ := NewCipher("two")

	sealed, err := a.Encrypt("value")
	require.NoError(t, err)

	_, err = b.Decrypt(sealed)
	assert.Error(t, err)
}

func TestDecryptMalformed(t *testing.T) {
	c, _ := NewCipher("pass")

	_, err := c.Decrypt("zz")
	assert.Error(t, err)

	_, err = c.Decrypt("00ff")
	assert.EqualError(t, err, "ciphertext too short")
}

func TestNewCipherEmpty(t *testing.T) {
	_, err := NewCipher("")
	assert.ErrorIs(t, err, ErrEmptyPassphrase)
}
