package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey(t *testing.T) {
	key := DeriveKey("passphrase")
	assert.Len(t, key, KeySize)
	assert.Equal(t, key, DeriveKey("passphrase"))
	assert.NotEqual(t, key, DeriveKey("other"))
}

func TestNewSealerInvalidKey(t *testing.T) {
	_, err := NewSealer([]byte("short"))
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestSealOpenRoundTrip(t *testing.T) {
	sealer, err := NewSealer(DeriveKey("passphrase"))
	require.NoError(t, err)

	plaintext := []byte("the volume image")
	sealed, err := sealer.Seal(plaintext)
	require.NoError(t, err)
	assert.Len(t, sealed, len(plaintext)+sealer.Overhead())
	assert.NotContains(t, string(sealed), "volume image")

	opened, err := sealer.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, plaintext, opened)
}

func TestOpenTampered(t *testing.T) {
	sealer, err := NewSealer(DeriveKey("passphrase"))
	require.NoError(t, err)

	sealed, err := sealer.Seal([]byte("payload"))
	require.NoError(t, err)

	sealed[len(sealed)-1] ^= 0xFF
	_, err = sealer.Open(sealed)
	assert.ErrorIs(t, err, ErrDecryptFailed)
}

func TestOpenTooShort(t *testing.T) {
	sealer, err := NewSealer(DeriveKey("passphrase"))
	require.NoError(t, err)

	_, err = sealer.Open([]byte("tiny"))
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestOpenWrongKey(t *testing.T) {
	a, err := NewSealer(DeriveKey("one"))
	require.NoError(t, err)
	b, err := NewSealer(DeriveKey("two"))
	require.NoError(t, err)

	sealed, err := a.Seal([]byte("payload"))
	require.NoError(t, err)

	_, err = b.Open(sealed)
	assert.ErrorIs(t, err, ErrDecryptFailed)
}
