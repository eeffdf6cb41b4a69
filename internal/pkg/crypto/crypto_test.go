package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptor_RoundTrip(t *testing.T) {
	hexKey, err := GenerateMasterKey()
	require.NoError(t, err)
	enc, err := NewEncryptorFromHex(hexKey)
	require.NoError(t, err)

	sealed, err := enc.EncryptString("secret-credential")
	require.NoError(t, err)
	assert.NotEqual(t, "secret-credential", sealed)

	plain, err := enc.DecryptString(sealed)
	require.NoError(t, err)
	assert.Equal(t, "secret-credential", plain)
}

func TestEncryptor_DistinctCiphertexts(t *testing.T) {
	hexKey, err := GenerateMasterKey()
	require.NoError(t, err)
	enc, err := NewEncryptorFromHex(hexKey)
	require.NoError(t, err)

	a, err := enc.EncryptString("same")
	require.NoError(t, err)
	b, err := enc.EncryptString("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "nonces must differ between encryptions")
}

func TestEncryptor_WrongKeyFails(t *testing.T) {
	keyA, err := GenerateMasterKey()
	require.NoError(t, err)
	keyB, err := GenerateMasterKey()
	require.NoError(t, err)

	encA, err := NewEncryptorFromHex(keyA)
	require.NoError(t, err)
	encB, err := NewEncryptorFromHex(keyB)
	require.NoError(t, err)

	sealed, err := encA.EncryptString("secret")
	require.NoError(t, err)
	_, err = encB.DecryptString(sealed)
	require.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestNewEncryptor_RejectsBadKey(t *testing.T) {
	_, err := NewEncryptor([]byte("short"))
	require.ErrorIs(t, err, ErrInvalidKeySize)

	_, err = NewEncryptorFromHex("not-hex")
	require.Error(t, err)
}

func TestDecryptString_RejectsGarbage(t *testing.T) {
	hexKey, err := GenerateMasterKey()
	require.NoError(t, err)
	enc, err := NewEncryptorFromHex(hexKey)
	require.NoError(t, err)

	_, err = enc.DecryptString("%%%not-base64%%%")
	require.Error(t, err)

	_, err = enc.DecryptString("AAAA")
	require.ErrorIs(t, err, ErrInvalidCiphertext)
}
