package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	box, err := NewBox([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	ciphertext, nonce, err := box.Encrypt([]byte("smtp-password"))
	require.NoError(t, err)
	assert.Len(t, nonce, 12)
	assert.NotEqual(t, []byte("smtp-password"), ciphertext)

	plaintext, err := box.Decrypt(ciphertext, nonce)
	require.NoError(t, err)
	assert.Equal(t, "smtp-password", string(plaintext))
}

func TestDecryptWrongKeyFails(t *testing.T) {
	box1, err := NewBox([]byte("0123456789abcdef"))
	require.NoError(t, err)
	box2, err := NewBox([]byte("fedcba9876543210"))
	require.NoError(t, err)

	ciphertext, nonce, err := box1.Encrypt([]byte("secret"))
	require.NoError(t, err)

	_, err = box2.Decrypt(ciphertext, nonce)
	assert.Error(t, err)
}

func TestNewBoxRejectsBadKeyLength(t *testing.T) {
	_, err := NewBox([]byte("short"))
	assert.Error(t, err)
}
