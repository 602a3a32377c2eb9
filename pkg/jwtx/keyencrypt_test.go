package jwtx_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shelfhq/shelf-go/pkg/jwtx"
)

func TestPrivateKeyEncryption(t *testing.T) {
	_, pemKey := genKeyPEM(t)

	t.Run("round trip", func(t *testing.T) {
		blob, err := jwtx.EncryptPrivateKey(pemKey, "correct horse")
		require.NoError(t, err)
		require.NotEqual(t, pemKey, blob)

		got, err := jwtx.DecryptPrivateKey(blob, "correct horse")
		require.NoError(t, err)
		require.Equal(t, pemKey, got)
	})

	t.Run("wrong passphrase", func(t *testing.T) {
		blob, err := jwtx.EncryptPrivateKey(pemKey, "correct horse")
		require.NoError(t, err)

		_, err = jwtx.DecryptPrivateKey(blob, "battery staple")
		require.ErrorIs(t, err, jwtx.ErrDecrypt)
	})

	t.Run("truncated blob", func(t *testing.T) {
		_, err := jwtx.DecryptPrivateKey([]byte{1, 2, 3}, "correct horse")
		require.ErrorIs(t, err, jwtx.ErrDecrypt)
	})

	t.Run("encrypted signer end to end", func(t *testing.T) {
		blob, err := jwtx.EncryptPrivateKey(pemKey, "s3cret")
		require.NoError(t, err)

		signer, err := jwtx.NewSignerRS256Encrypted("kid-enc", blob, "s3cret")
		require.NoError(t, err)
		require.Equal(t, "kid-enc", signer.KID())

		_, err = jwtx.NewSignerRS256Encrypted("kid-enc", blob, "wrong")
		require.ErrorIs(t, err, jwtx.ErrDecrypt)
	})
}
