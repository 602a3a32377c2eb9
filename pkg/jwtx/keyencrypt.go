package jwtx

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	keySaltLength = 16
	keyPBKDF2Iter = 210_000 // OWASP 2023 recommendation for PBKDF2-SHA256
)

// ErrDecrypt reports a failed private key decryption, which almost always
// means a wrong passphrase.
var ErrDecrypt = errors.New("jwtx: private key decryption failed")

// EncryptPrivateKey encrypts PEM-encoded private key material with a
// passphrase using PBKDF2-derived AES-256-GCM.
// The output format is: [16-byte salt][12-byte nonce][ciphertext+tag].
func EncryptPrivateKey(pemData []byte, passphrase string) ([]byte, error) {
	salt := make([]byte, keySaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("jwtx: generate salt: %w", err)
	}

	gcm, err := newKeyCipher(passphrase, salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("jwtx: generate nonce: %w", err)
	}

	out := make([]byte, 0, len(salt)+len(nonce)+len(pemData)+gcm.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, pemData, nil), nil
}

// DecryptPrivateKey reverses EncryptPrivateKey.
func DecryptPrivateKey(blob []byte, passphrase string) ([]byte, error) {
	if len(blob) < keySaltLength {
		return nil, ErrDecrypt
	}
	salt, rest := blob[:keySaltLength], blob[keySaltLength:]

	gcm, err := newKeyCipher(passphrase, salt)
	if err != nil {
		return nil, err
	}

	if len(rest) < gcm.NonceSize() {
		return nil, ErrDecrypt
	}
	nonce, ciphertext := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]

	pemData, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return pemData, nil
}

func newKeyCipher(passphrase string, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(passphrase), salt, keyPBKDF2Iter, 32, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("jwtx: init cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("jwtx: init GCM: %w", err)
	}
	return gcm, nil
}
