// Package jwtx mints and signs the short-lived JWT assertions the SDK
// exchanges for access tokens during server authentication.
package jwtx

import "github.com/golang-jwt/jwt/v5"

// Signer is our interface for anything that can sign JWTs.
type Signer interface {
	Alg() string
	KID() string
	Sign(claims jwt.Claims) (string, error)
	Validate() error
}

// NewSignerRS256 creates an RS256 signer from PEM bytes.
func NewSignerRS256(kid string, pemKey []byte) (Signer, error) {
	return newRS256Signer(kid, pemKey)
}

// NewSignerRS256Encrypted creates an RS256 signer from an encrypted key
// blob produced by EncryptPrivateKey.
func NewSignerRS256Encrypted(kid string, blob []byte, passphrase string) (Signer, error) {
	pemKey, err := DecryptPrivateKey(blob, passphrase)
	if err != nil {
		return nil, err
	}
	return newRS256Signer(kid, pemKey)
}
