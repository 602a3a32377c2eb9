// Package webhookx verifies webhook delivery signatures. It is standalone:
// nothing in the auth/transport core depends on it.
//
// Deliveries are signed with HMAC-SHA256 over body plus timestamp. Two
// signing keys are supported so keys can rotate without dropping
// deliveries: a payload is valid if either signature checks out.
package webhookx

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"time"
)

// DefaultMaxAge bounds how old a delivery may be before it is rejected as
// a possible replay.
const DefaultMaxAge = 10 * time.Minute

var (
	// ErrSignature means no configured key produced a matching signature.
	ErrSignature = errors.New("webhookx: signature mismatch")

	// ErrTimestamp means the delivery timestamp is missing, malformed or
	// outside the replay window.
	ErrTimestamp = errors.New("webhookx: timestamp outside tolerance")
)

// Verifier checks deliveries against one or two signing keys.
type Verifier struct {
	primary   []byte
	secondary []byte
	maxAge    time.Duration
	now       func() time.Time
}

// NewVerifier builds a Verifier. secondaryKey may be empty when no key
// rotation is in progress; maxAge <= 0 uses DefaultMaxAge.
func NewVerifier(primaryKey, secondaryKey string, maxAge time.Duration) (*Verifier, error) {
	if primaryKey == "" {
		return nil, errors.New("webhookx: primary key is required")
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}

	v := &Verifier{
		primary: []byte(primaryKey),
		maxAge:  maxAge,
		now:     time.Now,
	}
	if secondaryKey != "" {
		v.secondary = []byte(secondaryKey)
	}
	return v, nil
}

// Verify checks one delivery. body is the raw request payload; sigPrimary
// and sigSecondary are the two signature headers (either may be empty);
// timestamp is the delivery timestamp header in RFC 3339.
func (v *Verifier) Verify(body []byte, sigPrimary, sigSecondary, timestamp string) error {
	at, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return ErrTimestamp
	}

	age := v.now().Sub(at)
	if age > v.maxAge || age < -v.maxAge {
		return ErrTimestamp
	}

	if v.matches(v.primary, body, timestamp, sigPrimary) {
		return nil
	}
	if v.secondary != nil && v.matches(v.secondary, body, timestamp, sigSecondary) {
		return nil
	}
	return ErrSignature
}

func (v *Verifier) matches(key, body []byte, timestamp, signature string) bool {
	if signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, key)
	mac.Write(body)
	mac.Write([]byte(timestamp))
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	// Constant-time compare; an early-exit compare would leak how much of
	// a forged signature is correct.
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Sign produces the signature for body and timestamp with the given key.
// Exposed for tests and for services that emit deliveries.
func Sign(key string, body []byte, timestamp string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(body)
	mac.Write([]byte(timestamp))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
