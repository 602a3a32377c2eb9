package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/shelfhq/shelf-go/pkg/idx"
)

// DefaultAssertionTTL is the default lifetime for a signed assertion.
// Assertions are single-use and exchanged immediately, so the window only
// needs to cover the round trip to the token endpoint.
const DefaultAssertionTTL = 30 * time.Second

// Assertion holds the claims for one server-auth token exchange. Each
// exchange must mint a fresh one: the token service remembers nonces and
// rejects a replayed "jti".
type Assertion struct {
	jwt.RegisteredClaims

	// SubjectType says what the subject identifies: "enterprise" or "user".
	SubjectType string `json:"sub_type,omitempty"`
}

// NewAssertion builds minimally-correct claims for a token exchange.
// The audience is the token endpoint URL. NotBefore is backdated by the
// skew tolerance so a slightly-fast remote clock doesn't reject us.
func NewAssertion(
	issuer, subjectType, subjectID, audience string,
	ttl, skew time.Duration,
	now time.Time,
) Assertion {
	if ttl <= 0 {
		ttl = DefaultAssertionTTL
	}

	return Assertion{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subjectID,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-skew)),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        idx.New().String(),
		},
		SubjectType: subjectType,
	}
}
