package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verification failure kinds. Call sites must additionally re-check that the
// referenced user still exists and is active; an expired credential and a
// credential for a disabled account are distinct failures with distinct
// user-facing messages.
var (
	ErrMalformed = errors.New("malformed token")
	ErrExpired   = errors.New("token expired")
)

// DefaultTTL is the fixed credential lifetime: 30 days from issuance.
const DefaultTTL = 30 * 24 * time.Hour

// Issuer signs and verifies the opaque bearer credentials binding a request
// to a user id. HS256 with a shared secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue creates a signed credential for the user, expiring ttl from now.
func (i *Issuer) Issue(userID string) (string, error) {
	now := i.now()
	claims := jwt.MapClaims{
		"userId": userID,
		"iat":    now.Unix(),
		"exp":    now.Add(i.ttl).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(i.secret)
}

// Verify checks the signature and expiry and returns the embedded user id.
// Failures collapse into ErrExpired or ErrMalformed.
func (i *Issuer) Verify(raw string) (string, error) {
	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrMalformed
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpired
		}
		return "", ErrMalformed
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrMalformed
	}
	userID, _ := claims["userId"].(string)
	if userID == "" {
		return "", ErrMalformed
	}
	return userID, nil
}

// RemainingLife returns the time until the credential's expiry claim. A
// revoked token only needs to stay on the blacklist that long.
func (i *Issuer) RemainingLife(raw string) (time.Duration, error) {
	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrMalformed
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrExpired
		}
		return 0, ErrMalformed
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 0, ErrMalformed
	}
	return exp.Time.Sub(i.now()), nil
}
