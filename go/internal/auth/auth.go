// Package auth verifies bearer tokens and carries the caller's user id
// through request contexts.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid or expired token")
)

type ctxKey struct{}

// WithUserID returns a copy of ctx carrying the authenticated user.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserIDFromContext returns the authenticated user, if any.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ctxKey{}).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// Claims is the token body. The subject is the user id.
type Claims struct {
	jwt.RegisteredClaims
}

// Verifier checks HS256 tokens signed with a shared secret.
type Verifier struct {
	secret []byte
	issuer string
}

func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer}
}

// Verify parses a raw token and returns its user id.
func (v *Verifier) Verify(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, ErrMissingToken
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}
	return userID, nil
}

// Sign issues a token for userID. Used by the seed tool and tests.
func (v *Verifier) Sign(userID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   userID.String(),
		Issuer:    v.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// BearerToken strips the scheme from an Authorization header value.
func BearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
