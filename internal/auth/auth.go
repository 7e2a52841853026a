// Package auth resolves the calling user from HS256 bearer tokens.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"pickup-games/internal/apperrors"
)

// ErrUnauthorized is returned whenever no verified identity is available.
var ErrUnauthorized = apperrors.New(apperrors.KindUnauthorized, apperrors.CodeUnauthorized, "authentication required")

const signingMethod = "HS256"

// Identity is the verified caller.
type Identity struct {
	UserID string
}

// Config defines how bearer tokens are verified.
type Config struct {
	Secret string
	// Issuer is enforced when non-empty.
	Issuer string
	Now    func() time.Time
}

// Verifier checks bearer tokens. A Verifier without a secret rejects every token.
type Verifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewVerifier(cfg Config) *Verifier {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Verifier{
		secret: []byte(strings.TrimSpace(cfg.Secret)),
		issuer: strings.TrimSpace(cfg.Issuer),
		now:    now,
	}
}

// Configured reports whether tokens can ever verify.
func (v *Verifier) Configured() bool {
	return v != nil && len(v.secret) > 0
}

// Verify parses token and returns the identity in its subject claim.
func (v *Verifier) Verify(token string) (Identity, error) {
	if !v.Configured() {
		return Identity{}, ErrUnauthorized.WithMetadata(map[string]string{"reason": "verifier not configured"})
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrUnauthorized
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{signingMethod}),
		jwt.WithTimeFunc(v.now),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return Identity{}, mapJWTError(err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Identity{}, ErrUnauthorized.WithMetadata(map[string]string{"reason": "subject is required"})
	}
	return Identity{UserID: claims.Subject}, nil
}

// Issue signs a token for userID valid for ttl. Used by tests and local tooling.
func (v *Verifier) Issue(userID string, ttl time.Duration) (string, error) {
	if !v.Configured() {
		return "", errors.New("auth: verifier not configured")
	}
	now := v.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    v.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrUnauthorized.WithMetadata(map[string]string{"reason": "missing authorization header"})
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrUnauthorized.WithMetadata(map[string]string{"reason": "invalid authorization format"})
	}
	return parts[1], nil
}

func mapJWTError(err error) error {
	reason := "token is invalid"
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		reason = "token is expired"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		reason = "token signature is invalid"
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		reason = "token issuer mismatch"
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		reason = "token exp is required"
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		reason = "token alg is invalid"
	}
	return ErrUnauthorized.WithMetadata(map[string]string{"reason": reason}).Wrap(err)
}

type identityKey struct{}

// WithIdentity stores id on ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// RequireAuth returns the caller stored on ctx or ErrUnauthorized.
func RequireAuth(ctx context.Context) (Identity, error) {
	if ctx != nil {
		if id, ok := ctx.Value(identityKey{}).(Identity); ok && id.UserID != "" {
			return id, nil
		}
	}
	return Identity{}, ErrUnauthorized
}
