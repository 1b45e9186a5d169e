// Package token validates the platform's HMAC-signed access tokens. Token
// issuance lives in the auth REST API; this service only verifies and
// extracts the subject.
package token

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ycyw/support-chat-service/internal/domain"
)

// Claims are the platform's JWT claims. The subject is the user's email.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles,omitempty"`
}

// Validator verifies token signatures and expiry.
type Validator struct {
	secret []byte
	issuer string
}

// NewValidator creates a validator for tokens signed with the given HMAC
// secret. When issuer is non-empty the iss claim is enforced.
func NewValidator(secret []byte, issuer string) *Validator {
	return &Validator{secret: secret, issuer: issuer}
}

// ExtractSubject decodes and verifies the token and returns its subject.
// Any failure (bad signature, expiry, malformed token, empty subject) is
// reported as domain.ErrTokenDecode.
func (v *Validator) ExtractSubject(tokenString string) (string, error) {
	claims, err := v.parse(tokenString)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: empty subject", domain.ErrTokenDecode)
	}
	return claims.Subject, nil
}

func (v *Validator) parse(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: expired", domain.ErrTokenDecode)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenDecode, err)
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, domain.ErrTokenDecode
	}
	return claims, nil
}
