// Package auth resolves the identity presented on a realtime connection
// handshake. Failures are returned to the caller, which decides whether to
// proceed unauthenticated; this package never tears down a connection.
package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/ycyw/support-chat-service/internal/domain"
	"github.com/ycyw/support-chat-service/internal/user"
)

const bearerPrefix = "Bearer "

// SubjectExtractor decodes a raw token into a subject identifier.
type SubjectExtractor interface {
	ExtractSubject(token string) (string, error)
}

// Authenticator turns an Authorization header into a bound principal.
type Authenticator struct {
	tokens SubjectExtractor
	users  user.Repository
}

func NewAuthenticator(tokens SubjectExtractor, users user.Repository) *Authenticator {
	return &Authenticator{tokens: tokens, users: users}
}

// Authenticate resolves the principal for a CONNECT frame's Authorization
// header value.
//
// A missing or non-Bearer header yields (nil, nil): the session simply
// stays unauthenticated. Decode failures and unknown subjects yield an
// error; the connection layer logs it and continues unauthenticated, so the
// session is still established and authorization is enforced at send time.
func (a *Authenticator) Authenticate(ctx context.Context, authHeader string) (*domain.Principal, error) {
	raw, ok := strings.CutPrefix(authHeader, bearerPrefix)
	if !ok || raw == "" {
		return nil, nil
	}

	subject, err := a.tokens.ExtractSubject(raw)
	if err != nil {
		return nil, err
	}

	u, err := a.users.GetByEmail(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("identity lookup for %q: %w", subject, err)
	}
	if u == nil {
		return nil, fmt.Errorf("%w: subject %q", domain.ErrIdentityNotFound, subject)
	}

	return &domain.Principal{
		UserID:      u.ID,
		Email:       u.Email,
		Name:        u.Name(),
		Authorities: []string{"ROLE_" + u.Role},
	}, nil
}
