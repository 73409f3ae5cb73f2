package authcore

import (
	"context"
	"errors"

	"github.com/kossiva/authcore/token"
)

// Identity is the caller proven by an access token.
type Identity struct {
	AccountID string
	Email     string
	Role      Role
}

// Authenticate verifies an access token and returns the identity it
// asserts. Stateless: the account record is not loaded, so a deleted
// account keeps a working access token until it expires. Callers that need
// the live record follow up with GetAccount.
func (e *Engine) Authenticate(ctx context.Context, accessToken string) (*Identity, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if accessToken == "" {
		return nil, ErrUnauthorized
	}

	claims, err := e.codec.Verify(accessToken, token.PurposeAccess)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return nil, ErrSessionExpired
		}
		return nil, ErrUnauthorized
	}

	return &Identity{
		AccountID: claims.Subject,
		Email:     claims.Email,
		Role:      Role(claims.Role),
	}, nil
}
