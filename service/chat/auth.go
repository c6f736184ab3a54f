package chat

import (
	"context"
	"strings"

	"github.com/notdezzi/freedomtalk/tools/errs"
	"github.com/notdezzi/freedomtalk/tools/security"
)

// Identity is what a verified credential resolves to.
type Identity struct {
	UserID string
	Scopes []string
}

func (id *Identity) HasScope(scope string) bool {
	for _, s := range id.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// TokenVerifier validates a connect-time credential. It is called exactly
// once per connection attempt, before any session state exists; a failure
// refuses the connection outright.
type TokenVerifier interface {
	Verify(ctx context.Context, credential string) (*Identity, error)
}

// JWTVerifier verifies HMAC-signed bearer tokens minted by the login surface.
type JWTVerifier struct {
	opts security.Options
}

func NewJWTVerifier(opts security.Options) *JWTVerifier {
	return &JWTVerifier{opts: opts}
}

func (v *JWTVerifier) Verify(_ context.Context, credential string) (*Identity, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, errs.ErrTokenMissing
	}
	claims, err := security.Verify(v.opts, credential)
	if err != nil {
		// expiry, bad signature, wrong alg: all collapse to invalid
		return nil, errs.ErrTokenInvalid.WithDetail(err.Error())
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, errs.ErrTokenInvalid.WithDetail("missing sub claim")
	}
	return &Identity{UserID: sub, Scopes: security.Scopes(claims)}, nil
}
