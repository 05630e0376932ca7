// Package auth resolves opaque bearer credentials to identities. The
// provider behind a Verifier is a black box; the rest of the system only
// uses UID and Email for log ownership tagging.
package auth

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"
)

// Identity is a verified caller.
type Identity struct {
	UID     string `json:"uid"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"display_name,omitempty"`
	Picture string `json:"picture_url,omitempty"`
}

// Verifier turns an opaque credential string into an identity, or nil when
// the credential does not check out.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

const identityKey = "auth.identity"

// Middleware resolves the Authorization header best-effort: a missing,
// malformed or unverifiable token leaves the request anonymous rather than
// rejecting it. Ownership scoping downstream does the actual gating.
func Middleware(v Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if v == nil {
				return next(c)
			}
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, "Bearer ")
			token = strings.TrimSpace(token)
			if !ok || token == "" {
				return next(c)
			}
			ident, err := v.Verify(c.Request().Context(), token)
			if err == nil && ident != nil && ident.UID != "" {
				c.Set(identityKey, ident)
			}
			return next(c)
		}
	}
}

// FromContext returns the verified identity for this request, or nil.
func FromContext(c echo.Context) *Identity {
	ident, _ := c.Get(identityKey).(*Identity)
	return ident
}

// StaticVerifier maps fixed tokens to identities. Meant for development and
// tests, not production credentials.
type StaticVerifier map[string]Identity

// Verify looks the token up in the static map.
func (s StaticVerifier) Verify(_ context.Context, token string) (*Identity, error) {
	ident, ok := s[token]
	if !ok {
		return nil, nil
	}
	return &ident, nil
}

// ParseStatic builds a StaticVerifier from "token:uid:email" triples
// separated by semicolons, as carried in config. Email is optional. Returns
// nil when no valid triple is present.
func ParseStatic(raw string) StaticVerifier {
	out := StaticVerifier{}
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.SplitN(part, ":", 3)
		if len(fields) < 2 || fields[0] == "" || fields[1] == "" {
			continue
		}
		ident := Identity{UID: fields[1]}
		if len(fields) == 3 {
			ident.Email = fields[2]
		}
		out[fields[0]] = ident
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
