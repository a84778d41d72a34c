package middleware

import (
	"context"
	"strings"

	"portfolio/internal/auth"
	"portfolio/internal/httperr"

	"github.com/gofiber/fiber/v2"
)

const bearerScheme = "Bearer"

type identityKey struct{}

// TokenVerifier verifies a bearer token and returns the identity it carries.
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// AuthRequired is a Fiber middleware that admits only requests carrying a
// valid bearer token. The verified identity is stored on the request for
// downstream handlers; see IdentityFrom and WithIdentity.
func AuthRequired(tokens TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		rest, ok := strings.CutPrefix(header, bearerScheme)
		if !ok || (rest != "" && rest[0] != ' ') {
			return httperr.ErrMissingToken
		}

		// Fiber trims trailing whitespace, so "Bearer " arrives as "Bearer".
		token := strings.TrimSpace(rest)
		if token == "" {
			return httperr.ErrInvalidToken
		}

		id, err := tokens.Verify(token)
		if err != nil {
			return httperr.ErrInvalidToken
		}

		c.Locals(identityKey{}, id)
		c.SetUserContext(ContextWithIdentity(c.UserContext(), id))
		return c.Next()
	}
}

// ContextWithIdentity returns a copy of ctx carrying id.
func ContextWithIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity stored in ctx, if any.
func IdentityFromContext(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(auth.Identity)
	return id, ok
}

// IdentityFrom returns the identity attached by AuthRequired.
func IdentityFrom(c *fiber.Ctx) (auth.Identity, bool) {
	id, ok := c.Locals(identityKey{}).(auth.Identity)
	return id, ok
}

// WithIdentity adapts a handler that needs the caller's identity. Requests
// that did not pass AuthRequired are rejected with MissingToken.
func WithIdentity(h func(c *fiber.Ctx, id auth.Identity) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := IdentityFrom(c)
		if !ok {
			return httperr.ErrMissingToken
		}
		return h(c, id)
	}
}
