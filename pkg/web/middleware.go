package web

import (
	"github.com/dukex/webmonitor/pkg/auth"
	"github.com/gofiber/fiber/v3"
)

// RequireAuth rejects requests without a valid session token.
func RequireAuth(authenticator *auth.Authenticator) fiber.Handler {
	return func(c fiber.Ctx) error {
		if !authenticator.Authenticated(c.Context(), c.Get(AuthTokenHeader)) {
			return unauthorized(c, "Unauthorized")
		}

		return c.Next()
	}
}
