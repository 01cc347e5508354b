package middlewares

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/nextmavens/filestore/internal/auth"
	"github.com/nextmavens/filestore/internal/domain"
)

const projectContextKey = "project"

// ProjectAuthMiddleware authenticates bearer service tokens and attaches
// the project identity to the request.
func ProjectAuthMiddleware(verifier *auth.ProjectTokenVerifier) fiber.Handler {
	return func(c fiber.Ctx) error {
		header := c.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing bearer token",
			})
		}

		identity, err := verifier.VerifyToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			log.Error().
				Err(err).
				Str("path", c.Path()).
				Msg("Token verification failed")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		c.Locals(projectContextKey, identity)

		return c.Next()
	}
}

// ProjectFromContext returns the identity attached by the auth
// middleware.
func ProjectFromContext(c fiber.Ctx) (domain.ProjectIdentity, bool) {
	identity, ok := c.Locals(projectContextKey).(domain.ProjectIdentity)
	return identity, ok
}
