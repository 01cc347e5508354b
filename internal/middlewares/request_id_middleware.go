package middlewares

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/google/uuid"
)

// RequestIDMiddleware tags every request with a UUID, echoed back in the
// X-Request-ID response header.
func RequestIDMiddleware() fiber.Handler {
	return requestid.New(requestid.Config{
		Generator: uuid.NewString,
	})
}
