// Package middleware provides Fiber middleware for the HTTP surface.
package middleware

import (
	"errors"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/finvault/ledger/pkg/config"
)

// ErrNoCaller is returned when the request carries no usable caller identity.
var ErrNoCaller = errors.New("no caller identity in request context")

// JwtProtected returns middleware that rejects requests without a valid
// bearer token. The parsed token is stored under the "user" local.
func JwtProtected(cfg config.JwtConfig) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   jwtware.SigningKey{Key: []byte(cfg.Secret)},
		ErrorHandler: jwtError,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if err.Error() == "Missing or malformed JWT" {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"status": "error", "message": "Missing or malformed JWT", "data": nil})
	}
	return c.Status(fiber.StatusUnauthorized).
		JSON(fiber.Map{"status": "error", "message": "Invalid or expired JWT", "data": nil})
}

// CallerID extracts the authenticated caller's account-owner ID from the
// token subject.
func CallerID(c *fiber.Ctx) (uuid.UUID, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return uuid.Nil, ErrNoCaller
	}
	sub, err := token.Claims.GetSubject()
	if err != nil {
		return uuid.Nil, ErrNoCaller
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, ErrNoCaller
	}
	return id, nil
}
