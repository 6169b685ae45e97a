package httpapi

import (
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const userIDLocal = "chronica.userID"

// Logging returns middleware that writes one structured line per request.
// No payloads, only metadata.
func Logging(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		log.Info("http",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("dur", time.Since(start)),
			zap.String("peer", c.IP()),
		)
		return err
	}
}

// Recover returns middleware that converts panics into a plain 500.
func Recover(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic",
					zap.Any("reason", r),
					zap.ByteString("stack", debug.Stack()),
					zap.String("path", c.Path()),
				)
				err = c.Status(fiber.StatusInternalServerError).
					JSON(errorResp{OK: false, Error: "internal"})
			}
		}()
		return c.Next()
	}
}

// AuthRequired returns middleware that verifies the bearer token and stores
// the authenticated user ID in the request context.
func AuthRequired(signKey []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Get(fiber.HeaderAuthorization)
		const prefix = "Bearer "
		if !strings.HasPrefix(raw, prefix) {
			return c.Status(fiber.StatusUnauthorized).JSON(errorResp{OK: false, Error: "no auth"})
		}

		claims := &jwt.RegisteredClaims{}
		tok, err := jwt.ParseWithClaims(strings.TrimPrefix(raw, prefix), claims,
			func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return signKey, nil
			})
		if err != nil || !tok.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(errorResp{OK: false, Error: "bad token"})
		}

		uid, err := uuid.FromString(claims.Subject)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(errorResp{OK: false, Error: "bad subject"})
		}
		c.Locals(userIDLocal, uid)
		return c.Next()
	}
}

// currentUserID fetches the authenticated user set by AuthRequired.
func currentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals(userIDLocal).(uuid.UUID)
	return id, ok
}
