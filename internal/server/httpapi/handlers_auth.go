package httpapi

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

type credentialsReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerResp struct {
	OK     bool   `json:"ok"`
	UserID string `json:"userId"`
}

type loginResp struct {
	OK          bool      `json:"ok"`
	UserID      string    `json:"userId"`
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

func (s *Server) handleRegister(c *fiber.Ctx) error {
	var req credentialsReq
	if err := c.BodyParser(&req); err != nil {
		return badReq(c, "invalid JSON")
	}
	userID, err := s.auth.Register(c.Context(), req.Email, req.Password)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(registerResp{OK: true, UserID: userID})
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req credentialsReq
	if err := c.BodyParser(&req); err != nil {
		return badReq(c, "invalid JSON")
	}
	tok, u, err := s.auth.LoginWithIP(c.Context(), req.Email, req.Password, c.IP())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(loginResp{
		OK:          true,
		UserID:      u.ID.String(),
		AccessToken: tok.AccessToken,
		ExpiresAt:   tok.ExpiresAt,
	})
}
