// Package service contains application services for authentication and entries.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	pkgcrypto "github.com/chronica-app/chronica/internal/crypto"
	"github.com/chronica-app/chronica/internal/errs"
	"github.com/chronica-app/chronica/internal/limiter"
	"github.com/chronica-app/chronica/internal/model"
	"github.com/chronica-app/chronica/internal/repository"
)

// MinPasswordLen is enforced on both sign-in and sign-up before any store call.
const MinPasswordLen = 6

// AuthService defines authentication operations.
type AuthService interface {
	// Register creates a new account with secure password hashing.
	Register(ctx context.Context, email, password string) (userID string, err error)
	// LoginWithIP applies rate-limiting and authenticates the user.
	LoginWithIP(ctx context.Context, email, password, ip string) (tokens model.Tokens, user model.User, err error)
}

type AuthServiceImpl struct {
	users     repository.UserRepository
	signKey   []byte
	accessTTL time.Duration
	lim       limiter.Limiter
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(users repository.UserRepository, signKey []byte, accessTTL time.Duration, lim limiter.Limiter) *AuthServiceImpl {
	return &AuthServiceImpl{users: users, signKey: signKey, accessTTL: accessTTL, lim: lim}
}

// validateCredentials applies the local field checks shared by sign-in and
// sign-up. A violation blocks the operation before any store call.
func validateCredentials(email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", fmt.Errorf("%w: email is required", errs.ErrValidation)
	}
	if password == "" {
		return "", fmt.Errorf("%w: password is required", errs.ErrValidation)
	}
	if len(password) < MinPasswordLen {
		return "", fmt.Errorf("%w: password must be at least %d characters", errs.ErrValidation, MinPasswordLen)
	}
	return email, nil
}

// Register creates a new account with a per-user salt.
func (s *AuthServiceImpl) Register(ctx context.Context, email, password string) (string, error) {
	email, err := validateCredentials(email, password)
	if err != nil {
		return "", err
	}

	uid, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	salt, err := pkgcrypto.NewSalt()
	if err != nil {
		return "", err
	}

	u := &model.User{
		ID:      uid,
		Email:   email,
		PwdHash: pkgcrypto.HashPassword([]byte(password), salt),
		Salt:    salt,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return "", err
	}
	return uid.String(), nil
}

// LoginWithIP authenticates with rate limiting by (email, ip).
func (s *AuthServiceImpl) LoginWithIP(ctx context.Context, email, password, ip string) (model.Tokens, model.User, error) {
	email, err := validateCredentials(email, password)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}

	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, email, ipHash)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	if !allowed {
		return model.Tokens{}, model.User{}, errs.ErrRateLimited
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil || !pkgcrypto.VerifyPassword([]byte(password), u.Salt, u.PwdHash) {
		if blocked, _, ferr := s.lim.Failure(ctx, email, ipHash); ferr == nil && blocked {
			return model.Tokens{}, model.User{}, errs.ErrRateLimited
		}
		// hide account existence on wrong password or lookup failure
		return model.Tokens{}, model.User{}, errs.ErrUnauthorized
	}

	// Success: reset counters (best-effort).
	_ = s.lim.Success(ctx, email, ipHash)

	access, exp, err := s.issueAccessToken(u.ID)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	return model.Tokens{AccessToken: access, ExpiresAt: exp}, *u, nil
}

// issueAccessToken creates a signed HS256 JWT for the given subject.
func (s *AuthServiceImpl) issueAccessToken(userID uuid.UUID) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.accessTTL)
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.signKey)
	return signed, exp, err
}
