package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	pkgcrypto "github.com/chronica-app/chronica/internal/crypto"
	"github.com/chronica-app/chronica/internal/errs"
	"github.com/chronica-app/chronica/internal/model"
	"github.com/chronica-app/chronica/internal/repository"
)

type fakeUserRepo struct {
	createdUser *model.User
	createErr   error

	byEmail    *model.User
	byEmailErr error
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

func (f *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	cp := *u
	f.createdUser = &cp
	return f.createErr
}
func (f *fakeUserRepo) GetByID(_ context.Context, _ uuid.UUID) (*model.User, error) {
	return nil, errs.ErrNotFound
}
func (f *fakeUserRepo) GetByEmail(_ context.Context, _ string) (*model.User, error) {
	return f.byEmail, f.byEmailErr
}

type fakeLimiter struct {
	allowed  bool
	allowErr error

	failureBlocked bool
	failures       int
	successes      int
}

func (f *fakeLimiter) Allow(context.Context, string, []byte) (bool, time.Duration, error) {
	return f.allowed, 0, f.allowErr
}
func (f *fakeLimiter) Success(context.Context, string, []byte) error {
	f.successes++
	return nil
}
func (f *fakeLimiter) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	f.failures++
	return f.failureBlocked, 0, nil
}

func TestAuth_Register_Validation(t *testing.T) {
	t.Parallel()
	users := &fakeUserRepo{}
	s := NewAuthService(users, []byte("k"), time.Minute, &fakeLimiter{allowed: true})

	cases := []struct{ email, password string }{
		{"", "secret1"},
		{"   ", "secret1"},
		{"a@b.c", ""},
		{"a@b.c", "short"},
	}
	for _, c := range cases {
		if _, err := s.Register(context.Background(), c.email, c.password); !errors.Is(err, errs.ErrValidation) {
			t.Fatalf("register(%q,%q): want validation error, got %v", c.email, c.password, err)
		}
	}
	if users.createdUser != nil {
		t.Fatalf("no store call may be issued on validation failure")
	}
}

func TestAuth_Register_OK(t *testing.T) {
	t.Parallel()
	users := &fakeUserRepo{}
	s := NewAuthService(users, []byte("k"), time.Minute, &fakeLimiter{allowed: true})

	uid, err := s.Register(context.Background(), " ana@example.com ", "secret1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if uid == "" || users.createdUser == nil {
		t.Fatalf("no user created")
	}
	if users.createdUser.Email != "ana@example.com" {
		t.Fatalf("email not trimmed: %q", users.createdUser.Email)
	}
	if len(users.createdUser.Salt) != pkgcrypto.SaltLen || len(users.createdUser.PwdHash) == 0 {
		t.Fatalf("password material missing")
	}
	if !pkgcrypto.VerifyPassword([]byte("secret1"), users.createdUser.Salt, users.createdUser.PwdHash) {
		t.Fatalf("stored hash must verify")
	}
}

func TestAuth_Register_EmailTaken(t *testing.T) {
	t.Parallel()
	users := &fakeUserRepo{createErr: errs.ErrAlreadyExists}
	s := NewAuthService(users, []byte("k"), time.Minute, &fakeLimiter{allowed: true})

	if _, err := s.Register(context.Background(), "a@b.c", "secret1"); !errors.Is(err, errs.ErrAlreadyExists) {
		t.Fatalf("want ErrAlreadyExists, got %v", err)
	}
}

func loginUser(t *testing.T, password string) *model.User {
	t.Helper()
	salt, err := pkgcrypto.NewSalt()
	if err != nil {
		t.Fatalf("salt: %v", err)
	}
	return &model.User{
		ID:      uuid.Must(uuid.NewV4()),
		Email:   "ana@example.com",
		Salt:    salt,
		PwdHash: pkgcrypto.HashPassword([]byte(password), salt),
	}
}

func TestAuth_Login_OK(t *testing.T) {
	t.Parallel()
	u := loginUser(t, "secret1")
	users := &fakeUserRepo{byEmail: u}
	lim := &fakeLimiter{allowed: true}
	s := NewAuthService(users, []byte("signing-key"), time.Minute, lim)

	tok, got, err := s.LoginWithIP(context.Background(), "ana@example.com", "secret1", "1.2.3.4")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("wrong user")
	}
	if lim.successes != 1 {
		t.Fatalf("limiter counters must reset on success")
	}

	// the token must carry the user ID as its subject
	parsed, err := jwt.ParseWithClaims(tok.AccessToken, &jwt.RegisteredClaims{}, func(*jwt.Token) (any, error) {
		return []byte("signing-key"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token parse: %v", err)
	}
	if sub, _ := parsed.Claims.GetSubject(); sub != u.ID.String() {
		t.Fatalf("subject %q", sub)
	}
}

func TestAuth_Login_WrongPassword(t *testing.T) {
	t.Parallel()
	users := &fakeUserRepo{byEmail: loginUser(t, "secret1")}
	lim := &fakeLimiter{allowed: true}
	s := NewAuthService(users, []byte("k"), time.Minute, lim)

	_, _, err := s.LoginWithIP(context.Background(), "ana@example.com", "wrong-1", "1.2.3.4")
	if !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want unauthorized, got %v", err)
	}
	if lim.failures != 1 {
		t.Fatalf("failure must be recorded")
	}
}

func TestAuth_Login_UnknownUserMasked(t *testing.T) {
	t.Parallel()
	users := &fakeUserRepo{byEmail: nil, byEmailErr: errs.ErrNotFound}
	s := NewAuthService(users, []byte("k"), time.Minute, &fakeLimiter{allowed: true})

	_, _, err := s.LoginWithIP(context.Background(), "ghost@example.com", "secret1", "1.2.3.4")
	if !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("lookup failure must be masked as unauthorized, got %v", err)
	}
}

func TestAuth_Login_RateLimited(t *testing.T) {
	t.Parallel()
	users := &fakeUserRepo{byEmail: loginUser(t, "secret1")}
	s := NewAuthService(users, []byte("k"), time.Minute, &fakeLimiter{allowed: false})

	_, _, err := s.LoginWithIP(context.Background(), "ana@example.com", "secret1", "1.2.3.4")
	if !errors.Is(err, errs.ErrRateLimited) {
		t.Fatalf("want rate limited, got %v", err)
	}
}

func TestAuth_Login_Validation(t *testing.T) {
	t.Parallel()
	s := NewAuthService(&fakeUserRepo{}, []byte("k"), time.Minute, &fakeLimiter{allowed: true})

	_, _, err := s.LoginWithIP(context.Background(), "a@b.c", "short", "1.2.3.4")
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want validation error, got %v", err)
	}
}
