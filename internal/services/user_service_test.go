package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Area51-Labs/Alari-BE/internal/auth"
)

func newUserService(t *testing.T) *UserService {
	t.Helper()
	return NewUserService(newServiceDB(t), auth.NewTokenIssuer("test-secret", time.Hour))
}

func TestUserService_RegisterNormalizesAndHashes(t *testing.T) {
	s := newUserService(t)

	u, err := s.Register(context.Background(), "  Coach@Example.COM ", "hunter2hunter2", " Dana ")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Email != "coach@example.com" {
		t.Fatalf("expected normalized email, got %q", u.Email)
	}
	if u.UserName != "Dana" {
		t.Fatalf("expected trimmed user name, got %q", u.UserName)
	}
	if u.HashedPassword == "hunter2hunter2" || u.HashedPassword == "" {
		t.Fatalf("password must be stored hashed")
	}
	if !auth.CheckPassword("hunter2hunter2", u.HashedPassword) {
		t.Fatalf("stored hash does not verify against the password")
	}
}

func TestUserService_RegisterDuplicateEmail(t *testing.T) {
	s := newUserService(t)

	if _, err := s.Register(context.Background(), "dup@example.com", "password-one", ""); err != nil {
		t.Fatalf("first register: %v", err)
	}
	// Same email with different casing still collides.
	if _, err := s.Register(context.Background(), "DUP@example.com", "password-two", ""); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestUserService_LoginIssuesVerifiableToken(t *testing.T) {
	s := newUserService(t)

	if _, err := s.Register(context.Background(), "login@example.com", "correct-horse", ""); err != nil {
		t.Fatalf("register: %v", err)
	}

	token, u, err := s.Login(context.Background(), "login@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if u == nil || u.Email != "login@example.com" {
		t.Fatalf("unexpected user: %+v", u)
	}

	subject, err := s.Tokens.Verify(token)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if subject != "login@example.com" {
		t.Fatalf("token subject %q", subject)
	}
}

func TestUserService_LoginRejectsBadCredentials(t *testing.T) {
	s := newUserService(t)

	if _, err := s.Register(context.Background(), "who@example.com", "right-password", ""); err != nil {
		t.Fatalf("register: %v", err)
	}

	cases := map[string]struct {
		email    string
		password string
	}{
		"wrong_password": {"who@example.com", "wrong-password"},
		"unknown_email":  {"nobody@example.com", "right-password"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, _, err := s.Login(context.Background(), tc.email, tc.password); !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestUserService_LookupsNotFound(t *testing.T) {
	s := newUserService(t)

	if _, err := s.BySubject(context.Background(), "ghost@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound from BySubject, got %v", err)
	}
	if _, err := s.ByID(context.Background(), 4242); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound from ByID, got %v", err)
	}
}
