// Package services – UserService
//
// This file implements the UserService, which owns account registration and
// credential verification. Passwords are hashed with bcrypt before they reach
// the repository; successful logins are exchanged for a signed JWT whose
// subject is the account email.
//
// Service-level errors (ErrEmailTaken, ErrInvalidCredentials, ErrUserNotFound)
// are returned for predictable cases so handlers can map them to HTTP results
// consistently.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/Area51-Labs/Alari-BE/internal/auth"
	"github.com/Area51-Labs/Alari-BE/internal/domain"
	"github.com/Area51-Labs/Alari-BE/internal/repo"
)

// UserService provides account-level operations: registration, login, and
// profile lookup. Token issuance is delegated to the configured TokenIssuer.
type UserService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Tokens signs and verifies the access tokens handed out on login.
	Tokens *auth.TokenIssuer
}

// NewUserService constructs a UserService.
func NewUserService(db *gorm.DB, tokens *auth.TokenIssuer) *UserService {
	return &UserService{DB: db, Tokens: tokens}
}

// Register creates a new account for email with the given password and
// optional display name. The email is normalized (trimmed, lowercased)
// before storage so logins are case-insensitive.
//
// Returns ErrEmailTaken when the email already belongs to an account.
func (s *UserService) Register(ctx context.Context, email, password, userName string) (*domain.User, error) {
	email = normalizeEmail(email)

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u, err := repo.CreateUser(ctx, s.DB, email, hash, strings.TrimSpace(userName))
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

// Login verifies the credentials and returns a signed access token together
// with the account. Unknown email and wrong password are both reported as
// ErrInvalidCredentials so the response does not leak which part failed.
func (s *UserService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = normalizeEmail(email)

	u, err := repo.GetUserByEmail(ctx, s.DB, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !auth.CheckPassword(password, u.HashedPassword) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.Tokens.Issue(u.Email)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// BySubject resolves a token subject (email) to the account it belongs to.
// Used by the authentication middleware after token verification.
//
// Returns ErrUserNotFound when no account matches.
func (s *UserService) BySubject(ctx context.Context, email string) (*domain.User, error) {
	u, err := repo.GetUserByEmail(ctx, s.DB, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// ByID fetches an account by its numeric ID.
//
// Returns ErrUserNotFound when no account matches.
func (s *UserService) ByID(ctx context.Context, id int64) (*domain.User, error) {
	u, err := repo.GetUserByID(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// normalizeEmail canonicalizes an email for storage and lookup.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
