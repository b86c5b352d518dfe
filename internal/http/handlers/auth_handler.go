// Account HTTP handlers.
//
// This file exposes the authentication endpoints:
//   - POST /auth/register  (create account)
//   - POST /auth/login     (exchange credentials for a bearer token)
//   - GET  /auth/me        (current account)
//
// Registration failures for an already-used email return 400 rather than
// 409: the public signup form treats it as a validation problem, and the
// message matches what clients already parse.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Area51-Labs/Alari-BE/internal/services"
)

//
// DTOs
//

// RegisterRequest is the JSON payload for creating an account.
type RegisterRequest struct {
	// Email is the login identifier; normalized to lower case on storage.
	Email string `json:"email" binding:"required,email" example:"ada@example.com"`
	// Password must be at least 8 characters.
	Password string `json:"password" binding:"required,min=8" example:"correct-horse-battery"`
	// UserName optionally sets a display name.
	UserName string `json:"user_name" binding:"omitempty,max=255" example:"Ada"`
}

// LoginRequest is the JSON payload for exchanging credentials for a token.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"ada@example.com"`
	Password string `json:"password" binding:"required" example:"correct-horse-battery"`
}

// TokenResponse carries the bearer token handed out on successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token" example:"eyJhbGciOiJIUzI1NiIs..."`
	TokenType   string `json:"token_type" example:"bearer"`
	UserID      int64  `json:"user_id" example:"1"`
}

//
// Handlers
//

// Register godoc
// @ID          register
// @Summary     Create an account
// @Description Registers a new account with email and password. The email must not already be in use.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.RegisterRequest  true  "Registration payload"
//
// @Success     201  {object}  domain.User
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failure or email already registered"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/register [post]
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email and password (min 8 chars) required")
		return
	}

	u, err := h.accounts.Register(c.Request.Context(), req.Email, req.Password, req.UserName)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Email already registered")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not create account")
		return
	}
	ok(c, http.StatusCreated, u)
}

// Login godoc
// @ID          login
// @Summary     Log in
// @Description Verifies credentials and returns a bearer access token.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.LoginRequest  true  "Credentials"
//
// @Success     200  {object}  handlers.TokenResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failure"
// @Failure     401  {object}  handlers.ErrorResponse  "Unknown email or wrong password"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email and password required")
		return
	}

	token, u, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.Header("WWW-Authenticate", "Bearer")
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "Incorrect email or password")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not log in")
		return
	}

	ok(c, http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		UserID:      u.ID,
	})
}

// Me godoc
// @ID          me
// @Summary     Current account
// @Description Returns the account behind the presented bearer token.
// @Tags        Auth
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object}  domain.User
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/me [get]
func (h *Handlers) Me(c *gin.Context) {
	uid, authed := currentUser(c)
	if !authed {
		return
	}

	u, err := h.accounts.ByID(c.Request.Context(), uid)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			// Token subject resolved earlier but the row is gone: treat as
			// an expired credential rather than leaking lifecycle detail.
			c.Header("WWW-Authenticate", "Bearer")
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "Could not validate credentials")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not load account")
		return
	}
	ok(c, http.StatusOK, u)
}
