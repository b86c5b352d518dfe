// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the service contracts the handlers consume and the
// Handlers aggregate that the router mounts. Handlers are transport-thin:
// they validate input, call application services, and translate results into
// HTTP responses. Business rules (ownership collapse, atomic turn commits,
// streak accounting) live in the services package; the mapping from service
// sentinels to status codes lives here.
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Area51-Labs/Alari-BE/internal/domain"
	"github.com/Area51-Labs/Alari-BE/internal/http/middleware"
	"github.com/Area51-Labs/Alari-BE/internal/services"
	"github.com/Area51-Labs/Alari-BE/internal/utils"
)

//
// Service contracts (context-aware)
//

// AccountService defines the account operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type AccountService interface {
	// Register creates an account; ErrEmailTaken when the email is in use.
	Register(ctx context.Context, email, password, userName string) (*domain.User, error)
	// Login verifies credentials and returns a signed access token.
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	// ByID fetches the account behind an authenticated user id.
	ByID(ctx context.Context, id int64) (*domain.User, error)
}

// ConversationService defines conversation lifecycle operations consumed by
// HTTP handlers. Every read collapses missing and foreign conversations into
// ErrConversationNotFound.
type ConversationService interface {
	// Create starts a conversation seeded with the system prompt.
	Create(ctx context.Context, userID int64, title string) (*services.ConversationSummary, error)
	// List returns the user's conversations, most recently updated first.
	List(ctx context.Context, userID int64, limit int) ([]services.ConversationSummary, error)
	// Get returns one owned conversation with its message count.
	Get(ctx context.Context, userID int64, sessionID string) (*services.ConversationSummary, error)
	// ListMessages returns the full ordered transcript.
	ListMessages(ctx context.Context, userID int64, sessionID string) ([]domain.Message, error)
	// UpdateTitle renames an owned conversation.
	UpdateTitle(ctx context.Context, userID int64, sessionID, title string) (*services.ConversationSummary, error)
	// Delete removes a conversation and everything hanging off it.
	Delete(ctx context.Context, userID int64, sessionID string) error
	// ListStats reports (count, max updated_at) for ETag computation.
	ListStats(ctx context.Context, userID int64) (int64, *time.Time, error)
	// MessageStats reports (count, max created_at) for one conversation.
	MessageStats(ctx context.Context, userID int64, sessionID string) (int64, *time.Time, error)
}

// TurnService defines the chat-turn operations consumed by HTTP handlers.
// The production implementation is services.ChatService.
type TurnService interface {
	// Send executes one buffered turn and commits the pair atomically.
	Send(ctx context.Context, userID int64, sessionID, message string, maxTokens int, temperature float64, idemKey string) (*services.TurnResult, error)
	// Stream executes one streaming turn, forwarding chunks via deliver.
	Stream(ctx context.Context, userID int64, sessionID, message string, maxTokens int, temperature float64, deliver func(chunk string) error) (*services.StreamResult, error)
}

// GoalService defines goal and check-in operations consumed by HTTP
// handlers. Missing and foreign goals collapse into ErrGoalNotFound.
type GoalService interface {
	Create(ctx context.Context, userID int64, title, description string, targetDate *time.Time) (*domain.Goal, error)
	List(ctx context.Context, userID int64, status string) ([]domain.Goal, error)
	Get(ctx context.Context, userID, goalID int64) (*domain.Goal, error)
	Update(ctx context.Context, userID, goalID int64, upd services.GoalUpdate) (*domain.Goal, error)
	Delete(ctx context.Context, userID, goalID int64) error
	CheckIn(ctx context.Context, userID, goalID int64, progressNote string, completed bool) (*domain.GoalCheckIn, error)
	ListCheckIns(ctx context.Context, userID, goalID int64, limit int) ([]domain.GoalCheckIn, error)
	UpdateCheckIn(ctx context.Context, userID, goalID, checkinID int64, upd services.CheckInUpdate) (*domain.GoalCheckIn, error)
	DeleteCheckIn(ctx context.Context, userID, goalID, checkinID int64) error
}

// FeedbackService defines operations to capture user feedback on assistant
// messages.
type FeedbackService interface {
	// Leave records a -1/1 rating for messageID inside an owned conversation.
	Leave(ctx context.Context, userID int64, sessionID string, messageID int64, value int) (*domain.MessageFeedback, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for accounts, conversations, chat
// turns, goals, feedback, and operational diagnostics. It depends on
// abstract service interfaces to keep transport concerns separate from
// business logic; the GORM handle is used only by the /db/* schema
// diagnostics.
type Handlers struct {
	accounts AccountService
	convs    ConversationService
	turns    TurnService
	goals    GoalService
	feedback FeedbackService

	db      *gorm.DB
	version string
}

// New constructs a Handlers instance bound to the given services. db feeds
// the schema diagnostics endpoints and version is reported by GET /.
func New(accounts AccountService, convs ConversationService, turns TurnService, goals GoalService, feedback FeedbackService, db *gorm.DB, version string) *Handlers {
	return &Handlers{
		accounts: accounts,
		convs:    convs,
		turns:    turns,
		goals:    goals,
		feedback: feedback,
		db:       db,
		version:  version,
	}
}

//
// Helpers
//

// currentUser extracts the authenticated user id stashed by the JWT
// middleware. When absent (a protected route mounted without the middleware)
// it fails the request with 401 and returns ok=false.
func currentUser(c *gin.Context) (int64, bool) {
	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "Could not validate credentials")
	}
	return uid, ok
}

// pathID parses a positive integer path parameter, failing the request with
// 400 when it is malformed.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

// queryLimit parses the optional ?limit query parameter. Zero means "let the
// service apply its default"; services clamp the upper bound themselves.
func queryLimit(c *gin.Context) int {
	return utils.AtoiDefault(c.Query("limit"), 0)
}
