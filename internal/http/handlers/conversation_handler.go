// Conversation HTTP handlers.
//
// This file exposes REST endpoints for conversation resources:
//   - POST   /conversations                        (create, seeds system prompt)
//   - GET    /conversations                        (list, ETag support)
//   - GET    /conversations/{sessionID}            (read one)
//   - PATCH  /conversations/{sessionID}            (rename)
//   - DELETE /conversations/{sessionID}            (delete with transcript)
//   - GET    /conversations/{sessionID}/messages   (full transcript, ETag support)
//
// Conversations are addressed by their opaque session handle, never by the
// numeric primary key. Missing and foreign conversations are presented
// identically as 404.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Area51-Labs/Alari-BE/internal/domain"
	"github.com/Area51-Labs/Alari-BE/internal/services"
)

//
// DTOs
//

// CreateConversationRequest is the JSON payload for creating a conversation.
type CreateConversationRequest struct {
	// Title optionally names the conversation; empty is allowed.
	Title string `json:"title" binding:"omitempty,max=255" example:"Morning motivation"`
}

// UpdateConversationRequest is the JSON payload for renaming a conversation.
type UpdateConversationRequest struct {
	// Title is the new conversation name (1–255 chars after normalization).
	Title string `json:"title" binding:"required,min=1,max=255" example:"Sleep routine"`
}

// ConversationResponse is the wire shape of a conversation: the opaque
// session handle plus display metadata and the message count.
type ConversationResponse struct {
	SessionID    string    `json:"session_id" example:"conv-1b9be0349994428f9f03999b042d65d6"`
	Title        string    `json:"title" example:"Morning motivation"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int64     `json:"message_count" example:"3"`
}

// MessageResponse is the wire shape of one transcript entry.
type MessageResponse struct {
	ID        int64     `json:"id" example:"101"`
	Role      string    `json:"role" example:"assistant" enums:"system,user,assistant"`
	Content   string    `json:"content" example:"Let's start with one small step tonight."`
	Keywords  []string  `json:"keywords,omitempty" example:"sleep,routine"`
	CreatedAt time.Time `json:"created_at"`
}

// ListConversationsResponse wraps a conversation listing.
type ListConversationsResponse struct {
	Conversations []ConversationResponse `json:"conversations"`
	Total         int                    `json:"total"`
}

// ListMessagesResponse wraps a full conversation transcript.
type ListMessagesResponse struct {
	Messages []MessageResponse `json:"messages"`
	Total    int               `json:"total"`
}

func toConversationResponse(s services.ConversationSummary) ConversationResponse {
	return ConversationResponse{
		SessionID:    s.Conversation.SessionID,
		Title:        s.Conversation.Title,
		CreatedAt:    s.Conversation.CreatedAt,
		UpdatedAt:    s.Conversation.UpdatedAt,
		MessageCount: s.MessageCount,
	}
}

func toMessageResponse(m domain.Message) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		Role:      m.Role,
		Content:   m.Content,
		Keywords:  m.Keywords,
		CreatedAt: m.CreatedAt,
	}
}

// failConversation maps conversation service errors onto HTTP responses.
func failConversation(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrConversationNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "Conversation not found")
	case errors.Is(err, services.ErrEmptyTitle):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title must contain at least one character")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "conversation operation failed")
	}
}

//
// Handlers
//

// CreateConversation godoc
// @ID          createConversation
// @Summary     Start a conversation
// @Description Creates a conversation for the current user. The coaching system prompt is seeded as its first message, so the returned message_count is 1.
// @Tags        Conversations
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       body  body  handlers.CreateConversationRequest  false  "Optional title"
//
// @Success     201  {object}  handlers.ConversationResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /conversations [post]
func (h *Handlers) CreateConversation(c *gin.Context) {
	uid, authed := currentUser(c)
	if !authed {
		return
	}

	// The body is optional: a bare POST starts an untitled conversation.
	var req CreateConversationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}

	sum, err := h.convs.Create(c.Request.Context(), uid, req.Title)
	if err != nil {
		failConversation(c, err)
		return
	}
	ok(c, http.StatusCreated, toConversationResponse(*sum))
}

// ListConversations godoc
// @ID          listConversations
// @Summary     List conversations
// @Description Returns the user's conversations, most recently updated first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Conversations
// @Produce     json
// @Security    BearerAuth
//
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Param       limit          query   int     false  "Max conversations to return"  minimum(1) maximum(100) default(50)
//
// @Success     200  {object}  handlers.ListConversationsResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /conversations [get]
func (h *Handlers) ListConversations(c *gin.Context) {
	uid, authed := currentUser(c)
	if !authed {
		return
	}
	ctx := c.Request.Context()

	// ETag pre-check (best effort): cheap stats query before the page fetch.
	if count, maxTS, err := h.convs.ListStats(ctx, uid); err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.Unix()
		}
		etag := fmt.Sprintf(`W/"conversations:%d:%d:%d"`, uid, count, ts)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	sums, err := h.convs.List(ctx, uid, queryLimit(c))
	if err != nil {
		failConversation(c, err)
		return
	}

	out := make([]ConversationResponse, 0, len(sums))
	for _, s := range sums {
		out = append(out, toConversationResponse(s))
	}
	ok(c, http.StatusOK, ListConversationsResponse{Conversations: out, Total: len(out)})
}

// GetConversation godoc
// @ID          getConversation
// @Summary     Read a conversation
// @Description Returns one conversation owned by the current user.
// @Tags        Conversations
// @Produce     json
// @Security    BearerAuth
//
// @Param       sessionID  path  string  true  "Conversation session handle"  example(conv-1b9be0349994428f9f03999b042d65d6)
//
// @Success     200  {object}  handlers.ConversationResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     404  {object}  handlers.ErrorResponse  "Conversation not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /conversations/{sessionID} [get]
func (h *Handlers) GetConversation(c *gin.Context) {
	uid, authed := currentUser(c)
	if !authed {
		return
	}

	sum, err := h.convs.Get(c.Request.Context(), uid, c.Param("sessionID"))
	if err != nil {
		failConversation(c, err)
		return
	}
	ok(c, http.StatusOK, toConversationResponse(*sum))
}

// RenameConversation godoc
// @ID          renameConversation
// @Summary     Rename a conversation
// @Description Updates the title of a conversation owned by the current user. The title is whitespace-normalized and title-cased.
// @Tags        Conversations
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       sessionID  path  string  true  "Conversation session handle"
// @Param       body       body  handlers.UpdateConversationRequest  true  "New title"
//
// @Success     200  {object}  handlers.ConversationResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     404  {object}  handlers.ErrorResponse  "Conversation not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /conversations/{sessionID} [patch]
func (h *Handlers) RenameConversation(c *gin.Context) {
	uid, authed := currentUser(c)
	if !authed {
		return
	}

	var req UpdateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title required (1–255 chars)")
		return
	}

	sum, err := h.convs.UpdateTitle(c.Request.Context(), uid, c.Param("sessionID"), req.Title)
	if err != nil {
		failConversation(c, err)
		return
	}
	ok(c, http.StatusOK, toConversationResponse(*sum))
}

// DeleteConversation godoc
// @ID          deleteConversation
// @Summary     Delete a conversation
// @Description Removes a conversation together with its transcript, feedback, and turn receipts.
// @Tags        Conversations
// @Security    BearerAuth
//
// @Param       sessionID  path  string  true  "Conversation session handle"
//
// @Success     204  {string}  string  "No Content"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     404  {object}  handlers.ErrorResponse  "Conversation not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /conversations/{sessionID} [delete]
func (h *Handlers) DeleteConversation(c *gin.Context) {
	uid, authed := currentUser(c)
	if !authed {
		return
	}

	if err := h.convs.Delete(c.Request.Context(), uid, c.Param("sessionID")); err != nil {
		failConversation(c, err)
		return
	}
	noContent(c)
}

// ListConversationMessages godoc
// @ID          listConversationMessages
// @Summary     Read a transcript
// @Description Returns the full ordered transcript of a conversation (system prompt included). Supports weak ETag via If-None-Match and may return 304.
// @Tags        Conversations
// @Produce     json
// @Security    BearerAuth
//
// @Param       sessionID      path    string  true   "Conversation session handle"
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
//
// @Success     200  {object}  handlers.ListMessagesResponse
// @Header      200  {string}  ETag  "Weak ETag for current transcript"
// @Success     304  {string}  string  "Not Modified"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     404  {object}  handlers.ErrorResponse  "Conversation not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /conversations/{sessionID}/messages [get]
func (h *Handlers) ListConversationMessages(c *gin.Context) {
	uid, authed := currentUser(c)
	if !authed {
		return
	}
	ctx := c.Request.Context()
	sessionID := c.Param("sessionID")

	// ETag pre-check doubles as the ownership gate: stats already collapse
	// missing and foreign conversations into not-found.
	count, maxTS, err := h.convs.MessageStats(ctx, uid, sessionID)
	if err != nil {
		failConversation(c, err)
		return
	}
	var ts int64
	if maxTS != nil {
		ts = maxTS.Unix()
	}
	etag := fmt.Sprintf(`W/"messages:%s:%d:%d"`, sessionID, count, ts)
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return
	}

	msgs, err := h.convs.ListMessages(ctx, uid, sessionID)
	if err != nil {
		failConversation(c, err)
		return
	}

	out := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResponse(m))
	}
	ok(c, http.StatusOK, ListMessagesResponse{Messages: out, Total: len(out)})
}
