// Feedback HTTP handlers.
//
// This file exposes the REST endpoint for rating assistant messages:
//   - POST /conversations/{sessionID}/messages/{messageID}/feedback
//
// Feedback values are constrained to {-1, +1} to represent negative/positive
// reactions. Only assistant messages inside a conversation owned by the
// caller can be rated, and each caller can rate a given message once.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Area51-Labs/Alari-BE/internal/services"
)

// LeaveFeedbackRequest is the JSON payload for rating a message.
//
// Value must be one of:
//   - +1 : positive feedback
//   - -1 : negative feedback
//
// The binding tag enforces the domain constraint at the transport layer.
type LeaveFeedbackRequest struct {
	// Value is the feedback signal: +1 (positive) or -1 (negative).
	Value int `json:"value" binding:"required,oneof=-1 1" example:"1"`
}

// LeaveFeedback godoc
// @ID          leaveFeedback
// @Summary     Rate an assistant message
// @Description Records positive (+1) or negative (-1) feedback for an assistant message in one of the caller's conversations. A second rating on the same message is rejected.
// @Tags        Feedback
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       sessionID  path  string  true  "Conversation session handle"
// @Param       messageID  path  int     true  "Message ID"  example(101)
// @Param       body       body  handlers.LeaveFeedbackRequest  true  "Feedback payload"
//
// @Success     201  {object}  domain.MessageFeedback
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid payload or non-assistant message"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     404  {object}  handlers.ErrorResponse  "Conversation or message not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Feedback already exists"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal server error"
// @Router      /conversations/{sessionID}/messages/{messageID}/feedback [post]
func (h *Handlers) LeaveFeedback(c *gin.Context) {
	uid, authed := currentUser(c)
	if !authed {
		return
	}
	messageID, okID := pathID(c, "messageID")
	if !okID {
		return
	}

	var req LeaveFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "value must be -1 or 1")
		return
	}

	fb, err := h.feedback.Leave(c.Request.Context(), uid, c.Param("sessionID"), messageID, req.Value)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrConversationNotFound), errors.Is(err, services.ErrMessageNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "Message not found")
		case errors.Is(err, services.ErrInvalidFeedback):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "value must be -1 or 1")
		case errors.Is(err, services.ErrFeedbackNotAllowed):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "only assistant messages can be rated")
		case errors.Is(err, services.ErrFeedbackExists):
			fail(c, http.StatusConflict, ErrCodeConflict, "feedback already exists")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not record feedback")
		}
		return
	}

	ok(c, http.StatusCreated, fb)
}
