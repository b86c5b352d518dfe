// Chat turn HTTP handlers.
//
// This file exposes the two chat endpoints:
//   - POST /chat/{sessionID}         (buffered turn)
//   - POST /chat/{sessionID}/stream  (streaming turn, text/plain chunks)
//
// The buffered endpoint returns the committed user/assistant pair as JSON
// and honors the Idempotency-Key header: replaying a key returns the
// originally persisted pair without contacting the inference service. The
// streaming endpoint writes raw text chunks with a flush after each one;
// once the first chunk is on the wire the status can no longer change, so
// mid-stream upstream failures arrive in-band as a trailing
// "\n[ERROR: ...]" marker instead of an error status.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Area51-Labs/Alari-BE/internal/http/middleware"
	"github.com/Area51-Labs/Alari-BE/internal/inference"
	"github.com/Area51-Labs/Alari-BE/internal/services"
)

//
// DTOs
//

// TurnRequest is the JSON payload for both chat endpoints.
type TurnRequest struct {
	// Message is the user utterance for this turn.
	Message string `json:"message" binding:"required" example:"I keep doomscrolling way past midnight"`
	// MaxTokens bounds the reply length; defaults to 512 when omitted.
	// omitnil (not omitempty) so an explicit 0 still fails validation.
	MaxTokens *int `json:"max_tokens" binding:"omitnil,min=1,max=4096" example:"512"`
	// Temperature tunes sampling; defaults to 0.7 when omitted. Zero is a
	// valid explicit value, hence the pointer.
	Temperature *float64 `json:"temperature" binding:"omitnil,min=0,max=2" example:"0.7"`
}

// ChatResponse is the result of one buffered chat turn.
type ChatResponse struct {
	SessionID        string          `json:"session_id" example:"conv-1b9be0349994428f9f03999b042d65d6"`
	UserMessage      MessageResponse `json:"user_message"`
	AssistantMessage MessageResponse `json:"assistant_message"`
	// Usage carries upstream token accounting; empty on idempotent replays.
	Usage map[string]any `json:"usage"`
}

// turnParams applies the documented defaults for omitted tuning fields.
func turnParams(req TurnRequest) (maxTokens int, temperature float64) {
	maxTokens = services.DefaultMaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}
	temperature = services.DefaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	return
}

// failTurn maps chat-turn errors onto HTTP responses. Used only before any
// response bytes have been written.
func failTurn(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEmptyMessage):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message must contain at least one character")
	case errors.Is(err, services.ErrMessageTooLong):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message exceeds the maximum length")
	case errors.Is(err, services.ErrConversationNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "Conversation not found")
	case errors.Is(err, services.ErrTurnConflict):
		fail(c, http.StatusConflict, ErrCodeConflict, "a turn with this idempotency key was just recorded; retry to fetch it")
	case inference.IsTimeout(err):
		fail(c, http.StatusGatewayTimeout, ErrCodeUpstreamTimeout, "the coaching service took too long to respond")
	case inference.IsUnavailable(err):
		fail(c, http.StatusServiceUnavailable, ErrCodeUpstreamUnavailable, "the coaching service is unreachable")
	default:
		if _, isProto := inference.AsProtocolError(err); isProto {
			fail(c, http.StatusServiceUnavailable, ErrCodeUpstreamUnavailable, "the coaching service returned an unexpected response")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not complete the chat turn")
	}
}

//
// Handlers
//

// SendTurn godoc
// @ID          sendTurn
// @Summary     Send a chat message (buffered)
// @Description Runs one buffered chat turn: the utterance and the assistant reply are committed together once the inference service has answered. A failed upstream call leaves the transcript untouched. Supply an Idempotency-Key header to make retries safe; replaying a key returns the recorded pair with empty usage.
// @Tags        Chat
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       sessionID        path    string  true   "Conversation session handle"
// @Param       Idempotency-Key  header  string  false  "Client-chosen retry key (opaque, max 200 chars)"
// @Param       body             body    handlers.TurnRequest  true  "Turn payload"
//
// @Success     200  {object}  handlers.ChatResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     404  {object}  handlers.ErrorResponse  "Conversation not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Concurrent turn with the same idempotency key"
// @Failure     503  {object}  handlers.ErrorResponse  "Inference service unavailable"
// @Failure     504  {object}  handlers.ErrorResponse  "Inference service timeout"
// @Router      /chat/{sessionID} [post]
func (h *Handlers) SendTurn(c *gin.Context) {
	uid, authed := currentUser(c)
	if !authed {
		return
	}

	var req TurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required")
		return
	}
	maxTokens, temperature := turnParams(req)
	idemKey, _ := middleware.GetIdempotencyKey(c)

	res, err := h.turns.Send(
		c.Request.Context(),
		uid,
		c.Param("sessionID"),
		req.Message,
		maxTokens,
		temperature,
		idemKey,
	)
	if err != nil {
		failTurn(c, err)
		return
	}

	usage := res.Usage
	if usage == nil {
		usage = map[string]any{}
	}
	ok(c, http.StatusOK, ChatResponse{
		SessionID:        res.SessionID,
		UserMessage:      toMessageResponse(res.UserMessage),
		AssistantMessage: toMessageResponse(res.AssistantMessage),
		Usage:            usage,
	})
}

// StreamTurn godoc
// @ID          streamTurn
// @Summary     Send a chat message (streamed)
// @Description Runs one streaming chat turn. The user message is persisted up front, then raw text chunks are written as they arrive from the inference service, flushed per chunk. On a mid-stream upstream failure a final "\n[ERROR: ...]" line is written in-band. The accumulated assistant text is persisted after the stream ends (also when the client disconnects early); nothing is persisted when no text arrived.
// @Tags        Chat
// @Accept      json
// @Produce     plain
// @Security    BearerAuth
//
// @Param       sessionID  path  string  true  "Conversation session handle"
// @Param       body       body  handlers.TurnRequest  true  "Turn payload"
//
// @Success     200  {string}  string  "Raw assistant text chunks"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     404  {object}  handlers.ErrorResponse  "Conversation not found"
// @Failure     503  {object}  handlers.ErrorResponse  "Inference service unavailable"
// @Failure     504  {object}  handlers.ErrorResponse  "Inference service timeout"
// @Router      /chat/{sessionID}/stream [post]
func (h *Handlers) StreamTurn(c *gin.Context) {
	uid, authed := currentUser(c)
	if !authed {
		return
	}

	var req TurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required")
		return
	}
	maxTokens, temperature := turnParams(req)

	wroteAny := false
	deliver := func(chunk string) error {
		if !wroteAny {
			// Headers go out with the first chunk; after this point the
			// status is fixed at 200.
			c.Header("Content-Type", "text/plain; charset=utf-8")
			c.Header("Cache-Control", "no-cache")
			c.Status(http.StatusOK)
			wroteAny = true
		}
		if _, err := c.Writer.WriteString(chunk); err != nil {
			return err
		}
		c.Writer.Flush()
		return nil
	}

	res, err := h.turns.Stream(
		c.Request.Context(),
		uid,
		c.Param("sessionID"),
		req.Message,
		maxTokens,
		temperature,
		deliver,
	)
	if err != nil {
		// Pre-stream failure: nothing has been written, a JSON error is
		// still possible.
		failTurn(c, err)
		return
	}

	// Upstream answered with zero chunks: a valid, empty 200.
	if !wroteAny {
		c.Header("Content-Type", "text/plain; charset=utf-8")
		c.Status(http.StatusOK)
	}

	// The stream already ended; failures here can only be logged.
	lg := middleware.LoggerFrom(c)
	if res.UpstreamErr != nil {
		lg.Warn().Err(res.UpstreamErr).Str("session_id", c.Param("sessionID")).Msg("stream ended on upstream error")
	}
	if res.ClientGone {
		lg.Info().Str("session_id", c.Param("sessionID")).Msg("client disconnected mid-stream")
	}
	if res.PersistErr != nil {
		lg.Error().Err(res.PersistErr).Str("session_id", c.Param("sessionID")).Msg("failed to persist streamed assistant message")
	}
}
