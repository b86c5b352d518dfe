// Package services – ChatService
//
// This file implements the ChatService, the orchestrator of a chat turn: it
// authorizes the conversation, assembles the dialogue history, calls the
// inference service, and persists the resulting messages.
//
// The two modes make different durability promises:
//
//   - Send (buffered): nothing is written until the upstream reply is in
//     hand, then the user message, the assistant message, and the
//     conversation timestamp commit in one transaction. A failed upstream
//     call leaves no trace of the turn.
//   - Stream: the user message is made durable first, then chunks are
//     forwarded to the caller as they arrive while being accumulated. The
//     accumulated text is persisted as the assistant message only when
//     non-empty, even if the client disconnected mid-stream.
//
// Observability: both entry points are OpenTelemetry-instrumented; spans
// carry conversation and user identifiers.
package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/Area51-Labs/Alari-BE/internal/domain"
	"github.com/Area51-Labs/Alari-BE/internal/inference"
	"github.com/Area51-Labs/Alari-BE/internal/keywords"
	"github.com/Area51-Labs/Alari-BE/internal/repo"
)

// Turn parameter defaults, applied by the HTTP layer when the client omits
// them.
const (
	DefaultMaxTokens   = 512
	DefaultTemperature = 0.7
)

// ErrTurnConflict is returned when a concurrent request holding the same
// Idempotency-Key committed its turn first. The client can retry the request
// to receive the recorded result.
var ErrTurnConflict = errors.New("turn already recorded for this idempotency key")

// InferenceClient is the upstream surface the chat service depends on. The
// production implementation is inference.Client.
type InferenceClient interface {
	// Complete performs one buffered completion over the full history.
	Complete(ctx context.Context, history []inference.Message, maxTokens int, temperature float64) (*inference.Completion, error)

	// StreamComplete opens a streaming completion; see inference.Client.
	StreamComplete(ctx context.Context, history []inference.Message, maxTokens int, temperature float64) (<-chan inference.Chunk, error)
}

var _ InferenceClient = (*inference.Client)(nil)

// TurnResult carries the persisted message pair and upstream usage accounting
// for one buffered turn.
type TurnResult struct {
	SessionID        string
	UserMessage      domain.Message
	AssistantMessage domain.Message
	Usage            map[string]any

	// Replayed is true when the turn was served from a stored receipt
	// instead of a fresh inference call. Usage is empty in that case.
	Replayed bool
}

// StreamResult summarizes a streaming turn after the stream has ended.
type StreamResult struct {
	UserMessage      domain.Message
	AssistantMessage *domain.Message // nil when nothing was accumulated

	// UpstreamErr is the mid-stream failure that was delivered in-band as
	// an [ERROR: ...] marker, if any.
	UpstreamErr error

	// ClientGone is true when forwarding stopped because the client went
	// away. Accumulated text is persisted regardless.
	ClientGone bool

	// PersistErr reports a failure to write the accumulated assistant text.
	// The stream itself already ended at that point; callers can only log.
	PersistErr error
}

// ChatService orchestrates chat turns against the inference service.
type ChatService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB

	// Inference is the upstream completion client.
	Inference InferenceClient

	// Keywords extracts searchable keywords from user utterances. When nil,
	// the package-level default extractor is used.
	Keywords *keywords.Extractor

	// MaxMessageRunes caps user utterances by rune length. Zero disables
	// the cap.
	MaxMessageRunes int

	// ReceiptTTL bounds how long a recorded turn can be replayed through
	// its Idempotency-Key. Zero falls back to 24h.
	ReceiptTTL time.Duration
}

// Send executes one buffered chat turn: validate the utterance, authorize the
// conversation, call the inference service with the full history plus the new
// utterance, then commit the user/assistant pair atomically.
//
// When idemKey is non-empty the committed turn is recorded as a receipt in
// the same transaction; a later call with the same key returns the persisted
// pair (Replayed=true, empty usage) without contacting the upstream.
//
// Errors:
//   - ErrEmptyMessage / ErrMessageTooLong for invalid utterances.
//   - ErrConversationNotFound when the conversation is missing or foreign.
//   - the inference package's typed errors when the upstream call fails;
//     nothing has been written in that case.
//   - ErrTurnConflict when a concurrent request committed the same key first.
func (s *ChatService) Send(ctx context.Context, userID int64, sessionID, message string, maxTokens int, temperature float64, idemKey string) (*TurnResult, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "Send",
		trace.WithAttributes(
			attribute.String("conversation.id", sessionID),
			attribute.Int64("user.id", userID),
		),
	)
	defer span.End()

	message, err := s.validUtterance(message)
	if err != nil {
		return nil, err
	}

	conv, err := s.authorize(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	if idemKey != "" {
		res, err := s.replay(ctx, userID, conv, idemKey)
		if err != nil {
			return nil, err
		}
		if res != nil {
			return res, nil
		}
	}

	history, err := s.history(ctx, conv.ID)
	if err != nil {
		return nil, err
	}
	history = append(history, inference.Message{Role: domain.RoleUser, Content: message})

	completion, err := s.Inference.Complete(ctx, history, maxTokens, temperature)
	if err != nil {
		// Typed upstream error; no rows were written for this turn.
		return nil, err
	}

	kw := s.extract(message)
	now := time.Now().UTC()

	var userMsg, assistantMsg *domain.Message
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		um, err := repo.CreateMessage(tx, conv.ID, domain.RoleUser, message, kw)
		if err != nil {
			return err
		}
		am, err := repo.CreateMessage(tx, conv.ID, domain.RoleAssistant, completion.Text, nil)
		if err != nil {
			return err
		}
		if err := repo.TouchConversation(tx, conv.ID, now); err != nil {
			return err
		}
		if idemKey != "" {
			if _, err := repo.CreateTurnReceipt(tx, userID, conv.SessionID, idemKey,
				um.ID, am.ID, http.StatusOK, s.receiptTTL()); err != nil {
				if errors.Is(err, repo.ErrDuplicate) {
					return ErrTurnConflict
				}
				return err
			}
		}
		userMsg, assistantMsg = um, am
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &TurnResult{
		SessionID:        conv.SessionID,
		UserMessage:      *userMsg,
		AssistantMessage: *assistantMsg,
		Usage:            completion.Usage,
	}, nil
}

// Stream executes one streaming chat turn. The user message is persisted
// before the upstream is contacted, so it survives any later failure. Each
// arriving chunk is handed to deliver and accumulated; when the stream ends,
// the accumulated text is persisted as the assistant message iff non-empty.
//
// deliver is called once per chunk and should write it to the client; a
// non-nil return tells the service the client is gone, which stops
// forwarding but not persistence (the final write runs on a detached
// context).
//
// A mid-stream upstream failure is delivered in-band as "\n[ERROR: ...]" and
// reported in StreamResult.UpstreamErr; the chunks received until then are
// still persisted.
//
// An error is returned only for failures before any chunk could flow
// (validation, authorization, user-message write, stream open). In the
// stream-open case the user message has already been persisted.
func (s *ChatService) Stream(ctx context.Context, userID int64, sessionID, message string, maxTokens int, temperature float64, deliver func(chunk string) error) (*StreamResult, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "Stream",
		trace.WithAttributes(
			attribute.String("conversation.id", sessionID),
			attribute.Int64("user.id", userID),
		),
	)
	defer span.End()

	message, err := s.validUtterance(message)
	if err != nil {
		return nil, err
	}

	conv, err := s.authorize(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	// The utterance is durable before any upstream contact.
	var userMsg *domain.Message
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		um, err := repo.CreateMessage(tx, conv.ID, domain.RoleUser, message, s.extract(message))
		if err != nil {
			return err
		}
		userMsg = um
		return repo.TouchConversation(tx, conv.ID, time.Now().UTC())
	})
	if err != nil {
		return nil, err
	}

	history, err := s.history(ctx, conv.ID) // includes the message just written
	if err != nil {
		return nil, err
	}

	sctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch, err := s.Inference.StreamComplete(sctx, history, maxTokens, temperature)
	if err != nil {
		// Failed before the first byte: the user message stays, no
		// assistant row is ever created.
		return nil, err
	}

	res := &StreamResult{UserMessage: *userMsg}
	var acc strings.Builder
	for chunk := range ch {
		if chunk.Err != nil {
			res.UpstreamErr = chunk.Err
			// Best effort; the client may be gone already.
			_ = deliver("\n[ERROR: " + chunk.Err.Error() + "]")
			break
		}
		acc.WriteString(chunk.Content)
		if err := deliver(chunk.Content); err != nil {
			res.ClientGone = true
			break
		}
	}
	cancel() // release the upstream goroutine if we broke out early

	if text := acc.String(); text != "" {
		// The request context may already be canceled (client disconnect);
		// the accumulated text is persisted regardless.
		pctx := context.WithoutCancel(ctx)
		res.PersistErr = s.DB.WithContext(pctx).Transaction(func(tx *gorm.DB) error {
			am, err := repo.CreateMessage(tx, conv.ID, domain.RoleAssistant, text, nil)
			if err != nil {
				return err
			}
			res.AssistantMessage = am
			return repo.TouchConversation(tx, conv.ID, time.Now().UTC())
		})
		if res.PersistErr != nil {
			res.AssistantMessage = nil
		}
	}

	return res, nil
}

// validUtterance trims and bounds-checks a user utterance.
func (s *ChatService) validUtterance(message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}
	if s.MaxMessageRunes > 0 && utf8.RuneCountInString(message) > s.MaxMessageRunes {
		return "", ErrMessageTooLong
	}
	return message, nil
}

// authorize resolves the session handle to a conversation owned by userID.
// Missing and foreign conversations are indistinguishable by design.
func (s *ChatService) authorize(ctx context.Context, userID int64, sessionID string) (*domain.Conversation, error) {
	conv, err := repo.GetConversation(ctx, s.DB, sessionID, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return conv, nil
}

// replay serves a previously recorded turn for the given key, or (nil, nil)
// when no valid receipt exists.
func (s *ChatService) replay(ctx context.Context, userID int64, conv *domain.Conversation, key string) (*TurnResult, error) {
	rec, err := repo.GetTurnReceipt(ctx, s.DB, userID, conv.SessionID, key, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	um, err := repo.GetMessage(s.DB.WithContext(ctx), rec.UserMessageID)
	if err != nil {
		return nil, err
	}
	am, err := repo.GetMessage(s.DB.WithContext(ctx), rec.AssistantMessageID)
	if err != nil {
		return nil, err
	}

	return &TurnResult{
		SessionID:        conv.SessionID,
		UserMessage:      *um,
		AssistantMessage: *am,
		Usage:            map[string]any{},
		Replayed:         true,
	}, nil
}

// history loads the ordered transcript in the inference wire shape.
func (s *ChatService) history(ctx context.Context, conversationID int64) ([]inference.Message, error) {
	msgs, err := repo.ListMessages(s.DB.WithContext(ctx), conversationID, 0)
	if err != nil {
		return nil, err
	}
	out := make([]inference.Message, 0, len(msgs)+1)
	for _, m := range msgs {
		out = append(out, inference.Message{Role: m.Role, Content: m.Content})
	}
	return out, nil
}

// extract pulls keywords from a user utterance.
func (s *ChatService) extract(text string) []string {
	if s.Keywords != nil {
		return s.Keywords.Extract(text, keywords.DefaultMax)
	}
	return keywords.Extract(text, keywords.DefaultMax)
}

// receiptTTL returns the configured receipt lifetime with a 24h fallback.
func (s *ChatService) receiptTTL() time.Duration {
	if s.ReceiptTTL > 0 {
		return s.ReceiptTTL
	}
	return 24 * time.Hour
}
