// Package services – ConversationService
//
// This file implements the ConversationService, which manages the lifecycle
// of conversations: creation (with the seeded system prompt), listing with
// message counts, title updates, and transactional deletion of a conversation
// together with its messages, feedback, and turn receipts.
//
// Service-level errors (e.g. ErrConversationNotFound) are returned for
// predictable cases so handlers can map them to HTTP results consistently.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/Area51-Labs/Alari-BE/internal/domain"
	"github.com/Area51-Labs/Alari-BE/internal/repo"
	"github.com/Area51-Labs/Alari-BE/internal/utils"
)

// DefaultConversationLimit is how many conversations a listing returns when
// the client does not ask for a specific amount.
const DefaultConversationLimit = 50

// MaxListLimit caps any client-requested listing size.
const MaxListLimit = 100

// ConversationSummary pairs a conversation with its message count, the shape
// every conversation read returns.
type ConversationSummary struct {
	Conversation domain.Conversation
	MessageCount int64
}

// ConversationService provides conversation-level operations. Every
// conversation starts life with one system message carrying the coaching
// persona, inserted in the same transaction as the conversation row.
type ConversationService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB

	// SystemPrompt is the persona text seeded as the first message of every
	// new conversation.
	SystemPrompt string

	// TitleMaxLen caps stored titles by rune length.
	TitleMaxLen int

	// titleCaser applies locale-independent title casing on updates.
	titleCaser cases.Caser
}

// NewConversationService constructs a ConversationService with sane defaults
// for title handling.
func NewConversationService(db *gorm.DB, systemPrompt string) *ConversationService {
	return &ConversationService{
		DB:           db,
		SystemPrompt: systemPrompt,
		TitleMaxLen:  255,
		titleCaser:   cases.Title(language.Und),
	}
}

// Create inserts a new conversation owned by userID and seeds the system
// prompt as its first message, atomically. The returned summary therefore
// always reports a message count of one.
func (s *ConversationService) Create(ctx context.Context, userID int64, title string) (*ConversationSummary, error) {
	title = s.clip(collapseSpace(title))

	var conv *domain.Conversation
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := repo.CreateConversation(ctx, tx, userID, title)
		if err != nil {
			return err
		}
		if _, err := repo.CreateMessage(tx, c.ID, domain.RoleSystem, s.SystemPrompt, nil); err != nil {
			return err
		}
		conv = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ConversationSummary{Conversation: *conv, MessageCount: 1}, nil
}

// List returns the user's most recently updated conversations, each with its
// message count. The limit is clamped to [1, MaxListLimit] with
// DefaultConversationLimit applied when the caller passes 0 or less.
func (s *ConversationService) List(ctx context.Context, userID int64, limit int) ([]ConversationSummary, error) {
	if limit <= 0 {
		limit = DefaultConversationLimit
	}
	limit = utils.ClampInt(limit, 1, MaxListLimit)

	convs, err := repo.ListConversations(ctx, s.DB, userID, limit)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(convs))
	for i := range convs {
		ids[i] = convs[i].ID
	}
	counts, err := repo.MessageCountsByConversation(ctx, s.DB, ids)
	if err != nil {
		return nil, err
	}

	out := make([]ConversationSummary, len(convs))
	for i := range convs {
		out[i] = ConversationSummary{
			Conversation: convs[i],
			MessageCount: counts[convs[i].ID],
		}
	}
	return out, nil
}

// Get fetches one conversation by its session handle, scoped to the owner.
// A missing or foreign conversation is ErrConversationNotFound either way.
func (s *ConversationService) Get(ctx context.Context, userID int64, sessionID string) (*ConversationSummary, error) {
	conv, err := repo.GetConversation(ctx, s.DB, sessionID, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	count, err := repo.CountMessages(s.DB.WithContext(ctx), conv.ID)
	if err != nil {
		return nil, err
	}
	return &ConversationSummary{Conversation: *conv, MessageCount: count}, nil
}

// ListMessages returns the full ordered transcript of an owned conversation.
func (s *ConversationService) ListMessages(ctx context.Context, userID int64, sessionID string) ([]domain.Message, error) {
	conv, err := repo.GetConversation(ctx, s.DB, sessionID, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return repo.ListMessages(s.DB.WithContext(ctx), conv.ID, 0)
}

// UpdateTitle normalizes and stores a new title for an owned conversation:
// whitespace is collapsed, the result is title-cased and clipped by rune
// length. A title that normalizes to nothing is ErrEmptyTitle.
func (s *ConversationService) UpdateTitle(ctx context.Context, userID int64, sessionID, title string) (*ConversationSummary, error) {
	title = collapseSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	title = s.clip(s.titleCaser.String(title))

	if err := repo.UpdateConversationTitle(ctx, s.DB, sessionID, userID, title); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return s.Get(ctx, userID, sessionID)
}

// Delete removes an owned conversation together with its feedback, messages,
// and turn receipts in one transaction, so a half-deleted conversation can
// never be observed.
func (s *ConversationService) Delete(ctx context.Context, userID int64, sessionID string) error {
	conv, err := repo.GetConversation(ctx, s.DB, sessionID, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrConversationNotFound
		}
		return err
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.DeleteFeedbackForMessages(tx, conv.ID); err != nil {
			return err
		}
		if err := repo.DeleteMessages(tx, conv.ID); err != nil {
			return err
		}
		if err := repo.DeleteTurnReceipts(tx, conv.SessionID); err != nil {
			return err
		}
		return repo.DeleteConversationRow(tx, conv.ID)
	})
}

// ListStats returns the aggregate (count, most recent update) for the user's
// conversations. Handlers derive weak ETags from it.
func (s *ConversationService) ListStats(ctx context.Context, userID int64) (int64, *time.Time, error) {
	return repo.ConversationsStats(ctx, s.DB, userID)
}

// MessageStats returns the aggregate (count, most recent message) for one
// owned conversation. Handlers derive weak ETags from it.
func (s *ConversationService) MessageStats(ctx context.Context, userID int64, sessionID string) (int64, *time.Time, error) {
	conv, err := repo.GetConversation(ctx, s.DB, sessionID, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return 0, nil, ErrConversationNotFound
		}
		return 0, nil, err
	}
	return repo.MessagesStats(ctx, s.DB, conv.ID)
}

// clip truncates a title to the configured maximum rune length.
func (s *ConversationService) clip(title string) string {
	if s.TitleMaxLen > 0 && utf8.RuneCountInString(title) > s.TitleMaxLen {
		return string([]rune(title)[:s.TitleMaxLen])
	}
	return title
}

// collapseSpace trims a string and collapses runs of whitespace to one space.
func collapseSpace(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)
