// Package services – FeedbackService
//
// This file implements the FeedbackService, which governs how users rate
// assistant messages (-1 or +1). It enforces the business rules (message
// existence, conversation ownership, assistant-only restriction, uniqueness)
// and persists feedback atomically. Service-level errors (ErrInvalidFeedback,
// ErrMessageNotFound, ErrFeedbackNotAllowed, ErrFeedbackExists) are returned
// for predictable cases so handlers can map them to HTTP results
// consistently.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Area51-Labs/Alari-BE/internal/domain"
	"github.com/Area51-Labs/Alari-BE/internal/repo"
)

// FeedbackService implements the use-cases around message feedback.
type FeedbackService struct {
	// DB is the database handle used for all feedback operations.
	DB *gorm.DB
}

// Leave records a feedback value for a message addressed through its
// conversation, on behalf of userID.
//
// Semantics and validation:
//   - value must be exactly -1 or 1; otherwise ErrInvalidFeedback.
//   - The conversation must exist and be owned by userID, and the message
//     must belong to it; otherwise ErrMessageNotFound (ownership and
//     existence are indistinguishable by design).
//   - Feedback is allowed only on assistant messages; anything else is
//     ErrFeedbackNotAllowed.
//   - A user may rate a given message at most once; a second attempt is
//     ErrFeedbackExists.
//
// The checks and the insert run inside one transaction so a racing delete
// cannot leave feedback pointing at a vanished message.
func (s *FeedbackService) Leave(ctx context.Context, userID int64, sessionID string, messageID int64, value int) (*domain.MessageFeedback, error) {
	if value != -1 && value != 1 {
		return nil, ErrInvalidFeedback
	}

	var fb *domain.MessageFeedback
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conv, err := repo.GetConversation(ctx, tx, sessionID, userID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrMessageNotFound
			}
			return err
		}

		msg, err := repo.GetMessage(tx, messageID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrMessageNotFound
			}
			return err
		}
		if msg.ConversationID != conv.ID {
			return ErrMessageNotFound
		}

		if msg.Role != domain.RoleAssistant {
			return ErrFeedbackNotAllowed
		}

		f, err := repo.CreateFeedback(tx, messageID, userID, value)
		if err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return ErrFeedbackExists
			}
			return err
		}
		fb = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fb, nil
}
